package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/fadarc-site-backend/database"
	"github.com/rpupo63/fadarc-site-backend/errs"
	"github.com/rpupo63/fadarc-site-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type blogPostHandler struct {
	responder    Responder
	logger       zerolog.Logger
	blogPostRepo database.BlogPostRepository
}

func newBlogPostHandler(blogPostRepo database.BlogPostRepository) blogPostHandler {
	logger := log.With().Str("handlerName", "blogPostHandler").Logger()

	return blogPostHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		blogPostRepo: blogPostRepo,
	}
}

// createBlogPostRequest is the body of POST /api/blog. Published defaults to true.
type createBlogPostRequest struct {
	Title     string  `json:"title" validate:"required,max=300"`
	Content   string  `json:"content" validate:"required"`
	Excerpt   string  `json:"excerpt" validate:"required,max=1000"`
	ImageURL  *string `json:"imageUrl"`
	Category  string  `json:"category" validate:"max=100"`
	Published *bool   `json:"published"`
}

func (req *createBlogPostRequest) normalize() {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	req.Excerpt = strings.TrimSpace(req.Excerpt)
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		req.Category = models.DefaultBlogCategory
	}
	req.ImageURL = blankToNil(req.ImageURL)
}

func (req createBlogPostRequest) toModel() models.BlogPost {
	published := true
	if req.Published != nil {
		published = *req.Published
	}
	return models.BlogPost{
		Title:     req.Title,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		ImageURL:  req.ImageURL,
		Category:  req.Category,
		Published: published,
	}
}

// updateBlogPostRequest applies the create length limits to the fields a PUT body sent.
type updateBlogPostRequest struct {
	Title    *string `json:"title" validate:"omitempty,max=300"`
	Excerpt  *string `json:"excerpt" validate:"omitempty,max=1000"`
	Category *string `json:"category" validate:"omitempty,max=100"`
}

// normalizePatch trims provided text fields and rejects any required field sent blank or too long.
func normalizePatch(patch *models.BlogPostPatch) error {
	required := []struct {
		name  string
		value *string
	}{
		{"title", patch.Title},
		{"content", patch.Content},
		{"excerpt", patch.Excerpt},
	}
	for _, f := range required {
		if f.value == nil {
			continue
		}
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return errs.NewMissingRequiredFieldError(f.name)
		}
	}

	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if category == "" {
			category = models.DefaultBlogCategory
		}
		patch.Category = &category
	}
	if patch.ImageURL != nil {
		trimmed := strings.TrimSpace(*patch.ImageURL)
		patch.ImageURL = &trimmed
	}
	return validateRequest(updateBlogPostRequest{
		Title:    patch.Title,
		Excerpt:  patch.Excerpt,
		Category: patch.Category,
	})
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// parseID reads a positive integer path parameter. Malformed ids are a 400, never a 404.
func parseID(r *http.Request, param, entity string) (int64, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return 0, errs.NewBadRequestError("missing " + entity + " id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewInvalidFieldError("id", "invalid "+entity+" id")
	}
	return id, nil
}

// getPublishedBlogPosts lists published posts only, ordered by id
func (h blogPostHandler) getPublishedBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPosts, err := h.blogPostRepo.FindPublished(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog posts", err))
			return
		}

		h.responder.WriteJSON(w, blogPosts)
	}
}

// getBlogPost returns a post by id whatever its publish state
func (h blogPostHandler) getBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPostID, err := parseID(r, "blogPostID", "blog post")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost, err := h.blogPostRepo.FindByID(r.Context(), blogPostID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog post", err))
			return
		}

		h.responder.WriteJSON(w, blogPost)
	}
}

func (h blogPostHandler) createBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBlogPostRequest
		if err := decodeJSON(r, "blog post", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		req.normalize()
		if err := validateRequest(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost := req.toModel()
		if err := h.blogPostRepo.Create(r.Context(), &blogPost); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "blog post", err))
			return
		}

		h.logger.Info().Int64("blogPostId", blogPost.ID).Bool("published", blogPost.Published).Msg("blog post created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, blogPost)
	}
}

// updateBlogPost merges the provided fields onto the stored post
func (h blogPostHandler) updateBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPostID, err := parseID(r, "blogPostID", "blog post")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var patch models.BlogPostPatch
		if err := decodeJSON(r, "blog post", &patch); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := normalizePatch(&patch); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost, err := h.blogPostRepo.Update(r.Context(), blogPostID, patch)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "blog post", err))
			return
		}

		h.logger.Info().Int64("blogPostId", blogPost.ID).Msg("blog post updated")
		h.responder.WriteJSON(w, blogPost)
	}
}

func (h blogPostHandler) deleteBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPostID, err := parseID(r, "blogPostID", "blog post")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		removed, err := h.blogPostRepo.Delete(r.Context(), blogPostID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "blog post", err))
			return
		}
		if !removed {
			h.responder.WriteError(w, errs.NewNotFoundError("blog post not found"))
			return
		}

		h.logger.Info().Int64("blogPostId", blogPostID).Msg("blog post deleted")
		h.responder.WriteJSON(w, MessageResponse{Message: "Blog post deleted successfully"})
	}
}
