package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/fadarc-site-backend/models"
)

const (
	MaxImageBytes   = 5 << 20
	DefaultCategory = "General"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image exceeds 5MB")
)

// FormError reports a blank required field. No request is sent.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string { return e.Message }

type FormState struct {
	Title     string
	Content   string
	Excerpt   string
	ImageURL  string
	Category  string
	Published bool
}

func emptyForm() FormState {
	return FormState{Published: true}
}

// UploadOutcome is delivered once per image selection.
// Stale is set when a newer selection replaced this one before it finished.
type UploadOutcome struct {
	ImageURL string
	Err      error
	Stale    bool
}

// BlogWorkflow is the admin panel's blog editor: form state, the post listing, the image preview and the session.
type BlogWorkflow struct {
	client *Client
	toasts *ToastTray

	mu        sync.Mutex
	form      FormState
	editingID int64
	preview   string
	uploadGen uint64
	uploading bool
	admin     bool

	posts      []models.BlogPost
	postsValid bool
	postsGen   uint64
}

func NewBlogWorkflow(c *Client, toasts *ToastTray) *BlogWorkflow {
	if toasts == nil {
		toasts = NewToastTray(DefaultToastTTL)
	}
	return &BlogWorkflow{client: c, toasts: toasts, form: emptyForm()}
}

func (w *BlogWorkflow) Toasts() *ToastTray { return w.toasts }

func (w *BlogWorkflow) Form() FormState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// UpdateForm applies edit to the form under the workflow lock.
func (w *BlogWorkflow) UpdateForm(edit func(*FormState)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	edit(&w.form)
}

// Editing returns the id of the post being edited, or 0 while composing a new one.
func (w *BlogWorkflow) Editing() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editingID
}

func (w *BlogWorkflow) Preview() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.preview
}

func (w *BlogWorkflow) Uploading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.uploading
}

func (w *BlogWorkflow) IsAdmin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.admin
}

// Reset clears the form and drops any in-flight upload result.
func (w *BlogWorkflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

func (w *BlogWorkflow) resetLocked() {
	w.form = emptyForm()
	w.editingID = 0
	w.preview = ""
	w.uploadGen++
	w.uploading = false
}

// BeginEdit loads post into the form.
func (w *BlogWorkflow) BeginEdit(post models.BlogPost) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
	w.editingID = post.ID
	w.form = FormState{
		Title:     post.Title,
		Content:   post.Content,
		Excerpt:   post.Excerpt,
		Category:  post.Category,
		Published: post.Published,
	}
	if post.ImageURL != nil {
		w.form.ImageURL = *post.ImageURL
		w.preview = *post.ImageURL
	}
}

// Posts returns the published listing, fetching only when the cached copy was invalidated.
func (w *BlogWorkflow) Posts(ctx context.Context) ([]models.BlogPost, error) {
	w.mu.Lock()
	if w.postsValid {
		out := make([]models.BlogPost, len(w.posts))
		copy(out, w.posts)
		w.mu.Unlock()
		return out, nil
	}
	gen := w.postsGen
	w.mu.Unlock()

	posts, err := w.client.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blog posts: %w", err)
	}

	// a mutation during the fetch leaves the listing invalid
	w.mu.Lock()
	if gen == w.postsGen {
		w.posts = posts
		w.postsValid = true
	}
	w.mu.Unlock()

	out := make([]models.BlogPost, len(posts))
	copy(out, posts)
	return out, nil
}

func (w *BlogWorkflow) InvalidatePosts() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.invalidateLocked()
}

func (w *BlogWorkflow) invalidateLocked() {
	w.postsValid = false
	w.postsGen++
}

func checkForm(f FormState) error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return &FormError{Field: "title", Message: "Please enter a title."}
	case strings.TrimSpace(f.Content) == "":
		return &FormError{Field: "content", Message: "Please enter content."}
	case strings.TrimSpace(f.Excerpt) == "":
		return &FormError{Field: "excerpt", Message: "Please enter an excerpt."}
	}
	return nil
}

// Submit creates a new post or updates the one being edited.
// On success the listing is invalidated and the form reset.
func (w *BlogWorkflow) Submit(ctx context.Context) (*models.BlogPost, error) {
	w.mu.Lock()
	form := w.form
	editingID := w.editingID
	w.mu.Unlock()

	if err := checkForm(form); err != nil {
		w.toasts.Error(err.Error())
		return nil, err
	}

	title := strings.TrimSpace(form.Title)
	content := strings.TrimSpace(form.Content)
	excerpt := strings.TrimSpace(form.Excerpt)
	imageURL := strings.TrimSpace(form.ImageURL)
	category := strings.TrimSpace(form.Category)
	if category == "" {
		category = DefaultCategory
	}
	published := form.Published

	var (
		post *models.BlogPost
		err  error
		verb = "create"
	)
	if editingID != 0 {
		verb = "update"
		post, err = w.client.UpdatePost(ctx, editingID, models.BlogPostPatch{
			Title:     &title,
			Content:   &content,
			Excerpt:   &excerpt,
			ImageURL:  &imageURL,
			Category:  &category,
			Published: &published,
		})
	} else {
		post, err = w.client.CreatePost(ctx, BlogPostInput{
			Title:     title,
			Content:   content,
			Excerpt:   excerpt,
			ImageURL:  &imageURL,
			Category:  category,
			Published: published,
		})
	}
	if err != nil {
		log.Error().Err(err).Str("action", verb).Int64("postId", editingID).Msg("blog post mutation failed")
		w.toasts.Error(fmt.Sprintf("Failed to %s blog post: %s", verb, err.Error()))
		return nil, err
	}

	w.mu.Lock()
	w.invalidateLocked()
	w.resetLocked()
	w.mu.Unlock()

	w.toasts.Success(fmt.Sprintf("Blog post %sd successfully!", verb))
	return post, nil
}

func (w *BlogWorkflow) Delete(ctx context.Context, id int64) error {
	if err := w.client.DeletePost(ctx, id); err != nil {
		w.toasts.Error(fmt.Sprintf("Failed to delete blog post: %s", err.Error()))
		return err
	}

	w.mu.Lock()
	w.invalidateLocked()
	if w.editingID == id {
		w.resetLocked()
	}
	w.mu.Unlock()

	w.toasts.Success("Blog post deleted successfully!")
	return nil
}

// CheckImage applies the local type and size limits.
func CheckImage(mimeType string, size int) error {
	if !allowedImageTypes[strings.ToLower(mimeType)] {
		return ErrUnsupportedImage
	}
	if size > MaxImageBytes {
		return ErrImageTooLarge
	}
	return nil
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// SelectImage shows a local preview at once and uploads in the background.
// A rejected file returns an error without touching the network. The returned channel
// yields exactly one outcome; results of superseded selections are marked Stale and leave the form alone.
func (w *BlogWorkflow) SelectImage(ctx context.Context, fileName, mimeType string, data []byte) (<-chan UploadOutcome, error) {
	if err := CheckImage(mimeType, len(data)); err != nil {
		if errors.Is(err, ErrImageTooLarge) {
			w.toasts.Error("Image must be 5MB or smaller.")
		} else {
			w.toasts.Error("Please upload only JPG, PNG, or WEBP images.")
		}
		return nil, err
	}

	w.mu.Lock()
	w.uploadGen++
	gen := w.uploadGen
	w.preview = dataURL(mimeType, data)
	w.uploading = true
	w.mu.Unlock()

	w.toasts.Info("Uploading image...")

	done := make(chan UploadOutcome, 1)
	uploadCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		result, err := w.client.UploadImage(uploadCtx, fileName, mimeType, data)

		w.mu.Lock()
		if gen != w.uploadGen {
			w.mu.Unlock()
			log.Debug().Str("fileName", fileName).Msg("dropping superseded upload result")
			outcome := UploadOutcome{Stale: true, Err: err}
			if result != nil {
				outcome.ImageURL = result.ImageURL
			}
			done <- outcome
			return
		}
		w.uploading = false
		if err != nil {
			w.preview = ""
			w.form.ImageURL = ""
			w.mu.Unlock()
			log.Error().Err(err).Str("fileName", fileName).Msg("image upload failed")
			w.toasts.Error("Failed to upload image. Please try again.")
			done <- UploadOutcome{Err: err}
			return
		}
		w.preview = result.ImageURL
		w.form.ImageURL = result.ImageURL
		w.mu.Unlock()

		w.toasts.Success("Image uploaded successfully!")
		done <- UploadOutcome{ImageURL: result.ImageURL}
	}()

	return done, nil
}

// ClearImage removes the image from the form and abandons any running upload.
func (w *BlogWorkflow) ClearImage() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.uploadGen++
	w.uploading = false
	w.preview = ""
	w.form.ImageURL = ""
}

func (w *BlogWorkflow) Login(ctx context.Context, password string) error {
	if _, err := w.client.Login(ctx, password); err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			w.toasts.Error("Incorrect password. Please contact administrator.")
		} else {
			w.toasts.Error("Login failed. Please try again.")
		}
		return err
	}

	w.mu.Lock()
	w.admin = true
	w.mu.Unlock()

	w.toasts.Success("Admin access granted")
	return nil
}

func (w *BlogWorkflow) Logout() {
	w.client.Tokens().Clear()

	w.mu.Lock()
	w.admin = false
	w.resetLocked()
	w.mu.Unlock()

	w.toasts.Info("Logged out of admin mode")
}

// CheckSession restores admin mode from a stored token. An invalid token is discarded.
func (w *BlogWorkflow) CheckSession(ctx context.Context) (bool, error) {
	valid, err := w.client.Verify(ctx)
	if err != nil {
		return false, err
	}
	if !valid {
		w.client.Tokens().Clear()
	}

	w.mu.Lock()
	w.admin = valid
	w.mu.Unlock()
	return valid, nil
}
