package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rpupo63/fadarc-site-backend/database"
	"github.com/rpupo63/fadarc-site-backend/errs"
	"github.com/rpupo63/fadarc-site-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxUploadBytes = 50 << 20
	imageFormField        = "image"
	multipartMemory       = 8 << 20
)

type uploadHandler struct {
	responder Responder
	logger    zerolog.Logger
	ingestor  *services.ImageIngestor
	files     database.UploadedFileRepository
	maxBytes  int64
}

func newUploadHandler(ingestor *services.ImageIngestor, files database.UploadedFileRepository, maxBytes int64) uploadHandler {
	logger := log.With().Str("handlerName", "uploadHandler").Logger()
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	return uploadHandler{
		responder: NewResponder(logger),
		logger:    logger,
		ingestor:  ingestor,
		files:     files,
		maxBytes:  maxBytes,
	}
}

// UploadResponse is returned after an image is stored remotely and recorded.
type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
	FileID   int64  `json:"fileId"`
	Message  string `json:"message"`
}

// HostStatusResponse reports whether the image host can accept uploads.
type HostStatusResponse struct {
	Host       string   `json:"host"`
	Configured bool     `json:"configured"`
	Missing    []string `json:"missing,omitempty"`
	Folder     string   `json:"folder"`
	Message    string   `json:"message"`
}

func (h uploadHandler) writeUploadFailure(w http.ResponseWriter, err error) {
	message := "Failed to upload image"
	if errs.IsConfigMissingError(err) {
		message = "Image host configuration missing"
	}

	details := err.Error()
	var apiErr *errs.ApiErr
	if errors.As(err, &apiErr) {
		details = apiErr.GetFullError()
	}

	h.responder.reportError(err)
	h.responder.WriteJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
		Error:   message,
		Status:  "error",
		Details: details,
	})
}

// uploadBlogImage accepts one multipart file in the "image" field
func (h uploadHandler) uploadBlogImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxErr):
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(h.maxBytes))
			case errors.Is(err, http.ErrNotMultipart):
				h.responder.WriteError(w, errs.NewBadRequestError("No file uploaded"))
			default:
				h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			}
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile(imageFormField)
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("No file uploaded"))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(mimeType, "image/") {
			h.responder.WriteError(w, errs.NewUnsupportedMediaTypeError(mimeType, "image/*"))
			return
		}

		uploaded, err := h.ingestor.Ingest(r.Context(), services.IncomingImage{
			OriginalName: header.Filename,
			MimeType:     mimeType,
			Size:         header.Size,
			Body:         file,
		})
		if err != nil {
			h.writeUploadFailure(w, err)
			return
		}

		h.responder.WriteJSON(w, UploadResponse{
			ImageURL: *uploaded.CloudURL,
			FileID:   uploaded.ID,
			Message:  "Image uploaded successfully",
		})
	}
}

func (h uploadHandler) getUploadedFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := h.files.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "uploaded files", err))
			return
		}
		h.responder.WriteJSON(w, files)
	}
}

// getHostStatus reports image host configuration without touching the network
func (h uploadHandler) getHostStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := h.ingestor.Host()
		missing := host.MissingConfig()

		resp := HostStatusResponse{
			Host:       host.Name(),
			Configured: len(missing) == 0,
			Missing:    missing,
			Folder:     services.BlogImageFolder,
			Message:    "Image host is configured",
		}
		if !resp.Configured {
			resp.Message = "Image host configuration missing"
		}
		h.responder.WriteJSON(w, resp)
	}
}
