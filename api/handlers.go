package api

import (
	"time"

	"github.com/rpupo63/fadarc-site-backend/config"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, cfg map[string]string, startupTime time.Time) *routeHandlers {
	storage := deps.Storage
	return &routeHandlers{
		blogPostHandler: newBlogPostHandler(storage.BlogPosts()),
		uploadHandler: newUploadHandler(deps.Ingestor, storage.UploadedFiles(),
			config.GetInt64(cfg, "MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
		adminHandler: newAdminHandler(deps.Gate,
			config.GetInt(cfg, "LOGIN_RATE_PER_MINUTE", DefaultLoginRatePerMinute)),
		productHandler: newProductHandler(storage.Products()),
		quoteHandler:   newQuoteHandler(storage.Quotes(), deps.Notifier),
		healthHandler:  newHealthHandler(storage.Backend(), startupTime),
	}
}
