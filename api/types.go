package api

import (
	"github.com/rpupo63/fadarc-site-backend/database"
	"github.com/rpupo63/fadarc-site-backend/services"
)

// Dependencies are the long-lived collaborators the router hands to its handlers.
type Dependencies struct {
	Storage  database.Storage
	Ingestor *services.ImageIngestor
	Gate     *services.AdminGate
	Notifier *services.QuoteNotifier
}

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	blogPostHandler blogPostHandler
	uploadHandler   uploadHandler
	adminHandler    adminHandler
	productHandler  productHandler
	quoteHandler    quoteHandler
	healthHandler   healthHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Status  string `json:"status"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// MessageResponse acknowledges an operation that returns no entity.
type MessageResponse struct {
	Message string `json:"message"`
}
