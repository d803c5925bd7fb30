package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type healthHandler struct {
	responder   Responder
	backend     string
	startupTime time.Time
}

func newHealthHandler(backend string, startupTime time.Time) healthHandler {
	return healthHandler{
		responder:   NewResponder(log.With().Str("handlerName", "healthHandler").Logger()),
		backend:     backend,
		startupTime: startupTime,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Uptime  string `json:"uptime"`
}

func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, HealthResponse{
			Status:  "healthy",
			Storage: h.backend,
			Uptime:  time.Since(h.startupTime).Round(time.Second).String(),
		})
	}
}
