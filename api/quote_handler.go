package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rpupo63/fadarc-site-backend/database"
	"github.com/rpupo63/fadarc-site-backend/models"
	"github.com/rpupo63/fadarc-site-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const notifyTimeout = 15 * time.Second

type quoteHandler struct {
	responder Responder
	logger    zerolog.Logger
	quoteRepo database.QuoteRepository
	notifier  *services.QuoteNotifier
}

func newQuoteHandler(quoteRepo database.QuoteRepository, notifier *services.QuoteNotifier) quoteHandler {
	logger := log.With().Str("handlerName", "quoteHandler").Logger()

	return quoteHandler{
		responder: NewResponder(logger),
		logger:    logger,
		quoteRepo: quoteRepo,
		notifier:  notifier,
	}
}

type createQuoteRequest struct {
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,max=40"`
	VehicleMake     string `json:"vehicleMake" validate:"required,max=100"`
	VehicleModel    string `json:"vehicleModel" validate:"required,max=100"`
	ServiceRequired string `json:"serviceRequired" validate:"required,max=200"`
}

func (req *createQuoteRequest) normalize() {
	for _, f := range []*string{
		&req.FirstName, &req.LastName, &req.Email, &req.Phone,
		&req.VehicleMake, &req.VehicleModel, &req.ServiceRequired,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// createQuote stores the request, then notifies the shop in the background
func (h quoteHandler) createQuote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createQuoteRequest
		if err := decodeJSON(r, "quote", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		req.normalize()
		if err := validateRequest(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		quote := models.Quote{
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Email:           req.Email,
			Phone:           req.Phone,
			VehicleMake:     req.VehicleMake,
			VehicleModel:    req.VehicleModel,
			ServiceRequired: req.ServiceRequired,
		}
		if err := h.quoteRepo.Create(r.Context(), &quote); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "quote", err))
			return
		}

		if h.notifier.Enabled() {
			ctx := context.WithoutCancel(r.Context())
			go func(q models.Quote) {
				ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
				defer cancel()
				if err := h.notifier.Notify(ctx, q); err != nil {
					h.logger.Error().Err(err).Int64("quoteId", q.ID).Msg("error sending quote notification")
				}
			}(quote)
		}

		h.logger.Info().Int64("quoteId", quote.ID).Msg("quote request received")
		h.responder.WriteJSONStatus(w, http.StatusCreated, quote)
	}
}

func (h quoteHandler) getAllQuotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quotes, err := h.quoteRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "quotes", err))
			return
		}
		h.responder.WriteJSON(w, quotes)
	}
}
