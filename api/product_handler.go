package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/fadarc-site-backend/database"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type productHandler struct {
	responder   Responder
	logger      zerolog.Logger
	productRepo database.ProductRepository
}

func newProductHandler(productRepo database.ProductRepository) productHandler {
	logger := log.With().Str("handlerName", "productHandler").Logger()

	return productHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		productRepo: productRepo,
	}
}

func (h productHandler) getAllProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := h.productRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "products", err))
			return
		}
		h.responder.WriteJSON(w, products)
	}
}

func (h productHandler) getProductsByCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")

		products, err := h.productRepo.FindByCategory(r.Context(), category)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "products", err))
			return
		}
		h.responder.WriteJSON(w, products)
	}
}

func (h productHandler) getProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseID(r, "productID", "product")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		product, err := h.productRepo.FindByID(r.Context(), productID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "product", err))
			return
		}
		h.responder.WriteJSON(w, product)
	}
}
