package order

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-billing/internal/common"
)

type Handler struct {
	Svc    *Service
	Logger zerolog.Logger
}

// Get serves GET /orders/{orderId}; the UI polls it for isPaid.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	view, err := h.Svc.Get(r.Context(), userID, strings.TrimSpace(chi.URLParam(r, "orderId")))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found", nil)
			return
		}
		h.Logger.Error().Err(err).Msg("load order failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	common.JSON(w, http.StatusOK, view)
}
