package checkout

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/tenant"
)

type Handler struct {
	Svc    *Service
	Logger zerolog.Logger
}

// CreateOrder serves POST /stores/{storeId}/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	storeID, _ := tenant.StoreFromContext(r.Context())
	var payload Input
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Create(r.Context(), userID, storeID, payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCartEmpty):
		common.JSONError(w, http.StatusBadRequest, "CART_EMPTY", "cart has no items", nil)
	case errors.Is(err, ErrUnknownProduct):
		common.JSONError(w, http.StatusBadRequest, "INVALID_ITEMS", err.Error(), nil)
	case errors.Is(err, ErrStoreNotFound):
		common.JSONError(w, http.StatusNotFound, "STORE_NOT_FOUND", "store not found", nil)
	case errors.Is(err, ErrUserRequired):
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
	default:
		h.Logger.Error().Err(err).Msg("create order failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
