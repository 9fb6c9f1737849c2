package payment

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/gateway"
	"github.com/noah-isme/toko-billing/internal/webhooks"
)

// Handler exposes the storefront checkout endpoint.
type Handler struct {
	Svc    *Service
	Logger zerolog.Logger
}

// Intent serves POST /checkout/{orderId}.
func (h *Handler) Intent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	intent, err := h.Svc.CreateIntent(r.Context(), userID, orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, intent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found", nil)
	case errors.Is(err, ErrOrderAlreadyPaid):
		common.JSONError(w, http.StatusBadRequest, "ORDER_ALREADY_PAID", "order is already paid", nil)
	case errors.Is(err, ErrGatewayNotConfigured):
		common.JSONError(w, http.StatusBadRequest, "GATEWAY_NOT_CONFIGURED", "store has not configured a payment gateway", nil)
	default:
		writeGatewayError(w, h.Logger, err)
	}
}

// writeGatewayError maps outbound failures; nothing from the gateway's own
// error text reaches the client.
func writeGatewayError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, gateway.ErrTimeout):
		common.JSONError(w, http.StatusGatewayTimeout, "GATEWAY_TIMEOUT", "payment gateway timed out", nil)
	case errors.Is(err, gateway.ErrUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE", "payment gateway temporarily unavailable", nil)
	case errors.Is(err, gateway.ErrRejected):
		common.JSONError(w, http.StatusBadGateway, "GATEWAY_REJECTED", "payment gateway rejected the request", nil)
	default:
		logger.Error().Err(err).Msg("checkout intent failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

// WebhookHandler serves POST /webhooks/payment/{storeId}.
type WebhookHandler struct {
	Verifier   *webhooks.Verifier
	Reconciler *Reconciler
	Logger     zerolog.Logger
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	event, err := h.Verifier.Request(w, r)
	if err != nil {
		webhooks.WriteError(w, err)
		return
	}
	storeID := strings.TrimSpace(chi.URLParam(r, "storeId"))
	res, err := h.Reconciler.Reconcile(r.Context(), storeID, event)
	if err != nil {
		if errors.Is(err, ErrStoreMismatch) {
			common.JSONError(w, http.StatusBadRequest, "STORE_MISMATCH", "event does not belong to this store", nil)
			return
		}
		h.Logger.Error().Err(err).Str("event_id", event.ID).Str("store_id", storeID).Msg("payment reconcile failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"received": true, "outcome": res.Outcome})
}
