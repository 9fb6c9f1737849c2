package billing

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/db"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/gateway"
	"github.com/noah-isme/toko-billing/internal/webhooks"
)

// SubscriptionReader loads a merchant's subscription row.
type SubscriptionReader interface {
	GetSubscriptionByMerchant(ctx context.Context, merchantID pgtype.UUID) (dbgen.Subscription, error)
}

// SubscriptionView is the merchant-facing subscription shape. Merchants
// without a row are on the free plan.
type SubscriptionView struct {
	Plan               Plan       `json:"plan"`
	Status             Status     `json:"status"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancelAtPeriodEnd"`
}

func newSubscriptionView(s dbgen.Subscription) SubscriptionView {
	v := SubscriptionView{Plan: Plan(s.Plan), Status: Status(s.Status), CancelAtPeriodEnd: s.CancelAtPeriodEnd}
	if s.CurrentPeriodStart.Valid {
		t := s.CurrentPeriodStart.Time
		v.CurrentPeriodStart = &t
	}
	if s.CurrentPeriodEnd.Valid {
		t := s.CurrentPeriodEnd.Time
		v.CurrentPeriodEnd = &t
	}
	return v
}

type Handler struct {
	Checkout      *CheckoutService
	Subscriptions SubscriptionReader
	Logger        zerolog.Logger
}

type checkoutReq struct {
	Plan string `json:"plan" validate:"required,max=32"`
}

// CreateCheckout serves POST /billing/checkout.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := common.MerchantID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "merchant login required", nil)
		return
	}
	var req checkoutReq
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	sess, err := h.Checkout.Create(r.Context(), merchantID, req.Plan)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, sess)
}

// Subscription serves GET /billing/subscription.
func (h *Handler) Subscription(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := common.MerchantID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "merchant login required", nil)
		return
	}
	mid, err := common.ParseUUID(merchantID)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "merchant login required", nil)
		return
	}
	sub, err := h.Subscriptions.GetSubscriptionByMerchant(r.Context(), mid)
	switch {
	case db.IsNotFound(err):
		common.JSON(w, http.StatusOK, SubscriptionView{Plan: PlanFree, Status: StatusActive})
	case err != nil:
		h.Logger.Error().Err(err).Str("merchant_id", merchantID).Msg("load subscription failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	default:
		common.JSON(w, http.StatusOK, newSubscriptionView(sub))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPlan):
		common.JSONError(w, http.StatusBadRequest, "INVALID_PLAN", "plan cannot be purchased", nil)
	case errors.Is(err, ErrNotConfigured):
		common.JSONError(w, http.StatusBadRequest, "BILLING_NOT_CONFIGURED", "platform billing is not configured", nil)
	case errors.Is(err, ErrMerchantNotFound):
		common.JSONError(w, http.StatusNotFound, "MERCHANT_NOT_FOUND", "merchant not found", nil)
	case errors.Is(err, gateway.ErrTimeout):
		common.JSONError(w, http.StatusGatewayTimeout, "GATEWAY_TIMEOUT", "payment gateway timed out", nil)
	case errors.Is(err, gateway.ErrUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE", "payment gateway temporarily unavailable", nil)
	case errors.Is(err, gateway.ErrRejected):
		common.JSONError(w, http.StatusBadGateway, "GATEWAY_REJECTED", "payment gateway rejected the request", nil)
	default:
		h.Logger.Error().Err(err).Msg("billing checkout failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

// WebhookHandler serves POST /billing/webhook, signed with the platform secret.
type WebhookHandler struct {
	Verifier  *webhooks.Verifier
	Processor *Processor
	Logger    zerolog.Logger
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	event, err := h.Verifier.Request(w, r)
	if err != nil {
		webhooks.WriteError(w, err)
		return
	}
	res, err := h.Processor.Apply(r.Context(), event)
	if err != nil {
		h.Logger.Error().Err(err).Str("event_id", event.ID).Str("event_type", string(event.Type)).Msg("billing event failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"received": true, "outcome": res.Outcome})
}
