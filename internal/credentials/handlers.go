package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/db"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/tenant"
)

// Service updates a store's gateway settings.
type Service struct {
	Tx       db.TxRunner
	Resolver *Resolver
}

// View returns the masked gateway settings of a store.
func (s *Service) View(ctx context.Context, storeID string) (View, error) {
	settings, err := s.Resolver.Settings(ctx, storeID)
	if err != nil {
		return View{}, err
	}
	return settings.Mask(), nil
}

// Update merges patch into the store's settings under a row lock, keeping any
// keys it does not own.
func (s *Service) Update(ctx context.Context, storeID, merchantID string, patch GatewayPatch) (View, error) {
	sid, err := common.ParseUUID(storeID)
	if err != nil {
		return View{}, ErrStoreNotFound
	}
	mid, err := common.ParseUUID(merchantID)
	if err != nil {
		return View{}, ErrStoreNotFound
	}
	var view View
	err = s.Tx.ExecTx(ctx, func(q dbgen.Querier) error {
		store, err := q.GetStoreForMerchantForUpdate(ctx, dbgen.GetStoreForMerchantForUpdateParams{ID: sid, MerchantID: mid})
		if err != nil {
			if db.IsNotFound(err) {
				return ErrStoreNotFound
			}
			return fmt.Errorf("lock store: %w", err)
		}
		settings, err := ParseSettings(store.Settings)
		if err != nil {
			return err
		}
		settings.Apply(patch)
		raw, err := json.Marshal(settings)
		if err != nil {
			return fmt.Errorf("encode store settings: %w", err)
		}
		if _, err := q.UpdateStoreSettings(ctx, dbgen.UpdateStoreSettingsParams{ID: sid, Settings: raw}); err != nil {
			return fmt.Errorf("update store settings: %w", err)
		}
		view = settings.Mask()
		return nil
	})
	return view, err
}

// Handler serves /integrations/payment-gateway for the store in X-Store-ID.
type Handler struct {
	Svc    *Service
	Logger zerolog.Logger
}

// An empty string clears the field, so each rule also admits len=0.
type updateReq struct {
	PublishableKey *string `json:"publishableKey" validate:"omitnil,max=255,len=0|startswith=pk_"`
	SecretKey      *string `json:"secretKey" validate:"omitnil,max=255,len=0|min=8"`
	WebhookSecret  *string `json:"webhookSecret" validate:"omitnil,max=255,len=0|startswith=whsec_"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, _ := tenant.StoreFromContext(r.Context())
	view, err := h.Svc.View(r.Context(), storeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, view)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	storeID, _ := tenant.StoreFromContext(r.Context())
	merchantID, _ := common.MerchantID(r.Context())
	var req updateReq
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.Svc.Update(r.Context(), storeID, merchantID, GatewayPatch{
		PublishableKey: req.PublishableKey,
		SecretKey:      req.SecretKey,
		WebhookSecret:  req.WebhookSecret,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Logger.Info().Str("store_id", storeID).
		Bool("secret_key_set", view.SecretKeySet).
		Bool("webhook_secret_set", view.WebhookSecretSet).
		Msg("payment gateway settings updated")
	common.JSON(w, http.StatusOK, view)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrStoreNotFound):
		common.JSONError(w, http.StatusNotFound, "STORE_NOT_FOUND", "store not found", nil)
	default:
		h.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("integration settings failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
