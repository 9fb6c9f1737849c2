package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/tenant"
)

// ErrStoreNotOwned is returned by an OwnershipChecker when the merchant does not own the store.
var ErrStoreNotOwned = errors.New("store not owned by merchant")

// OwnershipChecker confirms a store belongs to a merchant.
type OwnershipChecker interface {
	CheckOwnership(ctx context.Context, storeID, merchantID string) error
}

// RequireStore ensures a store identifier exists in request context.
func RequireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := tenant.StoreFromContext(r.Context()); !ok {
			common.JSONError(w, http.StatusBadRequest, "STORE_REQUIRED", "store is required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StoreGuard rejects requests for stores the authenticated merchant does not own.
type StoreGuard struct {
	Checker OwnershipChecker
	Logger  zerolog.Logger
}

func (g StoreGuard) Middleware(next http.Handler) http.Handler {
	return RequireStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		storeID, _ := tenant.StoreFromContext(r.Context())
		merchantID, ok := common.MerchantID(r.Context())
		if !ok {
			common.JSONError(w, http.StatusForbidden, "MERCHANT_REQUIRED", "merchant token required", nil)
			return
		}
		if g.Checker == nil {
			next.ServeHTTP(w, r)
			return
		}
		if err := g.Checker.CheckOwnership(r.Context(), storeID, merchantID); err != nil {
			if errors.Is(err, ErrStoreNotOwned) {
				common.JSONError(w, http.StatusNotFound, "STORE_NOT_FOUND", "store not found", nil)
				return
			}
			g.Logger.Error().Err(err).Str("store_id", storeID).Msg("store ownership check failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
