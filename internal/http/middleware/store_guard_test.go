package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/http/middleware"
	"github.com/noah-isme/toko-billing/internal/tenant"
)

type ownerFunc func(ctx context.Context, storeID, merchantID string) error

func (f ownerFunc) CheckOwnership(ctx context.Context, storeID, merchantID string) error {
	return f(ctx, storeID, merchantID)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireStoreMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	middleware.RequireStore(okHandler).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStoreGuard(t *testing.T) {
	guard := middleware.StoreGuard{Checker: ownerFunc(func(_ context.Context, storeID, merchantID string) error {
		switch {
		case storeID == "broken":
			return errors.New("db down")
		case merchantID != "m1":
			return middleware.ErrStoreNotOwned
		}
		return nil
	})}

	cases := []struct {
		name     string
		store    string
		merchant string
		want     int
	}{
		{"owner", "s1", "m1", http.StatusOK},
		{"other merchant", "s1", "m2", http.StatusNotFound},
		{"no merchant", "s1", "", http.StatusForbidden},
		{"checker failure", "broken", "m1", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			ctx := tenant.WithStore(req.Context(), tc.store)
			if tc.merchant != "" {
				ctx = common.WithMerchantID(ctx, tc.merchant)
			}
			rec := httptest.NewRecorder()
			guard.Middleware(okHandler).ServeHTTP(rec, req.WithContext(ctx))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}
