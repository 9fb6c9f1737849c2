package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-billing/internal/tenant"
)

func TestResolverHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/integrations/payment-gateway", nil)
	req.Header.Set("X-Store-ID", " store-1 ")
	require.Equal(t, "store-1", tenant.NewResolver("").Resolve(req))
}

func TestResolverPrefersRouteParam(t *testing.T) {
	r := chi.NewRouter()
	var got string
	r.With(tenant.NewResolver("").Middleware).Get("/stores/{storeId}/orders", func(w http.ResponseWriter, req *http.Request) {
		got, _ = tenant.StoreFromContext(req.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/stores/path-store/orders", nil)
	req.Header.Set("X-Store-ID", "header-store")
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "path-store", got)
}

func TestStoreFromContextEmpty(t *testing.T) {
	_, ok := tenant.StoreFromContext(context.Background())
	require.False(t, ok)
	_, ok = tenant.StoreFromContext(tenant.WithStore(context.Background(), "  "))
	require.False(t, ok)
}
