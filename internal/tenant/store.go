package tenant

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const storeContextKey contextKey = "tenant.store-id"

// DefaultHeader carries the store an authenticated merchant is acting on.
const DefaultHeader = "X-Store-ID"

// Resolver finds the store id of a request, preferring the {storeId} route
// parameter over the header.
type Resolver struct {
	HeaderName string
	URLParam   string
}

// NewResolver returns a resolver for the given header. Empty means X-Store-ID.
func NewResolver(headerName string) *Resolver {
	if headerName == "" {
		headerName = DefaultHeader
	}
	return &Resolver{HeaderName: headerName, URLParam: "storeId"}
}

// Middleware injects the resolved store id into the request context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if storeID := r.Resolve(req); storeID != "" {
			req = req.WithContext(WithStore(req.Context(), storeID))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve returns the store id or "".
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if r.URLParam != "" {
		if id := strings.TrimSpace(chi.URLParam(req, r.URLParam)); id != "" {
			return id
		}
	}
	return strings.TrimSpace(req.Header.Get(r.HeaderName))
}

// WithStore stores the store identifier inside the context.
func WithStore(ctx context.Context, storeID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, storeContextKey, storeID)
}

// StoreFromContext extracts the store identifier from the context if available.
func StoreFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	storeID, ok := ctx.Value(storeContextKey).(string)
	if !ok {
		return "", false
	}
	storeID = strings.TrimSpace(storeID)
	return storeID, storeID != ""
}
