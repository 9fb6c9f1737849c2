package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/toko-billing/internal/common"
)

// Middleware wires token identities into the request context.
type Middleware struct {
	Tokens *Tokens
}

// Authenticate attaches the user and merchant ids of a valid bearer token.
// Requests without a usable token pass through anonymous.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearer(r)
		if raw == "" || m.Tokens == nil {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.Tokens.Parse(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		if claims.UserID != "" {
			ctx = common.WithUserID(ctx, claims.UserID)
		}
		if claims.MerchantID != "" {
			ctx = common.WithMerchantID(ctx, claims.MerchantID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests without an authenticated storefront user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := common.UserID(r.Context()); !ok {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMerchant rejects requests without an authenticated merchant.
func RequireMerchant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := common.MerchantID(r.Context()); !ok {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
