package common

import "context"

type ctxKey string

const (
	userIDKey     ctxKey = "auth/user-id"
	merchantIDKey ctxKey = "auth/merchant-id"
)

// WithUserID stores the authenticated purchaser id on the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated purchaser id from the context if present.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithMerchantID stores the merchant the caller acts for.
func WithMerchantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, merchantIDKey, id)
}

// MerchantID extracts the merchant id from the context if present.
func MerchantID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(merchantIDKey).(string)
	return id, ok && id != ""
}
