// Package credentials owns a store's gateway credentials: the typed settings
// document, the per-request resolver and the integrations endpoint.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/db"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/gateway"
	"github.com/noah-isme/toko-billing/internal/http/middleware"
)

var (
	// ErrGatewayNotConfigured means the store lacks a secret or publishable key.
	ErrGatewayNotConfigured = errors.New("credentials: payment gateway not configured")
	// ErrWebhookSecretMissing means the store has no webhook signing secret.
	ErrWebhookSecretMissing = errors.New("credentials: webhook secret not configured")
	// ErrStoreNotFound means no store has the given id.
	ErrStoreNotFound = errors.New("credentials: store not found")
)

// StoreReader is the subset of queries the resolver needs.
type StoreReader interface {
	GetStoreByID(ctx context.Context, id pgtype.UUID) (dbgen.Store, error)
	GetStoreForMerchant(ctx context.Context, arg dbgen.GetStoreForMerchantParams) (dbgen.Store, error)
}

// Resolver reads a store's settings on every call. Nothing is cached, so a
// rotated key takes effect on the next request.
type Resolver struct {
	Store StoreReader
}

// Settings loads and parses the store's settings document.
func (r *Resolver) Settings(ctx context.Context, storeID string) (Settings, error) {
	if r == nil || r.Store == nil {
		return Settings{}, errors.New("credentials: resolver not configured")
	}
	id, err := common.ParseUUID(storeID)
	if err != nil {
		return Settings{}, ErrStoreNotFound
	}
	store, err := r.Store.GetStoreByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Settings{}, ErrStoreNotFound
		}
		return Settings{}, fmt.Errorf("load store: %w", err)
	}
	return ParseSettings(store.Settings)
}

// Resolve returns the store's gateway credentials.
func (r *Resolver) Resolve(ctx context.Context, storeID string) (gateway.Credentials, error) {
	settings, err := r.Settings(ctx, storeID)
	if err != nil {
		return gateway.Credentials{}, err
	}
	if !settings.GatewayConfigured() {
		return gateway.Credentials{}, ErrGatewayNotConfigured
	}
	return gateway.Credentials{
		PublishableKey: settings.Gateway.PublishableKey,
		SecretKey:      settings.Gateway.SecretKey,
		WebhookSecret:  settings.Gateway.WebhookSecret,
	}, nil
}

// WebhookSecret returns the secret that signs the store's webhook deliveries.
func (r *Resolver) WebhookSecret(ctx context.Context, storeID string) (string, error) {
	settings, err := r.Settings(ctx, storeID)
	if err != nil {
		return "", err
	}
	if settings.Gateway == nil || settings.Gateway.WebhookSecret == "" {
		return "", ErrWebhookSecretMissing
	}
	return settings.Gateway.WebhookSecret, nil
}

// CheckOwnership implements middleware.OwnershipChecker.
func (r *Resolver) CheckOwnership(ctx context.Context, storeID, merchantID string) error {
	if r == nil || r.Store == nil {
		return errors.New("credentials: resolver not configured")
	}
	sid, err := common.ParseUUID(storeID)
	if err != nil {
		return middleware.ErrStoreNotOwned
	}
	mid, err := common.ParseUUID(merchantID)
	if err != nil {
		return middleware.ErrStoreNotOwned
	}
	if _, err := r.Store.GetStoreForMerchant(ctx, dbgen.GetStoreForMerchantParams{ID: sid, MerchantID: mid}); err != nil {
		if db.IsNotFound(err) {
			return middleware.ErrStoreNotOwned
		}
		return fmt.Errorf("check store ownership: %w", err)
	}
	return nil
}
