// Package payment creates storefront checkout intents with the store's own
// gateway account and reconciles the gateway's payment confirmations.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/credentials"
	"github.com/noah-isme/toko-billing/internal/db"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/gateway"
	"github.com/noah-isme/toko-billing/internal/obs"
)

var tracer = obs.Tracer("payment")

const surfaceStorefront = "storefront"

var (
	ErrOrderNotFound    = errors.New("payment: order not found")
	ErrOrderAlreadyPaid = errors.New("payment: order already paid")
	// ErrGatewayNotConfigured is the resolver's error, re-exported for handlers.
	ErrGatewayNotConfigured = credentials.ErrGatewayNotConfigured
)

// OrderReader loads an order scoped to its purchaser.
type OrderReader interface {
	GetOrderForUser(ctx context.Context, arg dbgen.GetOrderForUserParams) (dbgen.Order, error)
}

// CredentialResolver yields a store's gateway credentials.
type CredentialResolver interface {
	Resolve(ctx context.Context, storeID string) (gateway.Credentials, error)
}

type Service struct {
	Orders      OrderReader
	Credentials CredentialResolver
	Gateway     gateway.Factory
	Logger      zerolog.Logger
}

// Intent is handed to the storefront to confirm the payment client-side.
type Intent struct {
	ClientSecret   string `json:"clientSecret"`
	PublishableKey string `json:"publishableKey"`
}

// IdempotencyKey names one intent per order amount, so a retried checkout
// returns the same intent until the payable changes.
func IdempotencyKey(orderID string, payable int64) string {
	return fmt.Sprintf("checkout-intent:%s:%d", orderID, payable)
}

// CreateIntent opens a payment intent for the order on the store's account.
func (s *Service) CreateIntent(ctx context.Context, userID, orderID string) (Intent, error) {
	ctx, span := tracer.Start(ctx, "payment.create_intent")
	defer span.End()

	intent, err := s.createIntent(ctx, userID, orderID)
	result := "ok"
	if err != nil {
		result = intentResult(err)
		span.RecordError(err)
	}
	obs.IncCounter(obs.CheckoutIntentTotal, surfaceStorefront, result)
	return intent, err
}

func (s *Service) createIntent(ctx context.Context, userID, orderID string) (Intent, error) {
	uid, err := common.ParseUUID(userID)
	if err != nil {
		return Intent{}, ErrOrderNotFound
	}
	oid, err := common.ParseUUID(orderID)
	if err != nil {
		return Intent{}, ErrOrderNotFound
	}
	o, err := s.Orders.GetOrderForUser(ctx, dbgen.GetOrderForUserParams{ID: oid, UserID: uid})
	if err != nil {
		if db.IsNotFound(err) {
			return Intent{}, ErrOrderNotFound
		}
		return Intent{}, fmt.Errorf("load order: %w", err)
	}
	if o.IsPaid {
		return Intent{}, ErrOrderAlreadyPaid
	}
	orderID, userID = common.UUIDString(o.ID), common.UUIDString(o.UserID)

	storeID := common.UUIDString(o.StoreID)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("store.id", storeID))
	creds, err := s.Credentials.Resolve(ctx, storeID)
	if err != nil {
		return Intent{}, err
	}
	client, err := s.Gateway.ForKey(creds.SecretKey)
	if err != nil {
		return Intent{}, err
	}

	pi, err := client.CreatePaymentIntent(ctx, gateway.PaymentIntentRequest{
		Amount:   o.Payable,
		Currency: o.Currency,
		Metadata: map[string]string{
			"orderId": orderID,
			"storeId": storeID,
			"userId":  userID,
		},
		IdempotencyKey: IdempotencyKey(orderID, o.Payable),
	})
	if err != nil {
		s.Logger.Warn().Err(err).Str("order_id", orderID).Str("store_id", storeID).Msg("create payment intent failed")
		return Intent{}, err
	}
	s.Logger.Info().Str("order_id", orderID).Str("store_id", storeID).Str("intent_id", pi.ID).Msg("payment intent created")
	return Intent{ClientSecret: pi.ClientSecret, PublishableKey: creds.PublishableKey}, nil
}

func intentResult(err error) string {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrOrderAlreadyPaid):
		return "already_paid"
	case errors.Is(err, ErrGatewayNotConfigured):
		return "not_configured"
	case errors.Is(err, gateway.ErrTimeout):
		return "timeout"
	case errors.Is(err, gateway.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
