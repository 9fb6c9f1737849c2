// Package gateway adapts the payment gateway API to the shapes the billing
// core needs. Every Client is bound to exactly one secret key.
package gateway

import (
	"context"
	"errors"
)

// ProviderName is recorded on payment_providers rows.
const ProviderName = "stripe"

var (
	// ErrTimeout is returned when an outbound call exceeded its deadline.
	ErrTimeout = errors.New("gateway: request timed out")
	// ErrUnavailable is returned while the circuit breaker rejects calls.
	ErrUnavailable = errors.New("gateway: temporarily unavailable")
	// ErrRejected is returned for 4xx answers, e.g. an invalid key or price.
	ErrRejected = errors.New("gateway: request rejected")
	// ErrMissingKey is returned by a Factory given an empty secret key.
	ErrMissingKey = errors.New("gateway: secret key is required")
)

// Credentials are one store's (or the platform's) gateway identity.
type Credentials struct {
	PublishableKey string
	SecretKey      string
	WebhookSecret  string
}

type PaymentIntentRequest struct {
	// Amount is in the order's minor units; the client converts it.
	Amount         int64
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
}

type CustomerRequest struct {
	Email          string
	Name           string
	Metadata       map[string]string
	IdempotencyKey string
}

type Customer struct {
	ID string
}

// SubscriptionSessionRequest asks for a hosted checkout page for one price.
type SubscriptionSessionRequest struct {
	CustomerID        string
	PriceID           string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
	IdempotencyKey    string
}

type Session struct {
	ID  string
	URL string
}

// Client is the gateway surface used by checkout and billing.
type Client interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (PaymentIntent, error)
	CreateCustomer(ctx context.Context, req CustomerRequest) (Customer, error)
	CreateSubscriptionSession(ctx context.Context, req SubscriptionSessionRequest) (Session, error)
}

// Factory builds a Client for a given secret key.
type Factory interface {
	ForKey(secretKey string) (Client, error)
}
