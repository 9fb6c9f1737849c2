// Package webhooks authenticates inbound gateway deliveries. The signature
// check is shared; only the source of the signing secret differs between the
// per-store and the platform endpoints.
package webhooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/credentials"
	"github.com/noah-isme/toko-billing/internal/obs"
)

// SignatureHeader carries the gateway's timestamped HMAC.
const SignatureHeader = "Stripe-Signature"

// DefaultMaxBodyBytes bounds the payload read when the Verifier has no limit set.
const DefaultMaxBodyBytes int64 = 64 << 10

var (
	ErrSignatureMissing = errors.New("webhooks: signature header missing")
	ErrSecretMissing    = errors.New("webhooks: signing secret not configured")
	ErrSignatureInvalid = errors.New("webhooks: signature invalid")
	ErrUnknownStore     = errors.New("webhooks: unknown store")
	ErrBodyTooLarge     = errors.New("webhooks: payload too large")
)

// Verify authenticates payload against the signature header. Missing inputs
// are rejected before any HMAC work.
func Verify(payload []byte, header, secret string) (stripe.Event, error) {
	if strings.TrimSpace(header) == "" {
		return stripe.Event{}, ErrSignatureMissing
	}
	if strings.TrimSpace(secret) == "" {
		return stripe.Event{}, ErrSecretMissing
	}
	event, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return event, nil
}

// SecretSource yields the signing secret for a request.
type SecretSource interface {
	Secret(r *http.Request) (string, error)
}

// StaticSecret is a fixed secret, used for the platform billing endpoint.
type StaticSecret string

func (s StaticSecret) Secret(*http.Request) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrSecretMissing
	}
	return string(s), nil
}

// SecretResolver looks up a store's webhook secret.
type SecretResolver interface {
	WebhookSecret(ctx context.Context, storeID string) (string, error)
}

// StoreSecret takes the store from the route, never from the event body.
type StoreSecret struct {
	Resolver SecretResolver
	URLParam string
}

func (s StoreSecret) Secret(r *http.Request) (string, error) {
	param := s.URLParam
	if param == "" {
		param = "storeId"
	}
	storeID := strings.TrimSpace(chi.URLParam(r, param))
	if storeID == "" {
		return "", ErrUnknownStore
	}
	secret, err := s.Resolver.WebhookSecret(r.Context(), storeID)
	switch {
	case errors.Is(err, credentials.ErrStoreNotFound):
		return "", ErrUnknownStore
	case errors.Is(err, credentials.ErrWebhookSecretMissing):
		return "", ErrSecretMissing
	case err != nil:
		return "", fmt.Errorf("resolve webhook secret: %w", err)
	}
	return secret, nil
}

// Verifier reads, bounds and authenticates a webhook request.
type Verifier struct {
	Source       SecretSource
	Surface      string
	MaxBodyBytes int64
	Logger       zerolog.Logger
}

// Request returns the verified event. Rejections are logged and counted.
func (v *Verifier) Request(w http.ResponseWriter, r *http.Request) (stripe.Event, error) {
	event, err := v.verify(w, r)
	result := resultLabel(err)
	obs.IncCounter(obs.WebhookVerificationTotal, v.Surface, result)
	if err != nil {
		logEvt := v.Logger.Warn()
		if result == "error" {
			logEvt = v.Logger.Error()
		}
		logEvt.Err(err).Str("surface", v.Surface).Str("result", result).Str("path", r.URL.Path).Msg("webhook rejected")
	}
	return event, err
}

func (v *Verifier) verify(w http.ResponseWriter, r *http.Request) (stripe.Event, error) {
	limit := v.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return stripe.Event{}, ErrBodyTooLarge
		}
		return stripe.Event{}, fmt.Errorf("read webhook body: %w", err)
	}
	header := r.Header.Get(SignatureHeader)
	if strings.TrimSpace(header) == "" {
		return stripe.Event{}, ErrSignatureMissing
	}
	if v.Source == nil {
		return stripe.Event{}, ErrSecretMissing
	}
	secret, err := v.Source.Secret(r)
	if err != nil {
		return stripe.Event{}, err
	}
	return Verify(payload, header, secret)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSignatureMissing):
		return "signature_missing"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrSecretMissing):
		return "secret_missing"
	case errors.Is(err, ErrUnknownStore):
		return "unknown_store"
	case errors.Is(err, ErrBodyTooLarge):
		return "body_too_large"
	default:
		return "error"
	}
}

// WriteError renders a verification failure.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSignatureMissing), errors.Is(err, ErrSignatureInvalid):
		common.JSONError(w, http.StatusBadRequest, "INVALID_SIGNATURE", "invalid webhook signature", nil)
	case errors.Is(err, ErrSecretMissing):
		common.JSONError(w, http.StatusBadRequest, "WEBHOOK_SECRET_MISSING", "webhook secret not configured", nil)
	case errors.Is(err, ErrUnknownStore):
		common.JSONError(w, http.StatusBadRequest, "STORE_NOT_FOUND", "unknown store", nil)
	case errors.Is(err, ErrBodyTooLarge):
		common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "webhook payload too large", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
