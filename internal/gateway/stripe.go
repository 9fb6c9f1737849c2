package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/toko-billing/internal/obs"
	"github.com/noah-isme/toko-billing/internal/resilience"
)

var tracer = obs.Tracer("gateway")

// StripeFactory builds stripe clients sharing one HTTP client. Network
// retries are disabled; a failed call is reported to the caller.
type StripeFactory struct {
	HTTPClient *http.Client
	// APIURL overrides the API base, e.g. for stripe-mock.
	APIURL  string
	Timeout time.Duration
}

// ForKey implements Factory.
func (f *StripeFactory) ForKey(secretKey string) (Client, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, ErrMissingKey
	}
	httpClient := f.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if f.APIURL != "" {
		cfg.URL = stripe.String(f.APIURL)
	}
	api := client.New(secretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     cfg.LeveledLogger,
		}),
	})
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &stripeClient{api: api, timeout: timeout}, nil
}

type stripeClient struct {
	api     *client.API
	timeout time.Duration
}

func (c *stripeClient) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (PaymentIntent, error) {
	ctx, done := c.start(ctx, "payment_intent.create")
	currency := strings.ToLower(req.Currency)
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToGatewayAmount(req.Amount, req.Currency)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	pi, err := c.api.PaymentIntents.New(params)
	if err = done(err); err != nil {
		return PaymentIntent{}, err
	}
	return PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       FromGatewayAmount(pi.Amount, string(pi.Currency)),
		Currency:     strings.ToUpper(string(pi.Currency)),
		Status:       string(pi.Status),
	}, nil
}

func (c *stripeClient) CreateCustomer(ctx context.Context, req CustomerRequest) (Customer, error) {
	ctx, done := c.start(ctx, "customer.create")
	params := &stripe.CustomerParams{}
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	if req.Name != "" {
		params.Name = stripe.String(req.Name)
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	cus, err := c.api.Customers.New(params)
	if err = done(err); err != nil {
		return Customer{}, err
	}
	return Customer{ID: cus.ID}, nil
}

func (c *stripeClient) CreateSubscriptionSession(ctx context.Context, req SubscriptionSessionRequest) (Session, error) {
	ctx, done := c.start(ctx, "checkout_session.create")
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(req.CustomerID),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		},
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	sess, err := c.api.CheckoutSessions.New(params)
	if err = done(err); err != nil {
		return Session{}, err
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}

// start opens a span bounded by the per-call timeout. done must be called
// with the call's error and returns it classified.
func (c *stripeClient) start(ctx context.Context, op string) (context.Context, func(error) error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	ctx, span := tracer.Start(ctx, "gateway."+op)
	span.SetAttributes(attribute.String("gateway.provider", ProviderName))
	began := time.Now()
	return ctx, func(err error) error {
		defer cancel()
		defer span.End()
		err = classify(err)
		result := "ok"
		if err != nil {
			result = resultLabel(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		if obs.GatewayRequestDuration != nil {
			obs.GatewayRequestDuration.WithLabelValues(op, result).Observe(obs.DurationMillis(time.Since(began)))
		}
		return err
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 {
		return fmt.Errorf("%w: %s", ErrRejected, stripeErr.Msg)
	}
	return fmt.Errorf("gateway: %w", err)
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrRejected):
		return "rejected"
	default:
		return "error"
	}
}
