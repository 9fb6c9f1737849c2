package gateway

import (
	"context"
	"fmt"
	"sync"
)

// FakeCall records one call made through a FakeFactory client.
type FakeCall struct {
	SecretKey      string
	Op             string
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
	CustomerID     string
	PriceID        string
}

// FakeFactory is an in-memory Factory for tests and local development.
type FakeFactory struct {
	mu    sync.Mutex
	calls []FakeCall
	seq   int
	// Err, when set, is returned by every call.
	Err error
}

func (f *FakeFactory) ForKey(secretKey string) (Client, error) {
	if secretKey == "" {
		return nil, ErrMissingKey
	}
	return &fakeClient{factory: f, key: secretKey}, nil
}

// Calls returns the recorded calls in order.
func (f *FakeFactory) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

func (f *FakeFactory) record(c FakeCall) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	f.seq++
	return f.seq, f.Err
}

type fakeClient struct {
	factory *FakeFactory
	key     string
}

func (c *fakeClient) CreatePaymentIntent(_ context.Context, req PaymentIntentRequest) (PaymentIntent, error) {
	n, err := c.factory.record(FakeCall{
		SecretKey: c.key, Op: "payment_intent", Amount: ToGatewayAmount(req.Amount, req.Currency),
		Currency: req.Currency, Metadata: req.Metadata, IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return PaymentIntent{}, err
	}
	id := fmt.Sprintf("pi_fake_%d", n)
	return PaymentIntent{ID: id, ClientSecret: id + "_secret", Amount: req.Amount, Currency: req.Currency, Status: "requires_payment_method"}, nil
}

func (c *fakeClient) CreateCustomer(_ context.Context, req CustomerRequest) (Customer, error) {
	n, err := c.factory.record(FakeCall{SecretKey: c.key, Op: "customer", Metadata: req.Metadata, IdempotencyKey: req.IdempotencyKey})
	if err != nil {
		return Customer{}, err
	}
	return Customer{ID: fmt.Sprintf("cus_fake_%d", n)}, nil
}

func (c *fakeClient) CreateSubscriptionSession(_ context.Context, req SubscriptionSessionRequest) (Session, error) {
	n, err := c.factory.record(FakeCall{
		SecretKey: c.key, Op: "subscription_session", Metadata: req.Metadata, IdempotencyKey: req.IdempotencyKey,
		CustomerID: req.CustomerID, PriceID: req.PriceID,
	})
	if err != nil {
		return Session{}, err
	}
	id := fmt.Sprintf("cs_fake_%d", n)
	return Session{ID: id, URL: "https://checkout.example/" + id}, nil
}
