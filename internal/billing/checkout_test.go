package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/gateway"
	"github.com/noah-isme/toko-billing/internal/lock"
)

func newCheckout(t *testing.T, store *memStore, gw *gateway.FakeFactory) *CheckoutService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &CheckoutService{
		Store:      store,
		Locker:     lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond},
		Gateway:    gw,
		SecretKey:  "sk_test_platform",
		Catalog:    NewCatalog(map[string]string{"starter": "price_starter", "pro": "price_pro"}),
		SuccessURL: "https://app.example/billing/success",
		CancelURL:  "https://app.example/billing/cancel",
	}
}

func ops(calls []gateway.FakeCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Op
	}
	return out
}

func TestCheckoutCreatesCustomerOnce(t *testing.T) {
	m := newMerchant()
	store := newMemStore(m)
	gw := &gateway.FakeFactory{}
	svc := newCheckout(t, store, gw)
	mid := common.UUIDString(m.ID)

	first, err := svc.Create(context.Background(), mid, "pro")
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionID)
	require.NotEmpty(t, first.RedirectURL)

	sub, ok := store.sub(m.ID)
	require.True(t, ok)
	require.True(t, sub.ExternalCustomerID.Valid)
	require.Equal(t, string(PlanFree), sub.Plan, "plan changes only when the gateway confirms")

	_, err = svc.Create(context.Background(), mid, "starter")
	require.NoError(t, err)

	calls := gw.Calls()
	require.Equal(t, []string{"customer", "subscription_session", "subscription_session"}, ops(calls))
	require.Equal(t, CustomerIdempotencyKey(mid), calls[0].IdempotencyKey)
	require.Equal(t, "sk_test_platform", calls[0].SecretKey)
	require.Equal(t, sub.ExternalCustomerID.String, calls[2].CustomerID)
	require.Equal(t, "price_pro", calls[1].PriceID)
	require.Equal(t, "price_starter", calls[2].PriceID)
	require.Equal(t, map[string]string{"merchantId": mid, "plan": "starter"}, calls[2].Metadata)
}

func TestCheckoutConcurrentCallsShareCustomer(t *testing.T) {
	m := newMerchant()
	store := newMemStore(m)
	gw := &gateway.FakeFactory{}
	svc := newCheckout(t, store, gw)
	mid := common.UUIDString(m.ID)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), mid, "pro")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	customers := 0
	for _, c := range gw.Calls() {
		if c.Op == "customer" {
			customers++
		}
	}
	require.Equal(t, 1, customers)
}

func TestCheckoutRejections(t *testing.T) {
	m := newMerchant()
	mid := common.UUIDString(m.ID)

	cases := []struct {
		name   string
		plan   string
		mutate func(*CheckoutService)
		want   error
	}{
		{"free plan", "free", nil, ErrInvalidPlan},
		{"enterprise is sales only", "enterprise", nil, ErrInvalidPlan},
		{"unknown plan", "gold", nil, ErrInvalidPlan},
		{"no platform key", "pro", func(s *CheckoutService) { s.SecretKey = "" }, ErrNotConfigured},
		{"no price", "pro", func(s *CheckoutService) { s.Catalog = NewCatalog(nil) }, ErrNotConfigured},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &gateway.FakeFactory{}
			svc := newCheckout(t, newMemStore(m), gw)
			if tc.mutate != nil {
				tc.mutate(svc)
			}
			_, err := svc.Create(context.Background(), mid, tc.plan)
			require.ErrorIs(t, err, tc.want)
			require.Empty(t, gw.Calls())
		})
	}
}

func TestCheckoutUnknownMerchant(t *testing.T) {
	gw := &gateway.FakeFactory{}
	svc := newCheckout(t, newMemStore(), gw)
	_, err := svc.Create(context.Background(), common.UUIDString(common.NewUUID()), "pro")
	require.ErrorIs(t, err, ErrMerchantNotFound)
	require.Empty(t, gw.Calls())
}

func TestCheckoutGatewayFailureKeepsNoCustomer(t *testing.T) {
	m := newMerchant()
	store := newMemStore(m)
	gw := &gateway.FakeFactory{Err: gateway.ErrUnavailable}
	svc := newCheckout(t, store, gw)

	_, err := svc.Create(context.Background(), common.UUIDString(m.ID), "pro")
	require.True(t, errors.Is(err, gateway.ErrUnavailable))
	sub, ok := store.sub(m.ID)
	require.True(t, ok)
	require.False(t, sub.ExternalCustomerID.Valid)
}
