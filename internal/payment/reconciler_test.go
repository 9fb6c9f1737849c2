package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/noah-isme/toko-billing/internal/common"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/events"
	"github.com/noah-isme/toko-billing/internal/webhooks"
)

func pendingOrder(payable int64) dbgen.Order {
	return dbgen.Order{
		ID: common.NewUUID(), StoreID: common.NewUUID(), UserID: common.NewUUID(),
		Status: "PENDING", Total: payable, Payable: payable, Currency: "USD",
	}
}

func intentJSON(id string, amount int64, currency string, meta map[string]string) string {
	raw, _ := json.Marshal(map[string]any{
		"id": id, "object": "payment_intent", "amount": amount, "amount_received": amount,
		"currency": currency, "status": "succeeded", "metadata": meta,
	})
	return string(raw)
}

func succeeded(o dbgen.Order, ref string, amount int64) stripe.Event {
	return stripe.Event{
		ID:   "evt_" + ref,
		Type: EventPaymentSucceeded,
		Data: &stripe.EventData{Raw: json.RawMessage(intentJSON(ref, amount, "usd", map[string]string{
			"orderId": common.UUIDString(o.ID),
			"storeId": common.UUIDString(o.StoreID),
			"userId":  common.UUIDString(o.UserID),
		}))},
	}
}

func TestReconcileMarksOrderPaid(t *testing.T) {
	o := pendingOrder(9810)
	mem := newMemDB(o)
	emitter := &emitterStub{}
	r := &Reconciler{Tx: mem, Events: emitter}

	res, err := r.Reconcile(context.Background(), common.UUIDString(o.StoreID), succeeded(o, "pi_1", 9810))
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, res.Outcome)
	require.NotEmpty(t, res.PaymentID)

	got := mem.order(o.ID)
	require.True(t, got.IsPaid)
	require.Equal(t, "PAID", got.Status)
	require.Equal(t, 1, mem.paymentCount())
	p := mem.payments["pi_1"]
	require.Equal(t, int64(9810), p.Amount)
	require.Equal(t, "USD", p.Currency)
	require.True(t, common.UUIDEqual(p.StoreID, o.StoreID))

	require.Equal(t, []string{events.TopicOrderPaid}, emitter.topics)
	payload := emitter.last.(events.OrderPaid)
	require.Equal(t, "pi_1", payload.ReferenceID)
}

func TestReconcileDuplicateDelivery(t *testing.T) {
	o := pendingOrder(9810)
	mem := newMemDB(o)
	emitter := &emitterStub{}
	r := &Reconciler{Tx: mem, Events: emitter}
	ev := succeeded(o, "pi_dup", 9810)
	storeID := common.UUIDString(o.StoreID)

	first, err := r.Reconcile(context.Background(), storeID, ev)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, first.Outcome)

	second, err := r.Reconcile(context.Background(), storeID, ev)
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyProcessed, second.Outcome)
	require.Equal(t, 1, mem.paymentCount())
	require.Len(t, emitter.topics, 1, "no side effects on replay")
}

func TestReconcileConcurrentDeliveries(t *testing.T) {
	o := pendingOrder(9810)
	mem := newMemDB(o)
	r := &Reconciler{Tx: mem, Events: &emitterStub{}}
	ev := succeeded(o, "pi_race", 9810)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[Outcome]int{}
		errs     []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Reconcile(context.Background(), common.UUIDString(o.StoreID), ev)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			outcomes[res.Outcome]++
		}()
	}
	wg.Wait()
	require.Empty(t, errs)
	require.Equal(t, 1, outcomes[OutcomeApplied])
	require.Equal(t, 7, outcomes[OutcomeAlreadyProcessed])
	require.Equal(t, 1, mem.paymentCount())
}

func TestReconcileLostInsertRaceRollsBack(t *testing.T) {
	for _, tc := range []struct {
		name string
		set  func(*memDB)
	}{
		{"no row returned", func(m *memDB) { m.insertNoRow = true }},
		{"unique violation", func(m *memDB) { m.insertUnique = true }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := pendingOrder(9810)
			mem := newMemDB(o)
			tc.set(mem)
			emitter := &emitterStub{}
			r := &Reconciler{Tx: mem, Events: emitter}

			res, err := r.Reconcile(context.Background(), common.UUIDString(o.StoreID), succeeded(o, "pi_lost", 9810))
			require.NoError(t, err)
			require.Equal(t, OutcomeAlreadyProcessed, res.Outcome)
			require.False(t, mem.order(o.ID).IsPaid, "order update rolled back")
			require.Empty(t, emitter.topics)
		})
	}
}

func TestReconcileIgnoredAndMissing(t *testing.T) {
	o := pendingOrder(9810)
	mem := newMemDB(o)
	r := &Reconciler{Tx: mem}
	storeID := common.UUIDString(o.StoreID)
	ctx := context.Background()

	res, err := r.Reconcile(ctx, storeID, stripe.Event{ID: "evt_x", Type: "charge.refunded", Data: &stripe.EventData{Raw: json.RawMessage(`{}`)}})
	require.NoError(t, err)
	require.Equal(t, OutcomeIgnored, res.Outcome)

	bad := stripe.Event{ID: "evt_y", Type: EventPaymentSucceeded, Data: &stripe.EventData{Raw: json.RawMessage(intentJSON("pi_y", 100, "usd", map[string]string{"orderId": "oops", "storeId": storeID}))}}
	res, err = r.Reconcile(ctx, storeID, bad)
	require.NoError(t, err)
	require.Equal(t, OutcomeIgnored, res.Outcome)

	ghost := pendingOrder(100)
	ghost.StoreID = o.StoreID
	res, err = r.Reconcile(ctx, storeID, succeeded(ghost, "pi_ghost", 100))
	require.NoError(t, err)
	require.Equal(t, OutcomeOrderMissing, res.Outcome)
	require.Zero(t, mem.paymentCount())
}

func TestReconcileStoreMismatch(t *testing.T) {
	o := pendingOrder(9810)
	mem := newMemDB(o)
	r := &Reconciler{Tx: mem}

	_, err := r.Reconcile(context.Background(), common.UUIDString(common.NewUUID()), succeeded(o, "pi_other", 9810))
	require.ErrorIs(t, err, ErrStoreMismatch)
	require.False(t, mem.order(o.ID).IsPaid)
	require.Zero(t, mem.paymentCount())
}

func TestReconcileAmountMismatchStillApplies(t *testing.T) {
	o := pendingOrder(9810)
	mem := newMemDB(o)
	r := &Reconciler{Tx: mem}

	res, err := r.Reconcile(context.Background(), common.UUIDString(o.StoreID), succeeded(o, "pi_short", 9000))
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, res.Outcome)
	require.Equal(t, int64(9000), mem.payments["pi_short"].Amount)
}

func TestReconcileKeepsAdvancedStatus(t *testing.T) {
	o := pendingOrder(9810)
	o.Status = "SHIPPED"
	mem := newMemDB(o)
	r := &Reconciler{Tx: mem}

	_, err := r.Reconcile(context.Background(), common.UUIDString(o.StoreID), succeeded(o, "pi_late", 9810))
	require.NoError(t, err)
	got := mem.order(o.ID)
	require.True(t, got.IsPaid)
	require.Equal(t, "SHIPPED", got.Status)
}

func TestReconcileDatabaseErrorPropagates(t *testing.T) {
	o := pendingOrder(9810)
	mem := newMemDB(o)
	mem.failLookup = errors.New("connection refused")
	r := &Reconciler{Tx: mem}

	_, err := r.Reconcile(context.Background(), common.UUIDString(o.StoreID), succeeded(o, "pi_db", 9810))
	require.Error(t, err)
}

type secretsByStore map[string]string

func (s secretsByStore) WebhookSecret(_ context.Context, storeID string) (string, error) {
	if secret, ok := s[storeID]; ok {
		return secret, nil
	}
	return "", fmt.Errorf("lookup: %w", errors.New("store unknown"))
}

func TestWebhookHandlerEndToEnd(t *testing.T) {
	o := pendingOrder(9810)
	other := pendingOrder(500)
	mem := newMemDB(o, other)
	storeID := common.UUIDString(o.StoreID)
	otherStore := common.UUIDString(other.StoreID)
	h := &WebhookHandler{
		Verifier: &webhooks.Verifier{
			Source:  webhooks.StoreSecret{Resolver: secretsByStore{storeID: "whsec_a", otherStore: "whsec_b"}},
			Surface: "storefront",
		},
		Reconciler: &Reconciler{Tx: mem},
	}
	router := chi.NewRouter()
	router.Post("/webhooks/payment/{storeId}", h.Handle)

	body := func(ord dbgen.Order, ref string) string {
		return fmt.Sprintf(`{"id":"evt_%s","object":"event","type":"payment_intent.succeeded","data":{"object":%s}}`, ref,
			intentJSON(ref, ord.Payable, "usd", map[string]string{"orderId": common.UUIDString(ord.ID), "storeId": common.UUIDString(ord.StoreID)}))
	}
	post := func(path, payload, secret string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
		req.Header.Set(webhooks.SignatureHeader, webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload: []byte(payload), Secret: secret, Timestamp: time.Now(),
		}).Header)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/webhooks/payment/"+storeID, body(o, "pi_e2e"), "whsec_a")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"outcome":"applied"`)

	rec = post("/webhooks/payment/"+storeID, body(o, "pi_e2e"), "whsec_a")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"outcome":"already_processed"`)

	// signed with store B's secret, delivered to store A's endpoint
	rec = post("/webhooks/payment/"+storeID, body(other, "pi_cross"), "whsec_b")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// correctly signed by store B but naming store A's order in metadata is a mismatch
	rec = post("/webhooks/payment/"+otherStore, body(o, "pi_foreign"), "whsec_b")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "STORE_MISMATCH")

	require.Equal(t, 1, mem.paymentCount())
}
