package billing

import (
	"context"
	"maps"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/toko-billing/internal/common"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
)

// memStore keeps merchants and subscriptions in memory. It serves both the
// checkout queries directly and the processor through ExecTx.
type memStore struct {
	dbgen.Querier

	mu        sync.Mutex
	merchants map[[16]byte]dbgen.Merchant
	subs      map[[16]byte]dbgen.Subscription
	writes    int
	failWith  error
}

func newMemStore(merchants ...dbgen.Merchant) *memStore {
	m := &memStore{merchants: map[[16]byte]dbgen.Merchant{}, subs: map[[16]byte]dbgen.Subscription{}}
	for _, mc := range merchants {
		m.merchants[mc.ID.Bytes] = mc
	}
	return m
}

func newMerchant() dbgen.Merchant {
	return dbgen.Merchant{ID: common.NewUUID(), Name: "Acme", Email: "owner@acme.test"}
}

func (m *memStore) put(sub dbgen.Subscription) dbgen.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !sub.ID.Valid {
		sub.ID = common.NewUUID()
	}
	m.subs[sub.MerchantID.Bytes] = sub
	return sub
}

func (m *memStore) sub(merchantID pgtype.UUID) (dbgen.Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[merchantID.Bytes]
	return s, ok
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memStore) ExecTx(_ context.Context, fn func(dbgen.Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs, writes := maps.Clone(m.subs), m.writes
	if err := fn(&memTx{m: m}); err != nil {
		m.subs, m.writes = subs, writes
		return err
	}
	return nil
}

// Direct calls lock the store; transactional calls go through memTx which
// runs under the ExecTx lock.
func (m *memStore) GetMerchantByID(ctx context.Context, id pgtype.UUID) (dbgen.Merchant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m: m}).GetMerchantByID(ctx, id)
}

func (m *memStore) GetSubscriptionByMerchant(ctx context.Context, id pgtype.UUID) (dbgen.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m: m}).GetSubscriptionByMerchant(ctx, id)
}

func (m *memStore) EnsureSubscription(ctx context.Context, id pgtype.UUID) (dbgen.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m: m}).EnsureSubscription(ctx, id)
}

func (m *memStore) SetSubscriptionCustomer(ctx context.Context, arg dbgen.SetSubscriptionCustomerParams) (dbgen.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m: m}).SetSubscriptionCustomer(ctx, arg)
}

type memTx struct {
	dbgen.Querier
	m *memStore
}

func (q *memTx) GetMerchantByID(_ context.Context, id pgtype.UUID) (dbgen.Merchant, error) {
	if q.m.failWith != nil {
		return dbgen.Merchant{}, q.m.failWith
	}
	mc, ok := q.m.merchants[id.Bytes]
	if !ok {
		return dbgen.Merchant{}, pgx.ErrNoRows
	}
	return mc, nil
}

func (q *memTx) GetSubscriptionByMerchant(_ context.Context, id pgtype.UUID) (dbgen.Subscription, error) {
	if q.m.failWith != nil {
		return dbgen.Subscription{}, q.m.failWith
	}
	s, ok := q.m.subs[id.Bytes]
	if !ok {
		return dbgen.Subscription{}, pgx.ErrNoRows
	}
	return s, nil
}

func (q *memTx) GetSubscriptionByExternalID(_ context.Context, ext pgtype.Text) (dbgen.Subscription, error) {
	if q.m.failWith != nil {
		return dbgen.Subscription{}, q.m.failWith
	}
	for _, s := range q.m.subs {
		if s.ExternalSubscriptionID.Valid && s.ExternalSubscriptionID.String == ext.String {
			return s, nil
		}
	}
	return dbgen.Subscription{}, pgx.ErrNoRows
}

func (q *memTx) EnsureSubscription(_ context.Context, id pgtype.UUID) (dbgen.Subscription, error) {
	if s, ok := q.m.subs[id.Bytes]; ok {
		return s, nil
	}
	s := dbgen.Subscription{ID: common.NewUUID(), MerchantID: id, Plan: string(PlanFree), Status: string(StatusActive)}
	q.m.subs[id.Bytes] = s
	q.m.writes++
	return s, nil
}

func (q *memTx) SetSubscriptionCustomer(_ context.Context, arg dbgen.SetSubscriptionCustomerParams) (dbgen.Subscription, error) {
	s, ok := q.m.subs[arg.MerchantID.Bytes]
	if !ok {
		return dbgen.Subscription{}, pgx.ErrNoRows
	}
	s.ExternalCustomerID = arg.ExternalCustomerID
	return q.save(s), nil
}

func (q *memTx) ActivateSubscription(_ context.Context, arg dbgen.ActivateSubscriptionParams) (dbgen.Subscription, error) {
	s, ok := q.m.subs[arg.MerchantID.Bytes]
	if !ok {
		s = dbgen.Subscription{ID: common.NewUUID(), MerchantID: arg.MerchantID}
	}
	s.Plan, s.Status = arg.Plan, arg.Status
	if arg.ExternalCustomerID.Valid {
		s.ExternalCustomerID = arg.ExternalCustomerID
	}
	s.ExternalSubscriptionID = arg.ExternalSubscriptionID
	s.CurrentPeriodStart = arg.CurrentPeriodStart
	s.CurrentPeriodEnd = pgtype.Timestamptz{}
	s.CancelAtPeriodEnd = false
	return q.save(s), nil
}

func (q *memTx) SyncSubscription(_ context.Context, arg dbgen.SyncSubscriptionParams) (dbgen.Subscription, error) {
	s, ok := q.byID(arg.ID)
	if !ok {
		return dbgen.Subscription{}, pgx.ErrNoRows
	}
	s.Plan, s.Status = arg.Plan, arg.Status
	s.CurrentPeriodStart, s.CurrentPeriodEnd = arg.CurrentPeriodStart, arg.CurrentPeriodEnd
	s.CancelAtPeriodEnd = arg.CancelAtPeriodEnd
	return q.save(s), nil
}

func (q *memTx) UpdateSubscriptionStatus(_ context.Context, arg dbgen.UpdateSubscriptionStatusParams) (dbgen.Subscription, error) {
	s, ok := q.byID(arg.ID)
	if !ok {
		return dbgen.Subscription{}, pgx.ErrNoRows
	}
	s.Status = arg.Status
	return q.save(s), nil
}

func (q *memTx) CancelSubscription(_ context.Context, id pgtype.UUID) (dbgen.Subscription, error) {
	s, ok := q.byID(id)
	if !ok {
		return dbgen.Subscription{}, pgx.ErrNoRows
	}
	s.Plan, s.Status = string(PlanFree), string(StatusCanceled)
	s.ExternalSubscriptionID = pgtype.Text{}
	s.CancelAtPeriodEnd = false
	return q.save(s), nil
}

func (q *memTx) byID(id pgtype.UUID) (dbgen.Subscription, bool) {
	for _, s := range q.m.subs {
		if s.ID.Bytes == id.Bytes {
			return s, true
		}
	}
	return dbgen.Subscription{}, false
}

func (q *memTx) save(s dbgen.Subscription) dbgen.Subscription {
	q.m.subs[s.MerchantID.Bytes] = s
	q.m.writes++
	return s
}

type emitterStub struct {
	mu       sync.Mutex
	payloads []any
}

func (e *emitterStub) Emit(_ context.Context, topic string, id pgtype.UUID, payload any) (dbgen.DomainEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payloads = append(e.payloads, payload)
	return dbgen.DomainEvent{ID: common.NewUUID(), Topic: topic, AggregateID: id}, nil
}

func (e *emitterStub) all() []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]any(nil), e.payloads...)
}
