package payment

import (
	"context"
	"maps"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/toko-billing/internal/common"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
)

// memDB is a transactional in-memory ledger; a failed ExecTx restores the
// state it started from.
type memDB struct {
	mu        sync.Mutex
	orders    map[[16]byte]dbgen.Order
	payments  map[string]dbgen.Payment
	providers map[[16]byte]dbgen.PaymentProvider

	// hooks for races the real database resolves
	insertNoRow  bool
	insertUnique bool
	failLookup   error
}

func newMemDB(orders ...dbgen.Order) *memDB {
	m := &memDB{
		orders:    map[[16]byte]dbgen.Order{},
		payments:  map[string]dbgen.Payment{},
		providers: map[[16]byte]dbgen.PaymentProvider{},
	}
	for _, o := range orders {
		m.orders[o.ID.Bytes] = o
	}
	return m
}

func (m *memDB) ExecTx(_ context.Context, fn func(dbgen.Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders, payments, providers := maps.Clone(m.orders), maps.Clone(m.payments), maps.Clone(m.providers)
	if err := fn(&memQuerier{m: m}); err != nil {
		m.orders, m.payments, m.providers = orders, payments, providers
		return err
	}
	return nil
}

func (m *memDB) order(id pgtype.UUID) dbgen.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id.Bytes]
}

func (m *memDB) paymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

type memQuerier struct {
	dbgen.Querier
	m *memDB
}

func (q *memQuerier) GetPaymentByReference(_ context.Context, ref string) (dbgen.Payment, error) {
	if q.m.failLookup != nil {
		return dbgen.Payment{}, q.m.failLookup
	}
	p, ok := q.m.payments[ref]
	if !ok {
		return dbgen.Payment{}, pgx.ErrNoRows
	}
	return p, nil
}

func (q *memQuerier) GetOrderForUpdate(_ context.Context, arg dbgen.GetOrderForUpdateParams) (dbgen.Order, error) {
	o, ok := q.m.orders[arg.ID.Bytes]
	if !ok || !common.UUIDEqual(o.StoreID, arg.StoreID) {
		return dbgen.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (q *memQuerier) MarkOrderPaid(_ context.Context, id pgtype.UUID) (dbgen.Order, error) {
	o := q.m.orders[id.Bytes]
	o.IsPaid = true
	if o.Status == "PENDING" {
		o.Status = "PAID"
	}
	q.m.orders[id.Bytes] = o
	return o, nil
}

func (q *memQuerier) UpsertPaymentProvider(_ context.Context, arg dbgen.UpsertPaymentProviderParams) (dbgen.PaymentProvider, error) {
	if p, ok := q.m.providers[arg.StoreID.Bytes]; ok {
		return p, nil
	}
	p := dbgen.PaymentProvider{ID: common.NewUUID(), StoreID: arg.StoreID, Name: arg.Name}
	q.m.providers[arg.StoreID.Bytes] = p
	return p, nil
}

func (q *memQuerier) InsertPayment(_ context.Context, arg dbgen.InsertPaymentParams) (dbgen.Payment, error) {
	if q.m.insertUnique {
		return dbgen.Payment{}, &pgconn.PgError{Code: "23505", ConstraintName: referenceConstraint}
	}
	if _, exists := q.m.payments[arg.ReferenceID]; exists || q.m.insertNoRow {
		return dbgen.Payment{}, pgx.ErrNoRows
	}
	p := dbgen.Payment{
		ID: common.NewUUID(), OrderID: arg.OrderID, StoreID: arg.StoreID, ProviderID: arg.ProviderID,
		ReferenceID: arg.ReferenceID, Amount: arg.Amount, Currency: arg.Currency, Success: arg.Success,
	}
	q.m.payments[arg.ReferenceID] = p
	return p, nil
}

type emitterStub struct {
	mu     sync.Mutex
	topics []string
	last   any
}

func (e *emitterStub) Emit(_ context.Context, topic string, id pgtype.UUID, payload any) (dbgen.DomainEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topics = append(e.topics, topic)
	e.last = payload
	return dbgen.DomainEvent{ID: common.NewUUID(), Topic: topic, AggregateID: id}, nil
}
