package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/events"
)

type stubStore struct {
	lastParams dbgen.InsertDomainEventParams
	err        error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error) {
	s.lastParams = arg
	if s.err != nil {
		return dbgen.DomainEvent{}, s.err
	}
	return dbgen.DomainEvent{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}, nil
}

type captureNotifier struct {
	events []dbgen.DomainEvent
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func toUUID(u uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: u, Valid: true}
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	event, err := bus.Emit(context.Background(), events.TopicOrderPaid, toUUID(uuid.New()), events.OrderPaid{OrderID: "o1", Amount: 9810})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderPaid, store.lastParams.Topic)
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded events.OrderPaid
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "o1", decoded.OrderID)
	require.Equal(t, int64(9810), decoded.Amount)
}

func TestEmitReturnsEventWhenNotifierFails(t *testing.T) {
	notifier := &captureNotifier{err: errors.New("queue down")}
	bus := events.Bus{Store: &stubStore{}, Notifiers: []events.Notifier{notifier}}
	event, err := bus.Emit(context.Background(), events.TopicSubscriptionChanged, toUUID(uuid.New()), nil)
	require.Error(t, err)
	require.True(t, event.ID.Valid)
	require.JSONEq(t, `{}`, string(event.Payload))
}

func TestEmitValidation(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), " ", toUUID(uuid.New()), nil)
	require.ErrorIs(t, err, events.ErrTopicRequired)
	_, err = bus.Emit(context.Background(), events.TopicOrderPaid, pgtype.UUID{}, nil)
	require.ErrorIs(t, err, events.ErrAggregateID)
	_, err = bus.Emit(context.Background(), events.TopicOrderPaid, toUUID(uuid.New()), []byte("{bad"))
	require.Error(t, err)

	var nilBus *events.Bus
	_, err = nilBus.Emit(context.Background(), events.TopicOrderPaid, toUUID(uuid.New()), nil)
	require.ErrorIs(t, err, events.ErrNotConfigured)
}
