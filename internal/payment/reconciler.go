package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v74"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/db"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/events"
	"github.com/noah-isme/toko-billing/internal/gateway"
	"github.com/noah-isme/toko-billing/internal/obs"
)

// EventPaymentSucceeded is the only event type the reconciler acts on.
const EventPaymentSucceeded = "payment_intent.succeeded"

const referenceConstraint = "payments_reference_id_key"

// Outcome is the result of reconciling one event.
type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeOrderMissing     Outcome = "order_missing"
)

// ErrStoreMismatch is returned when the intent's metadata names a store other
// than the one whose endpoint received it.
var ErrStoreMismatch = errors.New("payment: event store does not match endpoint store")

type Result struct {
	Outcome   Outcome `json:"outcome"`
	OrderID   string  `json:"orderId,omitempty"`
	PaymentID string  `json:"paymentId,omitempty"`
}

// Reconciler marks orders paid from verified payment events. Delivering the
// same event twice records one payment.
type Reconciler struct {
	Tx     db.TxRunner
	Events events.Emitter
	Logger zerolog.Logger
}

var errLostRace = errors.New("payment: reference recorded concurrently")

// Reconcile applies event for storeID, the store taken from the webhook route.
func (r *Reconciler) Reconcile(ctx context.Context, storeID string, event stripe.Event) (Result, error) {
	ctx, span := tracer.Start(ctx, "payment.reconcile")
	defer span.End()

	res, err := r.reconcile(ctx, storeID, event)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, ErrStoreMismatch) {
			obs.IncCounter(obs.PaymentReconcileTotal, "error")
		}
		return res, err
	}
	obs.IncCounter(obs.PaymentReconcileTotal, string(res.Outcome))
	return res, nil
}

func (r *Reconciler) reconcile(ctx context.Context, storeID string, event stripe.Event) (Result, error) {
	log := r.Logger.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Str("store_id", storeID).Logger()
	if string(event.Type) != EventPaymentSucceeded {
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if event.Data == nil {
		log.Warn().Msg("payment event without data")
		return Result{Outcome: OutcomeIgnored}, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Warn().Err(err).Msg("payment intent payload malformed")
		return Result{Outcome: OutcomeIgnored}, nil
	}
	log = log.With().Str("intent_id", pi.ID).Logger()
	if strings.TrimSpace(pi.ID) == "" {
		log.Warn().Msg("payment intent without id")
		return Result{Outcome: OutcomeIgnored}, nil
	}

	orderID, err := common.ParseUUID(pi.Metadata["orderId"])
	if err != nil {
		log.Warn().Str("order_id", pi.Metadata["orderId"]).Msg("payment intent metadata lacks a valid orderId")
		return Result{Outcome: OutcomeIgnored}, nil
	}
	metaStore, err := common.ParseUUID(pi.Metadata["storeId"])
	if err != nil {
		log.Warn().Str("meta_store_id", pi.Metadata["storeId"]).Msg("payment intent metadata lacks a valid storeId")
		return Result{Outcome: OutcomeIgnored}, nil
	}
	pathStore, err := common.ParseUUID(storeID)
	if err != nil || !common.UUIDEqual(metaStore, pathStore) {
		log.Warn().Str("meta_store_id", pi.Metadata["storeId"]).Msg("payment event store mismatch")
		return Result{}, ErrStoreMismatch
	}

	res := Result{OrderID: common.UUIDString(orderID)}
	var (
		paid    dbgen.Order
		payment dbgen.Payment
	)
	err = r.Tx.ExecTx(ctx, func(q dbgen.Querier) error {
		if _, err := q.GetPaymentByReference(ctx, pi.ID); err == nil {
			res.Outcome = OutcomeAlreadyProcessed
			return nil
		} else if !db.IsNotFound(err) {
			return fmt.Errorf("lookup payment: %w", err)
		}

		order, err := q.GetOrderForUpdate(ctx, dbgen.GetOrderForUpdateParams{ID: orderID, StoreID: pathStore})
		if err != nil {
			if db.IsNotFound(err) {
				res.Outcome = OutcomeOrderMissing
				return nil
			}
			return fmt.Errorf("lock order: %w", err)
		}

		paid, err = q.MarkOrderPaid(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		provider, err := q.UpsertPaymentProvider(ctx, dbgen.UpsertPaymentProviderParams{StoreID: pathStore, Name: gateway.ProviderName})
		if err != nil {
			return fmt.Errorf("upsert payment provider: %w", err)
		}

		amount, currency := settledAmount(pi, order.Currency)
		if amount != order.Payable {
			log.Warn().Int64("amount", amount).Int64("payable", order.Payable).Str("order_id", res.OrderID).Msg("payment amount differs from order payable")
			if obs.PaymentAmountMismatchTotal != nil {
				obs.PaymentAmountMismatchTotal.Inc()
			}
		}

		payment, err = q.InsertPayment(ctx, dbgen.InsertPaymentParams{
			OrderID:     order.ID,
			StoreID:     pathStore,
			ProviderID:  provider.ID,
			ReferenceID: pi.ID,
			Amount:      amount,
			Currency:    currency,
			Success:     true,
		})
		if err != nil {
			if db.IsNotFound(err) {
				return errLostRace
			}
			if db.IsUniqueViolation(err, referenceConstraint) {
				return fmt.Errorf("%w: %v", db.ErrDuplicateReference, err)
			}
			return fmt.Errorf("insert payment: %w", err)
		}
		res.Outcome = OutcomeApplied
		return nil
	})
	switch {
	case errors.Is(err, errLostRace), errors.Is(err, db.ErrDuplicateReference), db.IsUniqueViolation(err, referenceConstraint):
		return Result{Outcome: OutcomeAlreadyProcessed, OrderID: res.OrderID}, nil
	case err != nil:
		return Result{}, err
	}

	switch res.Outcome {
	case OutcomeAlreadyProcessed:
		log.Info().Msg("payment already recorded")
	case OutcomeOrderMissing:
		log.Warn().Str("order_id", res.OrderID).Msg("payment for unknown order acknowledged")
	case OutcomeApplied:
		res.PaymentID = common.UUIDString(payment.ID)
		log.Info().Str("order_id", res.OrderID).Str("payment_id", res.PaymentID).Msg("order marked paid")
		r.emitPaid(ctx, paid, payment)
	}
	return res, nil
}

// settledAmount prefers amount_received and converts it back to minor units.
func settledAmount(pi stripe.PaymentIntent, fallbackCurrency string) (int64, string) {
	currency := strings.ToUpper(strings.TrimSpace(string(pi.Currency)))
	if currency == "" {
		currency = fallbackCurrency
	}
	amount := pi.AmountReceived
	if amount == 0 {
		amount = pi.Amount
	}
	return gateway.FromGatewayAmount(amount, currency), currency
}

func (r *Reconciler) emitPaid(ctx context.Context, o dbgen.Order, p dbgen.Payment) {
	if r.Events == nil {
		return
	}
	_, err := r.Events.Emit(ctx, events.TopicOrderPaid, o.ID, events.OrderPaid{
		OrderID:     common.UUIDString(o.ID),
		StoreID:     common.UUIDString(o.StoreID),
		UserID:      common.UUIDString(o.UserID),
		PaymentID:   common.UUIDString(p.ID),
		ReferenceID: p.ReferenceID,
		Amount:      p.Amount,
		Currency:    p.Currency,
	})
	if err != nil {
		r.Logger.Warn().Err(err).Str("order_id", common.UUIDString(o.ID)).Msg("emit order.paid failed")
	}
}
