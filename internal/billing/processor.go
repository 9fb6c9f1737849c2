package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v74"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/db"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/events"
	"github.com/noah-isme/toko-billing/internal/obs"
)

// Platform event types the processor understands.
const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionCreated  = "customer.subscription.created"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
)

type Result struct {
	Outcome        Outcome `json:"outcome"`
	SubscriptionID string  `json:"subscriptionId,omitempty"`
	Plan           Plan    `json:"plan,omitempty"`
	Status         Status  `json:"status,omitempty"`
}

var errNoMatch = errors.New("billing: no matching subscription")

// Processor applies platform gateway events to subscriptions. Each update
// sets the reported state outright; events are not ordered by timestamp, so
// a stale update delivered late overwrites newer state.
type Processor struct {
	Tx      db.TxRunner
	Catalog Catalog
	Events  events.Emitter
	Logger  zerolog.Logger
}

type change struct {
	before dbgen.Subscription
	after  dbgen.Subscription
	fresh  bool
}

// Apply handles one verified event. Unknown types and events that match no
// subscription are ignored so the gateway stops redelivering them.
func (p *Processor) Apply(ctx context.Context, event stripe.Event) (Result, error) {
	ctx, span := tracer.Start(ctx, "billing.apply_event")
	defer span.End()

	eventType := string(event.Type)
	log := p.Logger.With().Str("event_id", event.ID).Str("event_type", eventType).Logger()

	var (
		ch  change
		err error
	)
	switch eventType {
	case EventCheckoutCompleted:
		ch, err = p.checkoutCompleted(ctx, event, log)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		ch, err = p.subscriptionUpdated(ctx, event, log)
	case EventSubscriptionDeleted:
		ch, err = p.subscriptionDeleted(ctx, event, log)
	case EventInvoicePaymentFailed:
		ch, err = p.paymentFailed(ctx, event, log)
	default:
		obs.IncCounter(obs.SubscriptionEventTotal, "other", string(OutcomeIgnored))
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if errors.Is(err, errNoMatch) {
		obs.IncCounter(obs.SubscriptionEventTotal, eventType, string(OutcomeIgnored))
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if err != nil {
		span.RecordError(err)
		obs.IncCounter(obs.SubscriptionEventTotal, eventType, "error")
		return Result{}, err
	}
	obs.IncCounter(obs.SubscriptionEventTotal, eventType, string(OutcomeApplied))

	after := ch.after
	res := Result{
		Outcome:        OutcomeApplied,
		SubscriptionID: common.UUIDString(after.ID),
		Plan:           Plan(after.Plan),
		Status:         Status(after.Status),
	}
	log.Info().Str("merchant_id", common.UUIDString(after.MerchantID)).
		Str("plan", after.Plan).Str("status", after.Status).
		Str("previous_plan", ch.before.Plan).Str("previous_status", ch.before.Status).
		Msg("subscription updated")
	p.emitChanged(ctx, eventType, ch)
	return res, nil
}

func (p *Processor) checkoutCompleted(ctx context.Context, event stripe.Event, log zerolog.Logger) (change, error) {
	var sess stripe.CheckoutSession
	if err := decode(event, &sess); err != nil {
		log.Warn().Err(err).Msg("checkout session payload malformed")
		return change{}, errNoMatch
	}
	mid, err := common.ParseUUID(sess.Metadata["merchantId"])
	if err != nil {
		log.Warn().Str("merchant_id", sess.Metadata["merchantId"]).Msg("checkout session without merchantId")
		return change{}, errNoMatch
	}
	plan, ok := ParsePlan(sess.Metadata["plan"])
	if !ok || plan == PlanFree {
		log.Warn().Str("plan", sess.Metadata["plan"]).Msg("checkout session with invalid plan")
		return change{}, errNoMatch
	}

	var ch change
	err = p.Tx.ExecTx(ctx, func(q dbgen.Querier) error {
		if _, err := q.GetMerchantByID(ctx, mid); err != nil {
			if db.IsNotFound(err) {
				log.Warn().Str("merchant_id", common.UUIDString(mid)).Msg("checkout completed for unknown merchant")
				return errNoMatch
			}
			return fmt.Errorf("load merchant: %w", err)
		}
		before, err := q.GetSubscriptionByMerchant(ctx, mid)
		switch {
		case db.IsNotFound(err):
			before = dbgen.Subscription{MerchantID: mid, Plan: string(PlanFree), Status: string(StatusActive)}
			ch.fresh = true
		case err != nil:
			return fmt.Errorf("load subscription: %w", err)
		}
		status, err := transition(ctx, Status(before.Status), TriggerActivate)
		if err != nil {
			return err
		}
		after, err := q.ActivateSubscription(ctx, dbgen.ActivateSubscriptionParams{
			MerchantID:             mid,
			Plan:                   string(plan),
			Status:                 string(status),
			ExternalCustomerID:     text(customerID(sess.Customer)),
			ExternalSubscriptionID: text(subscriptionID(sess.Subscription)),
			CurrentPeriodStart:     timestamp(event.Created),
		})
		if err != nil {
			return fmt.Errorf("activate subscription: %w", err)
		}
		ch.before, ch.after = before, after
		return nil
	})
	return ch, err
}

func (p *Processor) subscriptionUpdated(ctx context.Context, event stripe.Event, log zerolog.Logger) (change, error) {
	var sub stripe.Subscription
	if err := decode(event, &sub); err != nil {
		log.Warn().Err(err).Msg("subscription payload malformed")
		return change{}, errNoMatch
	}
	reported, ok := gatewayStatus(string(sub.Status))
	if !ok {
		log.Warn().Str("gateway_status", string(sub.Status)).Msg("unknown gateway subscription status")
		return change{}, errNoMatch
	}

	var ch change
	err := p.Tx.ExecTx(ctx, func(q dbgen.Querier) error {
		before, err := correlate(ctx, q, sub.Metadata["merchantId"], sub.ID)
		if err != nil {
			if errors.Is(err, errNoMatch) {
				log.Warn().Str("subscription", sub.ID).Msg("subscription event matches no merchant")
			}
			return err
		}
		status, err := transition(ctx, Status(before.Status), TriggerSync, reported)
		if err != nil {
			return err
		}
		plan := before.Plan
		if priced, ok := p.planOf(&sub); ok {
			plan = string(priced)
		}
		after, err := q.SyncSubscription(ctx, dbgen.SyncSubscriptionParams{
			ID:                 before.ID,
			Plan:               plan,
			Status:             string(status),
			CurrentPeriodStart: timestamp(sub.CurrentPeriodStart),
			CurrentPeriodEnd:   timestamp(sub.CurrentPeriodEnd),
			CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		})
		if err != nil {
			return fmt.Errorf("sync subscription: %w", err)
		}
		ch.before, ch.after = before, after
		return nil
	})
	return ch, err
}

func (p *Processor) subscriptionDeleted(ctx context.Context, event stripe.Event, log zerolog.Logger) (change, error) {
	var sub stripe.Subscription
	if err := decode(event, &sub); err != nil {
		log.Warn().Err(err).Msg("subscription payload malformed")
		return change{}, errNoMatch
	}
	var ch change
	err := p.Tx.ExecTx(ctx, func(q dbgen.Querier) error {
		before, err := correlate(ctx, q, sub.Metadata["merchantId"], sub.ID)
		if err != nil {
			if errors.Is(err, errNoMatch) {
				log.Warn().Str("subscription", sub.ID).Msg("subscription deletion matches no merchant")
			}
			return err
		}
		if _, err := transition(ctx, Status(before.Status), TriggerDelete); err != nil {
			return err
		}
		after, err := q.CancelSubscription(ctx, before.ID)
		if err != nil {
			return fmt.Errorf("cancel subscription: %w", err)
		}
		ch.before, ch.after = before, after
		return nil
	})
	return ch, err
}

func (p *Processor) paymentFailed(ctx context.Context, event stripe.Event, log zerolog.Logger) (change, error) {
	var inv stripe.Invoice
	if err := decode(event, &inv); err != nil {
		log.Warn().Err(err).Msg("invoice payload malformed")
		return change{}, errNoMatch
	}
	externalID := subscriptionID(inv.Subscription)
	if externalID == "" {
		log.Warn().Str("invoice", inv.ID).Msg("failed invoice without subscription")
		return change{}, errNoMatch
	}
	var ch change
	err := p.Tx.ExecTx(ctx, func(q dbgen.Querier) error {
		before, err := correlate(ctx, q, "", externalID)
		if err != nil {
			if errors.Is(err, errNoMatch) {
				log.Warn().Str("subscription", externalID).Msg("failed invoice matches no subscription")
			}
			return err
		}
		status, err := transition(ctx, Status(before.Status), TriggerPaymentFailed)
		if err != nil {
			return err
		}
		if status == Status(before.Status) && status == StatusCanceled {
			log.Info().Str("subscription", externalID).Msg("payment failure ignored for canceled subscription")
			return errNoMatch
		}
		after, err := q.UpdateSubscriptionStatus(ctx, dbgen.UpdateSubscriptionStatusParams{ID: before.ID, Status: string(status)})
		if err != nil {
			return fmt.Errorf("update subscription status: %w", err)
		}
		ch.before, ch.after = before, after
		return nil
	})
	return ch, err
}

// correlate finds the subscription by merchant metadata, falling back to the
// gateway's subscription id.
func correlate(ctx context.Context, q dbgen.Querier, merchantID, externalID string) (dbgen.Subscription, error) {
	if mid, err := common.ParseUUID(strings.TrimSpace(merchantID)); err == nil {
		sub, err := q.GetSubscriptionByMerchant(ctx, mid)
		if err == nil {
			return sub, nil
		}
		if !db.IsNotFound(err) {
			return dbgen.Subscription{}, fmt.Errorf("load subscription: %w", err)
		}
	}
	if externalID == "" {
		return dbgen.Subscription{}, errNoMatch
	}
	sub, err := q.GetSubscriptionByExternalID(ctx, pgtype.Text{String: externalID, Valid: true})
	if err != nil {
		if db.IsNotFound(err) {
			return dbgen.Subscription{}, errNoMatch
		}
		return dbgen.Subscription{}, fmt.Errorf("load subscription: %w", err)
	}
	return sub, nil
}

func (p *Processor) planOf(sub *stripe.Subscription) (Plan, bool) {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0] == nil || sub.Items.Data[0].Price == nil {
		return "", false
	}
	return p.Catalog.PlanFor(sub.Items.Data[0].Price.ID)
}

func (p *Processor) emitChanged(ctx context.Context, eventType string, ch change) {
	if p.Events == nil {
		return
	}
	previousPlan, previousStatus := ch.before.Plan, ch.before.Status
	if ch.fresh {
		previousPlan, previousStatus = "", ""
	}
	_, err := p.Events.Emit(ctx, events.TopicSubscriptionChanged, ch.after.ID, events.SubscriptionChanged{
		SubscriptionID: common.UUIDString(ch.after.ID),
		MerchantID:     common.UUIDString(ch.after.MerchantID),
		Event:          eventType,
		Plan:           ch.after.Plan,
		Status:         ch.after.Status,
		PreviousPlan:   previousPlan,
		PreviousStatus: previousStatus,
	})
	if err != nil {
		p.Logger.Warn().Err(err).Str("subscription_id", common.UUIDString(ch.after.ID)).Msg("emit subscription.changed failed")
	}
}

func decode(event stripe.Event, dst any) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return errors.New("event has no data")
	}
	return json.Unmarshal(event.Data.Raw, dst)
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func subscriptionID(s *stripe.Subscription) string {
	if s == nil {
		return ""
	}
	return s.ID
}

func text(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func timestamp(unix int64) pgtype.Timestamptz {
	if unix <= 0 {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: time.Unix(unix, 0).UTC(), Valid: true}
}
