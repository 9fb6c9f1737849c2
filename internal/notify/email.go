package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-billing/internal/common"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/events"
	"github.com/noah-isme/toko-billing/internal/pricing"
)

// RecipientStore looks up where notifications go.
type RecipientStore interface {
	GetUserByID(ctx context.Context, id pgtype.UUID) (dbgen.User, error)
	GetMerchantByID(ctx context.Context, id pgtype.UUID) (dbgen.Merchant, error)
}

// ReplayGuard claims an event so a retried task does not send twice.
type ReplayGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisReplayGuard implements ReplayGuard with SETNX.
type RedisReplayGuard struct {
	Client *redis.Client
}

func (r RedisReplayGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.Client == nil {
		return true, nil
	}
	return r.Client.SetNX(ctx, key, "1", ttl).Result()
}

func (r RedisReplayGuard) Release(ctx context.Context, key string) error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Del(ctx, key).Err()
}

// EmailHandlers renders notification emails for asynq tasks.
type EmailHandlers struct {
	Mail       common.EmailSender
	Recipients RecipientStore
	Guard      ReplayGuard
	GuardTTL   time.Duration
	Logger     zerolog.Logger
}

// Register binds the handlers on mux.
func (h EmailHandlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskType(events.TopicOrderPaid), h.HandleOrderPaid)
	mux.HandleFunc(TaskType(events.TopicSubscriptionChanged), h.HandleSubscriptionChanged)
}

// HandleOrderPaid emails the purchaser a receipt.
func (h EmailHandlers) HandleOrderPaid(ctx context.Context, task *asynq.Task) error {
	envelope, err := decodeTask(task)
	if err != nil {
		return err
	}
	var paid events.OrderPaid
	if err := json.Unmarshal(envelope.Data, &paid); err != nil {
		return fmt.Errorf("decode order.paid: %v: %w", err, asynq.SkipRetry)
	}
	userID, err := common.ParseUUID(paid.UserID)
	if err != nil {
		h.Logger.Warn().Str("event_id", envelope.EventID).Msg("order.paid without purchaser, skipping receipt")
		return nil
	}
	user, err := h.Recipients.GetUserByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load purchaser: %w", err)
	}
	msg := common.Email{
		To:      user.Email,
		Subject: "Payment received",
		Body: fmt.Sprintf("Hi %s,\n\nWe received %s %s for order %s.\nReference: %s\n",
			user.Name, pricing.Format(paid.Amount), paid.Currency, paid.OrderID, paid.ReferenceID),
	}
	return h.sendOnce(ctx, envelope.EventID, msg)
}

// HandleSubscriptionChanged tells the merchant about a plan or status change.
func (h EmailHandlers) HandleSubscriptionChanged(ctx context.Context, task *asynq.Task) error {
	envelope, err := decodeTask(task)
	if err != nil {
		return err
	}
	var changed events.SubscriptionChanged
	if err := json.Unmarshal(envelope.Data, &changed); err != nil {
		return fmt.Errorf("decode subscription.changed: %v: %w", err, asynq.SkipRetry)
	}
	if changed.Plan == changed.PreviousPlan && changed.Status == changed.PreviousStatus {
		return nil
	}
	merchantID, err := common.ParseUUID(changed.MerchantID)
	if err != nil {
		return nil
	}
	merchant, err := h.Recipients.GetMerchantByID(ctx, merchantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load merchant: %w", err)
	}
	msg := common.Email{
		To:      merchant.Email,
		Subject: "Your subscription was updated",
		Body: fmt.Sprintf("Hi %s,\n\nYour plan is now %s (%s). It was %s (%s).\n",
			merchant.Name, changed.Plan, changed.Status, changed.PreviousPlan, changed.PreviousStatus),
	}
	return h.sendOnce(ctx, envelope.EventID, msg)
}

func (h EmailHandlers) sendOnce(ctx context.Context, eventID string, msg common.Email) error {
	if h.Mail == nil || msg.To == "" {
		return nil
	}
	key := "notify:sent:" + eventID
	if h.Guard != nil {
		ttl := h.GuardTTL
		if ttl <= 0 {
			ttl = 72 * time.Hour
		}
		ok, err := h.Guard.Acquire(ctx, key, ttl)
		if err != nil {
			return fmt.Errorf("replay guard: %w", err)
		}
		if !ok {
			return nil
		}
	}
	if err := h.Mail.Send(ctx, msg); err != nil {
		if h.Guard != nil {
			_ = h.Guard.Release(ctx, key)
		}
		return fmt.Errorf("send email: %w", err)
	}
	h.Logger.Info().Str("event_id", eventID).Str("subject", msg.Subject).Msg("notification sent")
	return nil
}

func decodeTask(task *asynq.Task) (TaskPayload, error) {
	var envelope TaskPayload
	if err := json.Unmarshal(task.Payload(), &envelope); err != nil {
		return TaskPayload{}, fmt.Errorf("decode task %s: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	return envelope, nil
}
