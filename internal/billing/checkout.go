package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/db"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/gateway"
	"github.com/noah-isme/toko-billing/internal/obs"
)

var tracer = obs.Tracer("billing")

const surfacePlatform = "platform"

var (
	ErrInvalidPlan      = errors.New("billing: plan is not purchasable")
	ErrNotConfigured    = errors.New("billing: platform gateway not configured")
	ErrMerchantNotFound = errors.New("billing: merchant not found")
)

// Locker serialises checkout per merchant.
type Locker interface {
	Key(scope, id string) string
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// CheckoutStore is the subset of queries checkout needs.
type CheckoutStore interface {
	GetMerchantByID(ctx context.Context, id pgtype.UUID) (dbgen.Merchant, error)
	EnsureSubscription(ctx context.Context, merchantID pgtype.UUID) (dbgen.Subscription, error)
	SetSubscriptionCustomer(ctx context.Context, arg dbgen.SetSubscriptionCustomerParams) (dbgen.Subscription, error)
}

type CheckoutService struct {
	Store   CheckoutStore
	Locker  Locker
	Gateway gateway.Factory
	// SecretKey is the platform account's key, never a store's.
	SecretKey  string
	Catalog    Catalog
	SuccessURL string
	CancelURL  string
	LockTTL    time.Duration
	Logger     zerolog.Logger
}

// Session is the hosted checkout the merchant is redirected to.
type Session struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
}

// CustomerIdempotencyKey keeps customer creation single per merchant even
// when the lock is lost mid-flight.
func CustomerIdempotencyKey(merchantID string) string {
	return "billing-customer:" + merchantID
}

// Create opens a hosted subscription checkout for plan.
func (s *CheckoutService) Create(ctx context.Context, merchantID, planName string) (Session, error) {
	ctx, span := tracer.Start(ctx, "billing.create_checkout")
	defer span.End()
	span.SetAttributes(attribute.String("merchant.id", merchantID), attribute.String("billing.plan", planName))

	sess, err := s.create(ctx, merchantID, planName)
	result := "ok"
	if err != nil {
		span.RecordError(err)
		result = checkoutResult(err)
	}
	obs.IncCounter(obs.CheckoutIntentTotal, surfacePlatform, result)
	return sess, err
}

func (s *CheckoutService) create(ctx context.Context, merchantID, planName string) (Session, error) {
	plan, ok := ParsePlan(planName)
	if !ok || !plan.Purchasable() {
		return Session{}, ErrInvalidPlan
	}
	priceID, ok := s.Catalog.PriceFor(plan)
	if !ok {
		return Session{}, fmt.Errorf("%w: no price for plan %s", ErrNotConfigured, plan)
	}
	mid, err := common.ParseUUID(merchantID)
	if err != nil {
		return Session{}, ErrMerchantNotFound
	}
	client, err := s.Gateway.ForKey(s.SecretKey)
	if err != nil {
		if errors.Is(err, gateway.ErrMissingKey) {
			return Session{}, ErrNotConfigured
		}
		return Session{}, err
	}
	merchantID = common.UUIDString(mid)

	var out Session
	err = s.Locker.WithLock(ctx, s.Locker.Key("billing", merchantID), s.lockTTL(), func(ctx context.Context) error {
		merchant, err := s.Store.GetMerchantByID(ctx, mid)
		if err != nil {
			if db.IsNotFound(err) {
				return ErrMerchantNotFound
			}
			return fmt.Errorf("load merchant: %w", err)
		}
		sub, err := s.Store.EnsureSubscription(ctx, mid)
		if err != nil {
			return fmt.Errorf("ensure subscription: %w", err)
		}

		customerID := sub.ExternalCustomerID.String
		if !sub.ExternalCustomerID.Valid || customerID == "" {
			customer, err := client.CreateCustomer(ctx, gateway.CustomerRequest{
				Email:          merchant.Email,
				Name:           merchant.Name,
				Metadata:       map[string]string{"merchantId": merchantID},
				IdempotencyKey: CustomerIdempotencyKey(merchantID),
			})
			if err != nil {
				return err
			}
			customerID = customer.ID
			if _, err := s.Store.SetSubscriptionCustomer(ctx, dbgen.SetSubscriptionCustomerParams{
				MerchantID:         mid,
				ExternalCustomerID: pgtype.Text{String: customerID, Valid: true},
			}); err != nil {
				return fmt.Errorf("persist customer: %w", err)
			}
			s.Logger.Info().Str("merchant_id", merchantID).Str("customer_id", customerID).Msg("billing customer created")
		}

		session, err := client.CreateSubscriptionSession(ctx, gateway.SubscriptionSessionRequest{
			CustomerID:        customerID,
			PriceID:           priceID,
			SuccessURL:        s.SuccessURL,
			CancelURL:         s.CancelURL,
			ClientReferenceID: merchantID,
			Metadata:          map[string]string{"merchantId": merchantID, "plan": string(plan)},
		})
		if err != nil {
			return err
		}
		out = Session{SessionID: session.ID, RedirectURL: session.URL}
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	s.Logger.Info().Str("merchant_id", merchantID).Str("plan", string(plan)).Str("session_id", out.SessionID).Msg("billing checkout created")
	return out, nil
}

func (s *CheckoutService) lockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	return 30 * time.Second
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPlan):
		return "invalid_plan"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrMerchantNotFound):
		return "merchant_not_found"
	case errors.Is(err, gateway.ErrTimeout):
		return "timeout"
	case errors.Is(err, gateway.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
