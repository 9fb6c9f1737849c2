// Package checkout turns a cart into a priced, pending order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/credentials"
	"github.com/noah-isme/toko-billing/internal/db"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/events"
	"github.com/noah-isme/toko-billing/internal/gateway"
	"github.com/noah-isme/toko-billing/internal/obs"
	"github.com/noah-isme/toko-billing/internal/order"
	"github.com/noah-isme/toko-billing/internal/pricing"
)

var tracer = obs.Tracer("checkout")

var (
	ErrCartEmpty      = errors.New("checkout: cart is empty")
	ErrUnknownProduct = errors.New("checkout: product not found in store")
	ErrStoreNotFound  = errors.New("checkout: store not found")
	ErrUserRequired   = errors.New("checkout: user is required")
)

// Item is one cart line as submitted by the storefront.
type Item struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=999"`
}

type Input struct {
	Items []Item `json:"items" validate:"max=100,dive"`
}

// SettingsSource provides a store's settings; only the currency is used here.
type SettingsSource interface {
	Settings(ctx context.Context, storeID string) (credentials.Settings, error)
}

type Service struct {
	Tx       db.TxRunner
	Settings SettingsSource
	TaxBps   int
	Shipping pricing.Money
	// Currency applies when the store does not set its own.
	Currency string
	Events   events.Emitter
	Logger   zerolog.Logger
}

// Create snapshots product prices into a new PENDING order.
func (s *Service) Create(ctx context.Context, userID, storeID string, in Input) (order.View, error) {
	ctx, span := tracer.Start(ctx, "checkout.create_order")
	defer span.End()

	uid, err := common.ParseUUID(userID)
	if err != nil {
		return order.View{}, ErrUserRequired
	}
	sid, err := common.ParseUUID(storeID)
	if err != nil {
		return order.View{}, ErrStoreNotFound
	}
	lines := mergeLines(in.Items)
	if len(lines) == 0 {
		return order.View{}, ErrCartEmpty
	}
	span.SetAttributes(attribute.String("store.id", storeID), attribute.Int("cart.lines", len(lines)))

	currency, err := s.currency(ctx, storeID)
	if err != nil {
		return order.View{}, err
	}

	ids := make([]pgtype.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.id)
	}

	var (
		created dbgen.Order
		items   []dbgen.OrderItem
	)
	err = s.Tx.ExecTx(ctx, func(q dbgen.Querier) error {
		products, err := q.ListStoreProductsByIDs(ctx, dbgen.ListStoreProductsByIDsParams{StoreID: sid, Ids: ids})
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		byID := make(map[[16]byte]dbgen.Product, len(products))
		for _, p := range products {
			byID[p.ID.Bytes] = p
		}
		priced := make([]pricing.Item, 0, len(lines))
		for _, l := range lines {
			p, ok := byID[l.id.Bytes]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownProduct, common.UUIDString(l.id))
			}
			priced = append(priced, pricing.Item{Qty: l.qty, UnitPrice: p.Price, UnitDiscount: p.Discount})
		}
		summary := pricing.Compute(priced, s.TaxBps, s.Shipping)
		if gateway.IsZeroDecimal(currency) {
			summary = pricing.WholeUnits(summary)
		}

		created, err = q.CreateOrder(ctx, dbgen.CreateOrderParams{
			StoreID:  sid,
			UserID:   uid,
			Status:   order.StatusPending,
			Total:    summary.Total,
			Discount: summary.Discount,
			Tax:      summary.Tax,
			Shipping: summary.Shipping,
			Payable:  summary.Payable,
			Currency: currency,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for _, l := range lines {
			p := byID[l.id.Bytes]
			item, err := q.CreateOrderItem(ctx, dbgen.CreateOrderItemParams{
				OrderID:      created.ID,
				ProductID:    p.ID,
				Name:         p.Name,
				Quantity:     int32(l.qty),
				UnitPrice:    p.Price,
				UnitDiscount: p.Discount,
			})
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return order.View{}, err
	}

	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, created.ID, events.OrderCreated{
			OrderID:  common.UUIDString(created.ID),
			StoreID:  storeID,
			UserID:   userID,
			Payable:  created.Payable,
			Currency: created.Currency,
		}); err != nil {
			s.Logger.Warn().Err(err).Str("order_id", common.UUIDString(created.ID)).Msg("emit order.created failed")
		}
	}
	s.Logger.Info().
		Str("order_id", common.UUIDString(created.ID)).
		Str("store_id", storeID).
		Str("payable", pricing.Format(created.Payable)).
		Msg("order created")
	return order.NewView(created, items), nil
}

func (s *Service) currency(ctx context.Context, storeID string) (string, error) {
	fallback := strings.ToUpper(strings.TrimSpace(s.Currency))
	if fallback == "" {
		fallback = "USD"
	}
	if s.Settings == nil {
		return fallback, nil
	}
	settings, err := s.Settings.Settings(ctx, storeID)
	if err != nil {
		if errors.Is(err, credentials.ErrStoreNotFound) {
			return "", ErrStoreNotFound
		}
		return "", err
	}
	if c := strings.ToUpper(strings.TrimSpace(settings.Currency)); c != "" {
		return c, nil
	}
	return fallback, nil
}

type line struct {
	id  pgtype.UUID
	qty int
}

// mergeLines folds repeated products into one line, keeping first-seen order.
// Lines with unparseable ids or non-positive quantities are dropped.
func mergeLines(items []Item) []line {
	out := make([]line, 0, len(items))
	index := make(map[[16]byte]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		id, err := common.ParseUUID(strings.TrimSpace(it.ProductID))
		if err != nil {
			continue
		}
		if i, ok := index[id.Bytes]; ok {
			out[i].qty += it.Quantity
			continue
		}
		index[id.Bytes] = len(out)
		out = append(out, line{id: id, qty: it.Quantity})
	}
	return out
}
