// Package order exposes the purchaser's read view of an order.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/db"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
	"github.com/noah-isme/toko-billing/internal/pricing"
)

// Order statuses. Only the reconciler moves an order out of PENDING.
const (
	StatusPending    = "PENDING"
	StatusPaid       = "PAID"
	StatusProcessing = "PROCESSING"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
	StatusCanceled   = "CANCELED"
)

// ErrNotFound is returned when the order does not exist or belongs to someone else.
var ErrNotFound = errors.New("order: not found")

type Item struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	Quantity     int32  `json:"quantity"`
	UnitPrice    int64  `json:"unitPrice"`
	UnitDiscount int64  `json:"unitDiscount"`
}

type Summary struct {
	Total    int64  `json:"total"`
	Discount int64  `json:"discount"`
	Tax      int64  `json:"tax"`
	Shipping int64  `json:"shipping"`
	Payable  int64  `json:"payable"`
	Display  string `json:"payableDisplay"`
}

// View is the JSON shape of an order.
type View struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"storeId"`
	Status      string    `json:"status"`
	IsPaid      bool      `json:"isPaid"`
	IsCompleted bool      `json:"isCompleted"`
	Currency    string    `json:"currency"`
	Summary     Summary   `json:"summary"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewView builds the view of o and its items.
func NewView(o dbgen.Order, items []dbgen.OrderItem) View {
	v := View{
		ID:          common.UUIDString(o.ID),
		StoreID:     common.UUIDString(o.StoreID),
		Status:      o.Status,
		IsPaid:      o.IsPaid,
		IsCompleted: o.IsCompleted,
		Currency:    o.Currency,
		Summary: Summary{
			Total:    o.Total,
			Discount: o.Discount,
			Tax:      o.Tax,
			Shipping: o.Shipping,
			Payable:  o.Payable,
			Display:  pricing.Format(o.Payable),
		},
		Items:     make([]Item, 0, len(items)),
		CreatedAt: o.CreatedAt.Time,
		UpdatedAt: o.UpdatedAt.Time,
	}
	for _, it := range items {
		v.Items = append(v.Items, Item{
			ProductID:    common.UUIDString(it.ProductID),
			Name:         it.Name,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			UnitDiscount: it.UnitDiscount,
		})
	}
	return v
}

// Reader is the subset of queries the service needs.
type Reader interface {
	GetOrderForUser(ctx context.Context, arg dbgen.GetOrderForUserParams) (dbgen.Order, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]dbgen.OrderItem, error)
}

type Service struct {
	Q Reader
}

// Get returns the order when it belongs to userID.
func (s *Service) Get(ctx context.Context, userID, orderID string) (View, error) {
	uid, err := common.ParseUUID(userID)
	if err != nil {
		return View{}, ErrNotFound
	}
	oid, err := common.ParseUUID(orderID)
	if err != nil {
		return View{}, ErrNotFound
	}
	o, err := s.Q.GetOrderForUser(ctx, dbgen.GetOrderForUserParams{ID: oid, UserID: uid})
	if err != nil {
		if db.IsNotFound(err) {
			return View{}, ErrNotFound
		}
		return View{}, fmt.Errorf("load order: %w", err)
	}
	items, err := s.Q.ListOrderItems(ctx, o.ID)
	if err != nil {
		return View{}, fmt.Errorf("load order items: %w", err)
	}
	return NewView(o, items), nil
}
