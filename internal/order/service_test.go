package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-billing/internal/common"
	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
)

type readerStub struct {
	order dbgen.Order
	items []dbgen.OrderItem
	err   error
}

func (r *readerStub) GetOrderForUser(_ context.Context, arg dbgen.GetOrderForUserParams) (dbgen.Order, error) {
	if r.err != nil {
		return dbgen.Order{}, r.err
	}
	if !common.UUIDEqual(arg.ID, r.order.ID) || !common.UUIDEqual(arg.UserID, r.order.UserID) {
		return dbgen.Order{}, pgx.ErrNoRows
	}
	return r.order, nil
}

func (r *readerStub) ListOrderItems(_ context.Context, _ pgtype.UUID) ([]dbgen.OrderItem, error) {
	return r.items, nil
}

func paidOrder() dbgen.Order {
	return dbgen.Order{
		ID: common.NewUUID(), StoreID: common.NewUUID(), UserID: common.NewUUID(),
		Status: StatusPaid, IsPaid: true, Total: 10000, Discount: 1000, Tax: 810, Payable: 9810, Currency: "USD",
	}
}

func TestGetScopedToUser(t *testing.T) {
	o := paidOrder()
	svc := &Service{Q: &readerStub{order: o, items: []dbgen.OrderItem{{ProductID: common.NewUUID(), Name: "Shirt", Quantity: 2, UnitPrice: 5000, UnitDiscount: 500}}}}

	view, err := svc.Get(context.Background(), common.UUIDString(o.UserID), common.UUIDString(o.ID))
	require.NoError(t, err)
	require.True(t, view.IsPaid)
	require.Equal(t, "98.10", view.Summary.Display)
	require.Len(t, view.Items, 1)

	_, err = svc.Get(context.Background(), common.UUIDString(common.NewUUID()), common.UUIDString(o.ID))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), common.UUIDString(o.UserID), "garbage")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHandlerGet(t *testing.T) {
	o := paidOrder()
	stub := &readerStub{order: o}
	h := &Handler{Svc: &Service{Q: stub}}
	r := chi.NewRouter()
	r.Get("/orders/{orderId}", h.Get)

	serve := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/orders/"+common.UUIDString(o.ID), nil)
		if userID != "" {
			req = req.WithContext(common.WithUserID(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(common.UUIDString(o.UserID))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["isPaid"])
	require.Equal(t, "PAID", body["status"])

	require.Equal(t, http.StatusUnauthorized, serve("").Code)
	require.Equal(t, http.StatusNotFound, serve(common.UUIDString(common.NewUUID())).Code)

	stub.err = errors.New("db down")
	require.Equal(t, http.StatusInternalServerError, serve(common.UUIDString(o.UserID)).Code)
}
