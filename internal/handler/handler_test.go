package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradegate/orderdesk/internal/domain/cart"
	"github.com/tradegate/orderdesk/internal/domain/catalog"
	"github.com/tradegate/orderdesk/internal/domain/order"
	"github.com/tradegate/orderdesk/internal/repository"
)

type stubCatalog struct {
	products []catalog.Product
}

func (s *stubCatalog) List(context.Context) ([]catalog.Product, error) { return s.products, nil }

func (s *stubCatalog) GetByID(context.Context, string) (*catalog.Product, error) {
	return nil, catalog.ErrNotFound
}

func (s *stubCatalog) GetByIDs(context.Context, []string) ([]catalog.Product, error) {
	return s.products, nil
}

type stubCarts struct {
	cart    *cart.Cart
	err     error
	setQty  int
	removed string
}

func (s *stubCarts) Get(context.Context, string) (*cart.Cart, error) {
	return s.cart, s.err
}

func (s *stubCarts) SetItem(_ context.Context, _, _ string, quantity int) (*cart.Cart, error) {
	s.setQty = quantity
	return s.cart, s.err
}

func (s *stubCarts) RemoveItem(_ context.Context, _, productID string) error {
	s.removed = productID
	return s.err
}

type stubOrders struct {
	order *order.Order
	err   error
}

func (s *stubOrders) CreateFromCart(context.Context, string, order.CreateRequest) (*order.Order, error) {
	return s.order, s.err
}

type stubReader struct {
	order  *order.Order
	orders []order.Order
	filter order.HistoryFilter
	err    error
}

func (s *stubReader) GetByID(context.Context, string) (*order.Order, error) {
	return s.order, s.err
}

func (s *stubReader) ListByUser(_ context.Context, _ string, filter order.HistoryFilter) ([]order.Order, error) {
	s.filter = filter
	return s.orders, s.err
}

func newTestHandler() (*Handler, *stubCatalog, *stubCarts, *stubOrders, *stubReader) {
	products := &stubCatalog{}
	carts := &stubCarts{cart: &cart.Cart{ID: "cart-1", UserID: "user-1"}}
	orders := &stubOrders{}
	reader := &stubReader{}
	return NewHandler(products, carts, orders, reader), products, carts, orders, reader
}

func doRequest(h *Handler, method, target, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestListProducts(t *testing.T) {
	h, products, _, _, _ := newTestHandler()
	products.products = []catalog.Product{
		{ID: "p1", Code: "A-100", Name: "Widget", Price: decimal.NewFromInt(150)},
	}

	rec := doRequest(h, http.MethodGet, "/products", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "A-100", got[0].Code)
	assert.True(t, got[0].Price.Equal(decimal.NewFromInt(150)))
}

func TestIdentityRequired(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	for _, tc := range []struct {
		method, target string
	}{
		{http.MethodGet, "/cart"},
		{http.MethodPost, "/cart/items"},
		{http.MethodDelete, "/cart/items/p1"},
		{http.MethodPost, "/orders"},
		{http.MethodGet, "/orders"},
		{http.MethodGet, "/orders/o1"},
	} {
		rec := doRequest(h, tc.method, tc.target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.target)
	}
}

func TestSetCartItem(t *testing.T) {
	h, _, carts, _, _ := newTestHandler()

	rec := doRequest(h, http.MethodPost, "/cart/items", "user-1",
		`{"product_id": "p1", "quantity": 3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, carts.setQty)
}

func TestSetCartItemValidation(t *testing.T) {
	h, _, carts, _, _ := newTestHandler()

	t.Run("bad json", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/cart/items", "user-1", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing product", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/cart/items", "user-1", `{"quantity": 1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		carts.err = cart.ErrInvalidQuantity
		rec := doRequest(h, http.MethodPost, "/cart/items", "user-1",
			`{"product_id": "p1", "quantity": 0}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestRemoveCartItem(t *testing.T) {
	h, _, carts, _, _ := newTestHandler()

	rec := doRequest(h, http.MethodDelete, "/cart/items/p7", "user-1", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "p7", carts.removed)
}

func TestCreateOrder(t *testing.T) {
	h, _, _, orders, _ := newTestHandler()
	orders.order = &order.Order{
		ID:     "o1",
		Number: "ORD-2026-000001",
		UserID: "user-1",
		Status: order.StatusCreated,
	}

	rec := doRequest(h, http.MethodPost, "/orders", "user-1", `{"department_id": "dep-1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ORD-2026-000001", got.Number)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	h, _, _, orders, _ := newTestHandler()
	orders.err = order.ErrEmptyCart

	rec := doRequest(h, http.MethodPost, "/orders", "user-1", "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetOrder(t *testing.T) {
	h, _, _, _, reader := newTestHandler()
	reader.order = &order.Order{ID: "o1", UserID: "user-1", Number: "ORD-2026-000002"}

	t.Run("owner", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/orders/o1", "user-1", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other user", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/orders/o1", "user-2", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		reader.order = nil
		reader.err = repository.ErrOrderNotFound
		rec := doRequest(h, http.MethodGet, "/orders/missing", "user-1", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListOrders(t *testing.T) {
	h, _, _, _, reader := newTestHandler()
	reader.orders = []order.Order{{ID: "o1", UserID: "user-1"}}

	rec := doRequest(h, http.MethodGet,
		"/orders?from=2026-01-01T00:00:00Z&to=2026-02-01T00:00:00Z", "user-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), reader.filter.From)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), reader.filter.To)
}

func TestListOrdersBadBound(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	rec := doRequest(h, http.MethodGet, "/orders?from=yesterday", "user-1", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
