// Package handler exposes the ordering core over HTTP. Authentication is an
// upstream concern: the caller identity arrives as an opaque X-User-ID header
// set by the gateway.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradegate/orderdesk/internal/domain/cart"
	"github.com/tradegate/orderdesk/internal/domain/catalog"
	"github.com/tradegate/orderdesk/internal/domain/order"
)

// userIDHeader carries the authenticated user identity, validated upstream.
const userIDHeader = "X-User-ID"

// CartService is the cart surface the handler needs.
type CartService interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	SetItem(ctx context.Context, userID, productID string, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) error
}

// OrderService is the order-creation surface the handler needs.
type OrderService interface {
	CreateFromCart(ctx context.Context, userID string, req order.CreateRequest) (*order.Order, error)
}

// OrderReader reads persisted orders for history views.
type OrderReader interface {
	GetByID(ctx context.Context, id string) (*order.Order, error)
	ListByUser(ctx context.Context, userID string, filter order.HistoryFilter) ([]order.Order, error)
}

// Handler routes API requests to the domain services.
type Handler struct {
	products catalog.Repository
	carts    CartService
	orders   OrderService
	reader   OrderReader
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products catalog.Repository,
	carts CartService,
	orders OrderService,
	reader OrderReader,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		orders:   orders,
		reader:   reader,
	}
}

// Routes returns the chi router for the API surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/products", h.ListProducts)
	r.Get("/cart", h.GetCart)
	r.Post("/cart/items", h.SetCartItem)
	r.Delete("/cart/items/{productID}", h.RemoveCartItem)
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{id}", h.GetOrder)
	return r
}

// identity extracts the authenticated user ID, or writes 401 and returns
// false when the header is absent.
func identity(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(userIDHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return "", false
	}
	return id, true
}
