// Package cart implements the live quote side of ordering: a per-user cart
// whose line items carry price snapshots that are lazily re-priced against
// the catalog and the user's current discounts until checkout freezes them
// into an order.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidQuantity is returned when a line quantity is not positive.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// CartItem is one cart line: a product reference, a mutable quantity, and
// pricing/logistics fields snapshotted from the catalog at the last
// reconciliation.
type CartItem struct {
	ID                string
	ProductID         string
	ProductCode       string
	ProductName       string
	Quantity          int
	Price             decimal.Decimal
	DiscountPercent   decimal.Decimal
	PriceWithDiscount decimal.Decimal
	Weight            decimal.Decimal
	Volume            decimal.Decimal
}

// Cart is a user's current quote. UpdatedAt moves only when contents or
// snapshots actually change.
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	UpdatedAt time.Time
}

// Repository defines persistence operations for carts.
type Repository interface {
	// GetOrCreateByUser returns the user's cart with items, creating an empty
	// cart on first use.
	GetOrCreateByUser(ctx context.Context, userID string) (*Cart, error)
	// UpsertItem inserts or replaces the cart line for the item's product and
	// bumps the cart's updated timestamp.
	UpsertItem(ctx context.Context, cartID string, item CartItem, at time.Time) error
	// UpdateItems writes back refreshed snapshot fields for the given items
	// and bumps the cart's updated timestamp.
	UpdateItems(ctx context.Context, cartID string, items []CartItem, at time.Time) error
	// RemoveItem deletes the cart line for a product, if present.
	RemoveItem(ctx context.Context, cartID, productID string, at time.Time) error
}
