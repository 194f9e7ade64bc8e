// Package order implements order issuance: freezing a cart into an immutable,
// numbered order aggregate. Orders are a ledger; carts are a live quote.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status of an order. Issuance always produces StatusCreated; later
// transitions belong to fulfillment, outside this core.
type Status string

const StatusCreated Status = "created"

// ErrNumberTaken is returned by Repository.CreateAndClearCart when the order
// number collided with a concurrent insert. The service re-reads the sequence
// and retries.
var ErrNumberTaken = errors.New("order number already taken")

// OrderItem is a hard copy of a cart line at order-creation time, including
// the product code and name. It never changes after creation, regardless of
// later catalog or discount edits.
type OrderItem struct {
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
	LineTotal         decimal.Decimal
}

// Order is the root aggregate. Totals are computed once at creation and never
// recomputed from items; the redundancy is intentional for fast reads.
type Order struct {
	ID           string
	Number       string
	UserID       string
	DepartmentID string
	Status       Status
	Items        []OrderItem

	TotalQuantity          int
	TotalWeight            decimal.Decimal
	TotalVolume            decimal.Decimal
	TotalPrice             decimal.Decimal
	TotalPriceWithDiscount decimal.Decimal

	CreatedAt time.Time
}

// HistoryFilter narrows order history reads. Zero bounds are open.
type HistoryFilter struct {
	From time.Time
	To   time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// CreateAndClearCart persists the order with its items and empties the
	// cart in one transaction: either both apply or neither. Returns
	// ErrNumberTaken when the order number is already in use.
	CreateAndClearCart(ctx context.Context, o *Order, cartID string) error
	// MaxSequence returns the highest order-number sequence issued in the
	// given year, or 0 when none exist.
	MaxSequence(ctx context.Context, year int) (int, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string, filter HistoryFilter) ([]Order, error)
}
