// Package catalog exposes read access to the live product catalog.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item with its current price and logistics figures.
// Cart and order lines snapshot these fields rather than referencing them.
type Product struct {
	ID      string
	Code    string
	Name    string
	GroupID string
	Price   decimal.Decimal
	Weight  decimal.Decimal
	Volume  decimal.Decimal
}

// Repository defines read operations on the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
