// Package department models the warehouse/store/sales units orders ship from.
package department

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a referenced department does not exist.
var ErrNotFound = errors.New("department not found")

// Department is a warehouse, store, or sales unit. It determines which
// inventory records an order drains and which workers get notified.
type Department struct {
	ID   string
	Code string
	Name string
}

// Repository defines read operations on departments.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Department, error)
}
