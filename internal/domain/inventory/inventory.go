// Package inventory implements best-effort stock bookkeeping. Reservations
// drain whatever snapshot records exist and never block the sale that
// triggered them.
package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is one stock record for a (department, product) pair. Several
// records may coexist for the same pair; each acts as an independently
// depletable bucket, drained oldest capture first.
type Snapshot struct {
	ID           string
	DepartmentID string
	ProductID    string
	Quantity     decimal.Decimal
	CapturedAt   time.Time
}

// Line is a requested (product, quantity) pair.
type Line struct {
	ProductID string
	Quantity  decimal.Decimal
}

// Repository defines persistence operations for inventory snapshots.
type Repository interface {
	// ListBuckets returns all snapshots for the pair ordered by capture time,
	// oldest first.
	ListBuckets(ctx context.Context, departmentID, productID string) ([]Snapshot, error)
	// UpdateBucket sets a snapshot's quantity and refreshes its capture time.
	UpdateBucket(ctx context.Context, id string, quantity decimal.Decimal, capturedAt time.Time) error
}

// Aggregate sums duplicate product lines into one line per product,
// preserving first-seen order.
func Aggregate(lines []Line) []Line {
	idx := make(map[string]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity = out[i].Quantity.Add(l.Quantity)
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}
