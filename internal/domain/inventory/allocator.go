package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Allocator deducts requested quantities from a department's stock records.
//
// Reservation is allocation bookkeeping, not an availability gate: missing or
// insufficient stock never fails the caller, and no row locking is applied,
// so concurrent reservations against the same bucket can race past each other
// and drive quantities negative. Callers needing a hard stock check must do
// it before calling Reserve.
type Allocator struct {
	inventory Repository
	lg        *zap.Logger
	now       func() time.Time
}

// NewAllocator creates an Allocator over the given store.
func NewAllocator(inventory Repository, lg *zap.Logger) *Allocator {
	return &Allocator{inventory: inventory, lg: lg, now: time.Now}
}

// Reserve drains the requested quantities from the department's stock
// buckets, oldest capture first. Lines must already be aggregated per
// product (see Aggregate). It never returns an error: every failure or
// shortfall is logged and skipped.
func (a *Allocator) Reserve(ctx context.Context, departmentID string, lines []Line) {
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			continue
		}
		a.reserveLine(ctx, departmentID, line)
	}
}

func (a *Allocator) reserveLine(ctx context.Context, departmentID string, line Line) {
	buckets, err := a.inventory.ListBuckets(ctx, departmentID, line.ProductID)
	if err != nil {
		a.lg.Warn("inventory lookup failed, skipping deduction",
			zap.String("department_id", departmentID),
			zap.String("product_id", line.ProductID),
			zap.Error(err),
		)
		return
	}

	available := decimal.Zero
	for _, b := range buckets {
		available = available.Add(b.Quantity)
	}
	if len(buckets) == 0 || !available.IsPositive() {
		a.lg.Debug("no stock recorded, order proceeds without deduction",
			zap.String("department_id", departmentID),
			zap.String("product_id", line.ProductID),
		)
		return
	}

	remaining := decimal.Min(line.Quantity, available)
	now := a.now().UTC()
	for _, b := range buckets {
		if !remaining.IsPositive() {
			break
		}
		if !b.Quantity.IsPositive() {
			continue
		}
		take := decimal.Min(b.Quantity, remaining)
		if err := a.inventory.UpdateBucket(ctx, b.ID, b.Quantity.Sub(take), now); err != nil {
			a.lg.Warn("inventory deduction failed, skipping bucket",
				zap.String("snapshot_id", b.ID),
				zap.Error(err),
			)
			continue
		}
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		a.lg.Debug("partial inventory fulfillment",
			zap.String("department_id", departmentID),
			zap.String("product_id", line.ProductID),
			zap.String("unfulfilled", remaining.String()),
		)
	}
}
