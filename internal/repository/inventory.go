package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tradegate/orderdesk/internal/domain/inventory"
)

const (
	// Oldest capture first: the allocator drains buckets in this order.
	listBucketsSQL = `SELECT id, department_id, product_id, quantity, captured_at
		FROM inventory_snapshots
		WHERE department_id = $1 AND product_id = $2
		ORDER BY captured_at, id`

	updateBucketSQL = `UPDATE inventory_snapshots
		SET quantity = $2, captured_at = $3 WHERE id = $1`
)

var _ inventory.Repository = (*InventoryRepository)(nil)

// InventoryRepository implements inventory.Repository backed by PostgreSQL.
// No row locking is used; the allocator documents the resulting race.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository returns an InventoryRepository that uses the given
// pool.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// ListBuckets returns all stock records for the pair, oldest capture first.
func (r *InventoryRepository) ListBuckets(ctx context.Context, departmentID, productID string) ([]inventory.Snapshot, error) {
	rows, err := r.pool.Query(ctx, listBucketsSQL, departmentID, productID)
	if err != nil {
		return nil, fmt.Errorf("listing inventory snapshots: %w", err)
	}
	return pgx.CollectRows(rows, scanInventorySnapshot)
}

// UpdateBucket sets a snapshot's quantity and refreshes its capture time.
func (r *InventoryRepository) UpdateBucket(ctx context.Context, id string, quantity decimal.Decimal, capturedAt time.Time) error {
	if _, err := r.pool.Exec(ctx, updateBucketSQL, id, quantity, capturedAt); err != nil {
		return fmt.Errorf("updating inventory snapshot %q: %w", id, err)
	}
	return nil
}

func scanInventorySnapshot(row pgx.CollectableRow) (inventory.Snapshot, error) {
	var s inventory.Snapshot
	err := row.Scan(&s.ID, &s.DepartmentID, &s.ProductID, &s.Quantity, &s.CapturedAt)
	return s, err
}
