package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradegate/orderdesk/internal/domain/order"
)

const (
	// The numeric suffix of the order number is the per-year sequence.
	maxSequenceSQL = `SELECT COALESCE(MAX(split_part(number, '-', 3)::int), 0)
		FROM orders WHERE number LIKE $1`

	insertOrderSQL = `INSERT INTO orders (id, number, user_id, department_id, status,
		total_quantity, total_weight, total_volume, total_price, total_price_with_discount, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)`

	insertOrderItemSQL = `INSERT INTO order_items (id, order_id, product_id, product_code, product_name,
		quantity, price, discount_percent, price_with_discount, weight, volume, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	clearCartItemsSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	getOrderByIDSQL = `SELECT id, number, user_id, COALESCE(department_id, ''), status,
		total_quantity, total_weight, total_volume, total_price, total_price_with_discount, created_at
		FROM orders WHERE id = $1`

	listOrderItemsSQL = `SELECT id, product_id, product_code, product_name,
		quantity, price, discount_percent, price_with_discount, weight, volume, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id`

	listOrdersByUserSQL = `SELECT id, number, user_id, COALESCE(department_id, ''), status,
		total_quantity, total_weight, total_volume, total_price, total_price_with_discount, created_at
		FROM orders
		WHERE user_id = $1
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC`
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

var (
	_ order.Repository = (*OrderRepository)(nil)

	// ErrOrderNotFound is returned when a requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// MaxSequence returns the highest order-number sequence issued in the given
// year, scanning existing numbers by prefix.
func (r *OrderRepository) MaxSequence(ctx context.Context, year int) (int, error) {
	var seq int
	err := r.pool.QueryRow(ctx, maxSequenceSQL, order.NumberPrefix(year)+"%").Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("reading max order sequence: %w", err)
	}
	return seq, nil
}

// CreateAndClearCart persists the order with its items and empties the cart
// in one transaction. A unique violation on the order number surfaces as
// order.ErrNumberTaken so the service can retry with a re-read sequence.
func (r *OrderRepository) CreateAndClearCart(ctx context.Context, o *order.Order, cartID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.Number, o.UserID, o.DepartmentID, string(o.Status),
		o.TotalQuantity, o.TotalWeight, o.TotalVolume, o.TotalPrice, o.TotalPriceWithDiscount,
		o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return order.ErrNumberTaken
		}
		return fmt.Errorf("creating order %q: %w", o.Number, err)
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(insertOrderItemSQL,
			item.ID, o.ID, item.ProductID, item.ProductCode, item.ProductName,
			item.Quantity, item.Price, item.DiscountPercent, item.PriceWithDiscount,
			item.Weight, item.Volume, item.LineTotal,
		)
	}
	batch.Queue(clearCartItemsSQL, cartID)
	batch.Queue(touchCartSQL, cartID, o.CreatedAt)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("creating order items: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID returns one order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, listOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("scanning order items: %w", err)
	}
	return &o, nil
}

// ListByUser returns the user's order headers, newest first. Items are not
// loaded for history views.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, filter order.HistoryFilter) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID,
		nullableTime(filter.From), nullableTime(filter.To))
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &o.DepartmentID, &status,
		&o.TotalQuantity, &o.TotalWeight, &o.TotalVolume, &o.TotalPrice, &o.TotalPriceWithDiscount,
		&o.CreatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.OrderItem, error) {
	var item order.OrderItem
	err := row.Scan(
		&item.ID, &item.ProductID, &item.ProductCode, &item.ProductName,
		&item.Quantity, &item.Price, &item.DiscountPercent, &item.PriceWithDiscount,
		&item.Weight, &item.Volume, &item.LineTotal,
	)
	return item, err
}
