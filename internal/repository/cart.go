package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradegate/orderdesk/internal/domain/cart"
)

const (
	getCartByUserSQL = `SELECT id, updated_at FROM carts WHERE user_id = $1`

	insertCartSQL = `INSERT INTO carts (id, user_id, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`

	listCartItemsSQL = `SELECT id, product_id, product_code, product_name, quantity,
		price, discount_percent, price_with_discount, weight, volume
		FROM cart_items WHERE cart_id = $1 ORDER BY id`

	upsertCartItemSQL = `INSERT INTO cart_items (id, cart_id, product_id, product_code, product_name,
		quantity, price, discount_percent, price_with_discount, weight, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET
			product_code = EXCLUDED.product_code,
			product_name = EXCLUDED.product_name,
			quantity = EXCLUDED.quantity,
			price = EXCLUDED.price,
			discount_percent = EXCLUDED.discount_percent,
			price_with_discount = EXCLUDED.price_with_discount,
			weight = EXCLUDED.weight,
			volume = EXCLUDED.volume`

	updateCartItemSnapshotSQL = `UPDATE cart_items SET
			product_code = $2, product_name = $3, price = $4, discount_percent = $5,
			price_with_discount = $6, weight = $7, volume = $8
		WHERE id = $1`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	touchCartSQL = `UPDATE carts SET updated_at = $2 WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetOrCreateByUser returns the user's cart with items, creating an empty
// cart on first use. The insert is idempotent under the unique user
// constraint, so concurrent first reads converge on one cart.
func (r *CartRepository) GetOrCreateByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	c := &cart.Cart{UserID: userID}

	err := r.pool.QueryRow(ctx, getCartByUserSQL, userID).Scan(&c.ID, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := r.pool.Exec(ctx, insertCartSQL, uuid.New().String(), userID, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("creating cart: %w", err)
		}
		err = r.pool.QueryRow(ctx, getCartByUserSQL, userID).Scan(&c.ID, &c.UpdatedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("getting cart for user %q: %w", userID, err)
	}

	rows, err := r.pool.Query(ctx, listCartItemsSQL, c.ID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	c.Items, err = pgx.CollectRows(rows, scanCartItem)
	if err != nil {
		return nil, fmt.Errorf("scanning cart items: %w", err)
	}
	return c, nil
}

// UpsertItem inserts or replaces a cart line and bumps the cart timestamp
// in one transaction.
func (r *CartRepository) UpsertItem(ctx context.Context, cartID string, item cart.CartItem, at time.Time) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsertCartItemSQL,
			item.ID, cartID, item.ProductID, item.ProductCode, item.ProductName,
			item.Quantity, item.Price, item.DiscountPercent, item.PriceWithDiscount,
			item.Weight, item.Volume,
		)
		if err != nil {
			return fmt.Errorf("upserting cart item: %w", err)
		}
		if _, err := tx.Exec(ctx, touchCartSQL, cartID, at); err != nil {
			return fmt.Errorf("touching cart: %w", err)
		}
		return nil
	})
}

// UpdateItems writes back refreshed snapshot fields and bumps the cart
// timestamp in one transaction. Quantity is deliberately untouched: only
// re-pricing flows through here.
func (r *CartRepository) UpdateItems(ctx context.Context, cartID string, items []cart.CartItem, at time.Time) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, item := range items {
			batch.Queue(updateCartItemSnapshotSQL,
				item.ID, item.ProductCode, item.ProductName, item.Price,
				item.DiscountPercent, item.PriceWithDiscount, item.Weight, item.Volume,
			)
		}
		batch.Queue(touchCartSQL, cartID, at)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("updating cart items: %w", err)
		}
		return nil
	})
}

// RemoveItem deletes a cart line and bumps the cart timestamp.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, productID string, at time.Time) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteCartItemSQL, cartID, productID); err != nil {
			return fmt.Errorf("deleting cart item: %w", err)
		}
		if _, err := tx.Exec(ctx, touchCartSQL, cartID, at); err != nil {
			return fmt.Errorf("touching cart: %w", err)
		}
		return nil
	})
}

func (r *CartRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanCartItem(row pgx.CollectableRow) (cart.CartItem, error) {
	var item cart.CartItem
	err := row.Scan(
		&item.ID, &item.ProductID, &item.ProductCode, &item.ProductName, &item.Quantity,
		&item.Price, &item.DiscountPercent, &item.PriceWithDiscount, &item.Weight, &item.Volume,
	)
	return item, err
}
