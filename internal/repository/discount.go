package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradegate/orderdesk/internal/domain/discount"
)

const (
	// Oldest first so the resolver's last-write-wins overwrite is correct.
	specialDiscountsSQL = `SELECT group_id, percent FROM user_special_discounts
		WHERE user_id = $1 ORDER BY created_at, id`

	getProfileSQL = `SELECT id, code, name FROM discount_profiles WHERE id = $1`

	profileDiscountsSQL = `SELECT group_id, percent FROM profile_group_discounts
		WHERE profile_id = $1 ORDER BY group_id`

	legacyCodeDiscountsSQL = `SELECT group_id, percent FROM legacy_code_discounts
		WHERE code = $1 ORDER BY group_id`
)

var _ discount.ConfigRepository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.ConfigRepository backed by
// PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// SpecialDiscounts returns the user's per-group overrides, oldest first.
func (r *DiscountRepository) SpecialDiscounts(ctx context.Context, userID string) ([]discount.GroupPercent, error) {
	rows, err := r.pool.Query(ctx, specialDiscountsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing special discounts: %w", err)
	}
	return pgx.CollectRows(rows, scanGroupPercent)
}

// GetProfile returns one discount profile, or discount.ErrProfileNotFound.
func (r *DiscountRepository) GetProfile(ctx context.Context, profileID string) (*discount.Profile, error) {
	var p discount.Profile
	err := r.pool.QueryRow(ctx, getProfileSQL, profileID).Scan(&p.ID, &p.Code, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrProfileNotFound
		}
		return nil, fmt.Errorf("getting discount profile %q: %w", profileID, err)
	}
	return &p, nil
}

// ProfileDiscounts returns the profile's explicit group-discount rows.
func (r *DiscountRepository) ProfileDiscounts(ctx context.Context, profileID string) ([]discount.GroupPercent, error) {
	rows, err := r.pool.Query(ctx, profileDiscountsSQL, profileID)
	if err != nil {
		return nil, fmt.Errorf("listing profile discounts: %w", err)
	}
	return pgx.CollectRows(rows, scanGroupPercent)
}

// LegacyCodeDiscounts reads the superseded code-keyed discount table.
func (r *DiscountRepository) LegacyCodeDiscounts(ctx context.Context, code string) ([]discount.GroupPercent, error) {
	rows, err := r.pool.Query(ctx, legacyCodeDiscountsSQL, code)
	if err != nil {
		return nil, fmt.Errorf("listing legacy code discounts: %w", err)
	}
	return pgx.CollectRows(rows, scanGroupPercent)
}

func scanGroupPercent(row pgx.CollectableRow) (discount.GroupPercent, error) {
	var gp discount.GroupPercent
	err := row.Scan(&gp.GroupID, &gp.Percent)
	return gp, err
}
