package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradegate/orderdesk/internal/domain/user"
)

const (
	getUserByIDSQL = `SELECT id, email, name, role, confirmed,
		COALESCE(manager_id, ''), COALESCE(shop_id, ''),
		COALESCE(default_branch_id, ''), COALESCE(discount_profile_id, '')
		FROM users WHERE id = $1`

	listDepartmentWorkersSQL = `SELECT id, email, name, role, confirmed,
		COALESCE(manager_id, ''), COALESCE(shop_id, ''),
		COALESCE(default_branch_id, ''), COALESCE(discount_profile_id, '')
		FROM users
		WHERE default_branch_id = $1 AND role = $2 AND confirmed = TRUE
		ORDER BY email`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns a single user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, getUserByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}
	return &u, nil
}

// ListDepartmentWorkers returns confirmed department-worker users whose
// default branch is the given department.
func (r *UserRepository) ListDepartmentWorkers(ctx context.Context, departmentID string) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, listDepartmentWorkersSQL, departmentID, string(user.RoleDepartmentWorker))
	if err != nil {
		return nil, fmt.Errorf("listing department workers: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u    user.User
		role string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &role, &u.Confirmed,
		&u.ManagerID, &u.ShopID, &u.DefaultBranchID, &u.DiscountProfileID,
	)
	u.Role = user.Role(role)
	return u, err
}
