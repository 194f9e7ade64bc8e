package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradegate/orderdesk/internal/domain/department"
)

const getDepartmentByIDSQL = `SELECT id, code, name FROM departments WHERE id = $1`

var _ department.Repository = (*DepartmentRepository)(nil)

// DepartmentRepository implements department.Repository backed by PostgreSQL.
type DepartmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository returns a DepartmentRepository that uses the given
// pool.
func NewDepartmentRepository(pool *pgxpool.Pool) *DepartmentRepository {
	return &DepartmentRepository{pool: pool}
}

// GetByID returns a single department by identifier.
func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*department.Department, error) {
	var d department.Department
	err := r.pool.QueryRow(ctx, getDepartmentByIDSQL, id).Scan(&d.ID, &d.Code, &d.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, department.ErrNotFound
		}
		return nil, fmt.Errorf("getting department %q: %w", id, err)
	}
	return &d, nil
}
