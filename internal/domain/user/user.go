// Package user holds the account model consumed by the ordering core.
// Account administration itself lives upstream; this package only reads.
package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a referenced user does not exist.
var ErrNotFound = errors.New("user not found")

// Role enumerates the account roles relevant to order processing.
type Role string

const (
	RoleCustomer         Role = "customer"
	RoleManager          Role = "manager"
	RoleDepartmentWorker Role = "department_worker"
)

// User is a platform account. Optional references are empty strings when
// unassigned.
type User struct {
	ID                string
	Email             string
	Name              string
	Role              Role
	Confirmed         bool
	ManagerID         string
	ShopID            string
	DefaultBranchID   string
	DiscountProfileID string
}

// Repository defines the read operations the ordering core needs on users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// ListDepartmentWorkers returns confirmed users with the department-worker
	// role whose default branch is the given department.
	ListDepartmentWorkers(ctx context.Context, departmentID string) ([]User, error)
}
