package officer

import (
	"context"
	"time"
)

// Entity is a loan officer. BranchID is empty for admin officers that are
// not pinned to a branch.
type Entity struct {
	ID         string
	EmployeeID string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	BranchID   string
	IsAdmin    bool
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*Entity, error)
	ListByBranch(ctx context.Context, branchID string) ([]Entity, error)
}
