package borrower

import (
	"context"
	"time"
)

type Entity struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Guarantor backs a borrower's loans and is copied on late-payment notices.
type Guarantor struct {
	ID         string
	BorrowerID string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*Entity, error)
	ListGuarantors(ctx context.Context, borrowerID string) ([]Guarantor, error)
}
