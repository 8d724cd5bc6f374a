package branch

import (
	"context"
	"time"

	"github.com/microlend/backend/internal/domain/loan"
	"github.com/shopspring/decimal"
)

type Entity struct {
	ID                  string
	Name                string
	Code                string
	Address             string
	Phone               string
	Email               string
	MinimumLoanAmount   decimal.Decimal
	MaximumLoanAmount   decimal.Decimal
	MinimumInterestRate decimal.Decimal
	MaximumInterestRate decimal.Decimal
	AllowedLoanTypes    []loan.Type
	ManagerEmail        string
	ManagerPhone        string
	IsMainBranch        bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

func (e *Entity) AllowsLoanType(t loan.Type) bool {
	for _, allowed := range e.AllowedLoanTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

type CreateInput struct {
	Name                string
	Code                string
	Address             string
	Phone               string
	Email               string
	MinimumLoanAmount   decimal.Decimal
	MaximumLoanAmount   decimal.Decimal
	MinimumInterestRate decimal.Decimal
	MaximumInterestRate decimal.Decimal
	AllowedLoanTypes    []loan.Type
	ManagerEmail        string
	ManagerPhone        string
}

type Repository interface {
	Create(ctx context.Context, in CreateInput, isMainBranch bool) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context) ([]Entity, error)
	Count(ctx context.Context) (int64, error)
	AssignOfficer(ctx context.Context, branchID, officerID string) error
}
