package fee

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type FeeType string

const (
	TypeProcessing     FeeType = "processing"
	TypeAdministration FeeType = "administration"
	TypeInsurance      FeeType = "insurance"
	TypeLegal          FeeType = "legal"
	TypeDisbursement   FeeType = "disbursement"
	TypeLatePayment    FeeType = "late_payment"
	TypeEarlyRepayment FeeType = "early_repayment"
	TypeCommitment     FeeType = "commitment"
	TypeDocumentation  FeeType = "documentation"
	TypeOther          FeeType = "other"
)

type CalculationType string

const (
	CalculationFixed      CalculationType = "fixed"
	CalculationPercentage CalculationType = "percentage"
)

// Entity is a fee attached to a loan. Amount is the monetary figure that
// was added to the loan's fee total at attach time; it is the single source
// of truth when the fee is later detached.
type Entity struct {
	ID              string
	LoanID          string
	Type            FeeType
	Name            string
	CalculationType CalculationType
	Value           decimal.Decimal
	Amount          decimal.Decimal
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

type AttachInput struct {
	Type            FeeType
	Name            string
	CalculationType CalculationType
	Value           decimal.Decimal
	Description     string
}

type Repository interface {
	// Attach inserts the fee and adds amount to the loan's fee total in
	// one version-guarded transaction.
	Attach(ctx context.Context, loanID string, loanVersion int64, in AttachInput, amount decimal.Decimal) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	// Detach soft-deletes the fee and subtracts amount from the loan's
	// fee total in one version-guarded transaction.
	Detach(ctx context.Context, feeID, loanID string, loanVersion int64, amount decimal.Decimal) error
	ListByLoan(ctx context.Context, loanID string) ([]Entity, error)
}
