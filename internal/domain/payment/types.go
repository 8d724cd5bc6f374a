package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusReversed  Status = "reversed"
)

type Method string

const (
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank_transfer"
	MethodMobileMoney  Method = "mobile_money"
	MethodCheque       Method = "cheque"
	MethodCard         Method = "card"
)

// Entity is a repayment applied to a loan. The principal/interest/penalty
// breakdown is informational and is not validated against Amount.
type Entity struct {
	ID                   string
	LoanID               string
	Amount               decimal.Decimal
	PrincipalAmount      decimal.Decimal
	InterestAmount       decimal.Decimal
	PenaltyAmount        decimal.Decimal
	Status               Status
	Method               Method
	TransactionReference string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            *time.Time
}

type ApplyInput struct {
	Amount               decimal.Decimal
	PrincipalAmount      decimal.Decimal
	InterestAmount       decimal.Decimal
	PenaltyAmount        decimal.Decimal
	Method               Method
	TransactionReference string
}

type Repository interface {
	// Apply inserts a completed payment and adds its amount to the loan's
	// totalPaid in one transaction, guarded by the loan row version and a
	// balance check so concurrent payments cannot overpay the loan.
	Apply(ctx context.Context, loanID string, loanVersion int64, in ApplyInput) (*Entity, error)
	ListByLoan(ctx context.Context, loanID string) ([]Entity, error)
	CountSince(ctx context.Context, loanID string, since time.Time) (int64, error)
}
