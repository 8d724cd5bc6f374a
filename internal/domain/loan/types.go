package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypePersonal       Type = "personal"
	TypeStudent        Type = "student"
	TypePensioner      Type = "pensioner"
	TypeBusiness       Type = "business"
	TypeGroupLoan      Type = "group_loan"
	TypeSalaryLoan     Type = "salary_loan"
	TypeOverseasWorker Type = "overseas_worker"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDisbursed Status = "disbursed"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusDefaulted Status = "defaulted"
)

type DisbursementMethod string

const (
	DisburseCash         DisbursementMethod = "cash"
	DisburseMobileMoney  DisbursementMethod = "mobile_money"
	DisburseCheque       DisbursementMethod = "cheque"
	DisburseWireTransfer DisbursementMethod = "wire_transfer"
)

type InterestMethod string

const (
	InterestFlatRate                 InterestMethod = "flat_rate"
	InterestReducingBalanceEqual     InterestMethod = "reducing_balance_equal_installments"
	InterestReducingBalancePrincipal InterestMethod = "reducing_balance_equal_principal"
	InterestOnly                     InterestMethod = "interest_only"
	InterestCompound                 InterestMethod = "compound_interest"
)

type DurationUnit string

const (
	UnitDay   DurationUnit = "day"
	UnitWeek  DurationUnit = "week"
	UnitMonth DurationUnit = "month"
	UnitYear  DurationUnit = "year"
)

type RepaymentCycle string

const (
	CycleDaily       RepaymentCycle = "daily"
	CycleWeekly      RepaymentCycle = "weekly"
	CycleBiweekly    RepaymentCycle = "biweekly"
	CycleMonthly     RepaymentCycle = "monthly"
	CycleBimonthly   RepaymentCycle = "bimonthly"
	CycleQuarterly   RepaymentCycle = "quarterly"
	CycleFourMonthly RepaymentCycle = "four_monthly"
	CycleSemiAnnual  RepaymentCycle = "semi_annual"
	CycleNineMonthly RepaymentCycle = "nine_monthly"
	CycleYearly      RepaymentCycle = "yearly"
	CycleLumpSum     RepaymentCycle = "lump_sum"
)

// InterestTerm is the loan's rate together with the unit it accrues over.
type InterestTerm struct {
	Value decimal.Decimal `json:"value"`
	Unit  DurationUnit    `json:"unit"`
}

// DurationTerm is the loan's tenor.
type DurationTerm struct {
	Value int32        `json:"value"`
	Unit  DurationUnit `json:"unit"`
}

type Entity struct {
	ID                 string
	LoanNumber         string
	Type               Type
	Status             Status
	DisbursementMethod DisbursementMethod
	BorrowerID         string
	LoanOfficerID      string
	BranchID           string
	PrincipalAmount    decimal.Decimal
	ReleaseDate        time.Time
	MaturityDate       time.Time
	NextPaymentDate    *time.Time
	InterestMethod     InterestMethod
	LoanInterest       InterestTerm
	LoanDuration       DurationTerm
	RepaymentCycle     RepaymentCycle
	NumberOfRepayments int32
	TotalFees          decimal.Decimal
	TotalPaid          decimal.Decimal
	TotalAmount        decimal.Decimal
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

func (e *Entity) Outstanding() decimal.Decimal {
	return e.TotalAmount.Sub(e.TotalPaid)
}

type CreateInput struct {
	Type               Type
	DisbursementMethod DisbursementMethod
	BorrowerID         string
	LoanOfficerID      string
	BranchID           string
	PrincipalAmount    decimal.Decimal
	ReleaseDate        time.Time
	MaturityDate       time.Time
	NextPaymentDate    *time.Time
	InterestMethod     InterestMethod
	LoanInterest       InterestTerm
	LoanDuration       DurationTerm
	RepaymentCycle     RepaymentCycle
	NumberOfRepayments int32
	TotalAmount        decimal.Decimal
}

type ListFilter struct {
	Status     Status
	BranchID   string
	BorrowerID string
	Limit      int32
	Offset     int32
}

type Repository interface {
	Create(ctx context.Context, loanNumber string, in CreateInput) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context, f ListFilter) ([]Entity, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	SetMaturityDate(ctx context.Context, id string, maturityDate time.Time) error
	SoftDelete(ctx context.Context, id string) error
}
