package branch

import (
	"context"

	"github.com/microlend/backend/internal/domain/errs"
	"github.com/microlend/backend/internal/domain/loan"
	"github.com/shopspring/decimal"
)

// Service is the branch directory: it owns branch records and answers the
// constraint checks every loan issued at a branch must satisfy.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Entity, error) {
	if in.MinimumLoanAmount.GreaterThan(in.MaximumLoanAmount) {
		return nil, errs.Validation("minimumLoanAmount", "minimum loan amount cannot exceed maximum loan amount")
	}
	if in.MinimumInterestRate.GreaterThan(in.MaximumInterestRate) {
		return nil, errs.Validation("minimumInterestRate", "minimum interest rate cannot exceed maximum interest rate")
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	// the first branch created becomes the main branch
	return s.repo.Create(ctx, in, count == 0)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Entity, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Entity, error) {
	return s.repo.List(ctx)
}

func (s *Service) AssignOfficer(ctx context.Context, branchID, officerID string) error {
	if _, err := s.repo.GetByID(ctx, branchID); err != nil {
		return err
	}
	return s.repo.AssignOfficer(ctx, branchID, officerID)
}

// BranchName resolves a branch's display name, used when minting loan
// numbers.
func (s *Service) BranchName(ctx context.Context, branchID string) (string, error) {
	b, err := s.repo.GetByID(ctx, branchID)
	if err != nil {
		return "", err
	}
	return b.Name, nil
}

func (s *Service) ValidateLoanAmount(ctx context.Context, branchID string, amount decimal.Decimal) error {
	b, err := s.repo.GetByID(ctx, branchID)
	if err != nil {
		return err
	}
	if amount.LessThan(b.MinimumLoanAmount) || amount.GreaterThan(b.MaximumLoanAmount) {
		return errs.Validationf("principalAmount", "loan amount must be between %s and %s",
			b.MinimumLoanAmount.String(), b.MaximumLoanAmount.String())
	}
	return nil
}

func (s *Service) ValidateInterestRate(ctx context.Context, branchID string, rate decimal.Decimal) error {
	b, err := s.repo.GetByID(ctx, branchID)
	if err != nil {
		return err
	}
	if rate.LessThan(b.MinimumInterestRate) || rate.GreaterThan(b.MaximumInterestRate) {
		return errs.Validationf("loanInterest", "interest rate must be between %s%% and %s%%",
			b.MinimumInterestRate.String(), b.MaximumInterestRate.String())
	}
	return nil
}

func (s *Service) ValidateLoanType(ctx context.Context, branchID string, loanType loan.Type) error {
	b, err := s.repo.GetByID(ctx, branchID)
	if err != nil {
		return err
	}
	if !b.AllowsLoanType(loanType) {
		return errs.Validationf("type", "loan type %q is not offered at branch %s", loanType, b.Name)
	}
	return nil
}
