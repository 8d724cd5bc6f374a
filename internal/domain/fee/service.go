package fee

import (
	"context"
	"log/slog"
	"time"

	"github.com/microlend/backend/internal/domain/borrower"
	"github.com/microlend/backend/internal/domain/errs"
	"github.com/microlend/backend/internal/domain/loan"
	"github.com/microlend/backend/internal/notify"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

type LoanRepository interface {
	GetByID(ctx context.Context, id string) (*loan.Entity, error)
}

type BorrowerRepository interface {
	GetByID(ctx context.Context, id string) (*borrower.Entity, error)
}

// Service keeps a loan's fee total reconciled with its attached fees. The
// fee amount is computed once at attach time and the stored amount is used
// symmetrically at detach time.
type Service struct {
	feeRepo   Repository
	loanRepo  LoanRepository
	borrowers BorrowerRepository
	outbox    notify.Enqueuer
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(feeRepo Repository, loanRepo LoanRepository, borrowers BorrowerRepository, outbox notify.Enqueuer, logger *slog.Logger) *Service {
	return &Service{
		feeRepo:   feeRepo,
		loanRepo:  loanRepo,
		borrowers: borrowers,
		outbox:    outbox,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ComputeAmount resolves the monetary figure a fee contributes to a loan.
func ComputeAmount(calculationType CalculationType, value, principal decimal.Decimal) decimal.Decimal {
	if calculationType == CalculationPercentage {
		return principal.Mul(value).Div(oneHundred)
	}
	return value
}

func (s *Service) Attach(ctx context.Context, loanID string, in AttachInput) (*Entity, error) {
	if in.Name == "" {
		return nil, errs.Validation("name", "fee name is required")
	}
	if in.CalculationType != CalculationFixed && in.CalculationType != CalculationPercentage {
		return nil, errs.Validationf("calculationType", "unknown calculation type %q", in.CalculationType)
	}
	if !in.Value.IsPositive() {
		return nil, errs.Validation("value", "fee value must be positive")
	}

	l, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	amount := ComputeAmount(in.CalculationType, in.Value, l.PrincipalAmount)
	created, err := s.feeRepo.Attach(ctx, l.ID, l.Version, in, amount)
	if err != nil {
		return nil, err
	}

	s.notifyFeeApplied(ctx, l, created)
	return created, nil
}

func (s *Service) Detach(ctx context.Context, feeID string) error {
	f, err := s.feeRepo.GetByID(ctx, feeID)
	if err != nil {
		return err
	}
	l, err := s.loanRepo.GetByID(ctx, f.LoanID)
	if err != nil {
		return err
	}
	return s.feeRepo.Detach(ctx, f.ID, l.ID, l.Version, f.Amount)
}

func (s *Service) ListByLoan(ctx context.Context, loanID string) ([]Entity, error) {
	return s.feeRepo.ListByLoan(ctx, loanID)
}

func (s *Service) notifyFeeApplied(ctx context.Context, l *loan.Entity, f *Entity) {
	b, err := s.borrowers.GetByID(ctx, l.BorrowerID)
	if err != nil {
		s.logger.Error("load borrower for fee notification failed", "loan", l.LoanNumber, "err", err)
		return
	}
	msg := notify.FeeApplied(l.LoanNumber, string(f.Type), f.Amount)
	ev := notify.Event{
		Kind:        notify.KindFeeApplied,
		Recipient:   notify.Recipient{Email: b.Email, Phone: b.Phone},
		Subject:     msg.Subject,
		EmailHTML:   msg.EmailHTML,
		SMSText:     msg.SMSText,
		Fingerprint: notify.EventFingerprint(notify.KindFeeApplied, f.ID, s.now()),
	}
	if err := s.outbox.Enqueue(ctx, ev); err != nil {
		s.logger.Error("enqueue fee notification failed", "loan", l.LoanNumber, "err", err)
	}
}
