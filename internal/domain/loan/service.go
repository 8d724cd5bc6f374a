package loan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/microlend/backend/internal/domain/borrower"
	"github.com/microlend/backend/internal/domain/errs"
	"github.com/microlend/backend/internal/domain/officer"
	"github.com/microlend/backend/internal/notify"
	"github.com/shopspring/decimal"
)

// ErrNumberTaken is returned by the repository when a generated loan number
// collides with an existing one. The service retries with a fresh number.
var ErrNumberTaken = errors.New("loan number already taken")

const maxNumberAttempts = 5

type BranchDirectory interface {
	ValidateLoanAmount(ctx context.Context, branchID string, amount decimal.Decimal) error
	ValidateInterestRate(ctx context.Context, branchID string, rate decimal.Decimal) error
	ValidateLoanType(ctx context.Context, branchID string, loanType Type) error
	BranchName(ctx context.Context, branchID string) (string, error)
}

type OfficerRepository interface {
	GetByID(ctx context.Context, id string) (*officer.Entity, error)
}

type BorrowerRepository interface {
	GetByID(ctx context.Context, id string) (*borrower.Entity, error)
}

type Service struct {
	loanRepo  Repository
	branches  BranchDirectory
	officers  OfficerRepository
	borrowers BorrowerRepository
	outbox    notify.Enqueuer
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(loanRepo Repository, branches BranchDirectory, officers OfficerRepository, borrowers BorrowerRepository, outbox notify.Enqueuer, logger *slog.Logger) *Service {
	return &Service{
		loanRepo:  loanRepo,
		branches:  branches,
		officers:  officers,
		borrowers: borrowers,
		outbox:    outbox,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Entity, error) {
	if in.BranchID == "" {
		return nil, errs.Validation("branchId", "branch ID is required")
	}
	if in.LoanOfficerID == "" {
		return nil, errs.Validation("loanOfficerId", "loan officer ID is required")
	}
	if !in.PrincipalAmount.IsPositive() {
		return nil, errs.Validation("principalAmount", "principal amount is required")
	}
	if !in.LoanInterest.Value.IsPositive() {
		return nil, errs.Validation("loanInterest", "loan interest value is required")
	}
	if in.Type == "" {
		return nil, errs.Validation("type", "loan type is required")
	}
	if in.TotalAmount.IsNegative() {
		return nil, errs.Validation("totalAmount", "total amount cannot be negative")
	}

	if err := s.branches.ValidateLoanAmount(ctx, in.BranchID, in.PrincipalAmount); err != nil {
		return nil, err
	}
	if err := s.branches.ValidateInterestRate(ctx, in.BranchID, in.LoanInterest.Value); err != nil {
		return nil, err
	}
	if err := s.branches.ValidateLoanType(ctx, in.BranchID, in.Type); err != nil {
		return nil, err
	}

	o, err := s.officers.GetByID(ctx, in.LoanOfficerID)
	if err != nil {
		return nil, err
	}
	if !o.IsActive {
		return nil, errs.Authorization("loan officer is not active")
	}
	if !o.IsAdmin && o.BranchID != in.BranchID {
		return nil, errs.Authorization("loan officer does not belong to this branch")
	}

	branchName, err := s.branches.BranchName(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}

	var created *Entity
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := GenerateNumber(s.now(), branchName)
		created, err = s.loanRepo.Create(ctx, number, in)
		if errors.Is(err, ErrNumberTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}
	if created == nil {
		return nil, errs.Conflict("could not allocate a unique loan number")
	}

	s.enqueueBorrowerNotice(ctx, created, notify.KindLoanApplication,
		notify.LoanApplicationReceived(created.LoanNumber, created.PrincipalAmount, string(created.Type), string(created.Status)))

	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Entity, error) {
	return s.loanRepo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Entity, error) {
	return s.loanRepo.List(ctx, f)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Entity, error) {
	if !IsValidStatus(status) {
		return nil, errs.Validationf("status", "unknown loan status %q", status)
	}

	l, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(l.Status, status) {
		return nil, errs.InvalidStatef("cannot move loan %s from %s to %s", l.LoanNumber, l.Status, status)
	}

	if err := s.loanRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	l.Status = status

	s.enqueueBorrowerNotice(ctx, l, notify.KindStatusChanged, notify.StatusChanged(l.LoanNumber, string(status)))

	return l, nil
}

func (s *Service) ExtendMaturityDate(ctx context.Context, id string, extensionDays int) (*Entity, error) {
	if extensionDays <= 0 {
		return nil, errs.Validation("extensionDays", "extension days must be positive")
	}

	l, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Status == StatusCompleted || l.Status == StatusDefaulted {
		return nil, errs.InvalidState("cannot extend maturity date for completed or defaulted loans")
	}

	newMaturity := l.MaturityDate.AddDate(0, 0, extensionDays)
	if err := s.loanRepo.SetMaturityDate(ctx, id, newMaturity); err != nil {
		return nil, err
	}
	l.MaturityDate = newMaturity
	return l, nil
}

// enqueueBorrowerNotice queues a notification for the loan's borrower.
// Failures are logged and never propagated: notification delivery must not
// fail the domain operation that produced it.
func (s *Service) enqueueBorrowerNotice(ctx context.Context, l *Entity, kind string, msg notify.Message) {
	b, err := s.borrowers.GetByID(ctx, l.BorrowerID)
	if err != nil {
		s.logger.Error("load borrower for notification failed", "loan", l.LoanNumber, "err", err)
		return
	}
	ev := notify.Event{
		Kind:        kind,
		Recipient:   notify.Recipient{Email: b.Email, Phone: b.Phone},
		Subject:     msg.Subject,
		EmailHTML:   msg.EmailHTML,
		SMSText:     msg.SMSText,
		Fingerprint: notify.EventFingerprint(kind, l.ID, s.now()),
	}
	if err := s.outbox.Enqueue(ctx, ev); err != nil {
		s.logger.Error("enqueue notification failed", "kind", kind, "loan", l.LoanNumber, "err", err)
	}
}
