package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/microlend/backend/internal/domain/borrower"
	"github.com/microlend/backend/internal/domain/errs"
	"github.com/microlend/backend/internal/domain/loan"
	"github.com/microlend/backend/internal/notify"
)

type LoanRepository interface {
	GetByID(ctx context.Context, id string) (*loan.Entity, error)
}

type BorrowerRepository interface {
	GetByID(ctx context.Context, id string) (*borrower.Entity, error)
}

// Service applies payments against a loan's outstanding balance. A payment
// that would push totalPaid above totalAmount is refused; one that lands
// exactly on the balance succeeds.
type Service struct {
	paymentRepo Repository
	loanRepo    LoanRepository
	borrowers   BorrowerRepository
	outbox      notify.Enqueuer
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(paymentRepo Repository, loanRepo LoanRepository, borrowers BorrowerRepository, outbox notify.Enqueuer, logger *slog.Logger) *Service {
	return &Service{
		paymentRepo: paymentRepo,
		loanRepo:    loanRepo,
		borrowers:   borrowers,
		outbox:      outbox,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Apply(ctx context.Context, loanID string, in ApplyInput) (*Entity, error) {
	if !in.Amount.IsPositive() {
		return nil, errs.Validation("amount", "payment amount must be positive")
	}
	if in.PrincipalAmount.IsNegative() || in.InterestAmount.IsNegative() || in.PenaltyAmount.IsNegative() {
		return nil, errs.Validation("amount", "payment components cannot be negative")
	}

	l, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	newPaid := l.TotalPaid.Add(in.Amount)
	if newPaid.GreaterThan(l.TotalAmount) {
		return nil, errs.BalanceExceeded("payment amount exceeds remaining loan balance")
	}

	created, err := s.paymentRepo.Apply(ctx, l.ID, l.Version, in)
	if err != nil {
		return nil, err
	}

	s.notifyPayment(ctx, l, created, newPaid.Equal(l.TotalAmount))
	return created, nil
}

func (s *Service) ListByLoan(ctx context.Context, loanID string) ([]Entity, error) {
	return s.paymentRepo.ListByLoan(ctx, loanID)
}

func (s *Service) notifyPayment(ctx context.Context, l *loan.Entity, p *Entity, completed bool) {
	b, err := s.borrowers.GetByID(ctx, l.BorrowerID)
	if err != nil {
		s.logger.Error("load borrower for payment notification failed", "loan", l.LoanNumber, "err", err)
		return
	}
	to := notify.Recipient{Email: b.Email, Phone: b.Phone}

	remaining := l.TotalAmount.Sub(l.TotalPaid).Sub(p.Amount)
	msg := notify.PaymentReceived(l.LoanNumber, p.Amount, remaining, s.now())
	s.enqueue(ctx, notify.KindPaymentReceived, p.ID, to, msg, l.LoanNumber)

	if completed {
		s.enqueue(ctx, notify.KindLoanCompleted, l.ID, to, notify.LoanCompleted(l.LoanNumber), l.LoanNumber)
	}
}

func (s *Service) enqueue(ctx context.Context, kind, subjectID string, to notify.Recipient, msg notify.Message, loanNumber string) {
	ev := notify.Event{
		Kind:        kind,
		Recipient:   to,
		Subject:     msg.Subject,
		EmailHTML:   msg.EmailHTML,
		SMSText:     msg.SMSText,
		Fingerprint: notify.EventFingerprint(kind, subjectID, s.now()),
	}
	if err := s.outbox.Enqueue(ctx, ev); err != nil {
		s.logger.Error("enqueue payment notification failed", "kind", kind, "loan", loanNumber, "err", err)
	}
}
