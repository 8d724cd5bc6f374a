package jobs

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/microlend/backend/internal/domain/borrower"
	"github.com/microlend/backend/internal/domain/branch"
	"github.com/microlend/backend/internal/domain/loan"
	"github.com/microlend/backend/internal/notify"
	"github.com/shopspring/decimal"
)

const (
	maturityWindowDays = 7
	inactiveWindowDays = 30

	// sentinel bucket for disbursed loans that lost their branch link
	unassignedBranch = "unassigned"
)

var nearingCompletionRatio = decimal.NewFromFloat(0.95)

type LoanBook interface {
	ListMaturingBetween(ctx context.Context, from, to time.Time) ([]loan.Entity, error)
	ListOverdue(ctx context.Context, before time.Time) ([]loan.Entity, error)
	ListNearingCompletion(ctx context.Context, ratio decimal.Decimal) ([]loan.Entity, error)
	ListDisbursed(ctx context.Context) ([]loan.Entity, error)
	ListInactiveSince(ctx context.Context, since time.Time) ([]loan.Entity, error)
}

type BorrowerDirectory interface {
	GetByID(ctx context.Context, id string) (*borrower.Entity, error)
	ListGuarantors(ctx context.Context, borrowerID string) ([]borrower.Guarantor, error)
}

type BranchDirectory interface {
	GetByID(ctx context.Context, id string) (*branch.Entity, error)
}

// Monitor holds the scheduled scans over the loan book. Every scan is
// read-only with respect to the domain model; the only side effect is
// dispatching through the notifier. A failure to reach one recipient is
// logged and does not stop the scan.
type Monitor struct {
	loans     LoanBook
	borrowers BorrowerDirectory
	branches  BranchDirectory
	notifier  notify.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewMonitor(loans LoanBook, borrowers BorrowerDirectory, branches BranchDirectory, notifier notify.Notifier, logger *slog.Logger) *Monitor {
	return &Monitor{
		loans:     loans,
		borrowers: borrowers,
		branches:  branches,
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// CheckUpcomingMaturities notifies borrowers whose disbursed loans mature
// within the next seven days.
func (m *Monitor) CheckUpcomingMaturities(ctx context.Context) error {
	now := m.now()
	loans, err := m.loans.ListMaturingBetween(ctx, startOfDay(now), endOfDay(now.AddDate(0, 0, maturityWindowDays)))
	if err != nil {
		return err
	}
	m.logger.Info("found loans nearing maturity", "count", len(loans))

	for i := range loans {
		l := &loans[i]
		msg := notify.MaturityNotice(l.LoanNumber, l.MaturityDate, l.Outstanding())
		m.notifyBorrower(ctx, l, msg)
	}
	return nil
}

// CheckLatePayments notifies borrowers, and every guarantor attached to
// them, for disbursed loans whose next payment date has passed.
func (m *Monitor) CheckLatePayments(ctx context.Context) error {
	loans, err := m.loans.ListOverdue(ctx, startOfDay(m.now()))
	if err != nil {
		return err
	}
	m.logger.Info("found loans with late payments", "count", len(loans))

	for i := range loans {
		l := &loans[i]
		b, err := m.borrowers.GetByID(ctx, l.BorrowerID)
		if err != nil {
			m.logger.Error("load borrower failed", "loan", l.LoanNumber, "err", err)
			continue
		}

		msg := notify.LatePayment(l.LoanNumber, l.Outstanding())
		m.send(ctx, notify.Recipient{Email: b.Email, Phone: b.Phone}, msg, l.LoanNumber)

		guarantors, err := m.borrowers.ListGuarantors(ctx, l.BorrowerID)
		if err != nil {
			m.logger.Error("load guarantors failed", "loan", l.LoanNumber, "err", err)
			continue
		}
		borrowerName := b.FirstName + " " + b.LastName
		for _, g := range guarantors {
			gmsg := notify.GuarantorLatePayment(l.LoanNumber, borrowerName, l.Outstanding())
			m.send(ctx, notify.Recipient{Email: g.Email, Phone: g.Phone}, gmsg, l.LoanNumber)
		}
	}
	return nil
}

// CheckLoansNearingCompletion notifies borrowers whose disbursed loans are
// at least 95% repaid, the boundary included.
func (m *Monitor) CheckLoansNearingCompletion(ctx context.Context) error {
	loans, err := m.loans.ListNearingCompletion(ctx, nearingCompletionRatio)
	if err != nil {
		return err
	}
	m.logger.Info("found loans nearing completion", "count", len(loans))

	for i := range loans {
		l := &loans[i]
		msg := notify.NearingCompletion(l.LoanNumber, l.Outstanding())
		m.notifyBorrower(ctx, l, msg)
	}
	return nil
}

// SendDailyBranchReports aggregates the disbursed loan book per branch and
// mails one report to each branch manager. Loans without a branch are
// grouped under the unassigned bucket, which has no manager to report to.
func (m *Monitor) SendDailyBranchReports(ctx context.Context) error {
	now := m.now()
	loans, err := m.loans.ListDisbursed(ctx)
	if err != nil {
		return err
	}

	byBranch := map[string][]loan.Entity{}
	for _, l := range loans {
		branchID := l.BranchID
		if branchID == "" {
			branchID = unassignedBranch
		}
		byBranch[branchID] = append(byBranch[branchID], l)
	}

	branchIDs := make([]string, 0, len(byBranch))
	for id := range byBranch {
		branchIDs = append(branchIDs, id)
	}
	sort.Strings(branchIDs)

	for _, branchID := range branchIDs {
		group := byBranch[branchID]
		report := notify.BranchReportData{BranchID: branchID, TotalLoans: len(group)}
		for _, l := range group {
			report.TotalAmount = report.TotalAmount.Add(l.TotalAmount)
			report.TotalPaid = report.TotalPaid.Add(l.TotalPaid)
			if l.NextPaymentDate != nil && l.NextPaymentDate.Before(now) {
				report.OverdueLoans++
			}
		}

		if branchID == unassignedBranch {
			m.logger.Warn("skipping report for loans without a branch", "loans", report.TotalLoans)
			continue
		}

		b, err := m.branches.GetByID(ctx, branchID)
		if err != nil {
			m.logger.Error("load branch for report failed", "branch", branchID, "err", err)
			continue
		}
		msg := notify.BranchReport(report)
		m.send(ctx, notify.Recipient{Email: b.ManagerEmail, Phone: b.ManagerPhone}, msg, branchID)
	}
	return nil
}

// CheckInactiveLoans notifies borrowers of disbursed loans with no payment
// recorded in the trailing thirty days.
func (m *Monitor) CheckInactiveLoans(ctx context.Context) error {
	since := m.now().AddDate(0, 0, -inactiveWindowDays)
	loans, err := m.loans.ListInactiveSince(ctx, since)
	if err != nil {
		return err
	}
	m.logger.Info("found inactive loans", "count", len(loans))

	for i := range loans {
		l := &loans[i]
		msg := notify.InactiveLoan(l.LoanNumber, l.Outstanding())
		m.notifyBorrower(ctx, l, msg)
	}
	return nil
}

func (m *Monitor) notifyBorrower(ctx context.Context, l *loan.Entity, msg notify.Message) {
	b, err := m.borrowers.GetByID(ctx, l.BorrowerID)
	if err != nil {
		m.logger.Error("load borrower failed", "loan", l.LoanNumber, "err", err)
		return
	}
	m.send(ctx, notify.Recipient{Email: b.Email, Phone: b.Phone}, msg, l.LoanNumber)
}

func (m *Monitor) send(ctx context.Context, to notify.Recipient, msg notify.Message, loanNumber string) {
	if err := m.notifier.Notify(ctx, to, msg.Subject, msg.EmailHTML, msg.SMSText); err != nil {
		m.logger.Error("notification failed", "loan", loanNumber, "subject", msg.Subject, "err", err)
	}
}
