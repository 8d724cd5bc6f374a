package loan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/microlend/backend/internal/domain/borrower"
	"github.com/microlend/backend/internal/domain/errs"
	"github.com/microlend/backend/internal/domain/officer"
	"github.com/microlend/backend/internal/notify"
	"github.com/shopspring/decimal"
)

type loanRepoMock struct {
	items       map[string]*Entity
	numberTaken int
	created     []string
	statusSets  []Status
	maturities  []time.Time
}

func (m *loanRepoMock) Create(_ context.Context, loanNumber string, in CreateInput) (*Entity, error) {
	if m.numberTaken > 0 {
		m.numberTaken--
		return nil, ErrNumberTaken
	}
	e := &Entity{
		ID:              "loan-1",
		LoanNumber:      loanNumber,
		Type:            in.Type,
		Status:          StatusPending,
		BorrowerID:      in.BorrowerID,
		LoanOfficerID:   in.LoanOfficerID,
		BranchID:        in.BranchID,
		PrincipalAmount: in.PrincipalAmount,
		MaturityDate:    in.MaturityDate,
		LoanInterest:    in.LoanInterest,
		TotalAmount:     in.TotalAmount,
	}
	if m.items == nil {
		m.items = map[string]*Entity{}
	}
	m.items[e.ID] = e
	m.created = append(m.created, loanNumber)
	return e, nil
}

func (m *loanRepoMock) GetByID(_ context.Context, id string) (*Entity, error) {
	if e, ok := m.items[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, errs.NotFound("loan", id)
}

func (m *loanRepoMock) List(_ context.Context, _ ListFilter) ([]Entity, error) {
	out := make([]Entity, 0, len(m.items))
	for _, e := range m.items {
		out = append(out, *e)
	}
	return out, nil
}

func (m *loanRepoMock) UpdateStatus(_ context.Context, id string, status Status) error {
	m.items[id].Status = status
	m.statusSets = append(m.statusSets, status)
	return nil
}

func (m *loanRepoMock) SetMaturityDate(_ context.Context, id string, maturityDate time.Time) error {
	m.items[id].MaturityDate = maturityDate
	m.maturities = append(m.maturities, maturityDate)
	return nil
}

func (m *loanRepoMock) SoftDelete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

type branchDirectoryMock struct {
	name      string
	amountErr error
	rateErr   error
	typeErr   error
}

func (m *branchDirectoryMock) ValidateLoanAmount(_ context.Context, _ string, _ decimal.Decimal) error {
	return m.amountErr
}

func (m *branchDirectoryMock) ValidateInterestRate(_ context.Context, _ string, _ decimal.Decimal) error {
	return m.rateErr
}

func (m *branchDirectoryMock) ValidateLoanType(_ context.Context, _ string, _ Type) error {
	return m.typeErr
}

func (m *branchDirectoryMock) BranchName(_ context.Context, _ string) (string, error) {
	return m.name, nil
}

type officerRepoMock struct {
	officer *officer.Entity
}

func (m *officerRepoMock) GetByID(_ context.Context, id string) (*officer.Entity, error) {
	if m.officer == nil {
		return nil, errs.NotFound("loan officer", id)
	}
	return m.officer, nil
}

type borrowerRepoMock struct {
	borrower *borrower.Entity
}

func (m *borrowerRepoMock) GetByID(_ context.Context, id string) (*borrower.Entity, error) {
	if m.borrower == nil {
		return nil, errs.NotFound("borrower", id)
	}
	return m.borrower, nil
}

type enqueuerMock struct {
	kinds []string
}

func (m *enqueuerMock) Enqueue(_ context.Context, ev notify.Event) error {
	m.kinds = append(m.kinds, ev.Kind)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInput() CreateInput {
	return CreateInput{
		Type:            TypePersonal,
		BorrowerID:      "b-1",
		LoanOfficerID:   "o-1",
		BranchID:        "br-1",
		PrincipalAmount: decimal.NewFromInt(5000),
		MaturityDate:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		LoanInterest:    InterestTerm{Value: decimal.NewFromInt(10), Unit: UnitMonth},
		TotalAmount:     decimal.NewFromInt(5500),
	}
}

func newTestService(repo *loanRepoMock, branches *branchDirectoryMock, off *officerRepoMock, outbox *enqueuerMock) *Service {
	return NewService(repo, branches, off,
		&borrowerRepoMock{borrower: &borrower.Entity{ID: "b-1", Email: "b@x.test"}},
		outbox, testLogger())
}

func activeOfficer() *officerRepoMock {
	return &officerRepoMock{officer: &officer.Entity{ID: "o-1", BranchID: "br-1", IsActive: true}}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	svc := newTestService(&loanRepoMock{}, &branchDirectoryMock{name: "Main"}, activeOfficer(), &enqueuerMock{})

	cases := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{"missing branch", func(in *CreateInput) { in.BranchID = "" }, "branchId"},
		{"missing officer", func(in *CreateInput) { in.LoanOfficerID = "" }, "loanOfficerId"},
		{"zero principal", func(in *CreateInput) { in.PrincipalAmount = decimal.Zero }, "principalAmount"},
		{"zero interest", func(in *CreateInput) { in.LoanInterest.Value = decimal.Zero }, "loanInterest"},
		{"missing type", func(in *CreateInput) { in.Type = "" }, "type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			var verr *errs.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, verr.Field)
			}
		})
	}
}

func TestCreateRefusesAmountOutsideBranchRange(t *testing.T) {
	branches := &branchDirectoryMock{name: "Main", amountErr: errs.Validation("principalAmount", "loan amount must be between 1000 and 5000")}
	svc := newTestService(&loanRepoMock{}, branches, activeOfficer(), &enqueuerMock{})

	in := validInput()
	in.PrincipalAmount = decimal.NewFromInt(6000)
	if _, err := svc.Create(context.Background(), in); err == nil {
		t.Fatalf("expected branch amount check to fail")
	}
}

func TestCreateRefusesInactiveOfficer(t *testing.T) {
	off := &officerRepoMock{officer: &officer.Entity{ID: "o-1", BranchID: "br-1", IsActive: false}}
	svc := newTestService(&loanRepoMock{}, &branchDirectoryMock{name: "Main"}, off, &enqueuerMock{})

	_, err := svc.Create(context.Background(), validInput())
	var aerr *errs.AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestCreateRefusesOfficerFromOtherBranch(t *testing.T) {
	off := &officerRepoMock{officer: &officer.Entity{ID: "o-1", BranchID: "br-other", IsActive: true}}
	svc := newTestService(&loanRepoMock{}, &branchDirectoryMock{name: "Main"}, off, &enqueuerMock{})

	_, err := svc.Create(context.Background(), validInput())
	var aerr *errs.AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestCreateAllowsAdminOfficerAcrossBranches(t *testing.T) {
	off := &officerRepoMock{officer: &officer.Entity{ID: "o-1", BranchID: "", IsAdmin: true, IsActive: true}}
	svc := newTestService(&loanRepoMock{}, &branchDirectoryMock{name: "Main"}, off, &enqueuerMock{})

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("create with admin officer: %v", err)
	}
}

func TestCreateSucceedsPendingAndEnqueuesNotice(t *testing.T) {
	repo := &loanRepoMock{}
	outbox := &enqueuerMock{}
	svc := newTestService(repo, &branchDirectoryMock{name: "Main Branch"}, activeOfficer(), outbox)

	l, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.Status != StatusPending {
		t.Fatalf("expected new loan pending, got %s", l.Status)
	}
	if l.LoanNumber == "" {
		t.Fatalf("expected generated loan number")
	}
	if len(outbox.kinds) != 1 || outbox.kinds[0] != notify.KindLoanApplication {
		t.Fatalf("expected loan application notice enqueued, got %v", outbox.kinds)
	}
}

func TestCreateRetriesOnNumberCollision(t *testing.T) {
	repo := &loanRepoMock{numberTaken: 2}
	svc := newTestService(repo, &branchDirectoryMock{name: "Main"}, activeOfficer(), &enqueuerMock{})

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("create after collisions: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one created loan, got %d", len(repo.created))
	}
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := &loanRepoMock{numberTaken: maxNumberAttempts}
	svc := newTestService(repo, &branchDirectoryMock{name: "Main"}, activeOfficer(), &enqueuerMock{})

	_, err := svc.Create(context.Background(), validInput())
	var cerr *errs.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected conflict after exhausted retries, got %v", err)
	}
}

func TestUpdateStatusRejectedOnlyReopensToPending(t *testing.T) {
	repo := &loanRepoMock{items: map[string]*Entity{
		"loan-1": {ID: "loan-1", LoanNumber: "LN1", Status: StatusRejected, BorrowerID: "b-1"},
	}}
	outbox := &enqueuerMock{}
	svc := newTestService(repo, &branchDirectoryMock{name: "Main"}, activeOfficer(), outbox)

	_, err := svc.UpdateStatus(context.Background(), "loan-1", StatusApproved)
	var serr *errs.InvalidStateError
	if !errors.As(err, &serr) {
		t.Fatalf("expected invalid state for rejected->approved, got %v", err)
	}

	l, err := svc.UpdateStatus(context.Background(), "loan-1", StatusPending)
	if err != nil {
		t.Fatalf("rejected->pending: %v", err)
	}
	if l.Status != StatusPending {
		t.Fatalf("expected pending, got %s", l.Status)
	}
	if len(outbox.kinds) != 1 || outbox.kinds[0] != notify.KindStatusChanged {
		t.Fatalf("expected status change notice, got %v", outbox.kinds)
	}
}

func TestUpdateStatusRefusesUnknownStatus(t *testing.T) {
	svc := newTestService(&loanRepoMock{}, &branchDirectoryMock{name: "Main"}, activeOfficer(), &enqueuerMock{})

	_, err := svc.UpdateStatus(context.Background(), "loan-1", Status("frozen"))
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtendMaturityDate(t *testing.T) {
	maturity := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &loanRepoMock{items: map[string]*Entity{
		"loan-1": {ID: "loan-1", LoanNumber: "LN1", Status: StatusDisbursed, BorrowerID: "b-1", MaturityDate: maturity},
	}}
	svc := newTestService(repo, &branchDirectoryMock{name: "Main"}, activeOfficer(), &enqueuerMock{})

	l, err := svc.ExtendMaturityDate(context.Background(), "loan-1", 30)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	want := maturity.AddDate(0, 0, 30)
	if !l.MaturityDate.Equal(want) {
		t.Fatalf("expected maturity %v, got %v", want, l.MaturityDate)
	}
}

func TestExtendMaturityDateRefusesTerminalLoans(t *testing.T) {
	for _, status := range []Status{StatusCompleted, StatusDefaulted} {
		repo := &loanRepoMock{items: map[string]*Entity{
			"loan-1": {ID: "loan-1", LoanNumber: "LN1", Status: status, BorrowerID: "b-1"},
		}}
		svc := newTestService(repo, &branchDirectoryMock{name: "Main"}, activeOfficer(), &enqueuerMock{})

		_, err := svc.ExtendMaturityDate(context.Background(), "loan-1", 30)
		var serr *errs.InvalidStateError
		if !errors.As(err, &serr) {
			t.Fatalf("expected invalid state for %s loan, got %v", status, err)
		}
	}
}

func TestExtendMaturityDateRefusesNonPositiveDays(t *testing.T) {
	svc := newTestService(&loanRepoMock{}, &branchDirectoryMock{name: "Main"}, activeOfficer(), &enqueuerMock{})

	for _, days := range []int{0, -7} {
		if _, err := svc.ExtendMaturityDate(context.Background(), "loan-1", days); err == nil {
			t.Fatalf("expected error for %d days", days)
		}
	}
}
