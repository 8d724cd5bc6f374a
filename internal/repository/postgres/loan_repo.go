package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microlend/backend/internal/domain/errs"
	"github.com/microlend/backend/internal/domain/loan"
	"github.com/shopspring/decimal"
)

const loanColumns = `id, loan_number, type, status, disbursement_method, borrower_id, loan_officer_id,
       branch_id, principal_amount, release_date, maturity_date, next_payment_date,
       interest_method, interest_value, interest_unit, duration_value, duration_unit,
       repayment_cycle, number_of_repayments, total_fees, total_paid, total_amount,
       version, created_at, updated_at, deleted_at`

type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

func scanLoan(row pgx.Row) (*loan.Entity, error) {
	out := &loan.Entity{}
	var branchID *string
	err := row.Scan(
		&out.ID, &out.LoanNumber, &out.Type, &out.Status, &out.DisbursementMethod, &out.BorrowerID, &out.LoanOfficerID,
		&branchID, &out.PrincipalAmount, &out.ReleaseDate, &out.MaturityDate, &out.NextPaymentDate,
		&out.InterestMethod, &out.LoanInterest.Value, &out.LoanInterest.Unit, &out.LoanDuration.Value, &out.LoanDuration.Unit,
		&out.RepaymentCycle, &out.NumberOfRepayments, &out.TotalFees, &out.TotalPaid, &out.TotalAmount,
		&out.Version, &out.CreatedAt, &out.UpdatedAt, &out.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if branchID != nil {
		out.BranchID = *branchID
	}
	return out, nil
}

func (r *LoanRepository) Create(ctx context.Context, loanNumber string, in loan.CreateInput) (*loan.Entity, error) {
	q := `
INSERT INTO loans (
  id, loan_number, type, status, disbursement_method, borrower_id, loan_officer_id, branch_id,
  principal_amount, release_date, maturity_date, next_payment_date,
  interest_method, interest_value, interest_unit, duration_value, duration_unit,
  repayment_cycle, number_of_repayments, total_fees, total_paid, total_amount
) VALUES ($1,$2,$3,'pending',$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,0,0,$19)
RETURNING ` + loanColumns

	row := r.pool.QueryRow(ctx, q,
		uuid.NewString(), loanNumber, in.Type, in.DisbursementMethod, in.BorrowerID, in.LoanOfficerID, in.BranchID,
		in.PrincipalAmount, in.ReleaseDate, in.MaturityDate, in.NextPaymentDate,
		in.InterestMethod, in.LoanInterest.Value, in.LoanInterest.Unit, in.LoanDuration.Value, in.LoanDuration.Unit,
		in.RepaymentCycle, in.NumberOfRepayments, in.TotalAmount,
	)
	out, err := scanLoan(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "loan_number") {
			return nil, loan.ErrNumberTaken
		}
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 AND deleted_at IS NULL`
	out, err := scanLoan(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("loan", id)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) List(ctx context.Context, f loan.ListFilter) ([]loan.Entity, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + loanColumns + ` FROM loans WHERE deleted_at IS NULL`)

	args := []any{}
	argPos := 1
	if f.Status != "" {
		builder.WriteString(" AND status = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.Status)
		argPos++
	}
	if strings.TrimSpace(f.BranchID) != "" {
		builder.WriteString(" AND branch_id = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.BranchID)
		argPos++
	}
	if strings.TrimSpace(f.BorrowerID) != "" {
		builder.WriteString(" AND borrower_id = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.BorrowerID)
		argPos++
	}
	builder.WriteString(" ORDER BY created_at DESC")
	builder.WriteString(" LIMIT $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Limit)
	argPos++
	builder.WriteString(" OFFSET $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Offset)

	return r.queryLoans(ctx, builder.String(), args...)
}

func (r *LoanRepository) UpdateStatus(ctx context.Context, id string, status loan.Status) error {
	q := `UPDATE loans SET status = $2, version = version + 1, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("loan", id)
	}
	return nil
}

func (r *LoanRepository) SetMaturityDate(ctx context.Context, id string, maturityDate time.Time) error {
	q := `UPDATE loans SET maturity_date = $2, version = version + 1, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, id, maturityDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("loan", id)
	}
	return nil
}

func (r *LoanRepository) SoftDelete(ctx context.Context, id string) error {
	q := `UPDATE loans SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("loan", id)
	}
	return nil
}

// Scan queries for the monitoring jobs. All of them see only disbursed,
// non-deleted loans.

func (r *LoanRepository) ListMaturingBetween(ctx context.Context, from, to time.Time) ([]loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loans
WHERE status = 'disbursed' AND deleted_at IS NULL AND maturity_date BETWEEN $1 AND $2
ORDER BY maturity_date`
	return r.queryLoans(ctx, q, from, to)
}

func (r *LoanRepository) ListOverdue(ctx context.Context, before time.Time) ([]loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loans
WHERE status = 'disbursed' AND deleted_at IS NULL
  AND next_payment_date IS NOT NULL AND next_payment_date < $1
ORDER BY next_payment_date`
	return r.queryLoans(ctx, q, before)
}

func (r *LoanRepository) ListNearingCompletion(ctx context.Context, ratio decimal.Decimal) ([]loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loans
WHERE status = 'disbursed' AND deleted_at IS NULL
  AND total_amount > 0 AND total_paid / total_amount >= $1
ORDER BY created_at DESC`
	return r.queryLoans(ctx, q, ratio)
}

func (r *LoanRepository) ListDisbursed(ctx context.Context) ([]loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loans
WHERE status = 'disbursed' AND deleted_at IS NULL
ORDER BY created_at DESC`
	return r.queryLoans(ctx, q)
}

func (r *LoanRepository) ListInactiveSince(ctx context.Context, since time.Time) ([]loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loans
WHERE status = 'disbursed' AND deleted_at IS NULL
  AND NOT EXISTS (
    SELECT 1 FROM payments p
    WHERE p.loan_id = loans.id AND p.deleted_at IS NULL AND p.created_at > $1
  )
ORDER BY created_at DESC`
	return r.queryLoans(ctx, q, since)
}

func (r *LoanRepository) queryLoans(ctx context.Context, q string, args ...any) ([]loan.Entity, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loan.Entity, 0)
	for rows.Next() {
		item, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
