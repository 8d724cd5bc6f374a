package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microlend/backend/internal/domain/errs"
	"github.com/microlend/backend/internal/domain/payment"
)

const paymentColumns = `id, loan_id, amount, principal_amount, interest_amount, penalty_amount,
       status, method, transaction_reference, created_at, updated_at, deleted_at`

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func scanPayment(row pgx.Row) (*payment.Entity, error) {
	out := &payment.Entity{}
	var ref *string
	err := row.Scan(
		&out.ID, &out.LoanID, &out.Amount, &out.PrincipalAmount, &out.InterestAmount, &out.PenaltyAmount,
		&out.Status, &out.Method, &ref, &out.CreatedAt, &out.UpdatedAt, &out.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if ref != nil {
		out.TransactionReference = *ref
	}
	return out, nil
}

// Apply inserts a completed payment and adds its amount to the loan's paid
// total in one transaction. The balance check is repeated inside the
// version-guarded UPDATE so two concurrent payments cannot overpay the
// loan between the service's read and this write.
func (r *PaymentRepository) Apply(ctx context.Context, loanID string, loanVersion int64, in payment.ApplyInput) (*payment.Entity, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
UPDATE loans SET total_paid = total_paid + $2, version = version + 1, updated_at = NOW()
WHERE id = $1 AND version = $3 AND deleted_at IS NULL AND total_paid + $2 <= total_amount`,
		loanID, in.Amount, loanVersion)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, errs.Conflict("loan balance changed concurrently, retry the payment")
	}

	row := tx.QueryRow(ctx, `
INSERT INTO payments (id, loan_id, amount, principal_amount, interest_amount, penalty_amount, status, method, transaction_reference)
VALUES ($1,$2,$3,$4,$5,$6,'completed',$7,$8)
RETURNING `+paymentColumns,
		uuid.NewString(), loanID, in.Amount, in.PrincipalAmount, in.InterestAmount, in.PenaltyAmount,
		in.Method, in.TransactionReference)
	out, err := scanPayment(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PaymentRepository) ListByLoan(ctx context.Context, loanID string) ([]payment.Entity, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE loan_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]payment.Entity, 0)
	for rows.Next() {
		item, err := scanPayment(rows)
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

func (r *PaymentRepository) CountSince(ctx context.Context, loanID string, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE loan_id = $1 AND deleted_at IS NULL AND created_at > $2`,
		loanID, since).Scan(&count)
	return count, err
}
