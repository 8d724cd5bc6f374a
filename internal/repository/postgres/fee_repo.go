package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microlend/backend/internal/domain/errs"
	"github.com/microlend/backend/internal/domain/fee"
	"github.com/shopspring/decimal"
)

const feeColumns = `id, loan_id, type, name, calculation_type, value, amount, description,
       created_at, updated_at, deleted_at`

type FeeRepository struct {
	pool *pgxpool.Pool
}

func NewFeeRepository(pool *pgxpool.Pool) *FeeRepository {
	return &FeeRepository{pool: pool}
}

func scanFee(row pgx.Row) (*fee.Entity, error) {
	out := &fee.Entity{}
	var description *string
	err := row.Scan(
		&out.ID, &out.LoanID, &out.Type, &out.Name, &out.CalculationType, &out.Value, &out.Amount, &description,
		&out.CreatedAt, &out.UpdatedAt, &out.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if description != nil {
		out.Description = *description
	}
	return out, nil
}

// Attach inserts the fee and bumps the loan's fee total in one transaction.
// The version guard refuses the write if the loan row changed since the
// caller loaded it.
func (r *FeeRepository) Attach(ctx context.Context, loanID string, loanVersion int64, in fee.AttachInput, amount decimal.Decimal) (*fee.Entity, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
UPDATE loans SET total_fees = total_fees + $2, version = version + 1, updated_at = NOW()
WHERE id = $1 AND version = $3 AND deleted_at IS NULL`, loanID, amount, loanVersion)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, errs.Conflict("loan was modified concurrently, retry the fee")
	}

	row := tx.QueryRow(ctx, `
INSERT INTO fees (id, loan_id, type, name, calculation_type, value, amount, description)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING `+feeColumns,
		uuid.NewString(), loanID, in.Type, in.Name, in.CalculationType, in.Value, amount, in.Description)
	out, err := scanFee(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FeeRepository) GetByID(ctx context.Context, id string) (*fee.Entity, error) {
	q := `SELECT ` + feeColumns + ` FROM fees WHERE id = $1 AND deleted_at IS NULL`
	out, err := scanFee(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("fee", id)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Detach soft-deletes the fee and subtracts its stored amount from the
// loan's fee total in one version-guarded transaction.
func (r *FeeRepository) Detach(ctx context.Context, feeID, loanID string, loanVersion int64, amount decimal.Decimal) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
UPDATE fees SET deleted_at = NOW(), updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL`, feeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("fee", feeID)
	}

	tag, err = tx.Exec(ctx, `
UPDATE loans SET total_fees = total_fees - $2, version = version + 1, updated_at = NOW()
WHERE id = $1 AND version = $3 AND deleted_at IS NULL`, loanID, amount, loanVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.Conflict("loan was modified concurrently, retry the detach")
	}

	return tx.Commit(ctx)
}

func (r *FeeRepository) ListByLoan(ctx context.Context, loanID string) ([]fee.Entity, error) {
	q := `SELECT ` + feeColumns + ` FROM fees WHERE loan_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]fee.Entity, 0)
	for rows.Next() {
		item, err := scanFee(rows)
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
