package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microlend/backend/internal/domain/borrower"
	"github.com/microlend/backend/internal/domain/errs"
)

type BorrowerRepository struct {
	pool *pgxpool.Pool
}

func NewBorrowerRepository(pool *pgxpool.Pool) *BorrowerRepository {
	return &BorrowerRepository{pool: pool}
}

func (r *BorrowerRepository) GetByID(ctx context.Context, id string) (*borrower.Entity, error) {
	q := `
SELECT id, first_name, last_name, email, phone, created_at, updated_at, deleted_at
FROM borrowers WHERE id = $1 AND deleted_at IS NULL`
	out := &borrower.Entity{}
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&out.ID, &out.FirstName, &out.LastName, &out.Email, &out.Phone,
		&out.CreatedAt, &out.UpdatedAt, &out.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("borrower", id)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BorrowerRepository) ListGuarantors(ctx context.Context, borrowerID string) ([]borrower.Guarantor, error) {
	q := `
SELECT id, borrower_id, first_name, last_name, email, phone
FROM guarantors WHERE borrower_id = $1 AND deleted_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, borrowerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]borrower.Guarantor, 0)
	for rows.Next() {
		var item borrower.Guarantor
		if err := rows.Scan(&item.ID, &item.BorrowerID, &item.FirstName, &item.LastName, &item.Email, &item.Phone); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
