package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microlend/backend/internal/domain/errs"
	"github.com/microlend/backend/internal/domain/officer"
)

const officerColumns = `id, employee_id, first_name, last_name, email, phone, branch_id,
       is_admin, is_active, created_at, updated_at, deleted_at`

type OfficerRepository struct {
	pool *pgxpool.Pool
}

func NewOfficerRepository(pool *pgxpool.Pool) *OfficerRepository {
	return &OfficerRepository{pool: pool}
}

func scanOfficer(row pgx.Row) (*officer.Entity, error) {
	out := &officer.Entity{}
	var branchID *string
	err := row.Scan(
		&out.ID, &out.EmployeeID, &out.FirstName, &out.LastName, &out.Email, &out.Phone, &branchID,
		&out.IsAdmin, &out.IsActive, &out.CreatedAt, &out.UpdatedAt, &out.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if branchID != nil {
		out.BranchID = *branchID
	}
	return out, nil
}

func (r *OfficerRepository) GetByID(ctx context.Context, id string) (*officer.Entity, error) {
	q := `SELECT ` + officerColumns + ` FROM loan_officers WHERE id = $1 AND deleted_at IS NULL`
	out, err := scanOfficer(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("loan officer", id)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OfficerRepository) ListByBranch(ctx context.Context, branchID string) ([]officer.Entity, error) {
	q := `SELECT ` + officerColumns + ` FROM loan_officers WHERE branch_id = $1 AND deleted_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]officer.Entity, 0)
	for rows.Next() {
		item, err := scanOfficer(rows)
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
