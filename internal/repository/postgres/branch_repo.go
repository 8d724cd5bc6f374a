package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microlend/backend/internal/domain/branch"
	"github.com/microlend/backend/internal/domain/errs"
	"github.com/microlend/backend/internal/domain/loan"
)

const branchColumns = `id, name, code, address, phone, email,
       minimum_loan_amount, maximum_loan_amount, minimum_interest_rate, maximum_interest_rate,
       allowed_loan_types, manager_email, manager_phone, is_main_branch,
       created_at, updated_at, deleted_at`

type BranchRepository struct {
	pool *pgxpool.Pool
}

func NewBranchRepository(pool *pgxpool.Pool) *BranchRepository {
	return &BranchRepository{pool: pool}
}

func scanBranch(row pgx.Row) (*branch.Entity, error) {
	out := &branch.Entity{}
	var allowedTypes []string
	err := row.Scan(
		&out.ID, &out.Name, &out.Code, &out.Address, &out.Phone, &out.Email,
		&out.MinimumLoanAmount, &out.MaximumLoanAmount, &out.MinimumInterestRate, &out.MaximumInterestRate,
		&allowedTypes, &out.ManagerEmail, &out.ManagerPhone, &out.IsMainBranch,
		&out.CreatedAt, &out.UpdatedAt, &out.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	out.AllowedLoanTypes = make([]loan.Type, 0, len(allowedTypes))
	for _, t := range allowedTypes {
		out.AllowedLoanTypes = append(out.AllowedLoanTypes, loan.Type(t))
	}
	return out, nil
}

func (r *BranchRepository) Create(ctx context.Context, in branch.CreateInput, isMainBranch bool) (*branch.Entity, error) {
	allowedTypes := make([]string, 0, len(in.AllowedLoanTypes))
	for _, t := range in.AllowedLoanTypes {
		allowedTypes = append(allowedTypes, string(t))
	}

	q := `
INSERT INTO branches (
  id, name, code, address, phone, email,
  minimum_loan_amount, maximum_loan_amount, minimum_interest_rate, maximum_interest_rate,
  allowed_loan_types, manager_email, manager_phone, is_main_branch
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING ` + branchColumns

	row := r.pool.QueryRow(ctx, q,
		uuid.NewString(), in.Name, in.Code, in.Address, in.Phone, in.Email,
		in.MinimumLoanAmount, in.MaximumLoanAmount, in.MinimumInterestRate, in.MaximumInterestRate,
		allowedTypes, in.ManagerEmail, in.ManagerPhone, isMainBranch,
	)
	return scanBranch(row)
}

func (r *BranchRepository) GetByID(ctx context.Context, id string) (*branch.Entity, error) {
	q := `SELECT ` + branchColumns + ` FROM branches WHERE id = $1 AND deleted_at IS NULL`
	out, err := scanBranch(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("branch", id)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BranchRepository) List(ctx context.Context) ([]branch.Entity, error) {
	q := `SELECT ` + branchColumns + ` FROM branches WHERE deleted_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]branch.Entity, 0)
	for rows.Next() {
		item, err := scanBranch(rows)
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

func (r *BranchRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM branches WHERE deleted_at IS NULL`).Scan(&count)
	return count, err
}

func (r *BranchRepository) AssignOfficer(ctx context.Context, branchID, officerID string) error {
	q := `UPDATE loan_officers SET branch_id = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, branchID, officerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("loan officer", officerID)
	}
	return nil
}
