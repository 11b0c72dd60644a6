package repositories

import (
	"context"
	"errors"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BranchRepository struct {
	DB *pgxpool.Pool
}

func NewBranchRepository(db *pgxpool.Pool) *BranchRepository {
	return &BranchRepository{DB: db}
}

const branchColumns = `id, name, address, COALESCE(phone_number, ''), COALESCE(email, ''),
	COALESCE(operating_hours, ''), branch_code, is_active, created_at, updated_at`

func scanBranch(row pgx.Row) (*models.Branch, error) {
	var b models.Branch
	err := row.Scan(&b.ID, &b.Name, &b.Address, &b.PhoneNumber, &b.Email,
		&b.OperatingHours, &b.BranchCode, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("branch not found")
		}
		return nil, err
	}
	return &b, nil
}

func (r *BranchRepository) Create(ctx context.Context, req *models.CreateBranchRequest, branchCode string) (*models.Branch, error) {
	query := `
		INSERT INTO branches (name, address, phone_number, email, operating_hours, branch_code)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)
		RETURNING ` + branchColumns

	return scanBranch(r.DB.QueryRow(ctx, query,
		req.Name, req.Address, req.PhoneNumber, req.Email, req.OperatingHours, branchCode))
}

func (r *BranchRepository) Get(ctx context.Context, id int) (*models.Branch, error) {
	query := `SELECT ` + branchColumns + ` FROM branches WHERE id = $1`
	return scanBranch(r.DB.QueryRow(ctx, query, id))
}

func (r *BranchRepository) List(ctx context.Context) ([]models.Branch, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+branchColumns+` FROM branches ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []models.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, *b)
	}

	return branches, nil
}
