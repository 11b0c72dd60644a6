package repositories

import (
	"context"
	"errors"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InventoryRepository struct {
	DB *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{DB: db}
}

// Quantity returns the on-hand quantity for a product at a branch location.
// A missing row reads as zero stock.
func (r *InventoryRepository) Quantity(ctx context.Context, productID, branchID int, location string) (int, error) {
	var qty int
	err := r.DB.QueryRow(ctx, `
		SELECT quantity FROM inventories
		WHERE product_id = $1 AND branch_id = $2 AND location = $3
	`, productID, branchID, location).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return qty, nil
}

// Adjust applies a signed delta to an inventory row, creating it on first
// receipt. Negative adjustments are guarded so quantity never goes below zero.
func (r *InventoryRepository) Adjust(ctx context.Context, productID, branchID int, location string, delta int) (*models.Inventory, error) {
	if delta >= 0 {
		return r.scanInventory(r.DB.QueryRow(ctx, `
			INSERT INTO inventories (product_id, branch_id, location, quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (product_id, branch_id, location)
			DO UPDATE SET quantity = inventories.quantity + $4, updated_at = NOW()
			RETURNING id, product_id, branch_id, location, quantity, updated_at
		`, productID, branchID, location, delta))
	}

	inv, err := r.scanInventory(r.DB.QueryRow(ctx, `
		UPDATE inventories
		SET quantity = quantity + $4, updated_at = NOW()
		WHERE product_id = $1 AND branch_id = $2 AND location = $3 AND quantity >= -$4
		RETURNING id, product_id, branch_id, location, quantity, updated_at
	`, productID, branchID, location, delta))
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Insufficient("insufficient stock for product %d", productID)
		}
		return nil, err
	}
	return inv, nil
}

// ListByBranch returns the inventory rows for a branch
func (r *InventoryRepository) ListByBranch(ctx context.Context, branchID int) ([]models.Inventory, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, branch_id, location, quantity, updated_at
		FROM inventories
		WHERE branch_id = $1
		ORDER BY product_id ASC, location ASC
	`, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inventories []models.Inventory
	for rows.Next() {
		inv, err := r.scanInventory(rows)
		if err != nil {
			return nil, err
		}
		inventories = append(inventories, *inv)
	}

	return inventories, nil
}

func (r *InventoryRepository) scanInventory(row pgx.Row) (*models.Inventory, error) {
	var inv models.Inventory
	err := row.Scan(&inv.ID, &inv.ProductID, &inv.BranchID, &inv.Location,
		&inv.Quantity, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("inventory row not found")
		}
		return nil, err
	}
	return &inv, nil
}
