package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultLocation is the inventory bucket transfers draw from and land in
const defaultLocation = "main"

type StockTransferRepository struct {
	DB *pgxpool.Pool
}

func NewStockTransferRepository(db *pgxpool.Pool) *StockTransferRepository {
	return &StockTransferRepository{DB: db}
}

const transferColumns = `id, source_branch_id, destination_branch_id, transfer_code, status,
	COALESCE(notes, ''), created_by, approved_by, approved_at, completed_at, cancelled_at, created_at, updated_at`

func scanTransfer(row pgx.Row) (*models.StockTransfer, error) {
	var t models.StockTransfer
	err := row.Scan(&t.ID, &t.SourceBranchID, &t.DestinationBranchID, &t.TransferCode, &t.Status,
		&t.Notes, &t.CreatedBy, &t.ApprovedBy, &t.ApprovedAt, &t.CompletedAt, &t.CancelledAt,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("stock transfer not found")
		}
		return nil, err
	}
	return &t, nil
}

// Create opens a pending transfer. Source availability is checked per line so
// a transfer can never be created for more stock than the source holds, and
// unit cost is snapshotted from the product at creation time.
func (r *StockTransferRepository) Create(ctx context.Context, req *models.CreateStockTransferRequest, createdBy int, transferCode string) (*models.StockTransfer, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	transfer, err := scanTransfer(tx.QueryRow(ctx, `
		INSERT INTO stock_transfers (source_branch_id, destination_branch_id, transfer_code, notes, created_by)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING `+transferColumns,
		req.SourceBranchID, req.DestinationBranchID, transferCode, req.Notes, createdBy))
	if err != nil {
		return nil, err
	}

	for _, input := range req.Items {
		var available int
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(quantity), 0) FROM inventories
			WHERE product_id = $1 AND branch_id = $2 AND location = $3
		`, input.ProductID, req.SourceBranchID, defaultLocation).Scan(&available)
		if err != nil {
			return nil, err
		}
		if available < input.Quantity {
			return nil, apperrors.Insufficient("insufficient stock for product %d: available %d, requested %d",
				input.ProductID, available, input.Quantity)
		}

		var unitCost float64
		err = tx.QueryRow(ctx,
			`SELECT cost_price FROM products WHERE id = $1`, input.ProductID,
		).Scan(&unitCost)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NotFound("product %d not found", input.ProductID)
			}
			return nil, err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO stock_transfer_items (stock_transfer_id, product_id, quantity, unit_cost)
			VALUES ($1, $2, $3, $4)
		`, transfer.ID, input.ProductID, input.Quantity, unitCost)
		if err != nil {
			return nil, fmt.Errorf("failed to insert transfer item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.Get(ctx, transfer.ID)
}

// Get returns a transfer with its items
func (r *StockTransferRepository) Get(ctx context.Context, id int) (*models.StockTransfer, error) {
	transfer, err := scanTransfer(r.DB.QueryRow(ctx,
		`SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, r.DB, id)
	if err != nil {
		return nil, err
	}
	transfer.Items = items

	return transfer, nil
}

// List returns transfers matching the filter, newest first
func (r *StockTransferRepository) List(ctx context.Context, filter *models.StockTransferFilter) ([]models.StockTransfer, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.BranchID > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"(source_branch_id = $%d OR destination_branch_id = $%d)", argNum, argNum))
		args = append(args, filter.BranchID)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT `+transferColumns+`
		FROM stock_transfers
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argNum, argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []models.StockTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, *t)
	}

	return transfers, nil
}

// Approve moves a pending transfer to approved and decrements source
// inventory per line. Guarded updates keep quantities from going negative;
// any shortfall rolls back the whole approval.
func (r *StockTransferRepository) Approve(ctx context.Context, id, approvedBy int) (*models.StockTransfer, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	transfer, err := r.lockTransfer(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if transfer.Status != models.TransferPending {
		return nil, apperrors.Conflict("cannot approve a %s transfer", transfer.Status)
	}

	items, err := r.listItems(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		tag, err := tx.Exec(ctx, `
			UPDATE inventories
			SET quantity = quantity - $1, updated_at = NOW()
			WHERE product_id = $2 AND branch_id = $3 AND location = $4 AND quantity >= $1
		`, item.Quantity, item.ProductID, transfer.SourceBranchID, defaultLocation)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement source stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, apperrors.Insufficient("insufficient stock for product %d at source branch", item.ProductID)
		}
	}

	transfer, err = scanTransfer(tx.QueryRow(ctx, `
		UPDATE stock_transfers
		SET status = 'approved', approved_by = $1, approved_at = NOW(), updated_at = NOW()
		WHERE id = $2
		RETURNING `+transferColumns, approvedBy, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	transfer.Items = items
	return transfer, nil
}

// Ship moves an approved transfer to in_transit
func (r *StockTransferRepository) Ship(ctx context.Context, id int) (*models.StockTransfer, error) {
	return r.transition(ctx, id, models.TransferApproved, `
		UPDATE stock_transfers SET status = 'in_transit', updated_at = NOW()
		WHERE id = $1 RETURNING `+transferColumns)
}

// Complete moves an in_transit transfer to completed and increments
// destination inventory, creating inventory rows on first receipt.
func (r *StockTransferRepository) Complete(ctx context.Context, id int) (*models.StockTransfer, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	transfer, err := r.lockTransfer(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if transfer.Status != models.TransferInTransit {
		return nil, apperrors.Conflict("cannot complete a %s transfer", transfer.Status)
	}

	items, err := r.listItems(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO inventories (product_id, branch_id, location, quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (product_id, branch_id, location)
			DO UPDATE SET quantity = inventories.quantity + $4, updated_at = NOW()
		`, item.ProductID, transfer.DestinationBranchID, defaultLocation, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to increment destination stock: %w", err)
		}
	}

	transfer, err = scanTransfer(tx.QueryRow(ctx, `
		UPDATE stock_transfers
		SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING `+transferColumns, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	transfer.Items = items
	return transfer, nil
}

// Cancel aborts a transfer that has not reached completion. If stock was
// already deducted (approved or in_transit), it is restocked at the source in
// the same transaction so no quantity is stranded.
func (r *StockTransferRepository) Cancel(ctx context.Context, id int) (*models.StockTransfer, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	transfer, err := r.lockTransfer(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !transfer.CanCancel() {
		return nil, apperrors.Conflict("cannot cancel a %s transfer", transfer.Status)
	}

	items, err := r.listItems(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if transfer.Status == models.TransferApproved || transfer.Status == models.TransferInTransit {
		for _, item := range items {
			_, err = tx.Exec(ctx, `
				INSERT INTO inventories (product_id, branch_id, location, quantity)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (product_id, branch_id, location)
				DO UPDATE SET quantity = inventories.quantity + $4, updated_at = NOW()
			`, item.ProductID, transfer.SourceBranchID, defaultLocation, item.Quantity)
			if err != nil {
				return nil, fmt.Errorf("failed to restock source: %w", err)
			}
		}
	}

	transfer, err = scanTransfer(tx.QueryRow(ctx, `
		UPDATE stock_transfers
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING `+transferColumns, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	transfer.Items = items
	return transfer, nil
}

func (r *StockTransferRepository) transition(ctx context.Context, id int, from models.StockTransferStatus, updateQuery string) (*models.StockTransfer, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	transfer, err := r.lockTransfer(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if transfer.Status != from {
		return nil, apperrors.Conflict("transfer is %s, expected %s", transfer.Status, from)
	}

	transfer, err = scanTransfer(tx.QueryRow(ctx, updateQuery, id))
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	transfer.Items = items

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return transfer, nil
}

func (r *StockTransferRepository) lockTransfer(ctx context.Context, tx pgx.Tx, id int) (*models.StockTransfer, error) {
	return scanTransfer(tx.QueryRow(ctx,
		`SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1 FOR UPDATE`, id))
}

func (r *StockTransferRepository) listItems(ctx context.Context, q querier, transferID int) ([]models.StockTransferItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, stock_transfer_id, product_id, quantity, unit_cost
		FROM stock_transfer_items
		WHERE stock_transfer_id = $1
		ORDER BY id ASC
	`, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.StockTransferItem
	for rows.Next() {
		var item models.StockTransferItem
		err := rows.Scan(&item.ID, &item.StockTransferID, &item.ProductID, &item.Quantity, &item.UnitCost)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}
