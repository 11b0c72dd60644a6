package repositories

import (
	"context"
	"errors"
	"fmt"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepository struct {
	DB *pgxpool.Pool
}

func NewCartRepository(db *pgxpool.Pool) *CartRepository {
	return &CartRepository{DB: db}
}

const cartColumns = `id, branch_id, cashier_id, customer_id, transaction_code, status,
	COALESCE(discount_type, ''), discount_value, tax_rate,
	subtotal, discount_amount, tax_amount, total,
	COALESCE(location, ''), COALESCE(notes, ''), voided_at, voided_by, created_at, updated_at`

func scanCart(row pgx.Row) (*models.Cart, error) {
	var c models.Cart
	err := row.Scan(&c.ID, &c.BranchID, &c.CashierID, &c.CustomerID, &c.TransactionCode, &c.Status,
		&c.DiscountType, &c.DiscountValue, &c.TaxRate,
		&c.Subtotal, &c.DiscountAmount, &c.TaxAmount, &c.Total,
		&c.Location, &c.Notes, &c.VoidedAt, &c.VoidedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart not found")
		}
		return nil, err
	}
	return &c, nil
}

// Create opens a new active cart
func (r *CartRepository) Create(ctx context.Context, req *models.CreateCartRequest, cashierID int, transactionCode string) (*models.Cart, error) {
	query := `
		INSERT INTO carts (branch_id, cashier_id, customer_id, transaction_code, tax_rate, location, notes)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING ` + cartColumns

	return scanCart(r.DB.QueryRow(ctx, query,
		req.BranchID, cashierID, req.CustomerID, transactionCode, req.TaxRate, req.Location, req.Notes))
}

// Get returns a cart with its items
func (r *CartRepository) Get(ctx context.Context, id int) (*models.Cart, error) {
	cart, err := scanCart(r.DB.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, r.DB, id)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

// AddItem merges a product line into an active cart and rewrites the derived
// totals in the same transaction. Re-adding a product increments its quantity.
func (r *CartRepository) AddItem(ctx context.Context, cartID, productID, quantity int, price float64, notes string) (*models.Cart, error) {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO cart_items (cart_id, product_id, quantity, price, notes)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''))
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		`, cartID, productID, quantity, price, notes)
		if err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}
		return nil
	})
}

// UpdateItem replaces quantity (and optionally price) on an existing line
func (r *CartRepository) UpdateItem(ctx context.Context, cartID, itemID, quantity int, price *float64, notes string) (*models.Cart, error) {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		query := `UPDATE cart_items SET quantity = $1, notes = NULLIF($2, '') WHERE id = $3 AND cart_id = $4`
		args := []interface{}{quantity, notes, itemID, cartID}
		if price != nil {
			query = `UPDATE cart_items SET quantity = $1, price = $2, notes = NULLIF($3, '') WHERE id = $4 AND cart_id = $5`
			args = []interface{}{quantity, *price, notes, itemID, cartID}
		}
		result, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		if result.RowsAffected() == 0 {
			return apperrors.NotFound("cart item not found")
		}
		return nil
	})
}

// RemoveItem deletes a line from an active cart
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, itemID int) (*models.Cart, error) {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
		if err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}
		if result.RowsAffected() == 0 {
			return apperrors.NotFound("cart item not found")
		}
		return nil
	})
}

// ApplyDiscount sets the cart-level discount and rewrites the totals
func (r *CartRepository) ApplyDiscount(ctx context.Context, cartID int, discountType models.DiscountType, discountValue float64) (*models.Cart, error) {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE carts SET discount_type = $1, discount_value = $2 WHERE id = $3
		`, discountType, discountValue, cartID)
		if err != nil {
			return fmt.Errorf("failed to apply discount: %w", err)
		}
		return nil
	})
}

// Void moves an active cart to voided. Payment rows are left untouched.
func (r *CartRepository) Void(ctx context.Context, cartID, userID int, reason string) (*models.Cart, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cart, err := lockCart(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != models.CartActive {
		return nil, apperrors.Conflict("cannot void a %s cart", cart.Status)
	}

	voided, err := scanCart(tx.QueryRow(ctx, `
		UPDATE carts
		SET status = 'voided', voided_at = NOW(), voided_by = $1,
			notes = CONCAT(COALESCE(notes, ''), $2::text), updated_at = NOW()
		WHERE id = $3
		RETURNING `+cartColumns, userID, "\nVoid reason: "+reason, cartID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return voided, nil
}

// ListActive returns active carts for a branch
func (r *CartRepository) ListActive(ctx context.Context, branchID int) ([]models.Cart, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+cartColumns+` FROM carts
		WHERE branch_id = $1 AND status = 'active'
		ORDER BY created_at DESC
	`, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carts []models.Cart
	for rows.Next() {
		c, err := scanCart(rows)
		if err != nil {
			return nil, err
		}
		carts = append(carts, *c)
	}

	return carts, nil
}

// mutate runs an item/discount mutation under the cart row lock and rewrites
// the derived totals before committing, so settlement reads never observe a
// cart whose totals disagree with its items.
func (r *CartRepository) mutate(ctx context.Context, cartID int, fn func(tx pgx.Tx) error) (*models.Cart, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cart, err := lockCart(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != models.CartActive {
		return nil, apperrors.Conflict("cart is %s", cart.Status)
	}

	if err := fn(tx); err != nil {
		return nil, err
	}

	cart, err = recomputeTotals(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return cart, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func (r *CartRepository) listItems(ctx context.Context, q querier, cartID int) ([]models.CartItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, cart_id, product_id, quantity, price, COALESCE(notes, ''), created_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id ASC
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity,
			&item.Price, &item.Notes, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

func lockCart(ctx context.Context, tx pgx.Tx, cartID int) (*models.Cart, error) {
	return scanCart(tx.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE id = $1 FOR UPDATE`, cartID))
}

func recomputeTotals(ctx context.Context, tx pgx.Tx, cartID int) (*models.Cart, error) {
	rows, err := tx.Query(ctx, `
		SELECT quantity, price FROM cart_items WHERE cart_id = $1
	`, cartID)
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.Quantity, &item.Price); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, item)
	}
	rows.Close()

	var discountType models.DiscountType
	var discountValue, taxRate float64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(discount_type, ''), discount_value, tax_rate FROM carts WHERE id = $1`,
		cartID,
	).Scan(&discountType, &discountValue, &taxRate)
	if err != nil {
		return nil, err
	}

	totals := models.ComputeCartTotals(items, discountType, discountValue, taxRate)

	return scanCart(tx.QueryRow(ctx, `
		UPDATE carts
		SET subtotal = $1, discount_amount = $2, tax_amount = $3, total = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+cartColumns,
		totals.Subtotal, totals.DiscountAmount, totals.TaxAmount, totals.Total, cartID))
}
