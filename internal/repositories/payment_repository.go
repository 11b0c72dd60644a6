package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// amountEpsilon absorbs float accumulation noise when comparing currency sums
const amountEpsilon = 0.01

type PaymentRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

const paymentColumns = `id, cart_id, user_id, amount, change_amount, payment_method, status,
	COALESCE(terminal_id, ''), COALESCE(reference, ''), COALESCE(receipt_number, ''),
	COALESCE(transaction_code, ''), payment_details, is_void, voided_at, voided_by, created_at, updated_at`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	var details []byte
	err := row.Scan(&p.ID, &p.CartID, &p.UserID, &p.Amount, &p.ChangeAmount,
		&p.PaymentMethod, &p.Status, &p.TerminalID, &p.Reference, &p.ReceiptNumber,
		&p.TransactionCode, &details, &p.IsVoid, &p.VoidedAt, &p.VoidedBy,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("payment not found")
		}
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &p.Details); err != nil {
			return nil, fmt.Errorf("failed to decode payment details: %w", err)
		}
	}
	return &p, nil
}

func marshalDetails(details models.PaymentDetails) ([]byte, error) {
	if details == nil {
		details = models.PaymentDetails{}
	}
	return json.Marshal(details)
}

// CreatePending inserts a payment row awaiting external settlement
func (r *PaymentRepository) CreatePending(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	details, err := marshalDetails(p.Details)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO payments (cart_id, user_id, amount, change_amount, payment_method, status,
			terminal_id, reference, receipt_number, transaction_code, payment_details)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $8, $9, $10)
		RETURNING ` + paymentColumns

	return scanPayment(r.DB.QueryRow(ctx, query,
		p.CartID, p.UserID, p.Amount, p.ChangeAmount, p.PaymentMethod,
		p.TerminalID, p.Reference, p.ReceiptNumber, p.TransactionCode, details))
}

// CreateCompleted inserts an already-settled payment and completes the cart
// when the cumulative completed amount covers its total, all in one
// transaction. The cart row lock serializes concurrent settlement attempts.
func (r *PaymentRepository) CreateCompleted(ctx context.Context, p *models.Payment) (*models.Payment, bool, error) {
	details, err := marshalDetails(p.Details)
	if err != nil {
		return nil, false, err
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cart, err := lockCart(ctx, tx, p.CartID)
	if err != nil {
		return nil, false, err
	}
	if cart.Status != models.CartActive {
		return nil, false, apperrors.Conflict("cart is %s", cart.Status)
	}

	// Gift card draws are irreversible at the gateway, so the remaining-due
	// check runs again under the cart lock. A concurrent settlement that
	// shrank the remainder after the caller's read is caught here.
	if p.PaymentMethod == models.PaymentMethodSuregifts {
		var paid float64
		err := tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount - change_amount), 0) FROM payments
			WHERE cart_id = $1 AND status = 'completed' AND is_void = FALSE
		`, p.CartID).Scan(&paid)
		if err != nil {
			return nil, false, err
		}
		if p.Amount > cart.Total-paid+amountEpsilon {
			return nil, false, apperrors.Conflict("amount %.2f exceeds remaining balance %.2f",
				p.Amount, cart.Total-paid)
		}
	}

	payment, err := scanPayment(tx.QueryRow(ctx, `
		INSERT INTO payments (cart_id, user_id, amount, change_amount, payment_method, status,
			terminal_id, reference, receipt_number, transaction_code, payment_details)
		VALUES ($1, $2, $3, $4, $5, 'completed', $6, $7, $8, $9, $10)
		RETURNING `+paymentColumns,
		p.CartID, p.UserID, p.Amount, p.ChangeAmount, p.PaymentMethod,
		p.TerminalID, p.Reference, p.ReceiptNumber, p.TransactionCode, details))
	if err != nil {
		return nil, false, err
	}

	completed, err := settleCartTx(ctx, tx, cart)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return payment, completed, nil
}

// MarkCompleted moves a pending payment to completed, merging any extra
// gateway details, and runs the cart completion gate in the same transaction.
func (r *PaymentRepository) MarkCompleted(ctx context.Context, paymentID int, reference, receiptNumber string, extra models.PaymentDetails) (*models.Payment, bool, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanPayment(tx.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID))
	if err != nil {
		return nil, false, err
	}
	if p.Status != models.PaymentPending {
		return nil, false, apperrors.Conflict("payment is %s", p.Status)
	}

	cart, err := lockCart(ctx, tx, p.CartID)
	if err != nil {
		return nil, false, err
	}
	if cart.Status != models.CartActive {
		return nil, false, apperrors.Conflict("cart is %s", cart.Status)
	}

	merged := models.PaymentDetails{}
	for k, v := range p.Details {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	details, err := marshalDetails(merged)
	if err != nil {
		return nil, false, err
	}

	p, err = scanPayment(tx.QueryRow(ctx, `
		UPDATE payments
		SET status = 'completed',
			reference = COALESCE(NULLIF($1, ''), reference),
			receipt_number = COALESCE(NULLIF($2, ''), receipt_number),
			payment_details = $3,
			updated_at = NOW()
		WHERE id = $4
		RETURNING `+paymentColumns, reference, receiptNumber, details, paymentID))
	if err != nil {
		return nil, false, err
	}

	completed, err := settleCartTx(ctx, tx, cart)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p, completed, nil
}

// MarkFailed moves a pending payment to failed with the gateway's reason
func (r *PaymentRepository) MarkFailed(ctx context.Context, paymentID int, reason string) (*models.Payment, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanPayment(tx.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID))
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentPending {
		return nil, apperrors.Conflict("payment is %s", p.Status)
	}

	merged := models.PaymentDetails{}
	for k, v := range p.Details {
		merged[k] = v
	}
	merged["failure_reason"] = reason
	details, err := marshalDetails(merged)
	if err != nil {
		return nil, err
	}

	p, err = scanPayment(tx.QueryRow(ctx, `
		UPDATE payments
		SET status = 'failed', payment_details = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+paymentColumns, details, paymentID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p, nil
}

// Get returns a payment by id
func (r *PaymentRepository) Get(ctx context.Context, id int) (*models.Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

// List returns payments matching the filter, newest first
func (r *PaymentRepository) List(ctx context.Context, filter *models.PaymentFilter) ([]models.Payment, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	add := func(cond string, val interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argNum))
		args = append(args, val)
		argNum++
	}

	if filter.Status != "" {
		add("p.status = $%d", filter.Status)
	}
	if filter.PaymentMethod != "" {
		add("p.payment_method = $%d", filter.PaymentMethod)
	}
	if filter.BranchID > 0 {
		add("c.branch_id = $%d", filter.BranchID)
	}
	if filter.StartDate != nil {
		add("p.created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("p.created_at <= $%d", *filter.EndDate)
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
		SELECT p.id, p.cart_id, p.user_id, p.amount, p.change_amount, p.payment_method, p.status,
			COALESCE(p.terminal_id, ''), COALESCE(p.reference, ''), COALESCE(p.receipt_number, ''),
			COALESCE(p.transaction_code, ''), p.payment_details, p.is_void, p.voided_at, p.voided_by,
			p.created_at, p.updated_at
		FROM payments p
		JOIN carts c ON c.id = p.cart_id
		%s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argNum, argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}

	return payments, nil
}

// ListByCart returns all payment rows against a cart, oldest first
func (r *PaymentRepository) ListByCart(ctx context.Context, cartID int) ([]models.Payment, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE cart_id = $1
		ORDER BY created_at ASC
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}

	return payments, nil
}

// FindPendingMatch returns the oldest pending payment matching a reported
// transfer: same method and terminal, same amount, recorded no later than the
// event. Used by reconciliation.
func (r *PaymentRepository) FindPendingMatch(ctx context.Context, method models.PaymentMethod, terminalID string, amount float64, before time.Time) (*models.Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE status = 'pending'
			AND payment_method = $1
			AND terminal_id = $2
			AND ABS(amount - $3) < $4
			AND created_at <= $5
		ORDER BY created_at ASC
		LIMIT 1
	`, method, terminalID, amount, amountEpsilon, before))
}

// Void marks a completed payment void and voids its cart. Refund of external
// gateways happens before this is called.
func (r *PaymentRepository) Void(ctx context.Context, paymentID, userID int, reason string) (*models.Payment, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanPayment(tx.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID))
	if err != nil {
		return nil, err
	}
	if p.IsVoid {
		return nil, apperrors.Conflict("payment is already void")
	}
	if p.Status != models.PaymentCompleted {
		return nil, apperrors.Conflict("only completed payments can be voided")
	}

	merged := models.PaymentDetails{}
	for k, v := range p.Details {
		merged[k] = v
	}
	merged["void_reason"] = reason
	details, err := marshalDetails(merged)
	if err != nil {
		return nil, err
	}

	p, err = scanPayment(tx.QueryRow(ctx, `
		UPDATE payments
		SET is_void = TRUE, voided_at = NOW(), voided_by = $1, payment_details = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+paymentColumns, userID, details, paymentID))
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE carts
		SET status = 'voided', voided_at = NOW(), voided_by = $1, updated_at = NOW()
		WHERE id = $2 AND status != 'voided'
	`, userID, p.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to void cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p, nil
}

// CompletedAmount sums completed, non-void payments against a cart
func (r *PaymentRepository) CompletedAmount(ctx context.Context, cartID int) (float64, error) {
	var total float64
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount - change_amount), 0) FROM payments
		WHERE cart_id = $1 AND status = 'completed' AND is_void = FALSE
	`, cartID).Scan(&total)
	return total, err
}

// settleCartTx completes the cart when completed payments cover its total.
// The caller must already hold the cart row lock.
func settleCartTx(ctx context.Context, tx pgx.Tx, cart *models.Cart) (bool, error) {
	var paid float64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount - change_amount), 0) FROM payments
		WHERE cart_id = $1 AND status = 'completed' AND is_void = FALSE
	`, cart.ID).Scan(&paid)
	if err != nil {
		return false, err
	}

	if paid+amountEpsilon < cart.Total {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE carts SET status = 'completed', updated_at = NOW() WHERE id = $1`, cart.ID)
	if err != nil {
		return false, fmt.Errorf("failed to complete cart: %w", err)
	}

	return true, nil
}
