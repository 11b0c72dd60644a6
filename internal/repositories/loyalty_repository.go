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

type LoyaltyRepository struct {
	DB *pgxpool.Pool
}

func NewLoyaltyRepository(db *pgxpool.Pool) *LoyaltyRepository {
	return &LoyaltyRepository{DB: db}
}

// AddPoints credits points to a customer and records the earn entry in a
// single transaction. The tier is recomputed from the new balance.
func (r *LoyaltyRepository) AddPoints(ctx context.Context, customerID, points int, source, description, saleRef string) (*models.LoyaltyBalance, error) {
	if points <= 0 {
		return nil, apperrors.Validation("points must be positive")
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int
	var tier models.MembershipTier
	err = tx.QueryRow(ctx,
		`SELECT loyalty_points, membership_tier FROM customers WHERE id = $1 FOR UPDATE`,
		customerID,
	).Scan(&balance, &tier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("customer not found")
		}
		return nil, err
	}

	newBalance := balance + points
	newTier := models.TierForPoints(newBalance)

	_, err = tx.Exec(ctx, `
		UPDATE customers
		SET loyalty_points = $1, membership_tier = $2, updated_at = NOW()
		WHERE id = $3
	`, newBalance, newTier, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO loyalty_transactions (customer_id, type, points, source, description, sale_ref, status)
		VALUES ($1, 'earn', $2, $3, $4, NULLIF($5, ''), 'completed')
	`, customerID, points, source, description, saleRef)
	if err != nil {
		return nil, fmt.Errorf("failed to record earn entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.LoyaltyBalance{
		CustomerID:  customerID,
		Balance:     newBalance,
		Tier:        newTier,
		TierChanged: newTier != tier,
	}, nil
}

// RedeemPoints debits points from a customer. The guarded update keeps the
// balance from going negative under concurrent redemptions.
func (r *LoyaltyRepository) RedeemPoints(ctx context.Context, customerID, points int, source, description, saleRef string) (*models.LoyaltyBalance, error) {
	if points <= 0 {
		return nil, apperrors.Validation("points must be positive")
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int
	var tier models.MembershipTier
	err = tx.QueryRow(ctx,
		`SELECT loyalty_points, membership_tier FROM customers WHERE id = $1 FOR UPDATE`,
		customerID,
	).Scan(&balance, &tier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("customer not found")
		}
		return nil, err
	}

	if balance < points {
		return nil, apperrors.Insufficient("insufficient points: balance %d, requested %d", balance, points)
	}

	newBalance := balance - points
	newTier := models.TierForPoints(newBalance)

	tag, err := tx.Exec(ctx, `
		UPDATE customers
		SET loyalty_points = loyalty_points - $1, membership_tier = $2, updated_at = NOW()
		WHERE id = $3 AND loyalty_points >= $1
	`, points, newTier, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.Insufficient("insufficient points")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO loyalty_transactions (customer_id, type, points, source, description, sale_ref, status)
		VALUES ($1, 'redeem', $2, $3, $4, NULLIF($5, ''), 'completed')
	`, customerID, points, source, description, saleRef)
	if err != nil {
		return nil, fmt.Errorf("failed to record redeem entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.LoyaltyBalance{
		CustomerID:  customerID,
		Balance:     newBalance,
		Tier:        newTier,
		TierChanged: newTier != tier,
	}, nil
}

// Balance returns the customer's current points balance and tier
func (r *LoyaltyRepository) Balance(ctx context.Context, customerID int) (*models.LoyaltyBalance, error) {
	var b models.LoyaltyBalance
	err := r.DB.QueryRow(ctx,
		`SELECT id, loyalty_points, membership_tier FROM customers WHERE id = $1`,
		customerID,
	).Scan(&b.CustomerID, &b.Balance, &b.Tier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("customer not found")
		}
		return nil, err
	}
	return &b, nil
}

// History returns the customer's ledger entries, newest first
func (r *LoyaltyRepository) History(ctx context.Context, customerID int, txType models.LoyaltyTransactionType, limit, offset int) ([]models.LoyaltyTransaction, error) {
	conditions := []string{"customer_id = $1"}
	args := []interface{}{customerID}
	argNum := 2

	if txType != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argNum))
		args = append(args, txType)
		argNum++
	}

	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, customer_id, type, points, source, COALESCE(description, ''),
			COALESCE(sale_ref, ''), status, created_at
		FROM loyalty_transactions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(conditions, " AND "), argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LoyaltyTransaction
	for rows.Next() {
		var t models.LoyaltyTransaction
		err := rows.Scan(&t.ID, &t.CustomerID, &t.Type, &t.Points, &t.Source,
			&t.Description, &t.SaleRef, &t.Status, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, t)
	}

	return entries, nil
}
