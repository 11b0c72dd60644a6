package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RewardRepository struct {
	DB *pgxpool.Pool
}

func NewRewardRepository(db *pgxpool.Pool) *RewardRepository {
	return &RewardRepository{DB: db}
}

const rewardColumns = `id, customer_id, name, COALESCE(description, ''), points_cost, status, expires_at, redeemed_at, created_at`

func scanReward(row pgx.Row) (*models.Reward, error) {
	var rw models.Reward
	err := row.Scan(&rw.ID, &rw.CustomerID, &rw.Name, &rw.Description,
		&rw.PointsCost, &rw.Status, &rw.ExpiresAt, &rw.RedeemedAt, &rw.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("reward not found")
		}
		return nil, err
	}
	return &rw, nil
}

// Create issues a reward to a customer
func (r *RewardRepository) Create(ctx context.Context, customerID int, req *models.CreateRewardRequest) (*models.Reward, error) {
	query := `
		INSERT INTO rewards (customer_id, name, description, points_cost, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING ` + rewardColumns

	return scanReward(r.DB.QueryRow(ctx, query,
		customerID, req.Name, req.Description, req.PointsCost, req.ExpiresAt))
}

// Get returns a reward by id
func (r *RewardRepository) Get(ctx context.Context, id int) (*models.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE id = $1`
	return scanReward(r.DB.QueryRow(ctx, query, id))
}

// ListByCustomer returns a customer's rewards, optionally filtered by status
func (r *RewardRepository) ListByCustomer(ctx context.Context, customerID int, status models.RewardStatus) ([]models.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE customer_id = $1`
	args := []interface{}{customerID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rewards []models.Reward
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, *rw)
	}

	return rewards, nil
}

// Redeem flips a reward to redeemed and debits the customer's points in one
// transaction. The reward row lock keeps a double redeem from slipping
// through between the status check and the update.
func (r *RewardRepository) Redeem(ctx context.Context, customerID, rewardID int, now time.Time) (*models.Reward, *models.LoyaltyBalance, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rw, err := scanReward(tx.QueryRow(ctx,
		`SELECT `+rewardColumns+` FROM rewards WHERE id = $1 FOR UPDATE`, rewardID))
	if err != nil {
		return nil, nil, err
	}

	if rw.CustomerID != customerID {
		// Do not reveal that the reward exists for another customer
		return nil, nil, apperrors.NotFound("reward not found")
	}
	if rw.Status != models.RewardAvailable {
		return nil, nil, apperrors.Conflict("reward is %s", rw.Status)
	}
	if rw.IsExpired(now) {
		_, err = tx.Exec(ctx, `UPDATE rewards SET status = 'expired' WHERE id = $1`, rewardID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to expire reward: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, nil, apperrors.Conflict("reward has expired")
	}

	var balance int
	err = tx.QueryRow(ctx,
		`SELECT loyalty_points FROM customers WHERE id = $1 FOR UPDATE`,
		customerID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NotFound("customer not found")
		}
		return nil, nil, err
	}

	if balance < rw.PointsCost {
		return nil, nil, apperrors.Insufficient("insufficient points: balance %d, reward costs %d", balance, rw.PointsCost)
	}

	newBalance := balance - rw.PointsCost
	newTier := models.TierForPoints(newBalance)

	_, err = tx.Exec(ctx, `
		UPDATE customers
		SET loyalty_points = $1, membership_tier = $2, updated_at = NOW()
		WHERE id = $3
	`, newBalance, newTier, customerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to debit points: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO loyalty_transactions (customer_id, type, points, source, description, status)
		VALUES ($1, 'redeem', $2, 'reward', $3, 'completed')
	`, customerID, rw.PointsCost, fmt.Sprintf("Redeemed reward: %s", rw.Name))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record redeem entry: %w", err)
	}

	redeemed, err := scanReward(tx.QueryRow(ctx, `
		UPDATE rewards SET status = 'redeemed', redeemed_at = $1 WHERE id = $2
		RETURNING `+rewardColumns, now, rewardID))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return redeemed, &models.LoyaltyBalance{
		CustomerID: customerID,
		Balance:    newBalance,
		Tier:       newTier,
	}, nil
}
