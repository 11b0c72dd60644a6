package services

import (
	"context"
	"time"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"
)

// RewardStore persists rewards. Redeem performs the owner/status/expiry
// checks and the points debit atomically.
type RewardStore interface {
	Create(ctx context.Context, customerID int, req *models.CreateRewardRequest) (*models.Reward, error)
	Get(ctx context.Context, id int) (*models.Reward, error)
	ListByCustomer(ctx context.Context, customerID int, status models.RewardStatus) ([]models.Reward, error)
	Redeem(ctx context.Context, customerID, rewardID int, now time.Time) (*models.Reward, *models.LoyaltyBalance, error)
}

type RewardService struct {
	store RewardStore
}

func NewRewardService(store RewardStore) *RewardService {
	return &RewardService{store: store}
}

func (s *RewardService) Create(ctx context.Context, customerID int, req *models.CreateRewardRequest) (*models.Reward, error) {
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		return nil, apperrors.Validation("expires_at must be in the future")
	}
	return s.store.Create(ctx, customerID, req)
}

// List returns a customer's rewards. Expiry is evaluated lazily, so an
// available-status listing drops rewards whose expires_at has passed even
// though the stored status has not been flipped yet.
func (s *RewardService) List(ctx context.Context, customerID int, status models.RewardStatus) ([]models.Reward, error) {
	rewards, err := s.store.ListByCustomer(ctx, customerID, status)
	if err != nil {
		return nil, err
	}

	if status == models.RewardAvailable {
		now := time.Now()
		live := rewards[:0]
		for _, rw := range rewards {
			if !rw.IsExpired(now) {
				live = append(live, rw)
			}
		}
		rewards = live
	}

	return rewards, nil
}

// Redeem flips the reward and debits its cost from the customer's balance
func (s *RewardService) Redeem(ctx context.Context, customerID, rewardID int) (*models.Reward, *models.LoyaltyBalance, error) {
	return s.store.Redeem(ctx, customerID, rewardID, time.Now())
}
