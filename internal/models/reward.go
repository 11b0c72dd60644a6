package models

import "time"

// RewardStatus is the lifecycle state of a customer reward
type RewardStatus string

const (
	RewardAvailable RewardStatus = "available"
	RewardRedeemed  RewardStatus = "redeemed"
	RewardExpired   RewardStatus = "expired"
)

// Reward is a redeemable benefit scoped to a single customer. Expiry is
// evaluated lazily against expires_at; no sweep flips the stored status.
type Reward struct {
	ID          int          `json:"id"`
	CustomerID  int          `json:"customer_id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	PointsCost  int          `json:"points_cost"`
	Status      RewardStatus `json:"status"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	RedeemedAt  *time.Time   `json:"redeemed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// IsExpired reports whether the reward's expiry has passed at the given time.
func (r *Reward) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// CreateRewardRequest creates an available reward for a customer
type CreateRewardRequest struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Description string     `json:"description"`
	PointsCost  int        `json:"points_cost" validate:"required,min=1"`
	ExpiresAt   *time.Time `json:"expires_at"`
}
