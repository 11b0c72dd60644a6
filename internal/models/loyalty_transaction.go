package models

import "time"

// LoyaltyTransactionType marks whether an entry adds or removes points
type LoyaltyTransactionType string

const (
	LoyaltyTxEarn   LoyaltyTransactionType = "earn"
	LoyaltyTxRedeem LoyaltyTransactionType = "redeem"
)

// LoyaltyTransactionStatus tracks async entries. Entries are immutable apart
// from pending -> completed/cancelled; cancelled entries do not count toward
// the balance.
type LoyaltyTransactionStatus string

const (
	LoyaltyTxPending   LoyaltyTransactionStatus = "pending"
	LoyaltyTxCompleted LoyaltyTransactionStatus = "completed"
	LoyaltyTxCancelled LoyaltyTransactionStatus = "cancelled"
)

// LoyaltyTransaction is a single immutable entry in the points ledger
type LoyaltyTransaction struct {
	ID          int                      `json:"id"`
	CustomerID  int                      `json:"customer_id"`
	Points      int                      `json:"points"`
	Type        LoyaltyTransactionType   `json:"type"`
	Source      string                   `json:"source,omitempty"`
	Description string                   `json:"description,omitempty"`
	SaleRef     string                   `json:"sale_ref,omitempty"` // originating sale transaction code
	Status      LoyaltyTransactionStatus `json:"status"`
	CreatedAt   time.Time                `json:"created_at"`
}

// AddPointsRequest adds earned points to a customer
type AddPointsRequest struct {
	Points      int    `json:"points" validate:"required,min=1"`
	Source      string `json:"source" validate:"required"`
	Description string `json:"description"`
	SaleRef     string `json:"sale_ref"`
}

// RedeemPointsRequest spends points from a customer's balance
type RedeemPointsRequest struct {
	Points      int    `json:"points" validate:"required,min=1"`
	Description string `json:"description"`
}

// LoyaltyBalance is returned after every ledger mutation
type LoyaltyBalance struct {
	CustomerID  int            `json:"customer_id"`
	Balance     int            `json:"balance"`
	Tier        MembershipTier `json:"tier"`
	TierChanged bool           `json:"tier_changed"`
}
