package models

import "time"

// MembershipTier is a loyalty rank derived from a customer's points balance
type MembershipTier string

const (
	TierBronze   MembershipTier = "bronze"
	TierSilver   MembershipTier = "silver"
	TierGold     MembershipTier = "gold"
	TierPlatinum MembershipTier = "platinum"
)

// tierThresholds maps each tier to the minimum balance that earns it, ascending.
var tierThresholds = []struct {
	Tier      MembershipTier
	MinPoints int
}{
	{TierBronze, 0},
	{TierSilver, 1000},
	{TierGold, 5000},
	{TierPlatinum, 10000},
}

// TierForPoints returns the highest tier whose threshold is <= balance.
func TierForPoints(balance int) MembershipTier {
	tier := TierBronze
	for _, t := range tierThresholds {
		if balance >= t.MinPoints {
			tier = t.Tier
		}
	}
	return tier
}

// CustomerStatus represents whether a customer account is usable
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// Customer represents a loyalty-program customer
type Customer struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	Address        string         `json:"address,omitempty"`
	LoyaltyPoints  int            `json:"loyalty_points"`
	TotalSpent     float64        `json:"total_spent"`
	LastPurchaseAt *time.Time     `json:"last_purchase_at,omitempty"`
	MembershipTier MembershipTier `json:"membership_tier"`
	BirthDate      *time.Time     `json:"birth_date,omitempty"`
	Status         CustomerStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CreateCustomerRequest is used when registering a new customer
type CreateCustomerRequest struct {
	Name      string     `json:"name" validate:"required,max=255"`
	Email     string     `json:"email" validate:"required,email"`
	Phone     string     `json:"phone" validate:"max=20"`
	Address   string     `json:"address"`
	BirthDate *time.Time `json:"birth_date"`
}

// UpdateCustomerRequest carries optional field updates
type UpdateCustomerRequest struct {
	Name      *string    `json:"name" validate:"omitempty,max=255"`
	Email     *string    `json:"email" validate:"omitempty,email"`
	Phone     *string    `json:"phone" validate:"omitempty,max=20"`
	Address   *string    `json:"address"`
	BirthDate *time.Time `json:"birth_date"`
	Status    *string    `json:"status" validate:"omitempty,oneof=active inactive"`
}

// CustomerFilter is used for listing/filtering customers
type CustomerFilter struct {
	Search         string `json:"search"`
	MembershipTier string `json:"membership_tier"`
	Status         string `json:"status"`
	Limit          int    `json:"limit"`
	Offset         int    `json:"offset"`
}
