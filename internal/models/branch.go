package models

import "time"

// Branch is a physical store location
type Branch struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	Email          string    `json:"email,omitempty"`
	OperatingHours string    `json:"operating_hours,omitempty"`
	BranchCode     string    `json:"branch_code"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateBranchRequest registers a store location
type CreateBranchRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Address        string `json:"address" validate:"required"`
	PhoneNumber    string `json:"phone_number"`
	Email          string `json:"email" validate:"omitempty,email"`
	OperatingHours string `json:"operating_hours"`
}
