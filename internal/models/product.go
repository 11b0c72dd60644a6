package models

import "time"

// Product is a sellable catalog item
type Product struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Barcode      string    `json:"barcode,omitempty"`
	SellingPrice float64   `json:"selling_price"`
	CostPrice    float64   `json:"cost_price"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateProductRequest registers a catalog item
type CreateProductRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Barcode      string  `json:"barcode"`
	SellingPrice float64 `json:"selling_price" validate:"min=0"`
	CostPrice    float64 `json:"cost_price" validate:"min=0"`
}

// UpdateProductRequest applies the provided optional fields
type UpdateProductRequest struct {
	Name         *string  `json:"name" validate:"omitempty,max=255"`
	Barcode      *string  `json:"barcode"`
	SellingPrice *float64 `json:"selling_price" validate:"omitempty,min=0"`
	CostPrice    *float64 `json:"cost_price" validate:"omitempty,min=0"`
	IsActive     *bool    `json:"is_active"`
}

// Inventory is the quantity counter for a (product, branch[, location]) cell.
// Quantity never goes below zero; decrements are guarded at the store.
type Inventory struct {
	ID        int       `json:"id"`
	ProductID int       `json:"product_id"`
	BranchID  int       `json:"branch_id"`
	Location  string    `json:"location,omitempty"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdjustStockRequest sets or adds quantity at a branch
type AdjustStockRequest struct {
	BranchID int    `json:"branch_id" validate:"required"`
	Location string `json:"location"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}
