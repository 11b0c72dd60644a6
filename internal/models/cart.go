package models

import "time"

// CartStatus is the lifecycle state of a POS basket
type CartStatus string

const (
	CartActive    CartStatus = "active"
	CartCompleted CartStatus = "completed"
	CartVoided    CartStatus = "voided"
)

// DiscountType selects how discount_value is interpreted
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Cart is one POS session's basket. Totals are derived columns, rewritten
// inside the same transaction as every item/discount mutation.
type Cart struct {
	ID              int          `json:"id"`
	BranchID        int          `json:"branch_id"`
	CashierID       int          `json:"cashier_id"`
	CustomerID      *int         `json:"customer_id,omitempty"`
	TransactionCode string       `json:"transaction_code"`
	Status          CartStatus   `json:"status"`
	DiscountType    DiscountType `json:"discount_type,omitempty"`
	DiscountValue   float64      `json:"discount_value"`
	TaxRate         float64      `json:"tax_rate"`
	Subtotal        float64      `json:"subtotal"`
	DiscountAmount  float64      `json:"discount_amount"`
	TaxAmount       float64      `json:"tax_amount"`
	Total           float64      `json:"total"`
	Location        string       `json:"location,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	VoidedAt        *time.Time   `json:"voided_at,omitempty"`
	VoidedBy        *int         `json:"voided_by,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	Items []CartItem `json:"items,omitempty"`
}

// CartItem is one product line in a cart; price is snapshotted at add time
type CartItem struct {
	ID        int       `json:"id"`
	CartID    int       `json:"cart_id"`
	ProductID int       `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CartTotals is the result of the pricing computation
type CartTotals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	Total          float64 `json:"total"`
}

// ComputeCartTotals derives cart totals from item state. Discount is clamped
// to the subtotal so taxable and tax never go negative.
func ComputeCartTotals(items []CartItem, discountType DiscountType, discountValue, taxRate float64) CartTotals {
	var subtotal float64
	for _, item := range items {
		subtotal += float64(item.Quantity) * item.Price
	}

	var discount float64
	switch discountType {
	case DiscountPercentage:
		discount = subtotal * discountValue / 100
	case DiscountFixed:
		discount = discountValue
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}

	taxable := subtotal - discount
	tax := taxable * taxRate / 100

	return CartTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          taxable + tax,
	}
}

// CreateCartRequest opens a new active cart
type CreateCartRequest struct {
	BranchID   int    `json:"branch_id" validate:"required"`
	CustomerID *int   `json:"customer_id"`
	TaxRate    float64 `json:"tax_rate" validate:"min=0"`
	Location   string `json:"location"`
	Notes      string `json:"notes"`
}

// AddCartItemRequest adds a product line by id or barcode
type AddCartItemRequest struct {
	ProductID     int      `json:"product_id" validate:"required_without=Barcode"`
	Barcode       string   `json:"barcode" validate:"required_without=ProductID"`
	Quantity      int      `json:"quantity" validate:"required,min=1"`
	PriceOverride *float64 `json:"price_override" validate:"omitempty,min=0"`
	Notes         string   `json:"notes"`
}

// UpdateCartItemRequest changes quantity/price on an existing line
type UpdateCartItemRequest struct {
	Quantity      int      `json:"quantity" validate:"required,min=1"`
	PriceOverride *float64 `json:"price_override" validate:"omitempty,min=0"`
	Notes         string   `json:"notes"`
}

// ApplyDiscountRequest sets cart-level discount parameters
type ApplyDiscountRequest struct {
	DiscountType  string  `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue float64 `json:"discount_value" validate:"min=0"`
	Notes         string  `json:"notes"`
}

// VoidCartRequest voids an active cart
type VoidCartRequest struct {
	Reason string `json:"reason" validate:"required"`
}
