package models

import "time"

// PaymentMethod is the tendering channel for a payment
type PaymentMethod string

const (
	PaymentMethodCash               PaymentMethod = "cash"
	PaymentMethodMoniepoint         PaymentMethod = "moniepoint"          // card terminal
	PaymentMethodMoniepointTransfer PaymentMethod = "moniepoint_transfer" // terminal transfer
	PaymentMethodBankTransfer       PaymentMethod = "bank_transfer"
	PaymentMethodSuregifts          PaymentMethod = "suregifts" // gift card
)

// PaymentStatus is the settlement state of a payment attempt
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is one settlement attempt against a cart. A cart may carry several
// rows (split payment); the cart completes when the cumulative completed
// amount covers its total. Rows are retained for audit after cart void.
type Payment struct {
	ID              int            `json:"id"`
	CartID          int            `json:"cart_id"`
	UserID          int            `json:"user_id"`
	Amount          float64        `json:"amount"`
	ChangeAmount    float64        `json:"change_amount"`
	PaymentMethod   PaymentMethod  `json:"payment_method"`
	Status          PaymentStatus  `json:"status"`
	TerminalID      string         `json:"terminal_id,omitempty"`
	Reference       string         `json:"reference,omitempty"` // external gateway transaction id
	ReceiptNumber   string         `json:"receipt_number,omitempty"`
	TransactionCode string         `json:"transaction_code,omitempty"`
	Details         PaymentDetails `json:"payment_details"`
	IsVoid          bool           `json:"is_void"`
	VoidedAt        *time.Time     `json:"voided_at,omitempty"`
	VoidedBy        *int           `json:"voided_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// PaymentDetails holds method-specific opaque attributes, stored as JSONB
type PaymentDetails map[string]interface{}

// CashPaymentRequest settles a cart in cash
type CashPaymentRequest struct {
	AmountReceived float64 `json:"amount_received" validate:"required,min=0"`
	Notes          string  `json:"notes"`
}

// MoniepointPaymentRequest settles via card terminal
type MoniepointPaymentRequest struct {
	TerminalID string `json:"terminal_id" validate:"required"`
	Notes      string `json:"notes"`
}

// SuregiftsPaymentRequest settles (possibly partially) via gift card
type SuregiftsPaymentRequest struct {
	GiftCardCode string  `json:"gift_card_code" validate:"required"`
	AmountToUse  float64 `json:"amount_to_use" validate:"required,gt=0"`
	Notes        string  `json:"notes"`
}

// BankTransferPaymentRequest records a bank transfer, optionally pre-confirmed
type BankTransferPaymentRequest struct {
	BankName      string  `json:"bank_name" validate:"required"`
	AccountNumber string  `json:"account_number" validate:"required"`
	AccountName   string  `json:"account_name" validate:"required"`
	Reference     string  `json:"reference" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Notes         string  `json:"notes"`
	Confirm       bool    `json:"confirm"`
}

// MoniepointTransferRequest records a terminal transfer, optionally pre-confirmed
type MoniepointTransferRequest struct {
	TerminalID string  `json:"terminal_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Notes      string  `json:"notes"`
	Confirm    bool    `json:"confirm"`
}

// ConfirmPaymentRequest confirms a pending transfer payment
type ConfirmPaymentRequest struct {
	Reference string  `json:"reference" validate:"required"`
	Amount    float64 `json:"amount" validate:"required"`
}

// VoidPaymentRequest voids a completed payment
type VoidPaymentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ReconcileTransfersRequest sources terminal transfer events for matching
type ReconcileTransfersRequest struct {
	TerminalID string     `json:"terminal_id" validate:"required"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
}

// PaymentResult is returned from settlement operations
type PaymentResult struct {
	Payment          *Payment `json:"payment"`
	Change           float64  `json:"change,omitempty"`
	RemainingBalance float64  `json:"remaining_balance,omitempty"`
	CartCompleted    bool     `json:"cart_completed"`
	ReceiptNumber    string   `json:"receipt_number,omitempty"`
}

// TransferEvent is an externally reported transfer seen at a terminal
type TransferEvent struct {
	Amount    float64   `json:"amount"`
	Reference string    `json:"reference"`
	Date      time.Time `json:"date"`
}

// ReconciliationResult separates matched payments from unmatched events.
// Unmatched events are reported back to the caller, never persisted.
type ReconciliationResult struct {
	Matched   []*Payment      `json:"matched_payments"`
	Unmatched []TransferEvent `json:"unmatched_transfers"`
}

// PaymentFilter is used for pending-payment worklists
type PaymentFilter struct {
	PaymentMethod string     `json:"payment_method"`
	BranchID      int        `json:"branch_id"`
	Status        string     `json:"status"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Limit         int        `json:"limit"`
	Offset        int        `json:"offset"`
}
