package gateways

import (
	"context"
	"time"

	"pos-backend/internal/models"
)

// ChargeResult is the outcome of a terminal charge. A declined charge is a
// business outcome, not an error; transport failures surface as errors.
type ChargeResult struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// GiftCardRedemption is the outcome of drawing down a gift card
type GiftCardRedemption struct {
	Reference        string  `json:"reference"`
	AmountUsed       float64 `json:"amount_used"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// VerifyResult is the gateway's view of a previously attempted charge,
// queried by the merchant reference. Pending means the gateway has not
// settled it either way yet.
type VerifyResult struct {
	Status    VerifyStatus `json:"status"`
	Reference string       `json:"reference"`
	Message   string       `json:"message"`
}

type VerifyStatus string

const (
	VerifySuccess VerifyStatus = "success"
	VerifyFailed  VerifyStatus = "failed"
	VerifyPending VerifyStatus = "pending"
)

// TerminalGateway charges and refunds card/transfer terminals
type TerminalGateway interface {
	Charge(ctx context.Context, terminalID string, amount float64, transactionCode string) (*ChargeResult, error)
	Verify(ctx context.Context, transactionCode string) (*VerifyResult, error)
	Refund(ctx context.Context, reference string, amount float64) error
	ListTransfers(ctx context.Context, terminalID string, start, end time.Time) ([]models.TransferEvent, error)
}

// GiftCardGateway redeems and refunds gift cards
type GiftCardGateway interface {
	Redeem(ctx context.Context, code string, amount float64) (*GiftCardRedemption, error)
	Balance(ctx context.Context, code string) (float64, error)
	VoidRedemption(ctx context.Context, reference string) error
}
