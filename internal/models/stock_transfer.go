package models

import "time"

// StockTransferStatus is the lifecycle state of an inter-branch movement
type StockTransferStatus string

const (
	TransferPending   StockTransferStatus = "pending"
	TransferApproved  StockTransferStatus = "approved"
	TransferInTransit StockTransferStatus = "in_transit"
	TransferCompleted StockTransferStatus = "completed"
	TransferCancelled StockTransferStatus = "cancelled"
)

// StockTransfer moves inventory from one branch to another. Source quantities
// are decremented on approval, destination incremented on completion.
type StockTransfer struct {
	ID                  int                 `json:"id"`
	SourceBranchID      int                 `json:"source_branch_id"`
	DestinationBranchID int                 `json:"destination_branch_id"`
	TransferCode        string              `json:"transfer_code"`
	Status              StockTransferStatus `json:"status"`
	Notes               string              `json:"notes,omitempty"`
	CreatedBy           int                 `json:"created_by"`
	ApprovedBy          *int                `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time          `json:"approved_at,omitempty"`
	CompletedAt         *time.Time          `json:"completed_at,omitempty"`
	CancelledAt         *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`

	Items []StockTransferItem `json:"items,omitempty"`
}

// CanCancel reports whether the transfer may still be cancelled.
func (t *StockTransfer) CanCancel() bool {
	return t.Status == TransferPending || t.Status == TransferApproved || t.Status == TransferInTransit
}

// StockTransferItem is one product line; unit_cost is snapshotted from the
// product's cost price at creation.
type StockTransferItem struct {
	ID              int     `json:"id"`
	StockTransferID int     `json:"stock_transfer_id"`
	ProductID       int     `json:"product_id"`
	Quantity        int     `json:"quantity"`
	UnitCost        float64 `json:"unit_cost"`
}

// CreateStockTransferRequest opens a pending transfer
type CreateStockTransferRequest struct {
	SourceBranchID      int                      `json:"source_branch_id" validate:"required"`
	DestinationBranchID int                      `json:"destination_branch_id" validate:"required,nefield=SourceBranchID"`
	Items               []StockTransferItemInput `json:"items" validate:"required,min=1,dive"`
	Notes               string                   `json:"notes"`
}

// StockTransferItemInput is one requested line
type StockTransferItemInput struct {
	ProductID int `json:"product_id" validate:"required"`
	Quantity  int `json:"quantity" validate:"required,min=1"`
}

// StockTransferFilter is used for listing transfers
type StockTransferFilter struct {
	Status   string `json:"status"`
	BranchID int    `json:"branch_id"` // matches source or destination
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}
