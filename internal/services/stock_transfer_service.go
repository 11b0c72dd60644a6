package services

import (
	"context"
	"log"

	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/notify"
)

// StockTransferStore persists transfers. Stock movements happen inside the
// status transitions: approval decrements the source, completion increments
// the destination, cancellation restocks anything already deducted.
type StockTransferStore interface {
	Create(ctx context.Context, req *models.CreateStockTransferRequest, createdBy int, transferCode string) (*models.StockTransfer, error)
	Get(ctx context.Context, id int) (*models.StockTransfer, error)
	List(ctx context.Context, filter *models.StockTransferFilter) ([]models.StockTransfer, error)
	Approve(ctx context.Context, id, approvedBy int) (*models.StockTransfer, error)
	Ship(ctx context.Context, id int) (*models.StockTransfer, error)
	Complete(ctx context.Context, id int) (*models.StockTransfer, error)
	Cancel(ctx context.Context, id int) (*models.StockTransfer, error)
}

type StockTransferService struct {
	store   StockTransferStore
	hub     *notify.Hub
	webhook *notify.Webhook
}

func NewStockTransferService(store StockTransferStore, hub *notify.Hub, webhook *notify.Webhook) *StockTransferService {
	return &StockTransferService{store: store, hub: hub, webhook: webhook}
}

// Create opens a pending transfer with a fresh TR code
func (s *StockTransferService) Create(ctx context.Context, req *models.CreateStockTransferRequest, createdBy int) (*models.StockTransfer, error) {
	return s.store.Create(ctx, req, createdBy, GenerateCode("TR"))
}

func (s *StockTransferService) Get(ctx context.Context, id int) (*models.StockTransfer, error) {
	return s.store.Get(ctx, id)
}

func (s *StockTransferService) List(ctx context.Context, filter *models.StockTransferFilter) ([]models.StockTransfer, error) {
	return s.store.List(ctx, filter)
}

// Approve deducts source stock and moves the transfer to approved
func (s *StockTransferService) Approve(ctx context.Context, id, approvedBy int) (*models.StockTransfer, error) {
	transfer, err := s.store.Approve(ctx, id, approvedBy)
	if err != nil {
		return nil, err
	}

	s.hub.Broadcast(notify.EventTransferApproved, transfer)
	s.webhook.Send(notify.EventTransferApproved, transfer)
	log.Printf("[Transfer] Approved %s (branch %d -> %d)",
		transfer.TransferCode, transfer.SourceBranchID, transfer.DestinationBranchID)

	return transfer, nil
}

// Ship marks an approved transfer as on the road
func (s *StockTransferService) Ship(ctx context.Context, id int) (*models.StockTransfer, error) {
	return s.store.Ship(ctx, id)
}

// Complete lands the goods at the destination branch
func (s *StockTransferService) Complete(ctx context.Context, id int) (*models.StockTransfer, error) {
	transfer, err := s.store.Complete(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.TransfersCompleted.Inc()
	s.hub.Broadcast(notify.EventTransferCompleted, transfer)
	s.webhook.Send(notify.EventTransferCompleted, transfer)
	log.Printf("[Transfer] Completed %s", transfer.TransferCode)

	return transfer, nil
}

// Cancel aborts a transfer, restocking the source if stock was deducted
func (s *StockTransferService) Cancel(ctx context.Context, id int) (*models.StockTransfer, error) {
	transfer, err := s.store.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Printf("[Transfer] Cancelled %s", transfer.TransferCode)
	return transfer, nil
}
