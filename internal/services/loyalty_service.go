package services

import (
	"context"
	"log"

	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
)

// LoyaltyStore is the ledger persistence contract. Both mutations are atomic:
// balance update and ledger entry land together or not at all.
type LoyaltyStore interface {
	AddPoints(ctx context.Context, customerID, points int, source, description, saleRef string) (*models.LoyaltyBalance, error)
	RedeemPoints(ctx context.Context, customerID, points int, source, description, saleRef string) (*models.LoyaltyBalance, error)
	Balance(ctx context.Context, customerID int) (*models.LoyaltyBalance, error)
	History(ctx context.Context, customerID int, txType models.LoyaltyTransactionType, limit, offset int) ([]models.LoyaltyTransaction, error)
}

type LoyaltyService struct {
	store LoyaltyStore
}

func NewLoyaltyService(store LoyaltyStore) *LoyaltyService {
	return &LoyaltyService{store: store}
}

// AddPoints credits earned points and reports the tier after the credit
func (s *LoyaltyService) AddPoints(ctx context.Context, customerID int, req *models.AddPointsRequest) (*models.LoyaltyBalance, error) {
	balance, err := s.store.AddPoints(ctx, customerID, req.Points, req.Source, req.Description, req.SaleRef)
	if err != nil {
		return nil, err
	}

	metrics.PointsEarned.Add(float64(req.Points))
	if balance.TierChanged {
		log.Printf("[Loyalty] Customer %d reached %s tier", customerID, balance.Tier)
	}

	return balance, nil
}

// RedeemPoints spends points from the customer's balance
func (s *LoyaltyService) RedeemPoints(ctx context.Context, customerID int, req *models.RedeemPointsRequest) (*models.LoyaltyBalance, error) {
	balance, err := s.store.RedeemPoints(ctx, customerID, req.Points, "manual", req.Description, "")
	if err != nil {
		return nil, err
	}

	metrics.PointsRedeemed.Add(float64(req.Points))
	return balance, nil
}

// Balance returns the current balance and tier
func (s *LoyaltyService) Balance(ctx context.Context, customerID int) (*models.LoyaltyBalance, error) {
	return s.store.Balance(ctx, customerID)
}

// History returns ledger entries, newest first
func (s *LoyaltyService) History(ctx context.Context, customerID int, txType models.LoyaltyTransactionType, limit, offset int) ([]models.LoyaltyTransaction, error) {
	return s.store.History(ctx, customerID, txType, limit, offset)
}

// AccrueForSale awards floor(total) points for a completed sale. Failures are
// logged and swallowed so a loyalty hiccup never fails a payment.
func (s *LoyaltyService) AccrueForSale(ctx context.Context, customerID int, total float64, saleRef string) {
	points := int(total)
	if points <= 0 {
		return
	}

	_, err := s.store.AddPoints(ctx, customerID, points, "purchase", "Points earned on purchase", saleRef)
	if err != nil {
		log.Printf("[Loyalty] Failed to accrue %d points for customer %d (sale %s): %v",
			points, customerID, saleRef, err)
		return
	}

	metrics.PointsEarned.Add(float64(points))
}
