package services

import (
	"context"
	"sync"
	"testing"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoyaltyStore keeps balances in memory with the same atomicity
// guarantees as the database store: the guard and the ledger write happen
// under one lock.
type fakeLoyaltyStore struct {
	mu       sync.Mutex
	balances map[int]int
	ledger   []models.LoyaltyTransaction
	failNext bool
}

func newFakeLoyaltyStore() *fakeLoyaltyStore {
	return &fakeLoyaltyStore{balances: map[int]int{}}
}

func (f *fakeLoyaltyStore) AddPoints(_ context.Context, customerID, points int, source, description, saleRef string) (*models.LoyaltyBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, apperrors.NotFound("customer not found")
	}
	if points <= 0 {
		return nil, apperrors.Validation("points must be positive")
	}
	before := models.TierForPoints(f.balances[customerID])
	f.balances[customerID] += points
	f.ledger = append(f.ledger, models.LoyaltyTransaction{
		CustomerID: customerID, Type: models.LoyaltyTxEarn, Points: points,
		Source: source, Description: description, SaleRef: saleRef,
	})
	after := models.TierForPoints(f.balances[customerID])
	return &models.LoyaltyBalance{
		CustomerID: customerID, Balance: f.balances[customerID],
		Tier: after, TierChanged: after != before,
	}, nil
}

func (f *fakeLoyaltyStore) RedeemPoints(_ context.Context, customerID, points int, source, description, saleRef string) (*models.LoyaltyBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if points <= 0 {
		return nil, apperrors.Validation("points must be positive")
	}
	if f.balances[customerID] < points {
		return nil, apperrors.Insufficient("insufficient points")
	}
	f.balances[customerID] -= points
	f.ledger = append(f.ledger, models.LoyaltyTransaction{
		CustomerID: customerID, Type: models.LoyaltyTxRedeem, Points: points,
		Source: source, Description: description, SaleRef: saleRef,
	})
	return &models.LoyaltyBalance{
		CustomerID: customerID, Balance: f.balances[customerID],
		Tier: models.TierForPoints(f.balances[customerID]),
	}, nil
}

func (f *fakeLoyaltyStore) Balance(_ context.Context, customerID int) (*models.LoyaltyBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.LoyaltyBalance{
		CustomerID: customerID, Balance: f.balances[customerID],
		Tier: models.TierForPoints(f.balances[customerID]),
	}, nil
}

func (f *fakeLoyaltyStore) History(_ context.Context, customerID int, txType models.LoyaltyTransactionType, limit, offset int) ([]models.LoyaltyTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LoyaltyTransaction
	for _, tx := range f.ledger {
		if tx.CustomerID == customerID && (txType == "" || tx.Type == txType) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ledgerSum replays the ledger; it must always equal the live balance
func (f *fakeLoyaltyStore) ledgerSum(customerID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, tx := range f.ledger {
		if tx.CustomerID != customerID {
			continue
		}
		if tx.Type == models.LoyaltyTxEarn {
			sum += tx.Points
		} else {
			sum -= tx.Points
		}
	}
	return sum
}

func TestLoyaltyAddAndRedeem(t *testing.T) {
	store := newFakeLoyaltyStore()
	svc := NewLoyaltyService(store)
	ctx := context.Background()

	balance, err := svc.AddPoints(ctx, 1, &models.AddPointsRequest{Points: 1200, Source: "promo"})
	require.NoError(t, err)
	assert.Equal(t, 1200, balance.Balance)
	assert.Equal(t, models.TierSilver, balance.Tier)
	assert.True(t, balance.TierChanged)

	balance, err = svc.RedeemPoints(ctx, 1, &models.RedeemPointsRequest{Points: 500})
	require.NoError(t, err)
	assert.Equal(t, 700, balance.Balance)
	assert.Equal(t, models.TierBronze, balance.Tier)

	assert.Equal(t, 700, store.ledgerSum(1))
}

func TestLoyaltyRedeemInsufficient(t *testing.T) {
	store := newFakeLoyaltyStore()
	svc := NewLoyaltyService(store)

	_, err := svc.AddPoints(context.Background(), 1, &models.AddPointsRequest{Points: 100, Source: "promo"})
	require.NoError(t, err)

	_, err = svc.RedeemPoints(context.Background(), 1, &models.RedeemPointsRequest{Points: 101})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficient))

	// Balance untouched after the rejected redemption
	balance, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 100, balance.Balance)
}

func TestLoyaltyConcurrentRedemptionsNeverOverdraw(t *testing.T) {
	store := newFakeLoyaltyStore()
	svc := NewLoyaltyService(store)
	ctx := context.Background()

	_, err := svc.AddPoints(ctx, 1, &models.AddPointsRequest{Points: 100, Source: "promo"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	succeeded := make(chan struct{}, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RedeemPoints(ctx, 1, &models.RedeemPointsRequest{Points: 30}); err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	wins := 0
	for range succeeded {
		wins++
	}

	assert.Equal(t, 3, wins, "only 3 redemptions of 30 fit into 100 points")
	balance, _ := svc.Balance(ctx, 1)
	assert.Equal(t, 10, balance.Balance)
	assert.Equal(t, 10, store.ledgerSum(1))
}

func TestAccrueForSale(t *testing.T) {
	store := newFakeLoyaltyStore()
	svc := NewLoyaltyService(store)
	ctx := context.Background()

	t.Run("awards floor of total", func(t *testing.T) {
		svc.AccrueForSale(ctx, 2, 189.75, "TRX-AAAA1111")
		balance, _ := svc.Balance(ctx, 2)
		assert.Equal(t, 189, balance.Balance)
	})

	t.Run("sub-unit totals award nothing", func(t *testing.T) {
		svc.AccrueForSale(ctx, 3, 0.99, "TRX-BBBB2222")
		balance, _ := svc.Balance(ctx, 3)
		assert.Equal(t, 0, balance.Balance)
	})

	t.Run("store failure is swallowed", func(t *testing.T) {
		store.failNext = true
		assert.NotPanics(t, func() {
			svc.AccrueForSale(ctx, 4, 50, "TRX-CCCC3333")
		})
	})
}
