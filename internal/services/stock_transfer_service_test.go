package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"
	"pos-backend/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type branchProduct struct {
	branchID  int
	productID int
}

// fakeTransferStore runs the transfer state machine against in-memory branch
// stock, with the same movement rules as the database store.
type fakeTransferStore struct {
	mu        sync.Mutex
	seq       int
	transfers map[int]*models.StockTransfer
	stock     map[branchProduct]int
}

func newFakeTransferStore(stock map[branchProduct]int) *fakeTransferStore {
	return &fakeTransferStore{transfers: map[int]*models.StockTransfer{}, stock: stock}
}

func (f *fakeTransferStore) Create(_ context.Context, req *models.CreateStockTransferRequest, createdBy int, transferCode string) (*models.StockTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range req.Items {
		if f.stock[branchProduct{req.SourceBranchID, item.ProductID}] < item.Quantity {
			return nil, apperrors.Insufficient("insufficient stock for product %d", item.ProductID)
		}
	}

	f.seq++
	transfer := &models.StockTransfer{
		ID:                  f.seq,
		SourceBranchID:      req.SourceBranchID,
		DestinationBranchID: req.DestinationBranchID,
		TransferCode:        transferCode,
		Status:              models.TransferPending,
		Notes:               req.Notes,
		CreatedBy:           createdBy,
	}
	for _, item := range req.Items {
		transfer.Items = append(transfer.Items, models.StockTransferItem{
			StockTransferID: transfer.ID, ProductID: item.ProductID, Quantity: item.Quantity,
		})
	}
	f.transfers[transfer.ID] = transfer
	out := *transfer
	return &out, nil
}

func (f *fakeTransferStore) Get(_ context.Context, id int) (*models.StockTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	transfer, ok := f.transfers[id]
	if !ok {
		return nil, apperrors.NotFound("stock transfer not found")
	}
	out := *transfer
	return &out, nil
}

func (f *fakeTransferStore) List(_ context.Context, filter *models.StockTransferFilter) ([]models.StockTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StockTransfer
	for _, transfer := range f.transfers {
		if filter.Status != "" && string(transfer.Status) != filter.Status {
			continue
		}
		out = append(out, *transfer)
	}
	return out, nil
}

func (f *fakeTransferStore) Approve(_ context.Context, id, approvedBy int) (*models.StockTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	transfer, ok := f.transfers[id]
	if !ok {
		return nil, apperrors.NotFound("stock transfer not found")
	}
	if transfer.Status != models.TransferPending {
		return nil, apperrors.Conflict("transfer is %s", transfer.Status)
	}
	for _, item := range transfer.Items {
		key := branchProduct{transfer.SourceBranchID, item.ProductID}
		if f.stock[key] < item.Quantity {
			return nil, apperrors.Insufficient("insufficient stock for product %d", item.ProductID)
		}
		f.stock[key] -= item.Quantity
	}
	now := time.Now()
	transfer.Status = models.TransferApproved
	transfer.ApprovedBy = &approvedBy
	transfer.ApprovedAt = &now
	out := *transfer
	return &out, nil
}

func (f *fakeTransferStore) Ship(_ context.Context, id int) (*models.StockTransfer, error) {
	return f.transition(id, models.TransferApproved, models.TransferInTransit)
}

func (f *fakeTransferStore) Complete(_ context.Context, id int) (*models.StockTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	transfer, ok := f.transfers[id]
	if !ok {
		return nil, apperrors.NotFound("stock transfer not found")
	}
	if transfer.Status != models.TransferInTransit {
		return nil, apperrors.Conflict("transfer is %s", transfer.Status)
	}
	for _, item := range transfer.Items {
		f.stock[branchProduct{transfer.DestinationBranchID, item.ProductID}] += item.Quantity
	}
	now := time.Now()
	transfer.Status = models.TransferCompleted
	transfer.CompletedAt = &now
	out := *transfer
	return &out, nil
}

func (f *fakeTransferStore) Cancel(_ context.Context, id int) (*models.StockTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	transfer, ok := f.transfers[id]
	if !ok {
		return nil, apperrors.NotFound("stock transfer not found")
	}
	if !transfer.CanCancel() {
		return nil, apperrors.Conflict("transfer is %s", transfer.Status)
	}
	if transfer.Status == models.TransferApproved || transfer.Status == models.TransferInTransit {
		for _, item := range transfer.Items {
			f.stock[branchProduct{transfer.SourceBranchID, item.ProductID}] += item.Quantity
		}
	}
	now := time.Now()
	transfer.Status = models.TransferCancelled
	transfer.CancelledAt = &now
	out := *transfer
	return &out, nil
}

func (f *fakeTransferStore) transition(id int, from, to models.StockTransferStatus) (*models.StockTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	transfer, ok := f.transfers[id]
	if !ok {
		return nil, apperrors.NotFound("stock transfer not found")
	}
	if transfer.Status != from {
		return nil, apperrors.Conflict("transfer is %s", transfer.Status)
	}
	transfer.Status = to
	out := *transfer
	return &out, nil
}

func newTransferFixture(stock map[branchProduct]int) (*StockTransferService, *fakeTransferStore) {
	store := newFakeTransferStore(stock)
	return NewStockTransferService(store, notify.NewHub(), nil), store
}

func transferRequest() *models.CreateStockTransferRequest {
	return &models.CreateStockTransferRequest{
		SourceBranchID:      1,
		DestinationBranchID: 2,
		Items:               []models.StockTransferItemInput{{ProductID: 10, Quantity: 6}},
	}
}

func TestStockTransferLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store := newTransferFixture(map[branchProduct]int{{1, 10}: 8})

	transfer, err := svc.Create(ctx, transferRequest(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.TransferPending, transfer.Status)
	assert.True(t, strings.HasPrefix(transfer.TransferCode, "TR-"), "got %q", transfer.TransferCode)
	assert.Equal(t, 8, store.stock[branchProduct{1, 10}], "stock untouched until approval")

	transfer, err = svc.Approve(ctx, transfer.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.TransferApproved, transfer.Status)
	require.NotNil(t, transfer.ApprovedBy)
	assert.Equal(t, 7, *transfer.ApprovedBy)
	assert.Equal(t, 2, store.stock[branchProduct{1, 10}], "approval deducts the source")

	transfer, err = svc.Ship(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferInTransit, transfer.Status)

	transfer, err = svc.Complete(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferCompleted, transfer.Status)
	assert.NotNil(t, transfer.CompletedAt)
	assert.Equal(t, 6, store.stock[branchProduct{2, 10}], "completion lands at the destination")
}

func TestStockTransferIllegalTransitions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTransferFixture(map[branchProduct]int{{1, 10}: 8})

	transfer, err := svc.Create(ctx, transferRequest(), 42)
	require.NoError(t, err)

	t.Run("ship before approval", func(t *testing.T) {
		_, err := svc.Ship(ctx, transfer.ID)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})

	t.Run("complete before shipping", func(t *testing.T) {
		_, err := svc.Complete(ctx, transfer.ID)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})

	t.Run("double approve", func(t *testing.T) {
		_, err := svc.Approve(ctx, transfer.ID, 7)
		require.NoError(t, err)
		_, err = svc.Approve(ctx, transfer.ID, 7)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})
}

func TestStockTransferCreateChecksAvailability(t *testing.T) {
	svc, _ := newTransferFixture(map[branchProduct]int{{1, 10}: 5})

	_, err := svc.Create(context.Background(), transferRequest(), 42)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficient))
}

func TestStockTransferCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending cancel leaves stock alone", func(t *testing.T) {
		svc, store := newTransferFixture(map[branchProduct]int{{1, 10}: 8})
		transfer, err := svc.Create(ctx, transferRequest(), 42)
		require.NoError(t, err)

		cancelled, err := svc.Cancel(ctx, transfer.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransferCancelled, cancelled.Status)
		assert.Equal(t, 8, store.stock[branchProduct{1, 10}])
	})

	t.Run("approved cancel restocks the source", func(t *testing.T) {
		svc, store := newTransferFixture(map[branchProduct]int{{1, 10}: 8})
		transfer, err := svc.Create(ctx, transferRequest(), 42)
		require.NoError(t, err)
		_, err = svc.Approve(ctx, transfer.ID, 7)
		require.NoError(t, err)
		assert.Equal(t, 2, store.stock[branchProduct{1, 10}])

		_, err = svc.Cancel(ctx, transfer.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, store.stock[branchProduct{1, 10}])
	})

	t.Run("completed transfer cannot be cancelled", func(t *testing.T) {
		svc, _ := newTransferFixture(map[branchProduct]int{{1, 10}: 8})
		transfer, err := svc.Create(ctx, transferRequest(), 42)
		require.NoError(t, err)
		_, err = svc.Approve(ctx, transfer.ID, 7)
		require.NoError(t, err)
		_, err = svc.Ship(ctx, transfer.ID)
		require.NoError(t, err)
		_, err = svc.Complete(ctx, transfer.ID)
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, transfer.ID)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})
}
