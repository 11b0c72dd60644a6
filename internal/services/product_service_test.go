package services

import (
	"context"
	"testing"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogStore struct {
	fakeProductStore
	seq int
}

func (f *fakeCatalogStore) Create(_ context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	f.seq++
	p := &models.Product{
		ID: f.seq, Name: req.Name, Barcode: req.Barcode,
		SellingPrice: req.SellingPrice, CostPrice: req.CostPrice, IsActive: true,
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeCatalogStore) Update(_ context.Context, id int, req *models.UpdateProductRequest) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperrors.NotFound("product not found")
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Barcode != nil {
		p.Barcode = *req.Barcode
	}
	if req.SellingPrice != nil {
		p.SellingPrice = *req.SellingPrice
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	out := *p
	return &out, nil
}

func (f *fakeCatalogStore) List(_ context.Context, search string, limit, offset int) ([]models.Product, error) {
	var out []models.Product
	for i := 1; i <= f.seq; i++ {
		if p, ok := f.products[i]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeInventoryAdjuster struct {
	fakeInventoryStore
}

func (f *fakeInventoryAdjuster) Adjust(_ context.Context, productID, branchID int, location string, delta int) (*models.Inventory, error) {
	next := f.stock[productID] + delta
	if next < 0 {
		return nil, apperrors.Insufficient("insufficient stock for product %d", productID)
	}
	f.stock[productID] = next
	return &models.Inventory{ProductID: productID, BranchID: branchID, Location: location, Quantity: next}, nil
}

func (f *fakeInventoryAdjuster) ListByBranch(_ context.Context, branchID int) ([]models.Inventory, error) {
	var out []models.Inventory
	for productID, qty := range f.stock {
		out = append(out, models.Inventory{ProductID: productID, BranchID: branchID, Quantity: qty})
	}
	return out, nil
}

func newProductFixture() (*ProductService, *fakeCatalogStore) {
	catalog := &fakeCatalogStore{fakeProductStore: fakeProductStore{products: map[int]*models.Product{}}}
	inventory := &fakeInventoryAdjuster{fakeInventoryStore: fakeInventoryStore{stock: map[int]int{}}}
	return NewProductService(catalog, inventory), catalog
}

func TestProductUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("applies the provided fields", func(t *testing.T) {
		svc, catalog := newProductFixture()
		created, err := svc.Create(ctx, &models.CreateProductRequest{Name: "Bottled Water", Barcode: "6151100000017", SellingPrice: 150})
		require.NoError(t, err)

		price := 175.0
		inactive := false
		updated, err := svc.Update(ctx, created.ID, &models.UpdateProductRequest{SellingPrice: &price, IsActive: &inactive})
		require.NoError(t, err)
		assert.Equal(t, 175.0, updated.SellingPrice)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "Bottled Water", updated.Name, "untouched fields preserved")
		assert.Equal(t, 175.0, catalog.products[created.ID].SellingPrice)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _ := newProductFixture()
		name := "Ghost"
		_, err := svc.Update(ctx, 99, &models.UpdateProductRequest{Name: &name})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	})
}
