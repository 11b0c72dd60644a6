package services

import (
	"context"

	"pos-backend/internal/cache"
	"pos-backend/internal/models"
)

// ProductCatalogStore is the full catalog persistence contract
type ProductCatalogStore interface {
	ProductStore
	Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	Update(ctx context.Context, id int, req *models.UpdateProductRequest) (*models.Product, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.Product, error)
}

// InventoryAdjuster applies signed stock deltas
type InventoryAdjuster interface {
	InventoryStore
	Adjust(ctx context.Context, productID, branchID int, location string, delta int) (*models.Inventory, error)
	ListByBranch(ctx context.Context, branchID int) ([]models.Inventory, error)
}

type ProductService struct {
	products  ProductCatalogStore
	inventory InventoryAdjuster
}

func NewProductService(products ProductCatalogStore, inventory InventoryAdjuster) *ProductService {
	return &ProductService{products: products, inventory: inventory}
}

func (s *ProductService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	return s.products.Create(ctx, req)
}

// Update applies catalog changes and drops the stale cache entries. The
// pre-update row is invalidated too, so a changed barcode cannot keep
// serving the old product.
func (s *ProductService) Update(ctx context.Context, id int, req *models.UpdateProductRequest) (*models.Product, error) {
	prev, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.products.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	cache.InvalidateProduct(ctx, prev)
	cache.InvalidateProduct(ctx, p)
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id int) (*models.Product, error) {
	if p, ok := cache.GetProduct(ctx, id); ok {
		return p, nil
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cache.SetProduct(ctx, p)
	return p, nil
}

func (s *ProductService) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if p, ok := cache.GetProductByBarcode(ctx, barcode); ok {
		return p, nil
	}
	p, err := s.products.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	cache.SetProduct(ctx, p)
	return p, nil
}

func (s *ProductService) List(ctx context.Context, search string, limit, offset int) ([]models.Product, error) {
	return s.products.List(ctx, search, limit, offset)
}

// AdjustStock receives quantity into a branch location
func (s *ProductService) AdjustStock(ctx context.Context, productID int, req *models.AdjustStockRequest) (*models.Inventory, error) {
	location := req.Location
	if location == "" {
		location = "main"
	}
	return s.inventory.Adjust(ctx, productID, req.BranchID, location, req.Quantity)
}

// BranchInventory lists the stock held at a branch
func (s *ProductService) BranchInventory(ctx context.Context, branchID int) ([]models.Inventory, error) {
	return s.inventory.ListByBranch(ctx, branchID)
}
