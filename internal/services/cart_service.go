package services

import (
	"context"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/cache"
	"pos-backend/internal/models"
)

// CartStore persists carts. Item and discount mutations rewrite the derived
// totals under the cart row lock.
type CartStore interface {
	Create(ctx context.Context, req *models.CreateCartRequest, cashierID int, transactionCode string) (*models.Cart, error)
	Get(ctx context.Context, id int) (*models.Cart, error)
	AddItem(ctx context.Context, cartID, productID, quantity int, price float64, notes string) (*models.Cart, error)
	UpdateItem(ctx context.Context, cartID, itemID, quantity int, price *float64, notes string) (*models.Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID int) (*models.Cart, error)
	ApplyDiscount(ctx context.Context, cartID int, discountType models.DiscountType, discountValue float64) (*models.Cart, error)
	Void(ctx context.Context, cartID, userID int, reason string) (*models.Cart, error)
	ListActive(ctx context.Context, branchID int) ([]models.Cart, error)
}

// ProductStore resolves catalog items
type ProductStore interface {
	Get(ctx context.Context, id int) (*models.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
}

// InventoryStore reads on-hand quantities
type InventoryStore interface {
	Quantity(ctx context.Context, productID, branchID int, location string) (int, error)
}

type CartService struct {
	carts     CartStore
	products  ProductStore
	inventory InventoryStore
}

func NewCartService(carts CartStore, products ProductStore, inventory InventoryStore) *CartService {
	return &CartService{carts: carts, products: products, inventory: inventory}
}

// Create opens a new active cart with a fresh transaction code
func (s *CartService) Create(ctx context.Context, req *models.CreateCartRequest, cashierID int) (*models.Cart, error) {
	return s.carts.Create(ctx, req, cashierID, GenerateCode("TRX"))
}

// Get returns a cart with its items
func (s *CartService) Get(ctx context.Context, id int) (*models.Cart, error) {
	return s.carts.Get(ctx, id)
}

// ListActive returns a branch's open carts
func (s *CartService) ListActive(ctx context.Context, branchID int) ([]models.Cart, error) {
	return s.carts.ListActive(ctx, branchID)
}

// AddItem resolves the product by id or barcode, checks availability at the
// cart's branch and merges the line in. Price snapshots the product's selling
// price unless overridden.
func (s *CartService) AddItem(ctx context.Context, cartID int, req *models.AddCartItemRequest) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	product, err := s.resolveProduct(ctx, req.ProductID, req.Barcode)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.Conflict("product %q is inactive", product.Name)
	}

	requested := req.Quantity
	for _, item := range cart.Items {
		if item.ProductID == product.ID {
			requested += item.Quantity
			break
		}
	}

	available, err := s.inventory.Quantity(ctx, product.ID, cart.BranchID, "main")
	if err != nil {
		return nil, err
	}
	if available < requested {
		return nil, apperrors.Insufficient("insufficient stock for %q: available %d, requested %d",
			product.Name, available, requested)
	}

	price := product.SellingPrice
	if req.PriceOverride != nil {
		price = *req.PriceOverride
	}

	return s.carts.AddItem(ctx, cartID, product.ID, req.Quantity, price, req.Notes)
}

// UpdateItem replaces quantity and optional price on an existing line
func (s *CartService) UpdateItem(ctx context.Context, cartID, itemID int, req *models.UpdateCartItemRequest) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	var productID int
	for _, item := range cart.Items {
		if item.ID == itemID {
			productID = item.ProductID
			break
		}
	}
	if productID == 0 {
		return nil, apperrors.NotFound("cart item not found")
	}

	available, err := s.inventory.Quantity(ctx, productID, cart.BranchID, "main")
	if err != nil {
		return nil, err
	}
	if available < req.Quantity {
		return nil, apperrors.Insufficient("insufficient stock: available %d, requested %d",
			available, req.Quantity)
	}

	return s.carts.UpdateItem(ctx, cartID, itemID, req.Quantity, req.PriceOverride, req.Notes)
}

// RemoveItem drops a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID int) (*models.Cart, error) {
	return s.carts.RemoveItem(ctx, cartID, itemID)
}

// ApplyDiscount sets the cart-level discount
func (s *CartService) ApplyDiscount(ctx context.Context, cartID int, req *models.ApplyDiscountRequest) (*models.Cart, error) {
	discountType := models.DiscountType(req.DiscountType)
	if discountType == models.DiscountPercentage && req.DiscountValue > 100 {
		return nil, apperrors.Validation("percentage discount cannot exceed 100")
	}
	return s.carts.ApplyDiscount(ctx, cartID, discountType, req.DiscountValue)
}

// Void abandons an active cart
func (s *CartService) Void(ctx context.Context, cartID, userID int, req *models.VoidCartRequest) (*models.Cart, error) {
	return s.carts.Void(ctx, cartID, userID, req.Reason)
}

func (s *CartService) resolveProduct(ctx context.Context, productID int, barcode string) (*models.Product, error) {
	if productID > 0 {
		if p, ok := cache.GetProduct(ctx, productID); ok {
			return p, nil
		}
		p, err := s.products.Get(ctx, productID)
		if err != nil {
			return nil, err
		}
		cache.SetProduct(ctx, p)
		return p, nil
	}

	if barcode == "" {
		return nil, apperrors.Validation("product_id or barcode is required")
	}
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
