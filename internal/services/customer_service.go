package services

import (
	"context"

	"pos-backend/internal/models"
)

// CustomerStore persists customer profiles
type CustomerStore interface {
	Create(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error)
	Get(ctx context.Context, id int) (*models.Customer, error)
	Update(ctx context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error)
	List(ctx context.Context, filter *models.CustomerFilter) ([]models.Customer, error)
}

type CustomerService struct {
	store CustomerStore
}

func NewCustomerService(store CustomerStore) *CustomerService {
	return &CustomerService{store: store}
}

func (s *CustomerService) Create(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	return s.store.Create(ctx, req)
}

func (s *CustomerService) Get(ctx context.Context, id int) (*models.Customer, error) {
	return s.store.Get(ctx, id)
}

func (s *CustomerService) Update(ctx context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	return s.store.Update(ctx, id, req)
}

func (s *CustomerService) List(ctx context.Context, filter *models.CustomerFilter) ([]models.Customer, error) {
	return s.store.List(ctx, filter)
}
