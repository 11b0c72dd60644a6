package handlers

import (
	"context"
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

// BranchStore is implemented by the branch repository
type BranchStore interface {
	Create(ctx context.Context, req *models.CreateBranchRequest, branchCode string) (*models.Branch, error)
	Get(ctx context.Context, id int) (*models.Branch, error)
	List(ctx context.Context) ([]models.Branch, error)
}

type BranchHandler struct {
	branches BranchStore
	products *services.ProductService
}

func NewBranchHandler(branches BranchStore, products *services.ProductService) *BranchHandler {
	return &BranchHandler{branches: branches, products: products}
}

// Create handles POST /api/branches
func (h *BranchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBranchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	branch, err := h.branches.Create(r.Context(), &req, services.GenerateCode("BR"))
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, branch)
}

// Get handles GET /api/branches/{id}
func (h *BranchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	branch, err := h.branches.Get(r.Context(), id)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, branch)
}

// List handles GET /api/branches
func (h *BranchHandler) List(w http.ResponseWriter, r *http.Request) {
	branches, err := h.branches.List(r.Context())
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, branches)
}

// Inventory handles GET /api/branches/{id}/inventory
func (h *BranchHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	inventory, err := h.products.BranchInventory(r.Context(), id)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, inventory)
}
