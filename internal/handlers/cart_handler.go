package handlers

import (
	"net/http"

	"pos-backend/internal/middleware"
	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type CartHandler struct {
	service *services.CartService
}

func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// Create handles POST /api/carts
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCartRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cashierID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	cart, err := h.service.Create(r.Context(), &req, cashierID)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, cart)
}

// Get handles GET /api/carts/{id}
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	cart, err := h.service.Get(r.Context(), id)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, cart)
}

// ListActive handles GET /api/carts?branch_id=N
func (h *CartHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	branchID := queryInt(r, "branch_id", 0)
	if branchID <= 0 {
		if id, ok := middleware.GetBranchIDFromContext(r.Context()); ok {
			branchID = id
		}
	}
	if branchID <= 0 {
		utils.Error(w, http.StatusBadRequest, "branch_id is required")
		return
	}

	carts, err := h.service.ListActive(r.Context(), branchID)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, carts)
}

// AddItem handles POST /api/carts/{id}/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.AddCartItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cart, err := h.service.AddItem(r.Context(), id, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, cart)
}

// UpdateItem handles PUT /api/carts/{id}/items/{itemId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}

	var req models.UpdateCartItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), id, itemID, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/carts/{id}/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, cart)
}

// ApplyDiscount handles POST /api/carts/{id}/discount
func (h *CartHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.ApplyDiscountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cart, err := h.service.ApplyDiscount(r.Context(), id, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, cart)
}

// Void handles POST /api/carts/{id}/void
func (h *CartHandler) Void(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.VoidCartRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	cart, err := h.service.Void(r.Context(), id, userID, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSONMessage(w, http.StatusOK, "Cart voided", cart)
}
