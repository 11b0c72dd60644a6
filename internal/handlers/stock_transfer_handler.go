package handlers

import (
	"net/http"

	"pos-backend/internal/middleware"
	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type StockTransferHandler struct {
	service *services.StockTransferService
}

func NewStockTransferHandler(service *services.StockTransferService) *StockTransferHandler {
	return &StockTransferHandler{service: service}
}

// Create handles POST /api/stock-transfers
func (h *StockTransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStockTransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	transfer, err := h.service.Create(r.Context(), &req, userID)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, transfer)
}

// Get handles GET /api/stock-transfers/{id}
func (h *StockTransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	transfer, err := h.service.Get(r.Context(), id)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, transfer)
}

// List handles GET /api/stock-transfers
func (h *StockTransferHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := &models.StockTransferFilter{
		Status:   r.URL.Query().Get("status"),
		BranchID: queryInt(r, "branch_id", 0),
		Limit:    queryInt(r, "limit", 100),
		Offset:   queryInt(r, "offset", 0),
	}

	transfers, err := h.service.List(r.Context(), filter)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, transfers)
}

// Approve handles POST /api/stock-transfers/{id}/approve
func (h *StockTransferHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	transfer, err := h.service.Approve(r.Context(), id, userID)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSONMessage(w, http.StatusOK, "Transfer approved", transfer)
}

// Ship handles POST /api/stock-transfers/{id}/ship
func (h *StockTransferHandler) Ship(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	transfer, err := h.service.Ship(r.Context(), id)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSONMessage(w, http.StatusOK, "Transfer in transit", transfer)
}

// Complete handles POST /api/stock-transfers/{id}/complete
func (h *StockTransferHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	transfer, err := h.service.Complete(r.Context(), id)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSONMessage(w, http.StatusOK, "Transfer completed", transfer)
}

// Cancel handles POST /api/stock-transfers/{id}/cancel
func (h *StockTransferHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	transfer, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSONMessage(w, http.StatusOK, "Transfer cancelled", transfer)
}
