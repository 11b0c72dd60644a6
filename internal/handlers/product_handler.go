package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ProductHandler struct {
	service *services.ProductService
}

func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// Create handles POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.service.Create(r.Context(), &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, product)
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, product)
}

// Update handles PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, product)
}

// GetByBarcode handles GET /api/products/barcode/{barcode}
func (h *ProductHandler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := mux.Vars(r)["barcode"]
	if barcode == "" {
		utils.Error(w, http.StatusBadRequest, "Invalid barcode")
		return
	}

	product, err := h.service.GetByBarcode(r.Context(), barcode)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, product)
}

// List handles GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context(),
		r.URL.Query().Get("search"),
		queryInt(r, "limit", 100),
		queryInt(r, "offset", 0))
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, products)
}

// AdjustStock handles POST /api/products/{id}/stock
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.AdjustStockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	inventory, err := h.service.AdjustStock(r.Context(), id, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, inventory)
}
