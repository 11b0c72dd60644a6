package handlers

import (
	"net/http"
	"time"

	"pos-backend/internal/middleware"
	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type PaymentHandler struct {
	service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User not found in context")
		return 0, false
	}
	return userID, true
}

// Cash handles POST /api/carts/{id}/payments/cash
func (h *PaymentHandler) Cash(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.CashPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.PayCash(r.Context(), cartID, userID, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, result)
}

// Moniepoint handles POST /api/carts/{id}/payments/moniepoint
func (h *PaymentHandler) Moniepoint(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.MoniepointPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.PayMoniepoint(r.Context(), cartID, userID, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, result)
}

// Suregifts handles POST /api/carts/{id}/payments/suregifts
func (h *PaymentHandler) Suregifts(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.SuregiftsPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.PaySuregifts(r.Context(), cartID, userID, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, result)
}

// BankTransfer handles POST /api/carts/{id}/payments/bank-transfer
func (h *PaymentHandler) BankTransfer(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.BankTransferPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.PayBankTransfer(r.Context(), cartID, userID, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, result)
}

// MoniepointTransfer handles POST /api/carts/{id}/payments/moniepoint-transfer
func (h *PaymentHandler) MoniepointTransfer(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.MoniepointTransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.PayMoniepointTransfer(r.Context(), cartID, userID, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, result)
}

// Confirm handles POST /api/payments/{id}/confirm
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.ConfirmPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Confirm(r.Context(), paymentID, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSONMessage(w, http.StatusOK, "Payment confirmed", result)
}

// Void handles POST /api/payments/{id}/void
func (h *PaymentHandler) Void(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.VoidPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.service.Void(r.Context(), paymentID, userID, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSONMessage(w, http.StatusOK, "Payment voided", payment)
}

// Verify handles POST /api/payments/{id}/verify
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.service.Verify(r.Context(), paymentID)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, result)
}

// GiftCardBalance handles GET /api/payments/giftcard-balance?code=...
func (h *PaymentHandler) GiftCardBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.GiftCardBalance(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

// Reconcile handles POST /api/payments/reconcile
func (h *PaymentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req models.ReconcileTransfersRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.ReconcileTransfers(r.Context(), &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, result)
}

// ListPending handles GET /api/payments/pending
func (h *PaymentHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	filter := &models.PaymentFilter{
		PaymentMethod: r.URL.Query().Get("method"),
		BranchID:      queryInt(r, "branch_id", 0),
		Limit:         queryInt(r, "limit", 100),
		Offset:        queryInt(r, "offset", 0),
	}

	if v := r.URL.Query().Get("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.EndDate = &t
		}
	}

	payments, err := h.service.ListPending(r.Context(), filter)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, payments)
}

// Get handles GET /api/payments/{id}
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	payment, err := h.service.Get(r.Context(), paymentID)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, payment)
}

// Receipt handles GET /api/carts/{id}/receipt
func (h *PaymentHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	pdf, receiptNumber, err := h.service.Receipt(r.Context(), cartID)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+receiptNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
