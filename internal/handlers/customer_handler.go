package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/pkg/utils"
)

type CustomerHandler struct {
	customers *services.CustomerService
	loyalty   *services.LoyaltyService
	rewards   *services.RewardService
}

func NewCustomerHandler(customers *services.CustomerService, loyalty *services.LoyaltyService, rewards *services.RewardService) *CustomerHandler {
	return &CustomerHandler{customers: customers, loyalty: loyalty, rewards: rewards}
}

// Create handles POST /api/customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	customer, err := h.customers.Create(r.Context(), &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, customer)
}

// Get handles GET /api/customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	customer, err := h.customers.Get(r.Context(), id)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, customer)
}

// Update handles PUT /api/customers/{id}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.UpdateCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	customer, err := h.customers.Update(r.Context(), id, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, customer)
}

// List handles GET /api/customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := &models.CustomerFilter{
		Search:         r.URL.Query().Get("search"),
		MembershipTier: r.URL.Query().Get("tier"),
		Status:         r.URL.Query().Get("status"),
		Limit:          queryInt(r, "limit", 50),
		Offset:         queryInt(r, "offset", 0),
	}

	customers, err := h.customers.List(r.Context(), filter)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, customers)
}

// AddPoints handles POST /api/customers/{id}/points
func (h *CustomerHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.AddPointsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	balance, err := h.loyalty.AddPoints(r.Context(), id, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, balance)
}

// RedeemPoints handles POST /api/customers/{id}/points/redeem
func (h *CustomerHandler) RedeemPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.RedeemPointsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	balance, err := h.loyalty.RedeemPoints(r.Context(), id, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, balance)
}

// Balance handles GET /api/customers/{id}/points
func (h *CustomerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	balance, err := h.loyalty.Balance(r.Context(), id)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, balance)
}

// History handles GET /api/customers/{id}/points/history
func (h *CustomerHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	txType := models.LoyaltyTransactionType(r.URL.Query().Get("type"))
	entries, err := h.loyalty.History(r.Context(), id, txType,
		queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, entries)
}

// CreateReward handles POST /api/customers/{id}/rewards
func (h *CustomerHandler) CreateReward(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.CreateRewardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	reward, err := h.rewards.Create(r.Context(), id, &req)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, reward)
}

// ListRewards handles GET /api/customers/{id}/rewards
func (h *CustomerHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	status := models.RewardStatus(r.URL.Query().Get("status"))
	rewards, err := h.rewards.List(r.Context(), id, status)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, rewards)
}

// RedeemReward handles POST /api/customers/{id}/rewards/{rewardId}/redeem
func (h *CustomerHandler) RedeemReward(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rewardID, ok := pathID(w, r, "rewardId")
	if !ok {
		return
	}

	reward, balance, err := h.rewards.Redeem(r.Context(), id, rewardID)
	if err != nil {
		utils.AppError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"reward":  reward,
		"balance": balance,
	})
}
