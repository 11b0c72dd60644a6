package http

import (
	"net/http"

	"pos-backend/internal/handlers"
	"pos-backend/internal/middleware"
	"pos-backend/internal/notify"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	customerHandler *handlers.CustomerHandler,
	productHandler *handlers.ProductHandler,
	branchHandler *handlers.BranchHandler,
	cartHandler *handlers.CartHandler,
	paymentHandler *handlers.PaymentHandler,
	stockTransferHandler *handlers.StockTransferHandler,
	hub *notify.Hub,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public API routes - Authentication
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Staff registration (admin only)
	registerAPI := r.PathPrefix("/auth/register").Subrouter()
	registerAPI.Use(authMiddleware.Authenticate)
	registerAPI.HandleFunc("", authMiddleware.RequireRole("admin")(http.HandlerFunc(authHandler.Register)).ServeHTTP).Methods("POST")

	// Protected API routes - Customers and loyalty
	customersAPI := r.PathPrefix("/api/customers").Subrouter()
	customersAPI.Use(authMiddleware.Authenticate)
	customersAPI.HandleFunc("", customerHandler.List).Methods("GET")
	customersAPI.HandleFunc("", customerHandler.Create).Methods("POST")
	customersAPI.HandleFunc("/{id}", customerHandler.Get).Methods("GET")
	customersAPI.HandleFunc("/{id}", customerHandler.Update).Methods("PUT")
	customersAPI.HandleFunc("/{id}/points", customerHandler.Balance).Methods("GET")
	customersAPI.HandleFunc("/{id}/points", customerHandler.AddPoints).Methods("POST")
	customersAPI.HandleFunc("/{id}/points/redeem", customerHandler.RedeemPoints).Methods("POST")
	customersAPI.HandleFunc("/{id}/points/history", customerHandler.History).Methods("GET")
	customersAPI.HandleFunc("/{id}/rewards", customerHandler.ListRewards).Methods("GET")
	customersAPI.HandleFunc("/{id}/rewards", authMiddleware.RequireRole("manager", "admin")(http.HandlerFunc(customerHandler.CreateReward)).ServeHTTP).Methods("POST")
	customersAPI.HandleFunc("/{id}/rewards/{rewardId}/redeem", customerHandler.RedeemReward).Methods("POST")

	// Protected API routes - Products
	productsAPI := r.PathPrefix("/api/products").Subrouter()
	productsAPI.Use(authMiddleware.Authenticate)
	productsAPI.HandleFunc("", productHandler.List).Methods("GET")
	productsAPI.HandleFunc("", authMiddleware.RequireRole("manager", "admin")(http.HandlerFunc(productHandler.Create)).ServeHTTP).Methods("POST")
	productsAPI.HandleFunc("/barcode/{barcode}", productHandler.GetByBarcode).Methods("GET")
	productsAPI.HandleFunc("/{id}", productHandler.Get).Methods("GET")
	productsAPI.HandleFunc("/{id}", authMiddleware.RequireRole("manager", "admin")(http.HandlerFunc(productHandler.Update)).ServeHTTP).Methods("PUT")
	productsAPI.HandleFunc("/{id}/stock", authMiddleware.RequireRole("manager", "admin")(http.HandlerFunc(productHandler.AdjustStock)).ServeHTTP).Methods("POST")

	// Protected API routes - Branches
	branchesAPI := r.PathPrefix("/api/branches").Subrouter()
	branchesAPI.Use(authMiddleware.Authenticate)
	branchesAPI.HandleFunc("", branchHandler.List).Methods("GET")
	branchesAPI.HandleFunc("", authMiddleware.RequireRole("admin")(http.HandlerFunc(branchHandler.Create)).ServeHTTP).Methods("POST")
	branchesAPI.HandleFunc("/{id}", branchHandler.Get).Methods("GET")
	branchesAPI.HandleFunc("/{id}/inventory", branchHandler.Inventory).Methods("GET")

	// Protected API routes - Carts
	cartsAPI := r.PathPrefix("/api/carts").Subrouter()
	cartsAPI.Use(authMiddleware.Authenticate)
	cartsAPI.HandleFunc("", cartHandler.ListActive).Methods("GET")
	cartsAPI.HandleFunc("", cartHandler.Create).Methods("POST")
	cartsAPI.HandleFunc("/{id}", cartHandler.Get).Methods("GET")
	cartsAPI.HandleFunc("/{id}/items", cartHandler.AddItem).Methods("POST")
	cartsAPI.HandleFunc("/{id}/items/{itemId}", cartHandler.UpdateItem).Methods("PUT")
	cartsAPI.HandleFunc("/{id}/items/{itemId}", cartHandler.RemoveItem).Methods("DELETE")
	cartsAPI.HandleFunc("/{id}/discount", cartHandler.ApplyDiscount).Methods("POST")
	cartsAPI.HandleFunc("/{id}/void", cartHandler.Void).Methods("POST")

	// Settlement endpoints live under the cart they pay for
	cartsAPI.HandleFunc("/{id}/payments/cash", paymentHandler.Cash).Methods("POST")
	cartsAPI.HandleFunc("/{id}/payments/moniepoint", paymentHandler.Moniepoint).Methods("POST")
	cartsAPI.HandleFunc("/{id}/payments/suregifts", paymentHandler.Suregifts).Methods("POST")
	cartsAPI.HandleFunc("/{id}/payments/bank-transfer", paymentHandler.BankTransfer).Methods("POST")
	cartsAPI.HandleFunc("/{id}/payments/moniepoint-transfer", paymentHandler.MoniepointTransfer).Methods("POST")
	cartsAPI.HandleFunc("/{id}/receipt", paymentHandler.Receipt).Methods("GET")

	// Protected API routes - Payments
	paymentsAPI := r.PathPrefix("/api/payments").Subrouter()
	paymentsAPI.Use(authMiddleware.Authenticate)
	paymentsAPI.HandleFunc("/pending", paymentHandler.ListPending).Methods("GET")
	paymentsAPI.HandleFunc("/giftcard-balance", paymentHandler.GiftCardBalance).Methods("GET")
	paymentsAPI.HandleFunc("/reconcile", authMiddleware.RequireRole("manager", "admin")(http.HandlerFunc(paymentHandler.Reconcile)).ServeHTTP).Methods("POST")
	paymentsAPI.HandleFunc("/{id}", paymentHandler.Get).Methods("GET")
	paymentsAPI.HandleFunc("/{id}/verify", paymentHandler.Verify).Methods("POST")
	paymentsAPI.HandleFunc("/{id}/confirm", authMiddleware.RequireRole("manager", "admin")(http.HandlerFunc(paymentHandler.Confirm)).ServeHTTP).Methods("POST")
	paymentsAPI.HandleFunc("/{id}/void", authMiddleware.RequireRole("manager", "admin")(http.HandlerFunc(paymentHandler.Void)).ServeHTTP).Methods("POST")

	// Protected API routes - Stock transfers
	transfersAPI := r.PathPrefix("/api/stock-transfers").Subrouter()
	transfersAPI.Use(authMiddleware.Authenticate)
	transfersAPI.HandleFunc("", stockTransferHandler.List).Methods("GET")
	transfersAPI.HandleFunc("", stockTransferHandler.Create).Methods("POST")
	transfersAPI.HandleFunc("/{id}", stockTransferHandler.Get).Methods("GET")
	transfersAPI.HandleFunc("/{id}/approve", authMiddleware.RequireRole("manager", "admin")(http.HandlerFunc(stockTransferHandler.Approve)).ServeHTTP).Methods("POST")
	transfersAPI.HandleFunc("/{id}/ship", stockTransferHandler.Ship).Methods("POST")
	transfersAPI.HandleFunc("/{id}/complete", stockTransferHandler.Complete).Methods("POST")
	transfersAPI.HandleFunc("/{id}/cancel", authMiddleware.RequireRole("manager", "admin")(http.HandlerFunc(stockTransferHandler.Cancel)).ServeHTTP).Methods("POST")

	// Live POS event stream
	r.HandleFunc("/ws", hub.ServeWS)

	// Health endpoint (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
