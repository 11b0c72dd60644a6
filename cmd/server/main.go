package main

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-backend/internal/archive"
	"pos-backend/internal/auth"
	"pos-backend/internal/cache"
	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/db"
	"pos-backend/internal/gateways"
	"pos-backend/internal/handlers"
	poshttp "pos-backend/internal/http"
	"pos-backend/internal/middleware"
	"pos-backend/internal/notify"
	"pos-backend/internal/repositories"
	"pos-backend/internal/services"
)

func main() {
	cfg := config.Load()

	pool := db.Connect(cfg)
	defer pool.Close()

	migrator := database.NewMigrator(pool)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := cache.Init(); err != nil {
		log.Printf("[Cache] Redis unavailable, product lookups go to the database: %v", err)
	}

	// Repositories
	customerRepo := repositories.NewCustomerRepository(pool)
	loyaltyRepo := repositories.NewLoyaltyRepository(pool)
	rewardRepo := repositories.NewRewardRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	inventoryRepo := repositories.NewInventoryRepository(pool)
	branchRepo := repositories.NewBranchRepository(pool)
	userRepo := repositories.NewUserRepository(pool)
	cartRepo := repositories.NewCartRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)
	transferRepo := repositories.NewStockTransferRepository(pool)

	// Gateways and side-effect sinks
	moniepoint := gateways.NewMoniepointClient(cfg)
	suregifts := gateways.NewSuregiftsClient(cfg)
	hub := notify.NewHub()
	webhook := notify.NewWebhook(cfg.Notify.WebhookURL)
	archiver := archive.New(cfg)

	// Services
	jwtManager := auth.NewJWTManager(cfg)
	authService := services.NewAuthService(userRepo, jwtManager)
	customerService := services.NewCustomerService(customerRepo)
	loyaltyService := services.NewLoyaltyService(loyaltyRepo)
	rewardService := services.NewRewardService(rewardRepo)
	productService := services.NewProductService(productRepo, inventoryRepo)
	cartService := services.NewCartService(cartRepo, productRepo, inventoryRepo)
	receiptService := services.NewReceiptService(productRepo, branchRepo)
	paymentService := services.NewPaymentService(
		paymentRepo, cartRepo, moniepoint, suregifts,
		loyaltyService, receiptService, archiver, hub, webhook)
	transferService := services.NewStockTransferService(transferRepo, hub, webhook)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	customerHandler := handlers.NewCustomerHandler(customerService, loyaltyService, rewardService)
	productHandler := handlers.NewProductHandler(productService)
	branchHandler := handlers.NewBranchHandler(branchRepo, productService)
	cartHandler := handlers.NewCartHandler(cartService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	transferHandler := handlers.NewStockTransferHandler(transferService)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	router := poshttp.NewRouter(
		authHandler, customerHandler, productHandler, branchHandler,
		cartHandler, paymentHandler, transferHandler, hub, authMiddleware)

	var handler stdhttp.Handler = router
	handler = middleware.Metrics(handler)
	handler = middleware.NewCORS(cfg)(handler)
	handler = middleware.PanicRecovery(handler)

	srv := &stdhttp.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[Server] Listening on :%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Server] Forced shutdown: %v", err)
	}
	log.Println("[Server] Stopped")
}
