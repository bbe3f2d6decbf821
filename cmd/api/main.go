package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/ratelimit"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/service"
	"storefront/internal/validator"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log = log.With(zap.String("environment", cfg.Environment.Name))

	db, err := client.InitDatabase(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatal("init database", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	if cfg.SeedCatalog {
		if err := productRepo.Seed(ctx); err != nil {
			log.Fatal("seed catalog", zap.Error(err))
		}
		log.Info("catalog seeded")
	}

	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("STRIPE_WEBHOOK_SECRET is not set; webhooks will be rejected")
	}

	stripeClient := client.NewStripeClient(&cfg.Stripe)

	checkoutService := service.NewCheckoutService(
		stripeClient,
		productRepo,
		validator.NewRequestValidator(),
		log.Named("checkout"),
		service.CheckoutOptions{
			BaseURL:          cfg.BaseURL,
			EnablePromoCodes: cfg.Checkout.EnablePromoCodes,
			AllowedCountries: cfg.Checkout.AllowedCountries,
		},
	)
	fulfillmentService := service.NewFulfillmentService(
		stripeClient,
		orderRepo,
		webhookEventRepo,
		cfg.Stripe.WebhookSecret,
		log.Named("fulfillment"),
	)

	limiter := ratelimit.New(cfg.Checkout.RateLimitWindow, cfg.Checkout.RateLimitMax)
	go limiter.Run(ctx, cfg.Checkout.RateLimitSweep)

	srv := server.NewServer(server.Services{
		Checkout:    checkoutService,
		Fulfillment: fulfillmentService,
		Order:       service.NewOrderService(orderRepo),
		Product:     service.NewProductService(productRepo),
		Status:      service.NewStatusService(db, cfg),
	}, limiter, log.Named("http"))

	serverAddr := cfg.HTTP.Address()

	log.Info("starting HTTP server", zap.String("address", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
