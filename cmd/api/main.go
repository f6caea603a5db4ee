package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bookshop-commerce/internal/client"
	"bookshop-commerce/internal/config"
	"bookshop-commerce/internal/repository"
	"bookshop-commerce/internal/server"
	"bookshop-commerce/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(&cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := client.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	gatewayClient := client.NewGatewayClient(&cfg.Gateway)

	bookRepo := repository.NewBookRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)

	cartService := service.NewCartService(db, cartRepo, bookRepo)
	checkoutService := service.NewCheckoutService(db, bookRepo, orderRepo, paymentRepo, &cfg.Shipping)
	paymentService := service.NewPaymentService(
		db, gatewayClient, &cfg.Gateway, &cfg.Bank,
		orderRepo, paymentRepo, cartRepo, libraryRepo, logger,
	)
	orderService := service.NewOrderService(orderRepo)

	srv := server.NewServer(cfg, cartService, checkoutService, paymentService, orderService)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	logger.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		logger.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}

func newLogger(cfg *config.Log) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zc.Level = level
	return zc.Build()
}
