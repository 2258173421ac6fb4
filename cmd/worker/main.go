package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hydrogen-admin/internal/config"
	"hydrogen-admin/internal/database"
	"hydrogen-admin/internal/history"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/repository"
	"hydrogen-admin/internal/services/shopify"
	"hydrogen-admin/internal/stream"
	"hydrogen-admin/internal/worker"
	"hydrogen-admin/internal/worker/processors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	events := stream.NewProducer(cfg.Brokers(), cfg.KafkaEventTopic)
	defer events.Close()

	processor := processors.NewCommandProcessor(processors.Deps{
		Sink:     events,
		Stores:   repository.NewStoreRepository(db.DB),
		Recorder: history.NewRecorder(repository.NewRunRepository(db.DB), logger),
		Shopify: func(store *models.Store) processors.Shopify {
			shopURL := cfg.ShopifyAdminURL
			if store != nil && store.StoreURL != "" {
				shopURL = store.StoreURL
			}
			return shopify.NewClient(shopURL, cfg.ShopifyAdminToken, cfg.ShopifyAPIVersion, logger, shopify.WithRateLimit(cfg.ShopifyRateLimit))
		},
		DataDir: cfg.DataDir,
	}, logger)

	// Initialize worker
	commands := stream.NewConsumer(cfg.Brokers(), cfg.KafkaCommandTopic, cfg.KafkaGroupID)
	w := worker.New(commands, processor, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker
	logger.Info("Starting worker...")
	go w.Start(ctx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	w.Stop()
}
