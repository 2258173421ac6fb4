package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hydrogen-admin/internal/api"
	"hydrogen-admin/internal/api/handlers"
	"hydrogen-admin/internal/config"
	"hydrogen-admin/internal/database"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/services/registry"
	"hydrogen-admin/internal/stash"
	"hydrogen-admin/internal/stream"

	"github.com/google/uuid"
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

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Payload stash is optional; products sessions can carry publications inline
	var payloads handlers.PayloadStash
	if client, err := stash.Connect(ctx, cfg.RedisURL); err != nil {
		logger.Warn("Payload stash disabled: %v", err)
	} else {
		defer client.Close()
		payloads = stash.New(client, cfg.StashTTL)
	}

	// Commands go to the worker, events come back on their own topic. Every
	// API process reads all events with its own group.
	producer := stream.NewProducer(cfg.Brokers(), cfg.KafkaCommandTopic)
	defer producer.Close()

	hub := stream.NewHub(producer, logger, stream.Options{
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		SessionTTL:        cfg.SessionTTL,
	})
	groupID := cfg.KafkaGroupID + "-api-" + uuid.NewString()
	go func() {
		err := hub.Run(ctx, func(ctx context.Context) (stream.Source, error) {
			return stream.NewConsumer(cfg.Brokers(), cfg.KafkaEventTopic, groupID), nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event relay stopped: %v", err)
		}
	}()

	// Initialize API server
	server := api.New(cfg, logger, api.Deps{
		DB:       db,
		Hub:      hub,
		Stash:    payloads,
		Registry: registry.NewClient(cfg.StoreRegistryURL),
	})

	go func() {
		logger.Info("Starting API server on port " + cfg.APIPort)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	shutdown, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := server.Stop(shutdown); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
