package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/app"
	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/consumer"
	"github.com/BarkinBalci/attribution-service/internal/journey"
	"github.com/BarkinBalci/attribution-service/internal/logger"
	"github.com/BarkinBalci/attribution-service/internal/queue/sqs"
	"github.com/BarkinBalci/attribution-service/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, "consumer")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting consumer service",
		zap.String("environment", cfg.Service.Environment),
		zap.Int("max_concurrency", cfg.Consumer.MaxConcurrency))

	ctx := context.Background()

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open stores", zap.Error(err))
	}
	defer stores.Close(ctx)

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	journeys := journey.NewStore(stores.Journeys, stores.Touchpoints,
		cfg.Attribution.MaxTouchpoints(), cfg.Journey.MaxCASRetries, log)

	conversionService := service.NewConversionService(
		sqsClient,
		journeys,
		stores.Touchpoints,
		attribution.NewDispatcher(cfg.Attribution),
		service.NewResultRecorder(stores.Results, log),
		stores.Claims,
		cfg.Attribution.Models(),
		log)

	// Initialize consumer
	c := consumer.NewConsumer(cfg, sqsClient, conversionService, log)

	// Start health check endpoint
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			for _, check := range stores.Checks {
				if err := check.Ping(r.Context()); err != nil {
					log.Warn("Health check failed", zap.String("component", check.Name), zap.Error(err))
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
			}
			w.WriteHeader(http.StatusOK)
		})

		addr := ":" + cfg.Consumer.HealthCheckPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	// Start consumer
	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info("Consumer starting", zap.Strings("models", modelNames(cfg)))

	done := make(chan error, 1)
	go func() {
		done <- c.Start(consumerCtx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("Shutting down consumer gracefully")
		cancel()
		if err := <-done; err != nil {
			log.Error("Consumer stopped with error", zap.Error(err))
		}
	case err := <-done:
		if err != nil {
			log.Error("Consumer error", zap.Error(err))
		}
	}
}

func modelNames(cfg *config.Config) []string {
	models := cfg.Attribution.Models()
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = string(m)
	}
	return names
}
