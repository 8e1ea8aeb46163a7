package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/docs"
	"github.com/BarkinBalci/attribution-service/internal/app"
	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/enrichment"
	"github.com/BarkinBalci/attribution-service/internal/handler"
	"github.com/BarkinBalci/attribution-service/internal/identity"
	"github.com/BarkinBalci/attribution-service/internal/journey"
	"github.com/BarkinBalci/attribution-service/internal/logger"
	"github.com/BarkinBalci/attribution-service/internal/queue/sqs"
	"github.com/BarkinBalci/attribution-service/internal/service"
)

const shutdownTimeout = 15 * time.Second

// @title Attribution Service API
// @version 1.0
// @description API for ingesting touchpoints and attributing conversions across customer journeys
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort),
		zap.Int("max_touchpoints_per_journey", cfg.Attribution.MaxTouchpoints()),
		zap.Int("journey_window_days", cfg.Attribution.JourneyWindowDays()))

	// Configure Swagger host dynamically
	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open stores", zap.Error(err))
	}
	defer stores.Close(context.Background())

	journeys := journey.NewStore(stores.Journeys, stores.Touchpoints,
		cfg.Attribution.MaxTouchpoints(), cfg.Journey.MaxCASRetries, log)

	touchpointService := service.NewTouchpointService(
		identity.NewResolver(cfg.Identity.AnonWindow),
		enrichment.NewEnricher(cfg.Attribution),
		stores.Touchpoints,
		journeys,
		stores.Claims,
		log)

	conversionService := service.NewConversionService(
		sqsClient,
		journeys,
		stores.Touchpoints,
		attribution.NewDispatcher(cfg.Attribution),
		service.NewResultRecorder(stores.Results, log),
		stores.Claims,
		cfg.Attribution.Models(),
		log)

	h := handler.NewHandler(touchpointService, journeys, conversionService, log, stores.Checks...)

	go runJanitor(ctx, journeys, cfg, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down API service gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}
}

// runJanitor drops journeys idle for longer than the journey window
func runJanitor(ctx context.Context, journeys *journey.Store, cfg *config.Config, log *zap.Logger) {
	window := time.Duration(cfg.Attribution.JourneyWindowDays()) * 24 * time.Hour
	ticker := time.NewTicker(cfg.Journey.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := journeys.ExpireBefore(ctx, time.Now().Add(-window)); err != nil {
				log.Error("Failed to expire journeys", zap.Error(err))
			}
		}
	}
}
