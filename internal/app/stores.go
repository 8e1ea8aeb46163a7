// Package app opens the durable stores shared by the API and the consumer.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/handler"
	"github.com/BarkinBalci/attribution-service/internal/idempotency"
	"github.com/BarkinBalci/attribution-service/internal/idempotency/valkey"
	"github.com/BarkinBalci/attribution-service/internal/repository"
	"github.com/BarkinBalci/attribution-service/internal/repository/clickhouse"
	"github.com/BarkinBalci/attribution-service/internal/repository/mongo"
	"github.com/BarkinBalci/attribution-service/internal/repository/postgres"
)

const (
	ResultStoreClickHouse = "clickhouse"
	ResultStoreMongo      = "mongo"
)

// Stores bundles the repositories and the claim store with their health
// probes
type Stores struct {
	Touchpoints repository.TouchpointRepository
	Journeys    repository.JourneyRepository
	Results     repository.ResultRepository
	Claims      idempotency.Store
	Checks      []handler.HealthCheck

	closers []func(ctx context.Context)
	log     *zap.Logger
}

// OpenStores connects every configured store and creates missing schema.
// On error, whatever was already opened is closed.
func OpenStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stores, error) {
	s := &Stores{log: log}
	opened := false
	defer func() {
		if !opened {
			s.Close(ctx)
		}
	}()

	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create ClickHouse client: %w", err)
	}
	s.addCloser("clickhouse", func(context.Context) error { return chClient.Close() })
	s.Checks = append(s.Checks, handler.HealthCheck{Name: "clickhouse", Ping: chClient.Ping})

	touchpoints := clickhouse.NewTouchpointRepository(chClient, cfg.Attribution.JourneyWindowDays(), log)
	if err := touchpoints.InitSchema(ctx); err != nil {
		return nil, err
	}
	s.Touchpoints = touchpoints

	journeys, err := postgres.NewJourneyRepository(ctx, &cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create Postgres journey repository: %w", err)
	}
	s.addCloser("postgres", func(context.Context) error { journeys.Close(); return nil })
	s.Checks = append(s.Checks, handler.HealthCheck{Name: "postgres", Ping: journeys.Ping})
	if err := journeys.InitSchema(ctx); err != nil {
		return nil, err
	}
	s.Journeys = journeys

	switch cfg.Service.ResultStore {
	case ResultStoreClickHouse:
		results := clickhouse.NewResultRepository(chClient, log)
		if err := results.InitSchema(ctx); err != nil {
			return nil, err
		}
		s.Results = results
	case ResultStoreMongo:
		results, err := mongo.NewResultRepository(ctx, &cfg.Mongo, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Mongo result repository: %w", err)
		}
		s.addCloser("mongo", results.Close)
		s.Checks = append(s.Checks, handler.HealthCheck{Name: "mongo", Ping: results.Ping})
		if err := results.InitSchema(ctx); err != nil {
			return nil, err
		}
		s.Results = results
	default:
		return nil, fmt.Errorf("unknown result store %q", cfg.Service.ResultStore)
	}

	if !cfg.Valkey.IdempotencyEnabled {
		log.Warn("Idempotency disabled, redelivered events may be applied twice")
		s.Claims = idempotency.Noop{}
	} else {
		claims, err := valkey.NewStore(ctx, &cfg.Valkey, log)
		if err != nil {
			return nil, err
		}
		s.addCloser("valkey", func(context.Context) error { return claims.Close() })
		s.Checks = append(s.Checks, handler.HealthCheck{Name: "valkey", Ping: claims.Ping})
		s.Claims = claims
	}

	log.Info("Stores initialized",
		zap.String("result_store", cfg.Service.ResultStore),
		zap.Bool("idempotency", cfg.Valkey.IdempotencyEnabled))

	opened = true
	return s, nil
}

func (s *Stores) addCloser(name string, closeFn func(ctx context.Context) error) {
	s.closers = append(s.closers, func(ctx context.Context) {
		if err := closeFn(ctx); err != nil {
			s.log.Error("Failed to close store", zap.String("store", name), zap.Error(err))
		}
	})
}

// Close releases every store in reverse opening order
func (s *Stores) Close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i](ctx)
	}
	s.closers = nil
}
