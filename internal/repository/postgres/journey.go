package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// JourneyRepository implements repository.JourneyRepository on Postgres.
// Every save is a compare-and-swap on the version column.
type JourneyRepository struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewJourneyRepository opens a connection pool and verifies it
func NewJourneyRepository(ctx context.Context, cfg *config.Postgres, log *zap.Logger) (*JourneyRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Info("Postgres connection established", zap.Int32("maxConns", poolConfig.MaxConns))

	return &JourneyRepository{pool: pool, log: log}, nil
}

// InitSchema creates the customer_journeys table
func (r *JourneyRepository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS customer_journeys (
		customer_id TEXT PRIMARY KEY,
		touchpoints TEXT[] NOT NULL DEFAULT '{}',
		first_touchpoint TEXT NOT NULL DEFAULT '',
		last_touchpoint TEXT NOT NULL DEFAULT '',
		touchpoint_count BIGINT NOT NULL DEFAULT 0,
		total_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		conversion_count BIGINT NOT NULL DEFAULT 0,
		stage TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		version BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_customer_journeys_updated_at ON customer_journeys (updated_at);
	`

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create customer_journeys table: %w", err)
	}

	r.log.Info("Postgres journey schema initialized")
	return nil
}

// Load returns the stored journey snapshot if any
func (r *JourneyRepository) Load(ctx context.Context, customerID string) (domain.JourneySnapshot, bool, error) {
	query := `
		SELECT customer_id, touchpoints, first_touchpoint, last_touchpoint, touchpoint_count,
			total_value, conversion_count, stage, created_at, updated_at, version
		FROM customer_journeys
		WHERE customer_id = $1
	`

	var (
		s     domain.JourneySnapshot
		stage string
	)
	err := r.pool.QueryRow(ctx, query, customerID).Scan(
		&s.CustomerID,
		&s.Touchpoints,
		&s.FirstTouchpoint,
		&s.LastTouchpoint,
		&s.TouchpointCount,
		&s.TotalValue,
		&s.ConversionCount,
		&stage,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.JourneySnapshot{}, false, nil
	}
	if err != nil {
		return domain.JourneySnapshot{}, false, fmt.Errorf("failed to load journey: %w", err)
	}

	s.Stage = domain.Stage(stage)
	return s, true, nil
}

// Save inserts a new journey when expectedVersion is 0, otherwise updates
// the row only if its version still equals expectedVersion
func (r *JourneyRepository) Save(ctx context.Context, s domain.JourneySnapshot, expectedVersion int64) (int64, error) {
	next := expectedVersion + 1
	touchpoints := s.Touchpoints
	if touchpoints == nil {
		touchpoints = []string{}
	}

	var (
		query string
		args  []any
	)
	if expectedVersion == 0 {
		query = `
			INSERT INTO customer_journeys (customer_id, touchpoints, first_touchpoint, last_touchpoint,
				touchpoint_count, total_value, conversion_count, stage, created_at, updated_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (customer_id) DO NOTHING
		`
		args = []any{s.CustomerID, touchpoints, s.FirstTouchpoint, s.LastTouchpoint, s.TouchpointCount,
			s.TotalValue, s.ConversionCount, string(s.Stage), s.CreatedAt, s.UpdatedAt, next}
	} else {
		query = `
			UPDATE customer_journeys
			SET touchpoints = $2, first_touchpoint = $3, last_touchpoint = $4, touchpoint_count = $5,
				total_value = $6, conversion_count = $7, stage = $8, updated_at = $9, version = $10
			WHERE customer_id = $1 AND version = $11
		`
		args = []any{s.CustomerID, touchpoints, s.FirstTouchpoint, s.LastTouchpoint, s.TouchpointCount,
			s.TotalValue, s.ConversionCount, string(s.Stage), s.UpdatedAt, next, expectedVersion}
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to save journey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, repository.ErrVersionConflict
	}
	return next, nil
}

// DeleteBefore removes journeys whose last update is older than cutoff
func (r *JourneyRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM customer_journeys WHERE updated_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired journeys: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks if the Postgres connection is alive
func (r *JourneyRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool
func (r *JourneyRepository) Close() {
	r.log.Info("Closing Postgres connection pool")
	r.pool.Close()
}
