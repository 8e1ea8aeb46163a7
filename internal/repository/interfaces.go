package repository

import (
	"context"
	"errors"
	"time"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// ErrVersionConflict is returned by JourneyRepository.Save when the stored
// version no longer matches the expected one
var ErrVersionConflict = errors.New("journey version conflict")

// TouchpointRepository defines the storage operations of the touchpoint log
type TouchpointRepository interface {
	// Insert writes one enriched touchpoint. Touchpoints are never updated.
	Insert(ctx context.Context, tp *domain.Touchpoint) error

	// GetByIDs resolves a set of ids in a single query. Unknown ids are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Touchpoint, error)

	// List returns a customer's touchpoints ordered by creation time
	List(ctx context.Context, query domain.TouchpointQuery) ([]domain.Touchpoint, error)

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error
}

// JourneyRepository persists journey snapshots with optimistic concurrency
type JourneyRepository interface {
	// Load returns the stored snapshot and whether one exists
	Load(ctx context.Context, customerID string) (domain.JourneySnapshot, bool, error)

	// Save stores s if the current version equals expectedVersion (0 means
	// the journey must not exist yet) and returns the new version
	Save(ctx context.Context, s domain.JourneySnapshot, expectedVersion int64) (int64, error)

	// DeleteBefore removes journeys not updated since cutoff
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error
}

// ResultRepository persists attribution results keyed by (conversion, model)
type ResultRepository interface {
	// Upsert replaces any prior result for the same conversion and model
	Upsert(ctx context.Context, result *domain.AttributionResult) error

	// GetByConversion returns every stored model result of a conversion
	GetByConversion(ctx context.Context, conversionID string) ([]domain.AttributionResult, error)

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error
}
