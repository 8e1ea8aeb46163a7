package service

import (
	"context"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// TouchpointServicer defines the interface for touchpoint ingestion and reads
type TouchpointServicer interface {
	Ingest(ctx context.Context, raw *domain.RawTouchpoint) (string, error)
	IngestBulk(ctx context.Context, raws []domain.RawTouchpoint) ([]string, []BulkError)
	ListTouchpoints(ctx context.Context, query domain.TouchpointQuery) ([]domain.Touchpoint, error)
}

// JourneyServicer defines the interface for journey reads
type JourneyServicer interface {
	Metrics(ctx context.Context, customerID string) (*domain.Journey, domain.JourneyMetrics, error)
}

// ConversionServicer defines the interface for conversion handling
type ConversionServicer interface {
	Publish(ctx context.Context, event *domain.ConversionEvent) error
	Process(ctx context.Context, event *domain.ConversionEvent) error
	Attribution(ctx context.Context, conversionID string) ([]domain.AttributionResult, error)
	Preview(ctx context.Context, customerID string, model domain.ModelKey, value float64) (*domain.AttributionResult, error)
}

// JourneyStore is the journey state the services read and mutate
type JourneyStore interface {
	Get(ctx context.Context, customerID string) (*domain.Journey, error)
	AppendTouchpoint(ctx context.Context, customerID, touchpointID string) (*domain.Journey, error)
	ApplyConversion(ctx context.Context, customerID string, value float64) (*domain.Journey, error)
}

// Recorder stores and reads attribution results
type Recorder interface {
	Record(ctx context.Context, result *domain.AttributionResult) error
	Get(ctx context.Context, conversionID string) ([]domain.AttributionResult, error)
}
