package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// ResultRecorder persists attribution results. Recording the same
// (conversion, model) twice leaves a single result.
type ResultRecorder struct {
	results repository.ResultRepository
	log     *zap.Logger
}

// NewResultRecorder creates a recorder on top of a result repository
func NewResultRecorder(results repository.ResultRepository, log *zap.Logger) *ResultRecorder {
	return &ResultRecorder{results: results, log: log}
}

// Record upserts result
func (r *ResultRecorder) Record(ctx context.Context, result *domain.AttributionResult) error {
	if err := r.results.Upsert(ctx, result); err != nil {
		r.log.Error("Failed to record attribution result",
			zap.String("conversion_id", result.ConversionID),
			zap.String("model", string(result.Model)),
			zap.Error(err))
		return domain.NewStorageError("record attribution", err)
	}
	return nil
}

// Get returns every recorded model result for a conversion
func (r *ResultRecorder) Get(ctx context.Context, conversionID string) ([]domain.AttributionResult, error) {
	results, err := r.results.GetByConversion(ctx, conversionID)
	if err != nil {
		return nil, domain.NewStorageError("read attribution", err)
	}
	return results, nil
}
