package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// ResultRepository implements repository.ResultRepository for ClickHouse.
// Rewrites of the same (conversion, model) are collapsed by the
// ReplacingMergeTree version column and reads use FINAL.
type ResultRepository struct {
	client *Client
	log    *zap.Logger
}

// NewResultRepository creates a new ClickHouse result repository
func NewResultRepository(client *Client, log *zap.Logger) *ResultRepository {
	return &ResultRepository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the attribution_results table
func (r *ResultRepository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS attribution_results (
		conversion_id String,
		model LowCardinality(String),
		customer_id String,
		conversion_value Float64,
		touchpoint_ids Array(String),
		channels Array(String),
		weights Array(Float64),
		attributed_values Array(Float64),
		generated_at DateTime64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	ORDER BY (conversion_id, model)
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create attribution_results table: %w", err)
	}

	r.log.Info("ClickHouse attribution_results schema initialized")
	return nil
}

// Upsert inserts a new row version for the result
func (r *ResultRepository) Upsert(ctx context.Context, result *domain.AttributionResult) error {
	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO attribution_results")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	err = batch.Append(
		result.ConversionID,
		string(result.Model),
		result.CustomerID,
		result.ConversionValue,
		nonNil(result.TouchpointIDs),
		nonNil(result.Channels),
		nonNil(result.Weights),
		nonNil(result.AttributedValues),
		result.GeneratedAt,
		uint64(time.Now().UnixNano()),
	)
	if err != nil {
		return fmt.Errorf("failed to append result to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// GetByConversion returns the latest result of every model for a conversion
func (r *ResultRepository) GetByConversion(ctx context.Context, conversionID string) ([]domain.AttributionResult, error) {
	query := `
		SELECT conversion_id, model, customer_id, conversion_value,
			touchpoint_ids, channels, weights, attributed_values, generated_at
		FROM attribution_results FINAL
		WHERE conversion_id = ?
		ORDER BY model
	`

	rows, err := r.client.Conn().Query(ctx, query, conversionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attribution results: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close attribution result rows", zap.Error(err))
		}
	}(rows)

	var results []domain.AttributionResult
	for rows.Next() {
		var (
			res   domain.AttributionResult
			model string
		)
		err := rows.Scan(
			&res.ConversionID,
			&model,
			&res.CustomerID,
			&res.ConversionValue,
			&res.TouchpointIDs,
			&res.Channels,
			&res.Weights,
			&res.AttributedValues,
			&res.GeneratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribution result row: %w", err)
		}
		res.Model = domain.ModelKey(model)
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attribution result rows: %w", err)
	}
	return results, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *ResultRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
