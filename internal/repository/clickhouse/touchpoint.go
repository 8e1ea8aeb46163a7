package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

const touchpointColumns = `touchpoint_id, customer_id, session_id, touchpoint_type, channel, category, timestamp,
	time_on_page, scroll_depth, click_count, interaction_type, engagement_score, value,
	utm_source, utm_medium, utm_campaign, utm_content, utm_term,
	referrer, landing_page, ip_address, user_agent, created_at`

// TouchpointRepository implements repository.TouchpointRepository for ClickHouse
type TouchpointRepository struct {
	client     *Client
	windowDays int
	log        *zap.Logger
}

// NewTouchpointRepository creates the touchpoint log. Rows expire windowDays
// after creation.
func NewTouchpointRepository(client *Client, windowDays int, log *zap.Logger) *TouchpointRepository {
	return &TouchpointRepository{
		client:     client,
		windowDays: windowDays,
		log:        log,
	}
}

// touchpointsTableDDL keys rows on (customer_id, touchpoint_id) and
// partitions by event time, so a retried delivery of the same event lands
// in the same part key and collapses on merge or under FINAL. created_at
// changes between deliveries and is only indexed for range scans.
func touchpointsTableDDL(windowDays int) string {
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS touchpoints (
		touchpoint_id String,
		customer_id String,
		session_id String,
		touchpoint_type LowCardinality(String),
		channel LowCardinality(String),
		category LowCardinality(String),
		timestamp Int64,
		time_on_page Float64,
		scroll_depth Float64,
		click_count Int32,
		interaction_type LowCardinality(String),
		engagement_score Int32,
		value Float64,
		utm_source String,
		utm_medium String,
		utm_campaign String,
		utm_content String,
		utm_term String,
		referrer String,
		landing_page String,
		ip_address String,
		user_agent String,
		created_at DateTime64(3),
		INDEX idx_touchpoint_id touchpoint_id TYPE bloom_filter GRANULARITY 4,
		INDEX idx_category category TYPE set(8) GRANULARITY 4,
		INDEX idx_created_at created_at TYPE minmax GRANULARITY 1
	) ENGINE = ReplacingMergeTree(created_at)
	ORDER BY (customer_id, touchpoint_id)
	PARTITION BY toYYYYMM(toDateTime(timestamp))
	TTL toDateTime(created_at) + INTERVAL %d DAY
	SETTINGS index_granularity = 8192
	`, windowDays)
}

// InitSchema creates the touchpoints table with ReplacingMergeTree engine
func (r *TouchpointRepository) InitSchema(ctx context.Context) error {
	query := touchpointsTableDDL(r.windowDays)

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create touchpoints table: %w", err)
	}

	r.log.Info("ClickHouse touchpoints schema initialized", zap.Int("ttlDays", r.windowDays))
	return nil
}

// Insert writes a single touchpoint
func (r *TouchpointRepository) Insert(ctx context.Context, tp *domain.Touchpoint) error {
	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO touchpoints")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	err = batch.Append(
		tp.ID,
		tp.CustomerID,
		tp.SessionID,
		tp.Type,
		tp.Channel,
		string(tp.Category),
		tp.Timestamp,
		tp.Engagement.TimeOnPage,
		tp.Engagement.ScrollDepth,
		int32(tp.Engagement.ClickCount),
		tp.Engagement.InteractionType,
		int32(tp.Engagement.Score),
		tp.Value,
		tp.UTM.Source,
		tp.UTM.Medium,
		tp.UTM.Campaign,
		tp.UTM.Content,
		tp.UTM.Term,
		tp.Referrer,
		tp.LandingPage,
		tp.IPAddress,
		tp.UserAgent,
		tp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append touchpoint to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// GetByIDs resolves ids with one IN query
func (r *TouchpointRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Touchpoint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := "SELECT " + touchpointColumns + " FROM touchpoints FINAL WHERE touchpoint_id IN (?)"
	rows, err := r.client.Conn().Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query touchpoints by id: %w", err)
	}
	return r.scanTouchpoints(rows)
}

// List returns a customer's touchpoints ordered by creation time
func (r *TouchpointRepository) List(ctx context.Context, q domain.TouchpointQuery) ([]domain.Touchpoint, error) {
	conditions := []string{"customer_id = ?"}
	args := []any{q.CustomerID}

	if q.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, string(q.Category))
	}
	if !q.From.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, q.From)
	}
	if !q.To.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, q.To)
	}

	query := fmt.Sprintf("SELECT %s FROM touchpoints FINAL WHERE %s ORDER BY created_at, touchpoint_id",
		touchpointColumns, strings.Join(conditions, " AND "))
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query touchpoints: %w", err)
	}
	return r.scanTouchpoints(rows)
}

func (r *TouchpointRepository) scanTouchpoints(rows driver.Rows) ([]domain.Touchpoint, error) {
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close touchpoint rows", zap.Error(err))
		}
	}(rows)

	var result []domain.Touchpoint
	for rows.Next() {
		var (
			tp       domain.Touchpoint
			category string
			clicks   int32
			score    int32
		)
		err := rows.Scan(
			&tp.ID,
			&tp.CustomerID,
			&tp.SessionID,
			&tp.Type,
			&tp.Channel,
			&category,
			&tp.Timestamp,
			&tp.Engagement.TimeOnPage,
			&tp.Engagement.ScrollDepth,
			&clicks,
			&tp.Engagement.InteractionType,
			&score,
			&tp.Value,
			&tp.UTM.Source,
			&tp.UTM.Medium,
			&tp.UTM.Campaign,
			&tp.UTM.Content,
			&tp.UTM.Term,
			&tp.Referrer,
			&tp.LandingPage,
			&tp.IPAddress,
			&tp.UserAgent,
			&tp.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan touchpoint row: %w", err)
		}
		tp.Category = domain.Category(category)
		tp.Engagement.ClickCount = int(clicks)
		tp.Engagement.Score = int(score)
		result = append(result, tp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating touchpoint rows: %w", err)
	}
	return result, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *TouchpointRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
