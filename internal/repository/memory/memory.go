// Package memory provides in-process repositories backing the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// TouchpointRepository keeps the touchpoint log in a map
type TouchpointRepository struct {
	mu          sync.RWMutex
	touchpoints map[string]domain.Touchpoint
}

// NewTouchpointRepository creates an empty touchpoint log
func NewTouchpointRepository() *TouchpointRepository {
	return &TouchpointRepository{touchpoints: make(map[string]domain.Touchpoint)}
}

func (r *TouchpointRepository) Insert(ctx context.Context, tp *domain.Touchpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchpoints[tp.ID] = *tp
	return nil
}

func (r *TouchpointRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Touchpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Touchpoint, 0, len(ids))
	for _, id := range ids {
		if tp, ok := r.touchpoints[id]; ok {
			result = append(result, tp)
		}
	}
	return result, nil
}

func (r *TouchpointRepository) List(ctx context.Context, query domain.TouchpointQuery) ([]domain.Touchpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var result []domain.Touchpoint
	for _, tp := range r.touchpoints {
		if matches(tp, query) {
			result = append(result, tp)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if query.Limit > 0 && len(result) > query.Limit {
		result = result[:query.Limit]
	}
	return result, nil
}

func matches(tp domain.Touchpoint, q domain.TouchpointQuery) bool {
	if tp.CustomerID != q.CustomerID {
		return false
	}
	if q.Category != "" && tp.Category != q.Category {
		return false
	}
	if !q.From.IsZero() && tp.CreatedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && tp.CreatedAt.After(q.To) {
		return false
	}
	return true
}

func (r *TouchpointRepository) InitSchema(context.Context) error { return nil }
func (r *TouchpointRepository) Ping(context.Context) error       { return nil }

// JourneyRepository keeps journey snapshots in a map with version checks
type JourneyRepository struct {
	mu       sync.Mutex
	journeys map[string]domain.JourneySnapshot
}

// NewJourneyRepository creates an empty journey repository
func NewJourneyRepository() *JourneyRepository {
	return &JourneyRepository{journeys: make(map[string]domain.JourneySnapshot)}
}

func (r *JourneyRepository) Load(ctx context.Context, customerID string) (domain.JourneySnapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.JourneySnapshot{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.journeys[customerID]
	if ok {
		s.Touchpoints = append([]string(nil), s.Touchpoints...)
	}
	return s, ok, nil
}

func (r *JourneyRepository) Save(ctx context.Context, s domain.JourneySnapshot, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.journeys[s.CustomerID]
	switch {
	case !ok && expectedVersion != 0:
		return 0, repository.ErrVersionConflict
	case ok && current.Version != expectedVersion:
		return 0, repository.ErrVersionConflict
	}

	s.Version = expectedVersion + 1
	s.Touchpoints = append([]string(nil), s.Touchpoints...)
	r.journeys[s.CustomerID] = s
	return s.Version, nil
}

func (r *JourneyRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, s := range r.journeys {
		if s.UpdatedAt.Before(cutoff) {
			delete(r.journeys, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *JourneyRepository) Ping(context.Context) error { return nil }

type resultKey struct {
	conversionID string
	model        domain.ModelKey
}

// ResultRepository keeps attribution results keyed by conversion and model
type ResultRepository struct {
	mu      sync.RWMutex
	results map[resultKey]domain.AttributionResult
}

// NewResultRepository creates an empty result repository
func NewResultRepository() *ResultRepository {
	return &ResultRepository{results: make(map[resultKey]domain.AttributionResult)}
}

func (r *ResultRepository) Upsert(ctx context.Context, result *domain.AttributionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[resultKey{result.ConversionID, result.Model}] = *result
	return nil
}

func (r *ResultRepository) GetByConversion(ctx context.Context, conversionID string) ([]domain.AttributionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []domain.AttributionResult
	for key, result := range r.results {
		if key.conversionID == conversionID {
			results = append(results, result)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Model < results[j].Model })
	return results, nil
}

func (r *ResultRepository) Ping(context.Context) error { return nil }
