package journey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
	"github.com/BarkinBalci/attribution-service/internal/repository/memory"
)

func newTestStore(capacity int) (*Store, *memory.JourneyRepository, *memory.TouchpointRepository) {
	journeys := memory.NewJourneyRepository()
	touchpoints := memory.NewTouchpointRepository()
	return NewStore(journeys, touchpoints, capacity, 5, zap.NewNop()), journeys, touchpoints
}

// conflictingRepository reports a version conflict on the first n saves
type conflictingRepository struct {
	*memory.JourneyRepository
	mu        sync.Mutex
	conflicts int
	saves     int
}

func (r *conflictingRepository) Save(ctx context.Context, s domain.JourneySnapshot, expected int64) (int64, error) {
	r.mu.Lock()
	r.saves++
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return 0, repository.ErrVersionConflict
	}
	r.mu.Unlock()
	return r.JourneyRepository.Save(ctx, s, expected)
}

type failingRepository struct {
	*memory.JourneyRepository
}

func (failingRepository) Load(context.Context, string) (domain.JourneySnapshot, bool, error) {
	return domain.JourneySnapshot{}, false, errors.New("connection refused")
}

func TestStore_Get_UnknownCustomer(t *testing.T) {
	store, _, _ := newTestStore(50)

	j, err := store.Get(context.Background(), "new-customer")

	require.NoError(t, err)
	assert.Equal(t, "new-customer", j.CustomerID())
	assert.True(t, j.Empty())
	assert.Equal(t, domain.StageAwareness, j.Stage())
	assert.Equal(t, int64(0), j.TouchpointCount())
	assert.Equal(t, int64(0), j.Version())
}

func TestStore_Get_StorageError(t *testing.T) {
	store := NewStore(failingRepository{memory.NewJourneyRepository()}, memory.NewTouchpointRepository(), 50, 5, zap.NewNop())

	_, err := store.Get(context.Background(), "c1")

	assert.True(t, domain.IsStorage(err))
}

func TestStore_AppendTouchpoint_Eviction(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(50)

	for i := 1; i <= 60; i++ {
		_, err := store.AppendTouchpoint(ctx, "c1", fmt.Sprintf("tp-%d", i))
		require.NoError(t, err)
	}

	j, err := store.Get(ctx, "c1")
	require.NoError(t, err)

	ids := j.Touchpoints()
	assert.Len(t, ids, 50)
	assert.Equal(t, "tp-11", ids[0])
	assert.Equal(t, "tp-60", ids[49])
	assert.Equal(t, int64(60), j.TouchpointCount())
	assert.Equal(t, "tp-1", j.FirstTouchpoint())
	assert.Equal(t, "tp-60", j.LastTouchpoint())
	assert.Equal(t, int64(60), j.Version())
}

func TestStore_AppendTouchpoint_Concurrent(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(50)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.AppendTouchpoint(ctx, "c1", fmt.Sprintf("tp-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	j, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), j.TouchpointCount())
	assert.Len(t, j.Touchpoints(), 50)
	assert.Equal(t, 0, store.locks.size())
}

func TestStore_AppendTouchpoint_RetriesOnConflict(t *testing.T) {
	repo := &conflictingRepository{JourneyRepository: memory.NewJourneyRepository(), conflicts: 2}
	store := NewStore(repo, memory.NewTouchpointRepository(), 50, 5, zap.NewNop())

	j, err := store.AppendTouchpoint(context.Background(), "c1", "tp-1")

	require.NoError(t, err)
	assert.Equal(t, 3, repo.saves)
	assert.Equal(t, []string{"tp-1"}, j.Touchpoints())
	assert.Equal(t, int64(1), j.Version())
}

func TestStore_AppendTouchpoint_GivesUpAfterMaxRetries(t *testing.T) {
	repo := &conflictingRepository{JourneyRepository: memory.NewJourneyRepository(), conflicts: 10}
	store := NewStore(repo, memory.NewTouchpointRepository(), 50, 3, zap.NewNop())

	_, err := store.AppendTouchpoint(context.Background(), "c1", "tp-1")

	assert.True(t, domain.IsStorage(err))
	assert.ErrorIs(t, err, ErrTooManyConflicts)
	assert.Equal(t, 3, repo.saves)
}

func TestStore_ApplyConversion(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(50)

	_, err := store.AppendTouchpoint(ctx, "c1", "tp-1")
	require.NoError(t, err)

	j, err := store.ApplyConversion(ctx, "c1", 99.5)

	require.NoError(t, err)
	assert.Equal(t, int64(1), j.ConversionCount())
	assert.Equal(t, 99.5, j.TotalValue())
	assert.Equal(t, domain.StageConversion, j.Stage())
	assert.Equal(t, []string{"tp-1"}, j.Touchpoints())
}

func TestStore_Metrics(t *testing.T) {
	ctx := context.Background()
	store, _, touchpoints := newTestStore(50)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"tp-1", "tp-2", "tp-3", "tp-4"} {
		require.NoError(t, touchpoints.Insert(ctx, &domain.Touchpoint{ID: id, CustomerID: "c1", CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
		_, err := store.AppendTouchpoint(ctx, "c1", id)
		require.NoError(t, err)
	}
	_, err := store.ApplyConversion(ctx, "c1", 40)
	require.NoError(t, err)

	j, metrics, err := store.Metrics(ctx, "c1")

	require.NoError(t, err)
	assert.Equal(t, "c1", j.CustomerID())
	assert.Equal(t, int64(4), metrics.TouchpointCount)
	assert.Equal(t, 3*time.Hour, metrics.Duration)
	assert.InDelta(t, 25.0, metrics.ConversionRate, 1e-9)
	assert.InDelta(t, 10.0, metrics.AverageTouchpointValue, 1e-9)
}

func TestStore_Metrics_EmptyJourney(t *testing.T) {
	store, _, _ := newTestStore(50)

	_, metrics, err := store.Metrics(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Equal(t, domain.JourneyMetrics{}, metrics)
}

func TestStore_ExpireBefore(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(50)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return now.Add(-100 * 24 * time.Hour) }
	_, err := store.AppendTouchpoint(ctx, "stale", "tp-1")
	require.NoError(t, err)

	store.now = func() time.Time { return now }
	_, err = store.AppendTouchpoint(ctx, "fresh", "tp-2")
	require.NoError(t, err)

	deleted, err := store.ExpireBefore(ctx, now.Add(-90*24*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	j, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.True(t, j.Empty())
}
