// Package journey keeps the per-customer journey aggregate consistent under
// concurrent touchpoint and conversion writes.
package journey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// ErrTooManyConflicts is returned when a journey could not be saved within
// the configured number of compare-and-swap attempts
var ErrTooManyConflicts = errors.New("journey update kept conflicting")

// Store serializes journey mutations per customer. Inside one process a
// keyed mutex orders writers; across processes the repository version
// check rejects stale writes, which are then retried from a fresh read.
type Store struct {
	journeys    repository.JourneyRepository
	touchpoints repository.TouchpointRepository
	capacity    int
	maxRetries  int
	locks       *keyedMutex
	now         func() time.Time
	log         *zap.Logger
}

// NewStore creates a journey store holding at most capacity touchpoint ids
// per customer
func NewStore(
	journeys repository.JourneyRepository,
	touchpoints repository.TouchpointRepository,
	capacity, maxRetries int,
	log *zap.Logger,
) *Store {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Store{
		journeys:    journeys,
		touchpoints: touchpoints,
		capacity:    capacity,
		maxRetries:  maxRetries,
		locks:       newKeyedMutex(),
		now:         time.Now,
		log:         log,
	}
}

// Get returns the customer's journey. An unknown customer yields a fresh,
// unsaved journey.
func (s *Store) Get(ctx context.Context, customerID string) (*domain.Journey, error) {
	snapshot, found, err := s.journeys.Load(ctx, customerID)
	if err != nil {
		return nil, domain.NewStorageError("load journey", err)
	}
	if !found {
		return domain.NewJourney(customerID, s.capacity, s.now().UTC()), nil
	}
	return domain.RestoreJourney(snapshot, s.capacity), nil
}

// AppendTouchpoint adds a touchpoint id to the customer's journey
func (s *Store) AppendTouchpoint(ctx context.Context, customerID, touchpointID string) (*domain.Journey, error) {
	return s.update(ctx, customerID, func(j *domain.Journey, now time.Time) {
		j.AppendTouchpoint(touchpointID, now)
	})
}

// ApplyConversion records a conversion of the given value
func (s *Store) ApplyConversion(ctx context.Context, customerID string, value float64) (*domain.Journey, error) {
	return s.update(ctx, customerID, func(j *domain.Journey, now time.Time) {
		j.ApplyConversion(value, now)
	})
}

func (s *Store) update(ctx context.Context, customerID string, mutate func(*domain.Journey, time.Time)) (*domain.Journey, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		j, err := s.Get(ctx, customerID)
		if err != nil {
			return nil, err
		}

		expected := j.Version()
		mutate(j, s.now().UTC())

		snapshot := j.Snapshot()
		version, err := s.journeys.Save(ctx, snapshot, expected)
		if errors.Is(err, repository.ErrVersionConflict) {
			s.log.Debug("Journey version conflict, retrying",
				zap.String("customer_id", customerID),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, domain.NewStorageError("save journey", err)
		}

		snapshot.Version = version
		return domain.RestoreJourney(snapshot, s.capacity), nil
	}

	return nil, domain.NewStorageError("save journey",
		fmt.Errorf("%w after %d attempts for customer %s", ErrTooManyConflicts, s.maxRetries, customerID))
}

// Metrics returns the journey with derived summary figures. Duration spans
// the oldest retained and the newest touchpoint and needs one batched lookup.
func (s *Store) Metrics(ctx context.Context, customerID string) (*domain.Journey, domain.JourneyMetrics, error) {
	j, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, domain.JourneyMetrics{}, err
	}
	metrics, err := s.metrics(ctx, j)
	if err != nil {
		return nil, domain.JourneyMetrics{}, err
	}
	return j, metrics, nil
}

func (s *Store) metrics(ctx context.Context, j *domain.Journey) (domain.JourneyMetrics, error) {
	metrics := domain.JourneyMetrics{TouchpointCount: j.TouchpointCount()}

	if j.TouchpointCount() > 0 {
		metrics.ConversionRate = float64(j.ConversionCount()) / float64(j.TouchpointCount()) * 100
		metrics.AverageTouchpointValue = j.TotalValue() / float64(j.TouchpointCount())
	}

	ids := j.Touchpoints()
	if len(ids) < 2 {
		return metrics, nil
	}

	oldest, newest := ids[0], ids[len(ids)-1]
	tps, err := s.touchpoints.GetByIDs(ctx, []string{oldest, newest})
	if err != nil {
		return metrics, domain.NewStorageError("load touchpoints", err)
	}

	var first, last time.Time
	for _, tp := range tps {
		switch tp.ID {
		case oldest:
			first = tp.CreatedAt
		case newest:
			last = tp.CreatedAt
		}
	}
	if !first.IsZero() && !last.IsZero() && last.After(first) {
		metrics.Duration = last.Sub(first)
	}

	return metrics, nil
}

// ExpireBefore deletes journeys not updated since cutoff
func (s *Store) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.journeys.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, domain.NewStorageError("expire journeys", err)
	}
	if deleted > 0 {
		s.log.Info("Expired journeys", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}
