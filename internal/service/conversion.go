package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/idempotency"
	"github.com/BarkinBalci/attribution-service/internal/queue"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// ConversionService attributes conversions across the customer's journey
type ConversionService struct {
	publisher   queue.ConversionPublisher
	journeys    JourneyStore
	touchpoints repository.TouchpointRepository
	dispatcher  *attribution.Dispatcher
	recorder    Recorder
	claims      idempotency.Store
	models      []domain.ModelKey
	now         func() time.Time
	log         *zap.Logger
}

// NewConversionService creates a conversion service computing the given models
func NewConversionService(
	publisher queue.ConversionPublisher,
	journeys JourneyStore,
	touchpoints repository.TouchpointRepository,
	dispatcher *attribution.Dispatcher,
	recorder Recorder,
	claims idempotency.Store,
	models []domain.ModelKey,
	log *zap.Logger,
) *ConversionService {
	return &ConversionService{
		publisher:   publisher,
		journeys:    journeys,
		touchpoints: touchpoints,
		dispatcher:  dispatcher,
		recorder:    recorder,
		claims:      claims,
		models:      models,
		now:         time.Now,
		log:         log,
	}
}

func validateConversion(event *domain.ConversionEvent) error {
	if event.ConversionID == "" {
		return &domain.ValidationError{Field: "conversion_id"}
	}
	if event.CustomerID == "" {
		return &domain.ValidationError{Field: "customer_id"}
	}
	if event.ConversionValue < 0 {
		return &domain.ValidationError{Field: "conversion_value", Reason: "must not be negative"}
	}
	return nil
}

// Publish validates a conversion and queues it for attribution
func (s *ConversionService) Publish(ctx context.Context, event *domain.ConversionEvent) error {
	if err := validateConversion(event); err != nil {
		return err
	}
	if event.ConversionDate == 0 {
		event.ConversionDate = s.now().Unix()
	}

	if err := s.publisher.PublishConversion(ctx, event); err != nil {
		return domain.NewStorageError("publish conversion", err)
	}
	return nil
}

// Process attributes a conversion under every configured model, records
// the results and applies the conversion to the journey. A redelivered
// conversion rewrites the same results and is applied only once.
func (s *ConversionService) Process(ctx context.Context, event *domain.ConversionEvent) error {
	if err := validateConversion(event); err != nil {
		return err
	}

	log := s.log.With(
		zap.String("conversion_id", event.ConversionID),
		zap.String("customer_id", event.CustomerID))

	j, err := s.journeys.Get(ctx, event.CustomerID)
	if err != nil {
		return err
	}

	tps, err := s.resolveTouchpoints(ctx, j.Touchpoints())
	if err != nil {
		return err
	}
	tps = occurredBy(tps, event.ConversionDate)

	// Recording runs before the claim so a redelivery after a failed apply
	// still rewrites complete results. The sequence is bounded by the
	// conversion date, so a later delivery yields the same touchpoints.
	if len(tps) == 0 {
		log.Info("Conversion without touchpoints, nothing to attribute")
	} else if err := s.recordAll(ctx, event, tps); err != nil {
		return err
	}

	key := idempotency.ConversionKey(event.ConversionID)
	err = s.claims.Claim(ctx, key)
	if errors.Is(err, domain.ErrDuplicate) {
		log.Info("Conversion already applied to journey")
		return nil
	}
	if err != nil {
		return domain.NewStorageError("claim conversion", err)
	}

	if _, err := s.journeys.ApplyConversion(ctx, event.CustomerID, event.ConversionValue); err != nil {
		if releaseErr := s.claims.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			log.Error("Failed to release conversion claim", zap.Error(releaseErr))
		}
		return err
	}

	log.Info("Conversion attributed",
		zap.Int("touchpoints", len(tps)),
		zap.Int("models", len(s.models)),
		zap.Float64("conversion_value", event.ConversionValue))
	return nil
}

func (s *ConversionService) recordAll(ctx context.Context, event *domain.ConversionEvent, tps []domain.Touchpoint) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, model := range s.models {
		g.Go(func() error {
			result, err := s.compute(event.ConversionID, event.CustomerID, model, event.ConversionValue, tps)
			if err != nil {
				return err
			}
			return s.recorder.Record(gctx, result)
		})
	}
	return g.Wait()
}

func (s *ConversionService) compute(conversionID, customerID string, model domain.ModelKey, value float64, tps []domain.Touchpoint) (*domain.AttributionResult, error) {
	alloc, err := s.dispatcher.Compute(tps, model, value)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(tps))
	channels := make([]string, len(tps))
	for i, tp := range tps {
		ids[i] = tp.ID
		channels[i] = tp.Channel
	}

	return &domain.AttributionResult{
		ConversionID:     conversionID,
		CustomerID:       customerID,
		Model:            model,
		ConversionValue:  value,
		TouchpointIDs:    ids,
		Channels:         channels,
		Weights:          alloc.Weights,
		AttributedValues: alloc.AttributedValues,
		GeneratedAt:      s.now().UTC(),
	}, nil
}

// resolveTouchpoints loads the journey's touchpoints with one batched read
// and orders them by creation time, keeping journey order for ties.
// Touchpoints no longer in the log are skipped.
func (s *ConversionService) resolveTouchpoints(ctx context.Context, ids []string) ([]domain.Touchpoint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.touchpoints.GetByIDs(ctx, ids)
	if err != nil {
		return nil, domain.NewStorageError("load touchpoints", err)
	}

	byID := make(map[string]domain.Touchpoint, len(found))
	for _, tp := range found {
		byID[tp.ID] = tp
	}

	tps := make([]domain.Touchpoint, 0, len(found))
	for _, id := range ids {
		if tp, ok := byID[id]; ok {
			tps = append(tps, tp)
		}
	}

	sort.SliceStable(tps, func(i, j int) bool {
		return tps[i].CreatedAt.Before(tps[j].CreatedAt)
	})
	return tps, nil
}

// occurredBy drops touchpoints whose event time is after the conversion.
// A zero conversion date keeps every touchpoint.
func occurredBy(tps []domain.Touchpoint, conversionDate int64) []domain.Touchpoint {
	if conversionDate == 0 {
		return tps
	}
	kept := tps[:0]
	for _, tp := range tps {
		if tp.Timestamp <= conversionDate {
			kept = append(kept, tp)
		}
	}
	return kept
}

// Attribution returns every recorded model result for a conversion
func (s *ConversionService) Attribution(ctx context.Context, conversionID string) ([]domain.AttributionResult, error) {
	if conversionID == "" {
		return nil, &domain.ValidationError{Field: "conversion_id"}
	}
	return s.recorder.Get(ctx, conversionID)
}

// Preview computes one model over the customer's current journey without
// recording anything
func (s *ConversionService) Preview(ctx context.Context, customerID string, model domain.ModelKey, value float64) (*domain.AttributionResult, error) {
	if customerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id"}
	}
	if value < 0 {
		return nil, &domain.ValidationError{Field: "conversion_value", Reason: "must not be negative"}
	}
	if _, err := s.dispatcher.Model(model); err != nil {
		return nil, err
	}

	j, err := s.journeys.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	tps, err := s.resolveTouchpoints(ctx, j.Touchpoints())
	if err != nil {
		return nil, err
	}

	return s.compute("", customerID, model, value, tps)
}
