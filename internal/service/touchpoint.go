package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/enrichment"
	"github.com/BarkinBalci/attribution-service/internal/idempotency"
	"github.com/BarkinBalci/attribution-service/internal/identity"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// BulkError describes a rejected item of a bulk ingestion
type BulkError struct {
	Index int
	Err   error
}

// TouchpointService validates, enriches and stores touchpoints, then appends
// them to the customer's journey
type TouchpointService struct {
	resolver    *identity.Resolver
	enricher    *enrichment.Enricher
	touchpoints repository.TouchpointRepository
	journeys    JourneyStore
	claims      idempotency.Store
	now         func() time.Time
	log         *zap.Logger
}

// NewTouchpointService creates a new touchpoint service
func NewTouchpointService(
	resolver *identity.Resolver,
	enricher *enrichment.Enricher,
	touchpoints repository.TouchpointRepository,
	journeys JourneyStore,
	claims idempotency.Store,
	log *zap.Logger,
) *TouchpointService {
	return &TouchpointService{
		resolver:    resolver,
		enricher:    enricher,
		touchpoints: touchpoints,
		journeys:    journeys,
		claims:      claims,
		now:         time.Now,
		log:         log,
	}
}

// Ingest records one touchpoint and returns its id. A repeated event id
// returns the id of the first delivery without writing again.
func (s *TouchpointService) Ingest(ctx context.Context, raw *domain.RawTouchpoint) (string, error) {
	if err := raw.Validate(); err != nil {
		return "", err
	}

	customerID := raw.CustomerID
	if customerID == "" {
		customerID = s.resolver.Resolve(identity.Signals{
			AccountID:  raw.AccountID,
			SessionID:  raw.SessionID,
			RemoteAddr: raw.RemoteAddr,
			UserAgent:  raw.UserAgent,
			At:         s.now(),
		})
	}

	id := enrichment.TouchpointID(raw)
	tp := s.enricher.Enrich(raw, id, customerID)

	release := func() {}
	if raw.EventID != "" {
		key := idempotency.TouchpointKey(id)
		err := s.claims.Claim(ctx, key)
		if errors.Is(err, domain.ErrDuplicate) {
			s.log.Info("Duplicate touchpoint delivery ignored",
				zap.String("touchpoint_id", id),
				zap.String("event_id", raw.EventID))
			return id, nil
		}
		if err != nil {
			return "", domain.NewStorageError("claim touchpoint", err)
		}
		release = func() {
			if err := s.claims.Release(context.WithoutCancel(ctx), key); err != nil {
				s.log.Error("Failed to release touchpoint claim", zap.String("touchpoint_id", id), zap.Error(err))
			}
		}
	}

	if err := ctx.Err(); err != nil {
		release()
		return "", err
	}

	if err := s.touchpoints.Insert(ctx, &tp); err != nil {
		release()
		s.log.Error("Failed to store touchpoint",
			zap.String("touchpoint_id", id),
			zap.String("customer_id", customerID),
			zap.Error(err))
		return "", domain.NewStorageError("insert touchpoint", err)
	}

	if _, err := s.journeys.AppendTouchpoint(ctx, customerID, id); err != nil {
		release()
		s.log.Error("Failed to append touchpoint to journey",
			zap.String("touchpoint_id", id),
			zap.String("customer_id", customerID),
			zap.Error(err))
		return "", domain.NewStorageError("append journey", err)
	}

	s.log.Debug("Touchpoint ingested",
		zap.String("touchpoint_id", id),
		zap.String("customer_id", customerID),
		zap.String("category", string(tp.Category)),
		zap.Int("engagement_score", tp.Engagement.Score))

	return id, nil
}

// IngestBulk ingests each touchpoint independently
func (s *TouchpointService) IngestBulk(ctx context.Context, raws []domain.RawTouchpoint) ([]string, []BulkError) {
	var (
		ids    []string
		failed []BulkError
	)

	for i := range raws {
		id, err := s.Ingest(ctx, &raws[i])
		if err != nil {
			failed = append(failed, BulkError{Index: i, Err: err})
			s.log.Warn("Failed to ingest touchpoint in bulk",
				zap.Int("index", i),
				zap.String("type", raws[i].Type),
				zap.Error(err))
			continue
		}
		ids = append(ids, id)
	}

	return ids, failed
}

// ListTouchpoints returns a customer's stored touchpoints
func (s *TouchpointService) ListTouchpoints(ctx context.Context, query domain.TouchpointQuery) ([]domain.Touchpoint, error) {
	if query.CustomerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id"}
	}
	if query.Category != "" && !query.Category.Valid() {
		return nil, &domain.ValidationError{Field: "category", Reason: "unknown category " + string(query.Category)}
	}
	if !query.From.IsZero() && !query.To.IsZero() && query.From.After(query.To) {
		return nil, &domain.ValidationError{Field: "from", Reason: "must not be after to"}
	}

	switch {
	case query.Limit <= 0:
		query.Limit = defaultListLimit
	case query.Limit > maxListLimit:
		query.Limit = maxListLimit
	}

	tps, err := s.touchpoints.List(ctx, query)
	if err != nil {
		return nil, domain.NewStorageError("list touchpoints", err)
	}
	return tps, nil
}
