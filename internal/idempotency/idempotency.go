// Package idempotency records which deliveries have already been applied.
package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Store claims delivery keys. Claim returns domain.ErrDuplicate when the key
// was already claimed and not released.
type Store interface {
	Claim(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

// TouchpointKey is the claim key of a touchpoint delivery
func TouchpointKey(touchpointID string) string {
	return "touchpoint:" + touchpointID
}

// ConversionKey is the claim key of a conversion application
func ConversionKey(conversionID string) string {
	return "conversion:" + conversionID
}

// Noop never reports duplicates. Used when idempotency is disabled.
type Noop struct{}

func (Noop) Claim(context.Context, string) error   { return nil }
func (Noop) Release(context.Context, string) error { return nil }

// MemoryStore keeps claims in process memory with an expiry
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	claims map[string]time.Time
}

// NewMemoryStore creates an in-process store. A non-positive ttl keeps
// claims forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		claims: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Claim(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expires, ok := s.claims[key]; ok && (expires.IsZero() || now.Before(expires)) {
		return domain.ErrDuplicate
	}

	var expires time.Time
	if s.ttl > 0 {
		expires = now.Add(s.ttl)
	}
	s.claims[key] = expires
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, key)
	return nil
}
