package consumer

import (
	"context"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// MessageParser defines the interface for parsing raw message bytes into
// conversion events
type MessageParser interface {
	Parse(body []byte) (*domain.ConversionEvent, error)
}

// ConversionProcessor attributes a single conversion
type ConversionProcessor interface {
	Process(ctx context.Context, event *domain.ConversionEvent) error
}
