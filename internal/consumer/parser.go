package consumer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/queue"
)

// JSONConversionParser implements MessageParser for JSON conversion messages
type JSONConversionParser struct{}

// NewJSONConversionParser creates a new JSON conversion parser
func NewJSONConversionParser() *JSONConversionParser {
	return &JSONConversionParser{}
}

// Parse decodes a message body. Messages without a conversion or customer
// id can never be processed and are rejected here.
func (p *JSONConversionParser) Parse(body []byte) (*domain.ConversionEvent, error) {
	var msg queue.ConversionMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	if msg.ConversionID == "" {
		return nil, errors.New("message has no conversion_id")
	}
	if msg.CustomerID == "" {
		return nil, errors.New("message has no customer_id")
	}

	event := msg.Event()
	return &event, nil
}
