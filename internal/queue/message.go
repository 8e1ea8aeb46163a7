package queue

import "github.com/BarkinBalci/attribution-service/internal/domain"

// ConversionMessage is the queue body of a "conversion completed" event
type ConversionMessage struct {
	ConversionID    string  `json:"conversion_id"`
	CustomerID      string  `json:"customer_id"`
	ConversionValue float64 `json:"conversion_value"`
	ConversionDate  int64   `json:"conversion_date"`
}

// NewConversionMessage converts a domain event to its queue body
func NewConversionMessage(e *domain.ConversionEvent) ConversionMessage {
	return ConversionMessage{
		ConversionID:    e.ConversionID,
		CustomerID:      e.CustomerID,
		ConversionValue: e.ConversionValue,
		ConversionDate:  e.ConversionDate,
	}
}

// Event converts the queue body back to a domain event
func (m ConversionMessage) Event() domain.ConversionEvent {
	return domain.ConversionEvent{
		ConversionID:    m.ConversionID,
		CustomerID:      m.CustomerID,
		ConversionValue: m.ConversionValue,
		ConversionDate:  m.ConversionDate,
	}
}
