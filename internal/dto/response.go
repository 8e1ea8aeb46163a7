package dto

import "time"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"channel is required"`
}

// IngestTouchpointResponse represents a successful touchpoint ingestion response
type IngestTouchpointResponse struct {
	TouchpointID string `json:"touchpoint_id" example:"tp_3f2a9c41d0b7e65a8c1d2e3f4a5b6c7d"`
	Status       string `json:"status" example:"created"`
}

// BulkItemError describes a rejected item of a bulk request
type BulkItemError struct {
	Index   int    `json:"index" example:"3"`
	Message string `json:"message" example:"timestamp is required"`
}

// IngestTouchpointsBulkResponse represents the outcome of a bulk ingestion
type IngestTouchpointsBulkResponse struct {
	Accepted      int             `json:"accepted" example:"5"`
	Rejected      int             `json:"rejected" example:"0"`
	TouchpointIDs []string        `json:"touchpoint_ids,omitempty" example:"tp_1,tp_2,tp_3"`
	Errors        []BulkItemError `json:"errors,omitempty"`
}

// EngagementData represents the engagement of a stored touchpoint
type EngagementData struct {
	TimeOnPage      float64 `json:"time_on_page" example:"95"`
	ScrollDepth     float64 `json:"scroll_depth" example:"80"`
	ClickCount      int     `json:"click_count" example:"3"`
	InteractionType string  `json:"interaction_type" example:"active"`
	Score           int     `json:"score" example:"85"`
}

// TouchpointData represents a stored, enriched touchpoint
type TouchpointData struct {
	TouchpointID string         `json:"touchpoint_id" example:"tp_3f2a9c41d0b7e65a8c1d2e3f4a5b6c7d"`
	CustomerID   string         `json:"customer_id" example:"user_123"`
	SessionID    string         `json:"session_id,omitempty" example:"sess_abc"`
	Type         string         `json:"type" example:"ad_click"`
	Channel      string         `json:"channel" example:"paid_search"`
	Category     string         `json:"category" example:"awareness"`
	Timestamp    int64          `json:"timestamp" example:"1723475612"`
	Engagement   EngagementData `json:"engagement"`
	Value        float64        `json:"value" example:"0"`
	UTM          UTMRequest     `json:"utm"`
	Referrer     string         `json:"referrer,omitempty" example:"https://www.google.com/"`
	LandingPage  string         `json:"landing_page,omitempty" example:"https://shop.example.com/"`
	CreatedAt    time.Time      `json:"created_at" example:"2024-08-12T15:13:32Z"`
}

// ListTouchpointsResponse represents a customer's touchpoint log
type ListTouchpointsResponse struct {
	CustomerID  string           `json:"customer_id" example:"user_123"`
	Count       int              `json:"count" example:"2"`
	Touchpoints []TouchpointData `json:"touchpoints"`
}

// JourneyMetricsData represents the derived figures of a journey
type JourneyMetricsData struct {
	TouchpointCount        int64   `json:"touchpoint_count" example:"7"`
	DurationSeconds        float64 `json:"duration_seconds" example:"86400"`
	ConversionRate         float64 `json:"conversion_rate" example:"14.285714"`
	AverageTouchpointValue float64 `json:"average_touchpoint_value" example:"14.28"`
}

// JourneyResponse represents a customer journey with its metrics
type JourneyResponse struct {
	CustomerID      string             `json:"customer_id" example:"user_123"`
	Touchpoints     []string           `json:"touchpoints" example:"tp_1,tp_2"`
	FirstTouchpoint string             `json:"first_touchpoint,omitempty" example:"tp_1"`
	LastTouchpoint  string             `json:"last_touchpoint,omitempty" example:"tp_2"`
	TouchpointCount int64              `json:"touchpoint_count" example:"7"`
	TotalValue      float64            `json:"total_value" example:"100"`
	ConversionCount int64              `json:"conversion_count" example:"1"`
	Stage           string             `json:"stage" example:"conversion"`
	CreatedAt       time.Time          `json:"created_at" example:"2024-08-12T15:13:32Z"`
	UpdatedAt       time.Time          `json:"updated_at" example:"2024-08-13T15:13:32Z"`
	Metrics         JourneyMetricsData `json:"metrics"`
}

// PublishConversionResponse represents an accepted conversion
type PublishConversionResponse struct {
	ConversionID string `json:"conversion_id" example:"conv_789"`
	Status       string `json:"status" example:"accepted"`
}

// AttributedTouchpointData represents the credit one touchpoint received
type AttributedTouchpointData struct {
	TouchpointID    string  `json:"touchpoint_id" example:"tp_1"`
	Channel         string  `json:"channel" example:"paid_search"`
	Weight          float64 `json:"weight" example:"0.4"`
	AttributedValue float64 `json:"attributed_value" example:"40"`
}

// AttributionResultData represents one model's breakdown of a conversion
type AttributionResultData struct {
	ConversionID    string                     `json:"conversion_id,omitempty" example:"conv_789"`
	CustomerID      string                     `json:"customer_id" example:"user_123"`
	Model           string                     `json:"model" example:"u_shaped"`
	ConversionValue float64                    `json:"conversion_value" example:"100"`
	Touchpoints     []AttributedTouchpointData `json:"touchpoints"`
	GeneratedAt     time.Time                  `json:"generated_at" example:"2024-08-13T15:13:32Z"`
}

// ConversionAttributionResponse represents every recorded model result of a conversion
type ConversionAttributionResponse struct {
	ConversionID string                  `json:"conversion_id" example:"conv_789"`
	Results      []AttributionResultData `json:"results"`
}
