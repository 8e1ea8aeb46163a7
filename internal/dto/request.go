package dto

// EngagementRequest carries the raw interaction metrics of a touchpoint
type EngagementRequest struct {
	TimeOnPage      float64 `json:"time_on_page" binding:"gte=0" example:"95"`
	ScrollDepth     float64 `json:"scroll_depth" binding:"gte=0,lte=100" example:"80"`
	ClickCount      int     `json:"click_count" binding:"gte=0" example:"3"`
	InteractionType string  `json:"interaction_type" binding:"omitempty,oneof=active passive" example:"active"`
}

// UTMRequest carries explicit campaign parameters
type UTMRequest struct {
	Source   string `json:"source" example:"google"`
	Medium   string `json:"medium" example:"cpc"`
	Campaign string `json:"campaign" example:"spring_sale"`
	Content  string `json:"content" example:"banner_a"`
	Term     string `json:"term" example:"running shoes"`
}

// IngestTouchpointRequest represents a single touchpoint ingestion request.
// type, channel and timestamp are checked by the service so the error names
// the missing field.
type IngestTouchpointRequest struct {
	EventID     string            `json:"event_id" example:"evt_5f1c"`
	CustomerID  string            `json:"customer_id" example:"user_123"`
	AccountID   string            `json:"account_id" example:"acct_42"`
	SessionID   string            `json:"session_id" example:"sess_abc"`
	Type        string            `json:"type" example:"ad_click"`
	Channel     string            `json:"channel" example:"paid_search"`
	Timestamp   int64             `json:"timestamp" example:"1723475612"`
	Engagement  EngagementRequest `json:"engagement"`
	Value       float64           `json:"value" binding:"gte=0" example:"0"`
	UTM         UTMRequest        `json:"utm"`
	Referrer    string            `json:"referrer" example:"https://www.google.com/"`
	LandingPage string            `json:"landing_page" example:"https://shop.example.com/?utm_source=google&utm_medium=cpc"`
}

// IngestTouchpointsBulkRequest represents a bulk touchpoint ingestion request
type IngestTouchpointsBulkRequest struct {
	Touchpoints []IngestTouchpointRequest `json:"touchpoints" binding:"required,min=1,max=1000,dive"`
}

// ListTouchpointsRequest represents the optional filters of a touchpoint log query
type ListTouchpointsRequest struct {
	Category string `form:"category" example:"awareness"`
	From     int64  `form:"from" example:"1723475612"`
	To       int64  `form:"to" example:"1723562012"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=1000" example:"100"`
}

// PublishConversionRequest represents a "conversion completed" notification
type PublishConversionRequest struct {
	ConversionID    string  `json:"conversion_id" binding:"required" example:"conv_789"`
	CustomerID      string  `json:"customer_id" binding:"required" example:"user_123"`
	ConversionValue float64 `json:"conversion_value" binding:"gte=0" example:"100"`
	ConversionDate  int64   `json:"conversion_date" example:"1723562012"`
}

// PreviewAttributionRequest represents an attribution preview query
type PreviewAttributionRequest struct {
	CustomerID      string  `form:"customer_id" binding:"required" example:"user_123"`
	Model           string  `form:"model" binding:"required" example:"time_decay"`
	ConversionValue float64 `form:"conversion_value" binding:"gte=0" example:"100"`
}
