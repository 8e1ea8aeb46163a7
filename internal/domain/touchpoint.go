package domain

import "time"

// Category is the funnel bucket a touchpoint type maps to
type Category string

const (
	CategoryAwareness     Category = "awareness"
	CategoryConsideration Category = "consideration"
	CategoryConversion    Category = "conversion"
	CategoryRetention     Category = "retention"
	CategoryOther         Category = "other"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryAwareness, CategoryConsideration, CategoryConversion, CategoryRetention, CategoryOther:
		return true
	}
	return false
}

const (
	InteractionActive  = "active"
	InteractionPassive = "passive"
)

// Engagement holds the raw interaction metrics and the derived score
type Engagement struct {
	TimeOnPage      float64 // seconds
	ScrollDepth     float64 // percent, 0-100
	ClickCount      int
	InteractionType string
	Score           int
}

// UTM holds the campaign tagging parameters of a touchpoint
type UTM struct {
	Source   string
	Medium   string
	Campaign string
	Content  string
	Term     string
}

// Touchpoint is an enriched customer interaction. It is written once and
// never modified.
type Touchpoint struct {
	ID          string
	CustomerID  string
	SessionID   string
	Type        string
	Channel     string
	Category    Category
	Timestamp   int64
	Engagement  Engagement
	Value       float64
	UTM         UTM
	Referrer    string
	LandingPage string
	IPAddress   string
	UserAgent   string
	CreatedAt   time.Time
}

// TouchpointQuery filters the touchpoint log of one customer. Zero values
// disable the corresponding filter.
type TouchpointQuery struct {
	CustomerID string
	Category   Category
	From       time.Time
	To         time.Time
	Limit      int
}

// RawTouchpoint is an inbound interaction before validation and enrichment
type RawTouchpoint struct {
	EventID     string
	CustomerID  string
	AccountID   string
	SessionID   string
	Type        string
	Channel     string
	Timestamp   int64
	Engagement  Engagement
	Value       float64
	UTM         UTM
	Referrer    string
	LandingPage string
	RemoteAddr  string
	UserAgent   string
}

// Validate checks the fields every touchpoint must carry
func (r *RawTouchpoint) Validate() error {
	if r.Type == "" {
		return &ValidationError{Field: "type"}
	}
	if r.Timestamp == 0 {
		return &ValidationError{Field: "timestamp"}
	}
	if r.Channel == "" {
		return &ValidationError{Field: "channel"}
	}
	return nil
}
