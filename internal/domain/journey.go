package domain

import "time"

// Stage is the funnel position of a customer journey
type Stage string

const (
	StageAwareness     Stage = "awareness"
	StageConsideration Stage = "consideration"
	StageConversion    Stage = "conversion"
	StageRetention     Stage = "retention"
)

// Journey is the bounded aggregate of one customer's touchpoints and
// conversions. State changes only through AppendTouchpoint and
// ApplyConversion so every read-modify-write goes through one place.
type Journey struct {
	customerID      string
	touchpoints     *TouchpointRing
	firstTouchpoint string
	lastTouchpoint  string
	touchpointCount int64
	totalValue      float64
	conversionCount int64
	stage           Stage
	createdAt       time.Time
	updatedAt       time.Time
	version         int64
}

// JourneySnapshot is the persisted form of a Journey
type JourneySnapshot struct {
	CustomerID      string
	Touchpoints     []string
	FirstTouchpoint string
	LastTouchpoint  string
	TouchpointCount int64
	TotalValue      float64
	ConversionCount int64
	Stage           Stage
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

// NewJourney returns an empty journey in the awareness stage. It has
// version 0, meaning it has never been stored.
func NewJourney(customerID string, capacity int, now time.Time) *Journey {
	return &Journey{
		customerID:  customerID,
		touchpoints: NewTouchpointRing(capacity),
		stage:       StageAwareness,
		createdAt:   now,
		updatedAt:   now,
	}
}

// RestoreJourney rebuilds a journey from storage. If the stored list is
// longer than capacity only the newest entries are kept.
func RestoreJourney(s JourneySnapshot, capacity int) *Journey {
	stage := s.Stage
	if stage == "" {
		stage = StageAwareness
	}
	return &Journey{
		customerID:      s.CustomerID,
		touchpoints:     NewTouchpointRing(capacity, s.Touchpoints...),
		firstTouchpoint: s.FirstTouchpoint,
		lastTouchpoint:  s.LastTouchpoint,
		touchpointCount: s.TouchpointCount,
		totalValue:      s.TotalValue,
		conversionCount: s.ConversionCount,
		stage:           stage,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
		version:         s.Version,
	}
}

// AppendTouchpoint records a touchpoint id, evicting the oldest id once the
// journey is at capacity.
func (j *Journey) AppendTouchpoint(id string, now time.Time) {
	if j.touchpoints.Len() == 0 && j.firstTouchpoint == "" {
		j.firstTouchpoint = id
	}
	j.touchpoints.Push(id)
	j.lastTouchpoint = id
	j.touchpointCount++
	j.updatedAt = now
}

// ApplyConversion adds a conversion to the journey counters
func (j *Journey) ApplyConversion(value float64, now time.Time) {
	j.conversionCount++
	j.totalValue += value
	j.stage = StageConversion
	j.updatedAt = now
}

// Snapshot copies the journey into its persisted form
func (j *Journey) Snapshot() JourneySnapshot {
	return JourneySnapshot{
		CustomerID:      j.customerID,
		Touchpoints:     j.touchpoints.IDs(),
		FirstTouchpoint: j.firstTouchpoint,
		LastTouchpoint:  j.lastTouchpoint,
		TouchpointCount: j.touchpointCount,
		TotalValue:      j.totalValue,
		ConversionCount: j.conversionCount,
		Stage:           j.stage,
		CreatedAt:       j.createdAt,
		UpdatedAt:       j.updatedAt,
		Version:         j.version,
	}
}

func (j *Journey) CustomerID() string { return j.customerID }
func (j *Journey) Touchpoints() []string { return j.touchpoints.IDs() }
func (j *Journey) FirstTouchpoint() string { return j.firstTouchpoint }
func (j *Journey) LastTouchpoint() string { return j.lastTouchpoint }
func (j *Journey) TouchpointCount() int64 { return j.touchpointCount }
func (j *Journey) TotalValue() float64 { return j.totalValue }
func (j *Journey) ConversionCount() int64 { return j.conversionCount }
func (j *Journey) Stage() Stage { return j.stage }
func (j *Journey) CreatedAt() time.Time { return j.createdAt }
func (j *Journey) UpdatedAt() time.Time { return j.updatedAt }
func (j *Journey) Version() int64 { return j.version }
func (j *Journey) Empty() bool { return j.touchpoints.Len() == 0 }

// JourneyMetrics are derived read-only figures for a journey
type JourneyMetrics struct {
	TouchpointCount        int64
	Duration               time.Duration
	ConversionRate         float64
	AverageTouchpointValue float64
}
