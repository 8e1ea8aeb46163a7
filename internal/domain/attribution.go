package domain

import "time"

// ModelKey names an attribution model
type ModelKey string

const (
	ModelFirstTouch ModelKey = "first_touch"
	ModelLastTouch  ModelKey = "last_touch"
	ModelLinear     ModelKey = "linear"
	ModelTimeDecay  ModelKey = "time_decay"
	ModelUShaped    ModelKey = "u_shaped"
	ModelWShaped    ModelKey = "w_shaped"
	ModelDataDriven ModelKey = "data_driven"
)

// AllModels lists every supported model in a stable order
func AllModels() []ModelKey {
	return []ModelKey{
		ModelFirstTouch,
		ModelLastTouch,
		ModelLinear,
		ModelTimeDecay,
		ModelUShaped,
		ModelWShaped,
		ModelDataDriven,
	}
}

// Known reports whether k is a supported model
func (k ModelKey) Known() bool {
	for _, m := range AllModels() {
		if m == k {
			return true
		}
	}
	return false
}

// AttributionResult is the credited value breakdown of one conversion under
// one model. It is keyed by (ConversionID, Model).
type AttributionResult struct {
	ConversionID     string
	CustomerID       string
	Model            ModelKey
	ConversionValue  float64
	TouchpointIDs    []string
	Channels         []string
	Weights          []float64
	AttributedValues []float64
	GeneratedAt      time.Time
}

// ConversionEvent is the "conversion completed" notification
type ConversionEvent struct {
	ConversionID    string
	CustomerID      string
	ConversionValue float64
	ConversionDate  int64
}
