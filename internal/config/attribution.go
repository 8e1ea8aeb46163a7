package config

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

const (
	DefaultMaxTouchpoints    = 50
	DefaultDecayRate         = 0.8
	DefaultJourneyWindowDays = 90
)

// Attribution is the attribution table loaded once at startup. It is never
// mutated after construction; lookups go through the accessor methods.
type Attribution struct {
	maxTouchpoints     int
	decayRate          float64
	journeyWindowDays  int
	categories         map[string]domain.Category
	channelMultipliers map[string]float64
	models             []domain.ModelKey
}

// attributionFile is the YAML shape of ATTRIBUTION_CONFIG_PATH.
type attributionFile struct {
	MaxTouchpointsPerJourney int                 `yaml:"max_touchpoints_per_journey"`
	DecayRate                float64             `yaml:"decay_rate"`
	JourneyWindowDays        int                 `yaml:"journey_window_days"`
	TouchpointCategories     map[string][]string `yaml:"touchpoint_category_map"`
	ChannelMultipliers       map[string]float64  `yaml:"channel_multiplier_map"`
	Models                   []string            `yaml:"models"`
}

var defaultCategories = map[domain.Category][]string{
	domain.CategoryAwareness:     {"impression", "view", "visit"},
	domain.CategoryConsideration: {"engagement", "download", "signup"},
	domain.CategoryConversion:    {"purchase", "subscribe", "convert"},
	domain.CategoryRetention:     {"return_visit", "repeat_purchase", "referral"},
}

var defaultChannelMultipliers = map[string]float64{
	"organic_search": 1.2,
	"paid_search":    1.0,
	"social_media":   0.8,
	"email":          1.1,
	"direct":         1.3,
	"referral":       0.9,
}

// DefaultAttribution returns the built-in table.
func DefaultAttribution() Attribution {
	categories := make(map[string]domain.Category)
	for category, types := range defaultCategories {
		for _, t := range types {
			categories[t] = category
		}
	}

	multipliers := make(map[string]float64, len(defaultChannelMultipliers))
	for channel, m := range defaultChannelMultipliers {
		multipliers[channel] = m
	}

	return Attribution{
		maxTouchpoints:     DefaultMaxTouchpoints,
		decayRate:          DefaultDecayRate,
		journeyWindowDays:  DefaultJourneyWindowDays,
		categories:         categories,
		channelMultipliers: multipliers,
		models:             domain.AllModels(),
	}
}

// LoadAttribution reads a YAML attribution table. Options left out of the
// file keep their default values.
func LoadAttribution(path string) (Attribution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attribution{}, fmt.Errorf("failed to read attribution config: %w", err)
	}
	return ParseAttribution(data)
}

// ParseAttribution builds an Attribution from YAML bytes.
func ParseAttribution(data []byte) (Attribution, error) {
	var file attributionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Attribution{}, fmt.Errorf("failed to parse attribution config: %w", err)
	}

	a := DefaultAttribution()

	if file.MaxTouchpointsPerJourney != 0 {
		a.maxTouchpoints = file.MaxTouchpointsPerJourney
	}
	if file.DecayRate != 0 {
		a.decayRate = file.DecayRate
	}
	if file.JourneyWindowDays != 0 {
		a.journeyWindowDays = file.JourneyWindowDays
	}

	if len(file.TouchpointCategories) > 0 {
		a.categories = make(map[string]domain.Category)
		for name, types := range file.TouchpointCategories {
			category := domain.Category(name)
			if !category.Valid() {
				return Attribution{}, fmt.Errorf("unknown touchpoint category %q", name)
			}
			for _, t := range types {
				a.categories[t] = category
			}
		}
	}

	for channel, m := range file.ChannelMultipliers {
		if m < 0 {
			return Attribution{}, fmt.Errorf("channel multiplier for %q must not be negative", channel)
		}
		a.channelMultipliers[channel] = m
	}

	if len(file.Models) > 0 {
		models := make([]domain.ModelKey, 0, len(file.Models))
		for _, name := range file.Models {
			key := domain.ModelKey(name)
			if !key.Known() {
				return Attribution{}, fmt.Errorf("unknown attribution model %q", name)
			}
			models = append(models, key)
		}
		a.models = models
	}

	if err := a.validate(); err != nil {
		return Attribution{}, err
	}

	return a, nil
}

func (a Attribution) validate() error {
	if a.maxTouchpoints <= 0 {
		return fmt.Errorf("max_touchpoints_per_journey must be positive, got %d", a.maxTouchpoints)
	}
	if a.decayRate <= 0 || a.decayRate > 1 {
		return fmt.Errorf("decay_rate must be in (0, 1], got %v", a.decayRate)
	}
	if a.journeyWindowDays <= 0 {
		return fmt.Errorf("journey_window_days must be positive, got %d", a.journeyWindowDays)
	}
	return nil
}

func (a Attribution) MaxTouchpoints() int { return a.maxTouchpoints }

func (a Attribution) DecayRate() float64 { return a.decayRate }

func (a Attribution) JourneyWindowDays() int { return a.journeyWindowDays }

// Category maps a raw touchpoint type to its category, or CategoryOther.
func (a Attribution) Category(touchpointType string) domain.Category {
	if category, ok := a.categories[touchpointType]; ok {
		return category
	}
	return domain.CategoryOther
}

// TouchpointTypes returns the configured touchpoint types in sorted order.
func (a Attribution) TouchpointTypes() []string {
	return slices.Sorted(maps.Keys(a.categories))
}

// ChannelMultiplier returns the data-driven multiplier for a channel, 1.0
// when the channel is not configured.
func (a Attribution) ChannelMultiplier(channel string) float64 {
	if m, ok := a.channelMultipliers[channel]; ok {
		return m
	}
	return 1.0
}

// Models returns a copy of the models computed for every conversion.
func (a Attribution) Models() []domain.ModelKey {
	out := make([]domain.ModelKey, len(a.models))
	copy(out, a.models)
	return out
}
