package attribution

import (
	"errors"
	"fmt"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// ErrUnknownModel is a configuration error: the requested model does not exist
var ErrUnknownModel = errors.New("unknown attribution model")

// Settings is the part of the attribution table the models read
type Settings interface {
	DecayRate() float64
	ChannelMultiplier(channel string) float64
}

// Allocation is the outcome of one model over one touchpoint sequence
type Allocation struct {
	Model            domain.ModelKey
	Weights          []float64
	AttributedValues []float64
}

// Empty reports whether no attribution was possible
func (a *Allocation) Empty() bool {
	return len(a.Weights) == 0
}

// Dispatcher computes attribution allocations. It holds no mutable state and
// is safe for concurrent use.
type Dispatcher struct {
	settings Settings
}

// NewDispatcher creates a dispatcher bound to an immutable settings table
func NewDispatcher(settings Settings) *Dispatcher {
	return &Dispatcher{settings: settings}
}

// Model returns the strategy registered for key
func (d *Dispatcher) Model(key domain.ModelKey) (Model, error) {
	switch key {
	case domain.ModelFirstTouch:
		return firstTouch{}, nil
	case domain.ModelLastTouch:
		return lastTouch{}, nil
	case domain.ModelLinear:
		return linear{}, nil
	case domain.ModelTimeDecay:
		return timeDecay{rate: d.settings.DecayRate()}, nil
	case domain.ModelUShaped:
		return uShaped{}, nil
	case domain.ModelWShaped:
		return wShaped{}, nil
	case domain.ModelDataDriven:
		return dataDriven{rate: d.settings.DecayRate(), multiplier: d.settings.ChannelMultiplier}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, key)
	}
}

// Compute weighs touchpoints (ordered oldest first) under the model named by
// key and splits conversionValue accordingly.
func (d *Dispatcher) Compute(touchpoints []domain.Touchpoint, key domain.ModelKey, conversionValue float64) (*Allocation, error) {
	model, err := d.Model(key)
	if err != nil {
		return nil, err
	}

	weights := model.Weights(touchpoints)
	values := make([]float64, len(weights))
	for i, w := range weights {
		values[i] = conversionValue * w
	}

	return &Allocation{
		Model:            key,
		Weights:          weights,
		AttributedValues: values,
	}, nil
}
