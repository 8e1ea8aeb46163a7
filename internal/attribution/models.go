package attribution

import (
	"math"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

const (
	uShapedEndWeight       = 0.4
	wShapedMilestoneWeight = 0.3
)

// Model turns an ordered touchpoint sequence (oldest first) into weights
// that sum to 1. An empty sequence yields an empty slice.
type Model interface {
	Key() domain.ModelKey
	Weights(touchpoints []domain.Touchpoint) []float64
}

type firstTouch struct{}

func (firstTouch) Key() domain.ModelKey { return domain.ModelFirstTouch }

func (firstTouch) Weights(touchpoints []domain.Touchpoint) []float64 {
	w := make([]float64, len(touchpoints))
	if len(w) > 0 {
		w[0] = 1
	}
	return w
}

type lastTouch struct{}

func (lastTouch) Key() domain.ModelKey { return domain.ModelLastTouch }

func (lastTouch) Weights(touchpoints []domain.Touchpoint) []float64 {
	w := make([]float64, len(touchpoints))
	if len(w) > 0 {
		w[len(w)-1] = 1
	}
	return w
}

type linear struct{}

func (linear) Key() domain.ModelKey { return domain.ModelLinear }

func (linear) Weights(touchpoints []domain.Touchpoint) []float64 {
	return linearWeights(len(touchpoints))
}

func linearWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

type timeDecay struct {
	rate float64
}

func (timeDecay) Key() domain.ModelKey { return domain.ModelTimeDecay }

func (m timeDecay) Weights(touchpoints []domain.Touchpoint) []float64 {
	n := len(touchpoints)
	w := make([]float64, n)
	for i := range w {
		w[i] = math.Pow(m.rate, float64(n-1-i))
	}
	if !normalize(w) {
		return linearWeights(n)
	}
	return w
}

type uShaped struct{}

func (uShaped) Key() domain.ModelKey { return domain.ModelUShaped }

func (uShaped) Weights(touchpoints []domain.Touchpoint) []float64 {
	n := len(touchpoints)
	switch n {
	case 0, 1, 2:
		return linearWeights(n)
	}

	w := make([]float64, n)
	w[0] = uShapedEndWeight
	w[n-1] = uShapedEndWeight
	middle := (1 - 2*uShapedEndWeight) / float64(n-2)
	for i := 1; i < n-1; i++ {
		w[i] = middle
	}
	return w
}

// wShaped credits three milestones: the first touch, the first
// conversion-category touch (the middle index when there is none) and the
// last touch. A position holding two milestones still gets a single share;
// everything that is not a milestone splits what is left.
type wShaped struct{}

func (wShaped) Key() domain.ModelKey { return domain.ModelWShaped }

func (wShaped) Weights(touchpoints []domain.Touchpoint) []float64 {
	n := len(touchpoints)
	if n <= 3 {
		return linearWeights(n)
	}

	milestones := map[int]struct{}{
		0:                                 {},
		firstConversionIndex(touchpoints): {},
		n - 1:                             {},
	}

	rest := (1 - wShapedMilestoneWeight*float64(len(milestones))) / float64(n-len(milestones))

	w := make([]float64, n)
	for i := range w {
		if _, ok := milestones[i]; ok {
			w[i] = wShapedMilestoneWeight
		} else {
			w[i] = rest
		}
	}
	return w
}

func firstConversionIndex(touchpoints []domain.Touchpoint) int {
	for i, tp := range touchpoints {
		if tp.Category == domain.CategoryConversion {
			return i
		}
	}
	return len(touchpoints) / 2
}

// dataDriven weighs each touchpoint by engagement, recency and channel. When
// every raw weight is zero it falls back to linear weights.
type dataDriven struct {
	rate       float64
	multiplier func(channel string) float64
}

func (dataDriven) Key() domain.ModelKey { return domain.ModelDataDriven }

func (m dataDriven) Weights(touchpoints []domain.Touchpoint) []float64 {
	n := len(touchpoints)
	w := make([]float64, n)
	for i, tp := range touchpoints {
		engagement := float64(tp.Engagement.Score) / 100
		decay := math.Pow(m.rate, float64(n-1-i))
		w[i] = engagement * decay * m.multiplier(tp.Channel)
	}
	if !normalize(w) {
		return linearWeights(n)
	}
	return w
}

// normalize scales w in place to sum to 1. It reports false when the sum is
// not positive.
func normalize(w []float64) bool {
	var total float64
	for _, v := range w {
		total += v
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return false
	}
	for i := range w {
		w[i] /= total
	}
	return true
}
