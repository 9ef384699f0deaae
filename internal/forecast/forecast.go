// Package forecast predicts the next cycle's energy demand from recent
// usage and turns it into an adaptive cycle input.
package forecast

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultHistory = 100
	// window is how many recent samples feed a prediction.
	window = 10
	// below minWeighted samples the plain mean is used.
	minWeighted  = 5
	baseDemand   = 1.0
	overdrawGain = 1.1
	reserveGain  = 0.9
)

// Forecaster keeps a bounded usage history. It is not safe for
// concurrent use.
type Forecaster struct {
	history []float64
	limit   int
}

// New returns a forecaster keeping at most limit samples (DefaultHistory
// when limit <= 0).
func New(limit int) *Forecaster {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Forecaster{history: make([]float64, 0, limit), limit: limit}
}

// Record appends a usage sample, dropping the oldest past the limit.
// Negative and non-finite samples are ignored.
func (f *Forecaster) Record(usage float64) {
	if usage < 0 || math.IsNaN(usage) || math.IsInf(usage, 0) {
		return
	}
	if len(f.history) == f.limit {
		copy(f.history, f.history[1:])
		f.history = f.history[:len(f.history)-1]
	}
	f.history = append(f.history, usage)
}

func (f *Forecaster) Len() int { return len(f.history) }

// Predict returns the expected demand of the next cycle: a linearly
// weighted mean (0.2 for the oldest, 1 for the newest) over the last ten
// samples, the plain mean with fewer than five, and 1 with none.
func (f *Forecaster) Predict() float64 {
	recent := f.history
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}
	switch {
	case len(recent) == 0:
		return baseDemand
	case len(recent) < minWeighted:
		return stat.Mean(recent, nil)
	}
	weights := floats.Span(make([]float64, len(recent)), 0.2, 1)
	return stat.Mean(recent, weights)
}

// NextInput returns the input to request for the given load: slightly
// above the prediction when load exceeds it, slightly below otherwise.
func (f *Forecaster) NextInput(load float64) float64 {
	predicted := f.Predict()
	if load > predicted {
		return predicted * overdrawGain
	}
	return predicted * reserveGain
}
