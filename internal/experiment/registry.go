package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/qatpsim/internal/forecast"
	"github.com/san-kum/qatpsim/internal/qatp"
)

// InputStrategy chooses the classical input of each cycle. last is nil
// before the first cycle.
type InputStrategy interface {
	Next(cycle int, last *qatp.CycleResult) float64
}

type Registry struct {
	strategies map[string]func(input float64) InputStrategy
}

func NewRegistry() *Registry {
	r := &Registry{
		strategies: make(map[string]func(float64) InputStrategy),
	}

	r.strategies["constant"] = func(input float64) InputStrategy { return constant(input) }
	r.strategies["adaptive"] = func(input float64) InputStrategy {
		return &adaptive{load: input, forecaster: forecast.New(forecast.DefaultHistory)}
	}

	return r
}

// Register adds or replaces a named strategy.
func (r *Registry) Register(name string, fn func(input float64) InputStrategy) {
	r.strategies[name] = fn
}

func (r *Registry) GetStrategy(name string, input float64) (InputStrategy, error) {
	if name == "" {
		name = "constant"
	}
	fn, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown input strategy: %s (available: %v)", name, r.ListStrategies())
	}
	return fn(input), nil
}

func (r *Registry) ListStrategies() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type constant float64

func (c constant) Next(int, *qatp.CycleResult) float64 { return float64(c) }

// adaptive feeds the energy delivered by each cycle to a forecaster and
// requests the forecast, treating the configured input as system load.
type adaptive struct {
	load       float64
	forecaster *forecast.Forecaster
}

func (a *adaptive) Next(_ int, last *qatp.CycleResult) float64 {
	if last != nil {
		a.forecaster.Record(last.Delivered)
	}
	return a.forecaster.NextInput(a.load)
}
