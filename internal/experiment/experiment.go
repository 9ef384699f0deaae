package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/san-kum/qatpsim/internal/metrics"
	"github.com/san-kum/qatpsim/internal/qatp"
)

type Config struct {
	Cycles   int
	Input    float64
	Strategy string
	// RechargeEvery recharges the reservoir by RechargeAmount before every
	// n-th cycle; 0 disables recharging.
	RechargeEvery  int
	RechargeAmount float64
}

func DefaultConfig() Config {
	return Config{
		Cycles:   10,
		Input:    3.0,
		Strategy: "constant",
	}
}

func (c Config) validate() error {
	if c.Cycles <= 0 {
		return fmt.Errorf("cycles must be positive, got %d", c.Cycles)
	}
	if c.Input < 0 || math.IsNaN(c.Input) || math.IsInf(c.Input, 0) {
		return fmt.Errorf("%w: input %v", qatp.ErrInvalidInput, c.Input)
	}
	if c.RechargeEvery < 0 {
		return fmt.Errorf("recharge interval must not be negative, got %d", c.RechargeEvery)
	}
	if c.RechargeEvery > 0 && (c.RechargeAmount < 0 || math.IsNaN(c.RechargeAmount)) {
		return fmt.Errorf("%w: recharge amount %v", qatp.ErrInvalidInput, c.RechargeAmount)
	}
	return nil
}

type Result struct {
	Initial qatp.Snapshot
	Records []qatp.CycleResult
	Metrics map[string]float64
}

// Final returns the snapshot after the last recorded cycle.
func (r *Result) Final() qatp.Snapshot {
	if len(r.Records) == 0 {
		return r.Initial
	}
	return r.Records[len(r.Records)-1].Snapshot
}

type Experiment struct {
	cfg      Config
	system   *qatp.System
	strategy InputStrategy
	metrics  []metrics.Metric
	log      zerolog.Logger
}

func New(cfg Config, sys *qatp.System, registry *Registry) (*Experiment, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
	}
	strategy, err := registry.GetStrategy(cfg.Strategy, cfg.Input)
	if err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:      cfg,
		system:   sys,
		strategy: strategy,
		metrics:  metrics.Defaults(),
		log:      zerolog.Nop(),
	}, nil
}

func (e *Experiment) SetLogger(l zerolog.Logger) { e.log = l }

// SetMetrics replaces the default metric set.
func (e *Experiment) SetMetrics(ms []metrics.Metric) { e.metrics = ms }

// System returns the underlying system for adding observers.
func (e *Experiment) System() *qatp.System { return e.system }

// Run executes the configured cycles. On cancellation or a failed cycle
// it returns the records collected so far along with the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	for _, m := range e.metrics {
		m.Reset()
	}
	result := &Result{
		Initial: e.system.Snapshot(),
		Records: make([]qatp.CycleResult, 0, e.cfg.Cycles),
		Metrics: make(map[string]float64),
	}

	var last *qatp.CycleResult
	for i := 0; i < e.cfg.Cycles; i++ {
		select {
		case <-ctx.Done():
			e.collect(result)
			return result, ctx.Err()
		default:
		}

		if e.cfg.RechargeEvery > 0 && i > 0 && i%e.cfg.RechargeEvery == 0 {
			if _, err := e.system.Recharge(e.cfg.RechargeAmount); err != nil {
				e.collect(result)
				return result, err
			}
		}

		input := e.strategy.Next(i, last)
		r, err := e.system.Process(input)
		if err != nil {
			e.log.Warn().Err(err).Int("cycle", i+1).Float64("input", input).Msg("cycle failed")
			e.collect(result)
			return result, err
		}
		for _, m := range e.metrics {
			m.Observe(r)
		}
		result.Records = append(result.Records, r)
		last = &result.Records[len(result.Records)-1]
	}

	e.collect(result)
	e.log.Info().
		Int("cycles", len(result.Records)).
		Interface("metrics", result.Metrics).
		Msg("run complete")
	return result, nil
}

func (e *Experiment) collect(result *Result) {
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
