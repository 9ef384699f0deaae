package qatp

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
)

// System owns one instance of each component and runs cycles over them.
type System struct {
	mu         sync.Mutex
	cfg        Config
	reservoir  *Reservoir
	condensate *Condensate
	chain      *TransportChain
	unit       *ActivationUnit
	observers  []Observer
	log        zerolog.Logger
	cycles     int
}

// NewSystem validates cfg and builds a System whose tunneling draws come
// from a source seeded with cfg.Seed.
func NewSystem(cfg Config) (*System, error) {
	return NewSystemWithSource(cfg, rand.New(rand.NewSource(cfg.Seed)))
}

// NewSystemWithSource is NewSystem with an explicit tunneling source.
func NewSystemWithSource(cfg Config, rng RandSource) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	decays := make([]float64, len(cfg.ChainNodeDecays))
	copy(decays, cfg.ChainNodeDecays)
	cfg.ChainNodeDecays = decays

	reservoir, err := NewReservoir(cfg.BatteryCapacity, cfg.BatteryEfficiency, cfg.BatteryInitialCharge, cfg.UnderflowPolicy)
	if err != nil {
		return nil, err
	}
	condensate, err := NewCondensate(cfg.CondensateDecayRate, cfg.UnderflowPolicy)
	if err != nil {
		return nil, err
	}
	chain, err := NewTransportChain(decays)
	if err != nil {
		return nil, err
	}
	unit, err := NewActivationUnit(cfg.ActivationThreshold, cfg.TunnelingProbability, cfg.TunnelingModel, rng)
	if err != nil {
		return nil, err
	}
	return &System{
		cfg:        cfg,
		reservoir:  reservoir,
		condensate: condensate,
		chain:      chain,
		unit:       unit,
		observers:  make([]Observer, 0),
		log:        zerolog.Nop(),
	}, nil
}

func (s *System) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *System) SetLogger(l zerolog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = l
}

// Config returns a copy of the construction configuration.
func (s *System) Config() Config {
	cfg := s.cfg
	cfg.ChainNodeDecays = append([]float64(nil), s.cfg.ChainNodeDecays...)
	return cfg
}

// Cycles returns the number of completed cycles.
func (s *System) Cycles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

// HybridProcess runs one cycle and returns the activation result with
// the snapshot taken at its end.
func (s *System) HybridProcess(input float64) (bool, Snapshot, error) {
	r, err := s.Process(input)
	if err != nil {
		return false, Snapshot{}, err
	}
	return r.Activated, r.Snapshot, nil
}

// Process runs one cycle and returns its full trace. A failed cycle
// leaves every component as it was before the call.
func (s *System) Process(input float64) (CycleResult, error) {
	if err := checkAmount("hybrid_process", input); err != nil {
		return CycleResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := s.checkpoint()
	r, err := s.cycle(input)
	if err != nil {
		s.restore(cp)
		s.log.Debug().Err(err).Float64("input", input).Msg("cycle rolled back")
		return CycleResult{}, fmt.Errorf("cycle %d: %w", s.cycles+1, err)
	}

	s.cycles++
	r.Cycle = s.cycles
	s.log.Debug().
		Int("cycle", r.Cycle).
		Float64("input", r.Input).
		Float64("delivered", r.Delivered).
		Float64("released", r.Released).
		Float64("propagated", r.Propagated).
		Bool("activated", r.Activated).
		Bool("tunneled", r.Tunneled).
		Msg("cycle complete")

	for _, o := range s.observers {
		o.OnCycle(r)
	}
	return r, nil
}

func (s *System) cycle(input float64) (CycleResult, error) {
	delivered, err := s.reservoir.Discharge(input)
	if err != nil {
		return CycleResult{}, err
	}
	if err := s.condensate.Absorb(delivered); err != nil {
		return CycleResult{}, err
	}
	released, err := s.condensate.Release(delivered * s.cfg.ReleaseRatio)
	if err != nil {
		return CycleResult{}, err
	}
	if s.cfg.AdaptiveCoherence {
		if err := s.chain.AdjustCoherence(input); err != nil {
			return CycleResult{}, err
		}
	}
	propagated, err := s.chain.Propagate(released)
	if err != nil {
		return CycleResult{}, err
	}
	activated, err := s.unit.Evaluate(propagated)
	if err != nil {
		return CycleResult{}, err
	}
	return CycleResult{
		Input:      input,
		Delivered:  delivered,
		Released:   released,
		Propagated: propagated,
		Activated:  activated,
		Tunneled:   s.unit.Tunneled(),
		Snapshot:   s.snapshot(),
	}, nil
}

// Snapshot returns the current component states. It never observes a
// cycle in progress.
func (s *System) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *System) snapshot() Snapshot {
	return Snapshot{
		BatteryEnergy:     s.reservoir.Level(),
		CondensateEnergy:  s.condensate.Stored(),
		ExcitonChainState: s.chain.State(),
		NQPUState:         s.unit.State(),
	}
}

// Recharge adds up to amount to the reservoir and returns what was accepted.
func (s *System) Recharge(amount float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accepted, err := s.reservoir.Charge(amount)
	if err != nil {
		return 0, err
	}
	s.log.Debug().Float64("requested", amount).Float64("accepted", accepted).Msg("reservoir recharged")
	return accepted, nil
}

type checkpoint struct {
	charge    float64
	stored    float64
	chain     []float64
	coherence float64
	state     bool
	tunneled  bool
}

func (s *System) checkpoint() checkpoint {
	return checkpoint{
		charge:    s.reservoir.charge,
		stored:    s.condensate.stored,
		chain:     s.chain.State(),
		coherence: s.chain.coherence,
		state:     s.unit.state,
		tunneled:  s.unit.tunneled,
	}
}

func (s *System) restore(cp checkpoint) {
	s.reservoir.charge = cp.charge
	s.condensate.stored = cp.stored
	copy(s.chain.state, cp.chain)
	s.chain.coherence = cp.coherence
	s.unit.state = cp.state
	s.unit.tunneled = cp.tunneled
}
