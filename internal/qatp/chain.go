package qatp

import (
	"math"
	"strconv"
)

const (
	minCoherence       = 0.95
	maxCoherence       = 1.0
	coherenceLoadScale = 10.0
)

// TransportChain folds energy through an ordered list of nodes, each
// retaining its coherence_decay fraction. The per-node residuals of the
// last propagation are kept for monitoring.
type TransportChain struct {
	decays    []float64
	state     []float64
	coherence float64
}

func NewTransportChain(decays []float64) (*TransportChain, error) {
	if len(decays) == 0 {
		return nil, &ConfigError{Field: "chain_node_decays", Value: decays, Reason: "must not be empty"}
	}
	for i, d := range decays {
		if !(d > 0 && d <= 1) {
			return nil, &ConfigError{Field: "chain_node_decays", Value: decays, Reason: "node " + strconv.Itoa(i) + " must be in (0, 1]"}
		}
	}
	ds := make([]float64, len(decays))
	copy(ds, decays)
	return &TransportChain{
		decays:    ds,
		state:     make([]float64, len(ds)),
		coherence: maxCoherence,
	}, nil
}

func (c *TransportChain) Len() int { return len(c.decays) }

// Coherence returns the chain-wide multiplier applied on every hop.
func (c *TransportChain) Coherence() float64 { return c.coherence }

// State returns a copy of the residuals recorded by the last Propagate.
func (c *TransportChain) State() []float64 {
	s := make([]float64, len(c.state))
	copy(s, c.state)
	return s
}

// Propagate returns the energy delivered past the last node.
func (c *TransportChain) Propagate(energy float64) (float64, error) {
	if err := checkAmount("propagate", energy); err != nil {
		return 0, err
	}
	e := energy
	for i, d := range c.decays {
		e *= d * c.coherence
		c.state[i] = e
	}
	return e, nil
}

// AdjustCoherence sets the coherence multiplier from the system load,
// bounded to [0.95, 1].
func (c *TransportChain) AdjustCoherence(load float64) error {
	if err := checkAmount("adjust_coherence", load); err != nil {
		return err
	}
	k := 1 - math.Exp(-load/coherenceLoadScale)
	c.coherence = math.Max(minCoherence, math.Min(maxCoherence, k))
	return nil
}
