package qatp

import (
	"math"
	"math/rand"
)

// ActivationUnit fires deterministically at or above threshold. Below it,
// a single draw from the injected source decides a tunneling activation.
type ActivationUnit struct {
	threshold   float64
	probability float64
	model       TunnelingModel
	rng         RandSource
	state       bool
	tunneled    bool
}

// NewActivationUnit builds a unit drawing from rng. A nil rng is replaced
// by a source seeded with 0 so that draws stay reproducible.
func NewActivationUnit(threshold, probability float64, model TunnelingModel, rng RandSource) (*ActivationUnit, error) {
	if !(threshold > 0) || math.IsInf(threshold, 0) {
		return nil, &ConfigError{Field: "activation_threshold", Value: threshold, Reason: "must be > 0"}
	}
	if !(probability >= 0 && probability <= 1) {
		return nil, &ConfigError{Field: "tunneling_probability", Value: probability, Reason: "must be in [0, 1]"}
	}
	if model == "" {
		model = TunnelingFixed
	}
	if !model.valid() {
		return nil, &ConfigError{Field: "tunneling_model", Value: model, Reason: "must be fixed or barrier"}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	return &ActivationUnit{
		threshold:   threshold,
		probability: probability,
		model:       model,
		rng:         rng,
	}, nil
}

func (u *ActivationUnit) Threshold() float64 { return u.threshold }

// State returns the result of the last evaluation.
func (u *ActivationUnit) State() bool { return u.state }

// Tunneled reports whether the last activation happened below threshold.
func (u *ActivationUnit) Tunneled() bool { return u.tunneled }

// Evaluate sets and returns the activation state for energy.
func (u *ActivationUnit) Evaluate(energy float64) (bool, error) {
	if err := checkAmount("evaluate", energy); err != nil {
		return false, err
	}
	u.tunneled = false
	if energy >= u.threshold {
		u.state = true
		return true, nil
	}
	p := u.tunnelingProbability(energy)
	// no draw when tunneling is impossible, so p=0 never consumes the source
	if p > 0 && u.rng.Float64() < p {
		u.state = true
		u.tunneled = true
		return true, nil
	}
	u.state = false
	return false, nil
}

func (u *ActivationUnit) tunnelingProbability(energy float64) float64 {
	if u.model == TunnelingBarrier {
		return u.probability * math.Exp(-(u.threshold - energy))
	}
	return u.probability
}
