package qatp

import "math"

// Condensate stores absorbed energy and loses a fixed fraction of every
// release to decay.
type Condensate struct {
	stored    float64
	decayRate float64
	policy    UnderflowPolicy
}

func NewCondensate(decayRate float64, policy UnderflowPolicy) (*Condensate, error) {
	if !(decayRate >= 0 && decayRate < 1) {
		return nil, &ConfigError{Field: "condensate_decay_rate", Value: decayRate, Reason: "must be in [0, 1)"}
	}
	if policy == "" {
		policy = UnderflowClamp
	}
	if !policy.valid() {
		return nil, &ConfigError{Field: "underflow_policy", Value: policy, Reason: "must be clamp or reject"}
	}
	return &Condensate{decayRate: decayRate, policy: policy}, nil
}

func (c *Condensate) Stored() float64    { return c.stored }
func (c *Condensate) DecayRate() float64 { return c.decayRate }

func (c *Condensate) Absorb(energy float64) error {
	if err := checkAmount("absorb", energy); err != nil {
		return err
	}
	c.stored += energy
	return nil
}

// Release removes min(amount, stored) and returns it after decay.
func (c *Condensate) Release(amount float64) (float64, error) {
	if err := checkAmount("release", amount); err != nil {
		return 0, err
	}
	if amount > c.stored && c.policy == UnderflowReject {
		return 0, &ShortfallError{Op: "release", Requested: amount, Available: c.stored}
	}
	taken := math.Min(amount, c.stored)
	c.stored -= taken
	if c.stored < 0 {
		c.stored = 0
	}
	return taken * (1 - c.decayRate), nil
}
