package qatp

import "math"

// Reservoir is a bounded charge store. Discharge output is scaled by the
// efficiency factor; charge is clamped to capacity.
type Reservoir struct {
	capacity   float64
	charge     float64
	efficiency float64
	policy     UnderflowPolicy
}

// NewReservoir returns a reservoir holding initial units of charge.
func NewReservoir(capacity, efficiency, initial float64, policy UnderflowPolicy) (*Reservoir, error) {
	if !(capacity > 0) || math.IsInf(capacity, 0) {
		return nil, &ConfigError{Field: "battery_capacity", Value: capacity, Reason: "must be > 0"}
	}
	if !(efficiency > 0 && efficiency <= 1) {
		return nil, &ConfigError{Field: "battery_efficiency", Value: efficiency, Reason: "must be in (0, 1]"}
	}
	if !(initial >= 0 && initial <= capacity) {
		return nil, &ConfigError{Field: "battery_initial_charge", Value: initial, Reason: "must be in [0, capacity]"}
	}
	if policy == "" {
		policy = UnderflowClamp
	}
	if !policy.valid() {
		return nil, &ConfigError{Field: "underflow_policy", Value: policy, Reason: "must be clamp or reject"}
	}
	return &Reservoir{
		capacity:   capacity,
		charge:     initial,
		efficiency: efficiency,
		policy:     policy,
	}, nil
}

func (r *Reservoir) Capacity() float64   { return r.capacity }
func (r *Reservoir) Efficiency() float64 { return r.efficiency }

// Level returns the current charge.
func (r *Reservoir) Level() float64 { return r.charge }

// Charge adds up to amount and returns what was accepted. Overflow past
// capacity is dropped, not reported as an error.
func (r *Reservoir) Charge(amount float64) (float64, error) {
	if err := checkAmount("charge", amount); err != nil {
		return 0, err
	}
	accepted := math.Min(amount, r.capacity-r.charge)
	r.charge += accepted
	return accepted, nil
}

// Discharge draws amount from the charge and returns the drawn amount
// scaled by efficiency. Under UnderflowClamp a request beyond the charge
// drains it to zero; under UnderflowReject it fails without mutation.
func (r *Reservoir) Discharge(amount float64) (float64, error) {
	if err := checkAmount("discharge", amount); err != nil {
		return 0, err
	}
	if amount > r.charge && r.policy == UnderflowReject {
		return 0, &ShortfallError{Op: "discharge", Requested: amount, Available: r.charge}
	}
	drawn := math.Min(amount, r.charge)
	r.charge -= drawn
	if r.charge < 0 {
		r.charge = 0
	}
	return drawn * r.efficiency, nil
}

// TransferTo moves charge*coupling into other, limited by the free
// capacity of other. Only the accepted amount leaves r.
func (r *Reservoir) TransferTo(other *Reservoir, coupling float64) (float64, error) {
	if err := checkAmount("transfer", coupling); err != nil {
		return 0, err
	}
	if coupling > 1 {
		return 0, &InputError{Op: "transfer", Value: coupling}
	}
	if other == r {
		return 0, nil
	}
	accepted, err := other.Charge(r.charge * coupling)
	if err != nil {
		return 0, err
	}
	r.charge -= accepted
	return accepted, nil
}
