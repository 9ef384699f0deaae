package qatp

import "math"

// UnderflowPolicy selects what a draw beyond the available stock does.
type UnderflowPolicy string

const (
	// UnderflowClamp fulfils min(requested, available) and reports the
	// shortfall only through the returned amount.
	UnderflowClamp UnderflowPolicy = "clamp"
	// UnderflowReject fails with ErrInsufficientEnergy and mutates nothing.
	UnderflowReject UnderflowPolicy = "reject"
)

func (p UnderflowPolicy) valid() bool {
	return p == UnderflowClamp || p == UnderflowReject
}

// TunnelingModel selects how the sub-threshold success probability is derived.
type TunnelingModel string

const (
	// TunnelingFixed uses the configured probability as is.
	TunnelingFixed TunnelingModel = "fixed"
	// TunnelingBarrier scales the configured probability by exp(-gap),
	// where gap is the distance to the threshold.
	TunnelingBarrier TunnelingModel = "barrier"
)

func (m TunnelingModel) valid() bool {
	return m == TunnelingFixed || m == TunnelingBarrier
}

// RandSource is the pseudo-random generator used for tunneling draws.
// *math/rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Observer is notified after every successful cycle. Observers run while
// the System lock is held and must not call back into the System.
type Observer interface {
	OnCycle(r CycleResult)
}

// CycleResult is the full trace of one cycle.
type CycleResult struct {
	Cycle      int      `json:"cycle" yaml:"cycle"`
	Input      float64  `json:"input" yaml:"input"`
	Delivered  float64  `json:"delivered" yaml:"delivered"`
	Released   float64  `json:"released" yaml:"released"`
	Propagated float64  `json:"propagated" yaml:"propagated"`
	Activated  bool     `json:"activated" yaml:"activated"`
	Tunneled   bool     `json:"tunneled" yaml:"tunneled"`
	Snapshot   Snapshot `json:"snapshot" yaml:"snapshot"`
}

func checkAmount(op string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return &InputError{Op: op, Value: v}
	}
	return nil
}
