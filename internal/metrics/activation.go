package metrics

import "github.com/san-kum/qatpsim/internal/qatp"

type ActivationRate struct {
	name      string
	activated int
	samples   int
}

func NewActivationRate() *ActivationRate {
	return &ActivationRate{name: "activation_rate"}
}

func (a *ActivationRate) Name() string { return a.name }

func (a *ActivationRate) Observe(r qatp.CycleResult) {
	a.samples++
	if r.Activated {
		a.activated++
	}
}

func (a *ActivationRate) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.activated) / float64(a.samples)
}

func (a *ActivationRate) Reset() {
	a.activated = 0
	a.samples = 0
}

// TunnelingRate is the fraction of cycles activated below threshold.
type TunnelingRate struct {
	name     string
	tunneled int
	samples  int
}

func NewTunnelingRate() *TunnelingRate {
	return &TunnelingRate{name: "tunneling_rate"}
}

func (t *TunnelingRate) Name() string { return t.name }

func (t *TunnelingRate) Observe(r qatp.CycleResult) {
	t.samples++
	if r.Tunneled {
		t.tunneled++
	}
}

func (t *TunnelingRate) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return float64(t.tunneled) / float64(t.samples)
}

func (t *TunnelingRate) Reset() {
	t.tunneled = 0
	t.samples = 0
}
