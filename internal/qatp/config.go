package qatp

// Config carries every construction parameter of a System. It is copied
// into the System and never consulted again after construction.
type Config struct {
	BatteryCapacity      float64
	BatteryEfficiency    float64
	BatteryInitialCharge float64
	CondensateDecayRate  float64
	ChainNodeDecays      []float64
	ActivationThreshold  float64
	TunnelingProbability float64
	// ReleaseRatio is the fraction of delivered energy requested back
	// from the condensate each cycle.
	ReleaseRatio      float64
	UnderflowPolicy   UnderflowPolicy
	TunnelingModel    TunnelingModel
	AdaptiveCoherence bool
	Seed              int64
}

func DefaultConfig() Config {
	return Config{
		BatteryCapacity:      10.0,
		BatteryEfficiency:    0.9,
		BatteryInitialCharge: 10.0,
		CondensateDecayRate:  0.2,
		ChainNodeDecays:      []float64{0.95, 0.9},
		ActivationThreshold:  1.0,
		TunnelingProbability: 0.1,
		ReleaseRatio:         1.0,
		UnderflowPolicy:      UnderflowClamp,
		TunnelingModel:       TunnelingFixed,
		Seed:                 42,
	}
}

// Validate checks every field against its declared bounds.
func (c Config) Validate() error {
	if _, err := NewReservoir(c.BatteryCapacity, c.BatteryEfficiency, c.BatteryInitialCharge, c.UnderflowPolicy); err != nil {
		return err
	}
	if _, err := NewCondensate(c.CondensateDecayRate, c.UnderflowPolicy); err != nil {
		return err
	}
	if _, err := NewTransportChain(c.ChainNodeDecays); err != nil {
		return err
	}
	if _, err := NewActivationUnit(c.ActivationThreshold, c.TunnelingProbability, c.TunnelingModel, noDraws{}); err != nil {
		return err
	}
	if !(c.ReleaseRatio > 0 && c.ReleaseRatio <= 1) {
		return &ConfigError{Field: "release_ratio", Value: c.ReleaseRatio, Reason: "must be in (0, 1]"}
	}
	return nil
}

type noDraws struct{}

func (noDraws) Float64() float64 { return 1 }
