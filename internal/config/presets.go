package config

import "sort"

func ptr(v float64) *float64 { return &v }

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"lossless": {
		BatteryCapacity: 10.0, BatteryEfficiency: 1.0, CondensateDecayRate: 0.0,
		ChainNodeDecays: []float64{1.0, 1.0}, ActivationThreshold: 1.0, TunnelingProbability: 0.0,
		ReleaseRatio: 1.0, UnderflowPolicy: "clamp", TunnelingModel: "fixed", RNGSeed: DefaultSeed,
	},
	"long_chain": {
		BatteryCapacity: 20.0, BatteryEfficiency: 0.9, CondensateDecayRate: 0.2,
		ChainNodeDecays: []float64{0.98, 0.97, 0.95, 0.95, 0.9, 0.9, 0.85, 0.8},
		ActivationThreshold: 1.0, TunnelingProbability: 0.1,
		ReleaseRatio: 1.0, UnderflowPolicy: "clamp", TunnelingModel: "barrier", AdaptiveCoherence: true, RNGSeed: DefaultSeed,
	},
	"lucky": {
		BatteryCapacity: 5.0, BatteryEfficiency: 0.8, CondensateDecayRate: 0.3,
		ChainNodeDecays: []float64{0.9, 0.9}, ActivationThreshold: 2.0, TunnelingProbability: 0.6,
		ReleaseRatio: 1.0, UnderflowPolicy: "clamp", TunnelingModel: "fixed", RNGSeed: 7,
	},
	"strict": {
		BatteryCapacity: 10.0, BatteryEfficiency: 0.9, BatteryInitialCharge: ptr(6.0), CondensateDecayRate: 0.2,
		ChainNodeDecays: []float64{0.95, 0.9}, ActivationThreshold: 1.0, TunnelingProbability: 0.1,
		ReleaseRatio: 0.8, UnderflowPolicy: "reject", TunnelingModel: "fixed", RNGSeed: DefaultSeed,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
