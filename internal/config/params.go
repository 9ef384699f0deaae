package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/qatpsim/internal/qatp"
)

var params = map[string]func(c *Config, v float64){
	"battery_capacity":       func(c *Config, v float64) { c.BatteryCapacity = v },
	"battery_efficiency":     func(c *Config, v float64) { c.BatteryEfficiency = v },
	"battery_initial_charge": func(c *Config, v float64) { c.BatteryInitialCharge = ptr(v) },
	"condensate_decay_rate":  func(c *Config, v float64) { c.CondensateDecayRate = v },
	"activation_threshold":   func(c *Config, v float64) { c.ActivationThreshold = v },
	"tunneling_probability":  func(c *Config, v float64) { c.TunnelingProbability = v },
	"release_ratio":          func(c *Config, v float64) { c.ReleaseRatio = v },
}

// SetParam sets a scalar field by its file key. Values are checked when
// the config is converted with System.
func (c *Config) SetParam(name string, v float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %s (available: %v)", qatp.ErrConfiguration, name, ParamNames())
	}
	set(c, v)
	return nil
}

func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
