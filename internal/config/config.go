package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/san-kum/qatpsim/internal/qatp"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInput       = 3.0
	DefaultCapacity    = 10.0
	DefaultEfficiency  = 0.9
	DefaultDecayRate   = 0.2
	DefaultThreshold   = 1.0
	DefaultTunneling   = 0.1
	DefaultReleaseRate = 1.0
	DefaultSeed        = 42
)

// Config is the on-disk form of a system configuration.
type Config struct {
	BatteryCapacity      float64   `json:"battery_capacity" yaml:"battery_capacity" toml:"battery_capacity"`
	BatteryEfficiency    float64   `json:"battery_efficiency" yaml:"battery_efficiency" toml:"battery_efficiency"`
	BatteryInitialCharge *float64  `json:"battery_initial_charge,omitempty" yaml:"battery_initial_charge,omitempty" toml:"battery_initial_charge,omitempty"`
	CondensateDecayRate  float64   `json:"condensate_decay_rate" yaml:"condensate_decay_rate" toml:"condensate_decay_rate"`
	ChainNodeDecays      []float64 `json:"chain_node_decays" yaml:"chain_node_decays" toml:"chain_node_decays"`
	ActivationThreshold  float64   `json:"activation_threshold" yaml:"activation_threshold" toml:"activation_threshold"`
	TunnelingProbability float64   `json:"tunneling_probability" yaml:"tunneling_probability" toml:"tunneling_probability"`
	ReleaseRatio         float64   `json:"release_ratio" yaml:"release_ratio" toml:"release_ratio"`
	UnderflowPolicy      string    `json:"underflow_policy" yaml:"underflow_policy" toml:"underflow_policy"`
	TunnelingModel       string    `json:"tunneling_model" yaml:"tunneling_model" toml:"tunneling_model"`
	AdaptiveCoherence    bool      `json:"adaptive_coherence" yaml:"adaptive_coherence" toml:"adaptive_coherence"`
	RNGSeed              int64     `json:"rng_seed" yaml:"rng_seed" toml:"rng_seed"`
}

func DefaultConfig() *Config {
	return &Config{
		BatteryCapacity:      DefaultCapacity,
		BatteryEfficiency:    DefaultEfficiency,
		CondensateDecayRate:  DefaultDecayRate,
		ChainNodeDecays:      []float64{0.95, 0.9},
		ActivationThreshold:  DefaultThreshold,
		TunnelingProbability: DefaultTunneling,
		ReleaseRatio:         DefaultReleaseRate,
		UnderflowPolicy:      string(qatp.UnderflowClamp),
		TunnelingModel:       string(qatp.TunnelingFixed),
		RNGSeed:              DefaultSeed,
	}
}

// Load reads a YAML or TOML file over the defaults. Keys that do not map
// to a field are rejected.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a config file over a copy of base, so fields absent from
// the file keep the values of base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = decodeTOML(data, cfg)
	default:
		err = decodeYAML(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", qatp.ErrConfiguration, err)
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", qatp.ErrConfiguration, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("%w: unknown keys %s", qatp.ErrConfiguration, strings.Join(keys, ", "))
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// System converts the file form into a validated core configuration.
func (c *Config) System() (qatp.Config, error) {
	initial := c.BatteryCapacity
	if c.BatteryInitialCharge != nil {
		initial = *c.BatteryInitialCharge
	}
	decays := make([]float64, len(c.ChainNodeDecays))
	copy(decays, c.ChainNodeDecays)

	sc := qatp.Config{
		BatteryCapacity:      c.BatteryCapacity,
		BatteryEfficiency:    c.BatteryEfficiency,
		BatteryInitialCharge: initial,
		CondensateDecayRate:  c.CondensateDecayRate,
		ChainNodeDecays:      decays,
		ActivationThreshold:  c.ActivationThreshold,
		TunnelingProbability: c.TunnelingProbability,
		ReleaseRatio:         c.ReleaseRatio,
		UnderflowPolicy:      qatp.UnderflowPolicy(c.UnderflowPolicy),
		TunnelingModel:       qatp.TunnelingModel(c.TunnelingModel),
		AdaptiveCoherence:    c.AdaptiveCoherence,
		Seed:                 c.RNGSeed,
	}
	if err := sc.Validate(); err != nil {
		return qatp.Config{}, err
	}
	return sc, nil
}

func (c *Config) Clone() *Config {
	cp := *c
	cp.ChainNodeDecays = append([]float64(nil), c.ChainNodeDecays...)
	if c.BatteryInitialCharge != nil {
		v := *c.BatteryInitialCharge
		cp.BatteryInitialCharge = &v
	}
	return &cp
}
