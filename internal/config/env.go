package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/san-kum/qatpsim/internal/qatp"
)

// Environment variables recognised by ApplyEnv.
const (
	EnvCapacity    = "QATP_BATTERY_CAPACITY"
	EnvEfficiency  = "QATP_BATTERY_EFFICIENCY"
	EnvDecayRate   = "QATP_CONDENSATE_DECAY_RATE"
	EnvChainDecays = "QATP_CHAIN_NODE_DECAYS"
	EnvThreshold   = "QATP_ACTIVATION_THRESHOLD"
	EnvTunneling   = "QATP_TUNNELING_PROBABILITY"
	EnvSeed        = "QATP_RNG_SEED"
	EnvLogLevel    = "QATP_LOG_LEVEL"
)

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding the process environment. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadEnv loads the dotenv files and then applies the environment to cfg.
func LoadEnv(cfg *Config, files ...string) error {
	if err := LoadDotEnv(files...); err != nil {
		return err
	}
	return ApplyEnv(cfg)
}

// ApplyEnv overrides cfg fields from QATP_* variables. A set variable
// that does not parse is a configuration error.
func ApplyEnv(cfg *Config) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{EnvCapacity, &cfg.BatteryCapacity},
		{EnvEfficiency, &cfg.BatteryEfficiency},
		{EnvDecayRate, &cfg.CondensateDecayRate},
		{EnvThreshold, &cfg.ActivationThreshold},
		{EnvTunneling, &cfg.TunnelingProbability},
	}
	for _, f := range floats {
		v, ok := os.LookupEnv(f.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return envError(f.key, v, err)
		}
		*f.dst = parsed
	}

	if v, ok := os.LookupEnv(EnvChainDecays); ok && v != "" {
		decays, err := ParseFloatList(v)
		if err != nil {
			return envError(EnvChainDecays, v, err)
		}
		cfg.ChainNodeDecays = decays
	}

	if v, ok := os.LookupEnv(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return envError(EnvSeed, v, err)
		}
		cfg.RNGSeed = seed
	}
	return nil
}

// ParseFloatList parses a comma separated list such as "0.95,0.9".
func ParseFloatList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func envError(key, value string, err error) error {
	return fmt.Errorf("%w: %s=%q: %v", qatp.ErrConfiguration, key, value, err)
}
