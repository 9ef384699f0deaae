package qatp

import (
	"strconv"
	"strings"
)

// Snapshot is a point-in-time view of all component states.
type Snapshot struct {
	BatteryEnergy     float64   `json:"battery_energy" yaml:"battery_energy"`
	CondensateEnergy  float64   `json:"condensate_energy" yaml:"condensate_energy"`
	ExcitonChainState []float64 `json:"exciton_chain_state" yaml:"exciton_chain_state"`
	NQPUState         bool      `json:"nqpu_state" yaml:"nqpu_state"`
}

// KeyValue is one rendered snapshot field.
type KeyValue struct {
	Key   string
	Value string
}

// Fields renders the snapshot as ordered key/value pairs.
func (s Snapshot) Fields() []KeyValue {
	chain := make([]string, len(s.ExcitonChainState))
	for i, v := range s.ExcitonChainState {
		chain[i] = formatEnergy(v)
	}
	return []KeyValue{
		{Key: "battery_energy", Value: formatEnergy(s.BatteryEnergy)},
		{Key: "condensate_energy", Value: formatEnergy(s.CondensateEnergy)},
		{Key: "exciton_chain_state", Value: "[" + strings.Join(chain, ",") + "]"},
		{Key: "nqpu_state", Value: strconv.FormatBool(s.NQPUState)},
	}
}

// String returns the key=value display form, one field per line.
func (s Snapshot) String() string {
	var b strings.Builder
	for i, kv := range s.Fields() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(kv.Key)
		b.WriteByte('=')
		b.WriteString(kv.Value)
	}
	return b.String()
}

// StoredEnergy is the energy held by the reservoir and the condensate.
// Chain residuals are in transit and not counted.
func (s Snapshot) StoredEnergy() float64 {
	return s.BatteryEnergy + s.CondensateEnergy
}

func formatEnergy(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
