package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/qatpsim/internal/qatp"
)

const namespace = "qatp"

// Collector mirrors every cycle into Prometheus gauges and counters. It
// implements qatp.Observer and owns its own registry.
type Collector struct {
	registry    *prometheus.Registry
	battery     prometheus.Gauge
	condensate  prometheus.Gauge
	chainOutput prometheus.Gauge
	cycles      prometheus.Counter
	activations *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		battery: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_energy",
			Help:      "Reservoir charge after the last cycle.",
		}),
		condensate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "condensate_energy",
			Help:      "Condensate stored energy after the last cycle.",
		}),
		chainOutput: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_output",
			Help:      "Energy delivered past the last transport node.",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed cycles.",
		}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Activations by mode.",
		}, []string{"mode"}),
	}
	c.registry.MustRegister(c.battery, c.condensate, c.chainOutput, c.cycles, c.activations)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) OnCycle(r qatp.CycleResult) {
	c.battery.Set(r.Snapshot.BatteryEnergy)
	c.condensate.Set(r.Snapshot.CondensateEnergy)
	c.chainOutput.Set(r.Propagated)
	c.cycles.Inc()
	if !r.Activated {
		return
	}
	mode := "threshold"
	if r.Tunneled {
		mode = "tunneling"
	}
	c.activations.WithLabelValues(mode).Inc()
}

// WriteTextfile writes the current values in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
