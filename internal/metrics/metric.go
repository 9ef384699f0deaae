// Package metrics aggregates cycle traces into scalar run metrics and
// exports live component state to Prometheus.
package metrics

import "github.com/san-kum/qatpsim/internal/qatp"

// Metric folds cycle results into one scalar.
type Metric interface {
	Name() string
	Observe(r qatp.CycleResult)
	Value() float64
	Reset()
}

// Defaults returns the metric set reported for every run.
func Defaults() []Metric {
	return []Metric{
		NewActivationRate(),
		NewTunnelingRate(),
		NewMeanDelivered(),
		NewTransferEfficiency(),
		NewFinalStored(),
	}
}
