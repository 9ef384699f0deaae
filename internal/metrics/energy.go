package metrics

import "github.com/san-kum/qatpsim/internal/qatp"

type MeanDelivered struct {
	name    string
	sum     float64
	samples int
}

func NewMeanDelivered() *MeanDelivered {
	return &MeanDelivered{name: "mean_delivered"}
}

func (m *MeanDelivered) Name() string { return m.name }

func (m *MeanDelivered) Observe(r qatp.CycleResult) {
	m.sum += r.Delivered
	m.samples++
}

func (m *MeanDelivered) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanDelivered) Reset() {
	m.sum = 0
	m.samples = 0
}

// TransferEfficiency is total chain output over total requested input.
type TransferEfficiency struct {
	name   string
	input  float64
	output float64
}

func NewTransferEfficiency() *TransferEfficiency {
	return &TransferEfficiency{name: "transfer_efficiency"}
}

func (e *TransferEfficiency) Name() string { return e.name }

func (e *TransferEfficiency) Observe(r qatp.CycleResult) {
	e.input += r.Input
	e.output += r.Propagated
}

func (e *TransferEfficiency) Value() float64 {
	if e.input == 0 {
		return 0
	}
	return e.output / e.input
}

func (e *TransferEfficiency) Reset() {
	e.input = 0
	e.output = 0
}

// FinalStored is the reservoir plus condensate energy after the last cycle.
type FinalStored struct {
	name  string
	value float64
}

func NewFinalStored() *FinalStored {
	return &FinalStored{name: "final_stored"}
}

func (f *FinalStored) Name() string { return f.name }

func (f *FinalStored) Observe(r qatp.CycleResult) {
	f.value = r.Snapshot.StoredEnergy()
}

func (f *FinalStored) Value() float64 { return f.value }

func (f *FinalStored) Reset() { f.value = 0 }
