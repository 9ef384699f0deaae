package analysis

import (
	"github.com/san-kum/qatpsim/internal/qatp"
	"gonum.org/v1/gonum/stat"
)

// Field selects one per-cycle value from a record.
type Field func(r qatp.CycleResult) float64

var (
	Delivered   Field = func(r qatp.CycleResult) float64 { return r.Delivered }
	ChainOutput Field = func(r qatp.CycleResult) float64 { return r.Propagated }
	Battery     Field = func(r qatp.CycleResult) float64 { return r.Snapshot.BatteryEnergy }
	Activation  Field = func(r qatp.CycleResult) float64 {
		if r.Activated {
			return 1
		}
		return 0
	}
)

// Series extracts one field across records.
func Series(records []qatp.CycleResult, f Field) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = f(r)
	}
	return out
}

type Summary struct {
	Cycles         int
	Activations    int
	Tunneled       int
	MeanDelivered  float64
	StdDelivered   float64
	MeanOutput     float64
	StdOutput      float64
	LongestIdle    int
	DominantPeriod float64
}

func Summarize(records []qatp.CycleResult) Summary {
	s := Summary{Cycles: len(records)}
	if len(records) == 0 {
		return s
	}

	idle := 0
	for _, r := range records {
		if r.Activated {
			s.Activations++
			idle = 0
		} else {
			idle++
			s.LongestIdle = max(s.LongestIdle, idle)
		}
		if r.Tunneled {
			s.Tunneled++
		}
	}

	s.MeanDelivered, s.StdDelivered = meanStd(Series(records, Delivered))
	output := Series(records, ChainOutput)
	s.MeanOutput, s.StdOutput = meanStd(output)
	s.DominantPeriod, _ = DominantPeriod(output)
	return s
}

func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}
