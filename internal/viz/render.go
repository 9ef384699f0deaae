package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/qatpsim/internal/qatp"
)

const gaugeWidth = 20

// RenderSnapshot draws every component of s as a bordered panel. capacity
// scales the battery gauge.
func RenderSnapshot(s qatp.Snapshot, capacity float64, theme Theme) string {
	st := newStyles(theme)
	return st.panel.Render(snapshotBody(st, s, capacity))
}

func snapshotBody(st styles, s qatp.Snapshot, capacity float64) string {
	var b strings.Builder
	b.WriteString(st.header.Render("QATP SYSTEM") + "\n")

	fill := 0.0
	if capacity > 0 {
		fill = s.BatteryEnergy / capacity
	}
	b.WriteString(st.label.Render("battery") + st.gauge(fill, gaugeWidth) + " " +
		st.value.Render(fmt.Sprintf("%.3f / %.3g", s.BatteryEnergy, capacity)) + "\n")
	b.WriteString(st.label.Render("condensate") + st.value.Render(fmt.Sprintf("%.3f", s.CondensateEnergy)) + "\n")

	peak := 0.0
	for _, v := range s.ExcitonChainState {
		peak = max(peak, v)
	}
	for i, v := range s.ExcitonChainState {
		frac := 0.0
		if peak > 0 {
			frac = v / peak
		}
		b.WriteString(st.label.Render(fmt.Sprintf("node %d", i)) + st.gauge(frac, gaugeWidth) + " " +
			st.value.Render(fmt.Sprintf("%.3f", v)) + "\n")
	}

	state := st.off.Render("idle")
	if s.NQPUState {
		state = st.on.Render("ACTIVE")
	}
	b.WriteString(st.label.Render("nqpu") + state)
	return b.String()
}

// RenderRun plots battery, condensate and chain output across the cycles
// of a run.
func RenderRun(records []qatp.CycleResult, width, height int) string {
	if len(records) == 0 {
		return "no cycles recorded"
	}

	battery := make([]float64, len(records))
	condensate := make([]float64, len(records))
	output := make([]float64, len(records))
	activations := 0
	for i, r := range records {
		battery[i] = r.Snapshot.BatteryEnergy
		condensate[i] = r.Snapshot.CondensateEnergy
		output[i] = r.Propagated
		if r.Activated {
			activations++
		}
	}
	// asciigraph needs two points to draw a line
	if len(records) == 1 {
		battery = append(battery, battery[0])
		condensate = append(condensate, condensate[0])
		output = append(output, output[0])
	}

	graph := asciigraph.PlotMany([][]float64{battery, condensate, output},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Blue, asciigraph.Red),
		asciigraph.Caption("battery (green)  condensate (blue)  chain output (red)"),
	)
	summary := fmt.Sprintf("cycles: %d  activations: %d", len(records), activations)
	return lipgloss.JoinVertical(lipgloss.Left, graph, "", summary)
}
