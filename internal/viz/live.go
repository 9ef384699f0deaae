package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/qatpsim/internal/qatp"
)

const (
	historyCapacity = 120
	inputStep       = 0.5
)

type TickMsg time.Time

// Model drives a System one cycle per tick and renders its history.
type Model struct {
	sys         *qatp.System
	capacity    float64
	input       float64
	interval    time.Duration
	running     bool
	showHelp    bool
	theme       Theme
	battery     []float64
	output      []float64
	activations []float64
	last        qatp.Snapshot
	cycles      int
	err         error
}

func NewModel(sys *qatp.System, input float64, interval time.Duration) Model {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return Model{
		sys:         sys,
		capacity:    sys.Config().BatteryCapacity,
		input:       input,
		interval:    interval,
		running:     true,
		theme:       ThemeCyberpunk,
		battery:     make([]float64, 0, historyCapacity),
		output:      make([]float64, 0, historyCapacity),
		activations: make([]float64, 0, historyCapacity),
		last:        sys.Snapshot(),
	}
}

// SetTheme selects a theme by name.
func (m *Model) SetTheme(name string) { m.theme = GetTheme(name) }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if _, err := m.sys.Recharge(m.capacity); err != nil {
				m.err = err
			} else {
				m.err = nil
				m.last = m.sys.Snapshot()
			}
		case "+", "=":
			m.input += inputStep
		case "-", "_":
			m.input = max(0, m.input-inputStep)
		case "t":
			m.theme = nextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	r, err := m.sys.Process(m.input)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.err = nil
	m.cycles = r.Cycle
	m.last = r.Snapshot

	activated := 0.0
	if r.Activated {
		activated = 1
	}
	m.battery = appendBounded(m.battery, r.Snapshot.BatteryEnergy)
	m.output = appendBounded(m.output, r.Propagated)
	m.activations = appendBounded(m.activations, activated)
}

func appendBounded(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m Model) View() string {
	st := newStyles(m.theme)

	var s strings.Builder
	status := st.running.Render("RUNNING")
	if !m.running {
		status = st.paused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")
	s.WriteString(st.label.Render("cycle") + st.value.Render(fmt.Sprintf("%d", m.cycles)) + "\n")
	s.WriteString(st.label.Render("input") + st.value.Render(fmt.Sprintf("%.2f", m.input)) + "\n")
	s.WriteString(st.label.Render("fired") + st.sparkline(m.activations, 30) + "\n")
	if m.err != nil {
		s.WriteString(st.low.Render("error: "+m.err.Error()) + "\n")
	}

	if len(m.battery) > 1 {
		chart := asciigraph.PlotMany([][]float64{m.battery, m.output},
			asciigraph.Height(6),
			asciigraph.Width(40),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
			asciigraph.Caption("battery / chain output"),
		)
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause R:Recharge +/-:Input T:Theme ?:Help Q:Quit"))

	panel := st.panel.Render(snapshotBody(st, m.last, m.capacity))
	main := lipgloss.JoinHorizontal(lipgloss.Top, panel, "  ", s.String())
	if m.showHelp {
		return helpText + "\n\n" + main
	}
	return main
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume cycling     ║
║  R        - Recharge the reservoir   ║
║  + / -    - Adjust cycle input       ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run starts the live program on the alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
