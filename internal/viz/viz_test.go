package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/qatpsim/internal/qatp"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := qatp.DefaultConfig()
	cfg.TunnelingProbability = 0
	sys, err := qatp.NewSystem(cfg)
	if err != nil {
		t.Fatalf("new system: %v", err)
	}
	return NewModel(sys, 3.0, time.Millisecond)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestRenderSnapshot(t *testing.T) {
	s := qatp.Snapshot{
		BatteryEnergy:     7,
		CondensateEnergy:  0,
		ExcitonChainState: []float64{2.052, 1.8468},
		NQPUState:         true,
	}
	out := RenderSnapshot(s, 10, ThemeOcean)
	for _, want := range []string{"battery", "7.000 / 10", "node 0", "2.052", "node 1", "1.847", "ACTIVE"} {
		if !strings.Contains(out, want) {
			t.Errorf("panel missing %q:\n%s", want, out)
		}
	}

	s.NQPUState = false
	if out := RenderSnapshot(s, 10, ThemeOcean); !strings.Contains(out, "idle") {
		t.Error("expected idle unit")
	}
}

func TestRenderRun(t *testing.T) {
	if got := RenderRun(nil, 40, 5); got != "no cycles recorded" {
		t.Errorf("unexpected empty render: %q", got)
	}

	records := []qatp.CycleResult{
		{Cycle: 1, Propagated: 1.8, Activated: true, Snapshot: qatp.Snapshot{BatteryEnergy: 7}},
		{Cycle: 2, Propagated: 0.6, Snapshot: qatp.Snapshot{BatteryEnergy: 4}},
	}
	out := RenderRun(records, 40, 5)
	if !strings.Contains(out, "cycles: 2  activations: 1") {
		t.Errorf("missing summary:\n%s", out)
	}

	if out := RenderRun(records[:1], 40, 5); !strings.Contains(out, "cycles: 1") {
		t.Errorf("single cycle not rendered:\n%s", out)
	}
}

func TestModelTick(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, TickMsg(time.Now()))
	m = update(t, m, TickMsg(time.Now()))

	if m.cycles != 2 {
		t.Fatalf("expected 2 cycles, got %d", m.cycles)
	}
	if m.last.BatteryEnergy != 4 {
		t.Errorf("expected battery 4, got %f", m.last.BatteryEnergy)
	}
	if len(m.battery) != 2 || len(m.activations) != 2 {
		t.Errorf("history not recorded: %v %v", m.battery, m.activations)
	}
	if !strings.Contains(m.View(), "RUNNING") {
		t.Error("expected running status")
	}
}

func TestModelPause(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, key(" "))
	m = update(t, m, TickMsg(time.Now()))

	if m.cycles != 0 {
		t.Errorf("paused model advanced to cycle %d", m.cycles)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("expected paused status")
	}
}

func TestModelRecharge(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, TickMsg(time.Now()))
	m = update(t, m, key("r"))

	if m.last.BatteryEnergy != 10 {
		t.Errorf("expected full battery after recharge, got %f", m.last.BatteryEnergy)
	}
}

func TestModelInputKeys(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, key("+"))
	if m.input != 3.5 {
		t.Errorf("expected input 3.5, got %f", m.input)
	}
	for i := 0; i < 10; i++ {
		m = update(t, m, key("-"))
	}
	if m.input != 0 {
		t.Errorf("input should floor at 0, got %f", m.input)
	}
}

func TestModelThemeAndHelp(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, key("t"))
	if m.theme.Name != "retro" {
		t.Errorf("expected retro theme, got %s", m.theme.Name)
	}
	m = update(t, m, key("?"))
	if !strings.Contains(m.View(), "KEYBOARD SHORTCUTS") {
		t.Error("expected help overlay")
	}
}

func TestModelStopsOnFailedCycle(t *testing.T) {
	cfg := qatp.DefaultConfig()
	cfg.UnderflowPolicy = qatp.UnderflowReject
	sys, err := qatp.NewSystem(cfg)
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(sys, 20, time.Millisecond)
	m = update(t, m, TickMsg(time.Now()))

	if m.err == nil || m.running {
		t.Fatal("expected failed cycle to pause the model")
	}
	if !strings.Contains(m.View(), "error:") {
		t.Error("expected error in view")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("missing").Name != "cyberpunk" {
		t.Error("unknown theme should fall back to cyberpunk")
	}
	if got := len(ThemeNames()); got != len(Themes) {
		t.Errorf("expected %d names, got %d", len(Themes), got)
	}
	if nextTheme(ThemeOcean).Name != "cyberpunk" {
		t.Error("theme cycle should wrap")
	}
}
