package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/qatpsim/internal/qatp"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDefaultCycle(t *testing.T) {
	out, err := execute(t)
	if err != nil {
		t.Fatalf("default run failed: %v", err)
	}
	want := "activated: true\n" +
		"battery_energy=7.000000\n" +
		"condensate_energy=0.000000\n" +
		"exciton_chain_state=[2.052000,1.846800]\n" +
		"nqpu_state=true\n"
	if out != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", out, want)
	}
}

func TestCycleFormats(t *testing.T) {
	out, err := execute(t, "cycle", "1.0", "--format", "json")
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	var got cycleOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if got.Snapshot.BatteryEnergy != 9 {
		t.Errorf("expected battery 9, got %f", got.Snapshot.BatteryEnergy)
	}

	out, err = execute(t, "cycle", "--format", "yaml")
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if !strings.Contains(out, "battery_energy: 7") || !strings.Contains(out, "nqpu_state: true") {
		t.Errorf("unexpected yaml:\n%s", out)
	}

	if _, err := execute(t, "cycle", "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestValidationFailures(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("battery_efficiency: 1.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"negative input", []string{"cycle", "--", "-1"}, qatp.ErrInvalidInput},
		{"non-numeric input", []string{"cycle", "NaN"}, qatp.ErrInvalidInput},
		{"invalid config", []string{"--config", bad}, qatp.ErrConfiguration},
		{"unknown preset", []string{"--preset", "nope"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestRunListExport(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	prom := filepath.Join(dir, "qatp.prom")

	out, err := execute(t, "run", "--cycles", "3", "--data", data, "--prom-file", prom, "--log-level", "error")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "run id: ") || !strings.Contains(out, "activation_rate:") {
		t.Errorf("unexpected run output:\n%s", out)
	}

	raw, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("prom file not written: %v", err)
	}
	if !strings.Contains(string(raw), "qatp_cycles_total 3") {
		t.Errorf("unexpected prom file:\n%s", raw)
	}

	out, err = execute(t, "list", "--data", data)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.Count(out, "\n") != 2 || !strings.Contains(out, "constant") {
		t.Errorf("unexpected list:\n%s", out)
	}

	out, err = execute(t, "export-json", "--data", data)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var exported struct {
		Records []qatp.CycleResult `json:"records"`
	}
	if err := json.Unmarshal([]byte(out), &exported); err != nil {
		t.Fatalf("invalid export: %v", err)
	}
	if len(exported.Records) != 3 {
		t.Errorf("expected 3 records, got %d", len(exported.Records))
	}

	csvPath := filepath.Join(dir, "cycles.csv")
	if _, err := execute(t, "export-csv", "--data", data, "-o", csvPath); err != nil {
		t.Fatalf("export csv failed: %v", err)
	}
	if _, err := os.Stat(csvPath); err != nil {
		t.Errorf("csv not written: %v", err)
	}

	out, err = execute(t, "analyze", "--data", data)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(out, "activations: 3 (0 tunneled)") {
		t.Errorf("unexpected analysis:\n%s", out)
	}

	out, err = execute(t, "plot", "--data", data)
	if err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	if !strings.Contains(out, "cycles: 3") {
		t.Errorf("unexpected plot:\n%s", out)
	}
}

func TestRunRejectedCycleFails(t *testing.T) {
	data := t.TempDir()
	_, err := execute(t, "run", "--preset", "strict", "--cycles", "5", "--data", data, "--log-level", "error")
	if !errors.Is(err, qatp.ErrInsufficientEnergy) {
		t.Fatalf("expected ErrInsufficientEnergy, got %v", err)
	}
	// completed cycles are still saved
	out, _ := execute(t, "list", "--data", data)
	if !strings.Contains(out, "strict") {
		t.Errorf("partial run not saved:\n%s", out)
	}
}

func TestPresetsAndEnsemble(t *testing.T) {
	out, err := execute(t, "presets")
	if err != nil {
		t.Fatalf("presets failed: %v", err)
	}
	for _, name := range []string{"default", "lossless", "long_chain", "lucky", "strict"} {
		if !strings.Contains(out, name) {
			t.Errorf("missing preset %s", name)
		}
	}

	out, err = execute(t, "ensemble", "--runs", "3", "--cycles", "4", "--input", "1")
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if !strings.Contains(out, "mean:") || strings.Count(out, "\n42 ")+strings.Count(out, "\n43 ")+strings.Count(out, "\n44 ") != 3 {
		t.Errorf("unexpected ensemble output:\n%s", out)
	}
}

func TestSweep(t *testing.T) {
	out, err := execute(t, "sweep", "--param", "activation_threshold=5,1", "--param", "tunneling_probability=0",
		"--cycles", "3", "--log-level", "error")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if !strings.Contains(out, "best activation_rate: 1.000000") || !strings.Contains(out, "activation_threshold: 1\n") {
		t.Errorf("unexpected sweep output:\n%s", out)
	}

	if _, err := execute(t, "sweep", "--param", "warp=1"); !errors.Is(err, qatp.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for unknown parameter, got %v", err)
	}
	if _, err := execute(t, "sweep", "--param", "activation_threshold"); err == nil {
		t.Error("expected error for malformed grid")
	}
}

func TestScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	body := "name: refill\npreset: lossless\nsteps:\n" +
		"  - label: drain\n    cycles: 2\n    input: 5\n" +
		"  - label: refill\n    recharge: 4\n    cycles: 1\n    input: 1\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "scenario", path, "--log-level", "error")
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	// lossless preset: 10 - 5 - 5 + 4 - 1
	if !strings.Contains(out, "battery_energy=3.000000") {
		t.Errorf("unexpected scenario output:\n%s", out)
	}
	if !strings.Contains(out, "refill") || !strings.Contains(out, "4.000") {
		t.Errorf("missing step table:\n%s", out)
	}
}
