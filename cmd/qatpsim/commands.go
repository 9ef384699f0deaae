package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/san-kum/qatpsim/internal/analysis"
	"github.com/san-kum/qatpsim/internal/config"
	"github.com/san-kum/qatpsim/internal/experiment"
	"github.com/san-kum/qatpsim/internal/logging"
	"github.com/san-kum/qatpsim/internal/metrics"
	"github.com/san-kum/qatpsim/internal/qatp"
	"github.com/san-kum/qatpsim/internal/storage"
	"github.com/san-kum/qatpsim/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// setup loads .env and builds the logger before any command runs.
func (o *options) setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	level := o.logLevel
	if !cmd.Flags().Changed("log-level") {
		if v := os.Getenv(config.EnvLogLevel); v != "" {
			level = v
		}
	}
	o.log = logging.New(level, cmd.ErrOrStderr(), true)
	return nil
}

// fileConfig resolves the configuration: preset or defaults, then the
// config file, then QATP_* variables, then --seed.
func (o *options) fileConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.preset != "" {
		cfg = config.GetPreset(o.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", o.preset, config.ListPresets())
		}
	}
	if o.configFile != "" {
		loaded, err := config.LoadOver(o.configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.RNGSeed = o.seed
	}
	return cfg, nil
}

func (o *options) newSystem(cmd *cobra.Command) (*config.Config, *qatp.System, error) {
	cfg, err := o.fileConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	sc, err := cfg.System()
	if err != nil {
		return nil, nil, err
	}
	sys, err := qatp.NewSystem(sc)
	if err != nil {
		return nil, nil, err
	}
	sys.SetLogger(o.log)
	return cfg, sys, nil
}

func parseInput(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", qatp.ErrInvalidInput, s)
	}
	return v, nil
}

type cycleOutput struct {
	Activated bool          `json:"activated" yaml:"activated"`
	Snapshot  qatp.Snapshot `json:"snapshot" yaml:"snapshot"`
}

func (o *options) runCycle(cmd *cobra.Command, input float64) error {
	_, sys, err := o.newSystem(cmd)
	if err != nil {
		return err
	}
	activated, snap, err := sys.HybridProcess(input)
	if err != nil {
		return err
	}
	return writeCycle(cmd.OutOrStdout(), o.format, cycleOutput{Activated: activated, Snapshot: snap})
}

func writeCycle(w io.Writer, format string, out cycleOutput) error {
	switch format {
	case "", "text":
		_, err := fmt.Fprintf(w, "activated: %t\n%s\n", out.Activated, out.Snapshot)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(out)
	default:
		return fmt.Errorf("unknown format: %s (available: text, json, yaml)", format)
	}
}

func (o *options) runCycles(cmd *cobra.Command, args []string) error {
	cfg, sys, err := o.newSystem(cmd)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	sys.AddObserver(collector)

	runCfg := experiment.Config{
		Cycles:         o.cycles,
		Input:          o.input,
		Strategy:       "constant",
		RechargeEvery:  o.recharge,
		RechargeAmount: cfg.BatteryCapacity,
	}
	if o.adaptive {
		runCfg.Strategy = "adaptive"
	}
	exp, err := experiment.New(runCfg, sys, nil)
	if err != nil {
		return err
	}
	exp.SetLogger(o.log)

	st := storage.New(o.dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running %d cycles (%s input)...\n", o.cycles, runCfg.Strategy)
	start := time.Now()

	result, runErr := exp.Run(ctx)
	if runErr != nil && len(result.Records) == 0 {
		return runErr
	}

	runID, err := st.Save(storage.RunMetadata{
		Preset:   o.preset,
		Strategy: runCfg.Strategy,
		Input:    o.input,
		Config:   cfg,
	}, result)
	if err != nil {
		return err
	}

	if o.promFile != "" {
		if err := collector.WriteTextfile(o.promFile); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "completed in %v\n", time.Since(start).Round(time.Microsecond))
	fmt.Fprintf(out, "run id: %s\n", runID)
	fmt.Fprintf(out, "cycles: %d\n", len(result.Records))
	fmt.Fprintln(out, "\nmetrics:")
	printMetrics(out, result.Metrics)
	fmt.Fprintln(out)
	fmt.Fprintln(out, viz.RenderSnapshot(result.Final(), cfg.BatteryCapacity, viz.ThemeCyberpunk))

	if runErr != nil {
		return fmt.Errorf("run stopped after %d cycles: %w", len(result.Records), runErr)
	}
	return nil
}

func printMetrics(w io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6f\n", name, m[name])
	}
}

func (o *options) resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	latest, err := st.Latest()
	if err != nil {
		return "", err
	}
	return latest.ID, nil
}

func (o *options) listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(o.dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPRESET\tSTRATEGY\tCYCLES\tACTIVATION")
	for _, run := range runs {
		preset := run.Preset
		if preset == "" {
			preset = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\n",
			run.ID,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			preset,
			run.Strategy,
			run.Cycles,
			run.Metrics["activation_rate"],
		)
	}
	return w.Flush()
}

func (o *options) plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(o.dataDir)
	runID, err := o.resolveRun(st, args)
	if err != nil {
		return err
	}
	records, err := st.LoadRecords(runID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s\n\n%s\n", runID, viz.RenderRun(records, 80, 12))
	return nil
}

// output returns the --out file or stdout.
func (o *options) output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if o.out == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(o.out)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func (o *options) exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(o.dataDir)
	runID, err := o.resolveRun(st, args)
	if err != nil {
		return err
	}
	if o.out != "" {
		if err := st.ExportJSON(o.out, runID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %s to %s\n", runID, o.out)
		return nil
	}
	return st.WriteJSON(cmd.OutOrStdout(), runID)
}

func (o *options) exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(o.dataDir)
	runID, err := o.resolveRun(st, args)
	if err != nil {
		return err
	}
	w, closeFn, err := o.output(cmd)
	if err != nil {
		return err
	}
	if err := st.ExportCSV(w, runID); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func (o *options) analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(o.dataDir)
	runID, err := o.resolveRun(st, args)
	if err != nil {
		return err
	}
	records, err := st.LoadRecords(runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("run %s has no cycles", runID)
	}

	s := analysis.Summarize(records)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "analysis: %s\n\n", runID)

	if ps := analysis.PowerSpectrum(analysis.Series(records, analysis.ChainOutput)); len(ps) > 2 {
		graph := asciigraph.Plot(ps[1:],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (chain output)"),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "cycles: %d\n", s.Cycles)
	fmt.Fprintf(out, "activations: %d (%d tunneled)\n", s.Activations, s.Tunneled)
	fmt.Fprintf(out, "longest idle streak: %d\n", s.LongestIdle)
	fmt.Fprintf(out, "delivered: %.6f ± %.6f\n", s.MeanDelivered, s.StdDelivered)
	fmt.Fprintf(out, "chain output: %.6f ± %.6f\n", s.MeanOutput, s.StdOutput)
	if s.DominantPeriod > 0 {
		fmt.Fprintf(out, "dominant period: %.2f cycles\n", s.DominantPeriod)
	} else {
		fmt.Fprintln(out, "dominant period: none")
	}
	return nil
}

func (o *options) listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCAPACITY\tTHRESHOLD\tTUNNELING\tNODES\tUNDERFLOW")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%.1f\t%.2f\t%.2f (%s)\t%d\t%s\n",
			name,
			p.BatteryCapacity,
			p.ActivationThreshold,
			p.TunnelingProbability,
			p.TunnelingModel,
			len(p.ChainNodeDecays),
			p.UnderflowPolicy,
		)
	}
	return w.Flush()
}

func (o *options) runEnsemble(cmd *cobra.Command, args []string) error {
	if o.runs <= 0 {
		return fmt.Errorf("runs must be positive, got %d", o.runs)
	}
	cfg, err := o.fileConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := cfg.System()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ens := experiment.NewEnsemble(sc, experiment.Config{Cycles: o.cycles, Input: o.input}, o.runs, sc.Seed)
	results, err := ens.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tACTIVATION\tTUNNELING\tDELIVERED\tSTORED")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%.3f\t%.3f\n",
			sc.Seed+int64(i),
			r.Metrics["activation_rate"],
			r.Metrics["tunneling_rate"],
			r.Metrics["mean_delivered"],
			r.Metrics["final_stored"],
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nmean:")
	for _, name := range []string{"activation_rate", "tunneling_rate", "mean_delivered", "transfer_efficiency", "final_stored"} {
		fmt.Fprintf(out, "  %s: %.6f\n", name, experiment.Mean(results, name))
	}
	return nil
}

func (o *options) runLive(cmd *cobra.Command, args []string) error {
	_, sys, err := o.newSystem(cmd)
	if err != nil {
		return err
	}
	// log lines would corrupt the alternate screen
	sys.SetLogger(zerolog.Nop())

	m := viz.NewModel(sys, o.input, o.interval)
	m.SetTheme(o.theme)
	return viz.Run(m)
}
