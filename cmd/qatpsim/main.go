package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/san-kum/qatpsim/internal/config"
	"github.com/spf13/cobra"
)

type options struct {
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	seed       int64
	format     string
	cycles     int
	input      float64
	adaptive   bool
	recharge   int
	promFile   string
	runs       int
	out        string
	interval   time.Duration
	theme      string
	sweep      []string
	metric     string
	minimize   bool

	log zerolog.Logger
}

// main runs the qatpsim CLI and exits with status 1 when a command fails.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "qatpsim",
		Short: "toy QATP energy cycle simulator",
		Long: "qatpsim couples a classical input to a reservoir, condensate, transport chain\n" +
			"and activation unit. Without a subcommand it runs one cycle with input 3.0.",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runCycle(cmd, config.DefaultInput)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.dataDir, "data", ".qatpsim", "data directory")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (trace|debug|info|warn|error), env "+config.EnvLogLevel)
	pf.StringVar(&opts.configFile, "config", "", "config file path (yaml or toml)")
	pf.StringVar(&opts.preset, "preset", "", "use preset configuration")
	pf.Int64Var(&opts.seed, "seed", config.DefaultSeed, "tunneling rng seed")

	cycleCmd := &cobra.Command{
		Use:   "cycle [input]",
		Short: "run one cycle and print the snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := config.DefaultInput
			if len(args) == 1 {
				v, err := parseInput(args[0])
				if err != nil {
					return err
				}
				input = v
			}
			return opts.runCycle(cmd, input)
		},
	}
	cycleCmd.Flags().StringVar(&opts.format, "format", "text", "output format (text|json|yaml)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run many cycles and save the run",
		Args:  cobra.NoArgs,
		RunE:  opts.runCycles,
	}
	runCmd.Flags().IntVar(&opts.cycles, "cycles", 10, "number of cycles")
	runCmd.Flags().Float64Var(&opts.input, "input", config.DefaultInput, "input per cycle (system load with --adaptive)")
	runCmd.Flags().BoolVar(&opts.adaptive, "adaptive", false, "forecast the input from delivered energy")
	runCmd.Flags().IntVar(&opts.recharge, "recharge-every", 0, "recharge the reservoir to capacity every n cycles")
	runCmd.Flags().StringVar(&opts.promFile, "prom-file", "", "write prometheus metrics to this textfile")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  opts.listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run (latest when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  opts.plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  opts.exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run cycles to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  opts.exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  opts.listPresets,
	}

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run the same experiment across consecutive seeds",
		Args:  cobra.NoArgs,
		RunE:  opts.runEnsemble,
	}
	ensembleCmd.Flags().IntVar(&opts.runs, "runs", 8, "number of runs")
	ensembleCmd.Flags().IntVar(&opts.cycles, "cycles", 10, "cycles per run")
	ensembleCmd.Flags().Float64Var(&opts.input, "input", config.DefaultInput, "input per cycle")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run cycles with live visualization",
		Args:  cobra.NoArgs,
		RunE:  opts.runLive,
	}
	liveCmd.Flags().Float64Var(&opts.input, "input", config.DefaultInput, "initial input per cycle")
	liveCmd.Flags().DurationVar(&opts.interval, "interval", 250*time.Millisecond, "time between cycles")
	liveCmd.Flags().StringVar(&opts.theme, "theme", "cyberpunk", "color theme")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summary statistics and dominant period of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  opts.analyzeRun,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario (yaml) against one system",
		Args:  cobra.ExactArgs(1),
		RunE:  opts.runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search configuration parameters for the best run metric",
		Example: "  qatpsim sweep --param activation_threshold=0.5,1,2 --param tunneling_probability=0,0.2\n" +
			"  qatpsim sweep --param battery_efficiency=0.5,0.7,0.9 --metric transfer_efficiency",
		Args: cobra.NoArgs,
		RunE: opts.runSweep,
	}
	sweepCmd.Flags().StringArrayVar(&opts.sweep, "param", nil, "parameter grid as name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&opts.metric, "metric", "activation_rate", "metric to optimize")
	sweepCmd.Flags().BoolVar(&opts.minimize, "minimize", false, "minimize the metric instead of maximizing it")
	sweepCmd.Flags().IntVar(&opts.cycles, "cycles", 10, "cycles per grid point")
	sweepCmd.Flags().Float64Var(&opts.input, "input", config.DefaultInput, "input per cycle")
	_ = sweepCmd.MarkFlagRequired("param")

	rootCmd.AddCommand(cycleCmd, runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, presetsCmd, ensembleCmd, analyzeCmd, scenarioCmd, sweepCmd, liveCmd)
	return rootCmd
}
