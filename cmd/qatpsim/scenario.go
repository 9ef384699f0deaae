package main

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/san-kum/qatpsim/internal/automation"
	"github.com/san-kum/qatpsim/internal/config"
	"github.com/spf13/cobra"
)

func (o *options) runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	// --preset on the command line wins over the scenario's own preset
	if sc.Preset != "" && !cmd.Flags().Changed("preset") {
		if config.GetPreset(sc.Preset) == nil {
			return fmt.Errorf("scenario %s: unknown preset: %s", sc.Name, sc.Preset)
		}
		o.preset = sc.Preset
	}

	_, sys, err := o.newSystem(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	results, runErr := automation.RunScenario(ctx, sys, sc, nil, o.log)

	out := cmd.OutOrStdout()
	if sc.Description != "" {
		fmt.Fprintf(out, "%s: %s\n\n", sc.Name, sc.Description)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRECHARGED\tCYCLES\tINPUT\tACTIVATION\tBATTERY\tCONDENSATE")
	for i, r := range results {
		label := r.Step.Label
		if label == "" {
			label = fmt.Sprintf("step %d", i+1)
		}
		final := r.Result.Final()
		fmt.Fprintf(w, "%s\t%.3f\t%d\t%.3f\t%.2f\t%.3f\t%.3f\n",
			label,
			r.Recharge,
			len(r.Result.Records),
			r.Step.Input,
			r.Result.Metrics["activation_rate"],
			final.BatteryEnergy,
			final.CondensateEnergy,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "final:\n%s\n", sys.Snapshot())
	return nil
}
