package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/qatpsim/internal/config"
	"github.com/san-kum/qatpsim/internal/experiment"
	"github.com/san-kum/qatpsim/internal/optim"
	"github.com/san-kum/qatpsim/internal/qatp"
	"github.com/spf13/cobra"
)

// parseGrid turns name=v1,v2 flags into parallel name and range slices.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, values, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("invalid --param %q, want name=v1,v2", spec)
		}
		r, err := config.ParseFloatList(values)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --param %q: %w", spec, err)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, r)
	}
	return names, ranges, nil
}

func (o *options) runSweep(cmd *cobra.Command, args []string) error {
	base, err := o.fileConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(o.sweep)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := base.Clone().SetParam(name, 0); err != nil {
			return err
		}
	}

	goal := optim.Maximize
	if o.minimize {
		goal = optim.Minimize
	}
	g, err := optim.NewGridSearch(names, ranges, goal)
	if err != nil {
		return err
	}

	run := experiment.Config{Cycles: o.cycles, Input: o.input}
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		sc, err := cfg.System()
		if err != nil {
			return nil, err
		}
		sys, err := qatp.NewSystem(sc)
		if err != nil {
			return nil, err
		}
		return experiment.New(run, sys, nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	o.log.Info().Int("points", g.Size()).Str("metric", o.metric).Msg("sweep started")
	best, points, err := g.Search(ctx, build, o.metric)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(o.metric))
	for _, p := range points {
		cols := make([]string, len(names))
		for i, name := range names {
			cols[i] = fmt.Sprintf("%g", p.Params[name])
		}
		val := fmt.Sprintf("%.6f", p.Value)
		if p.Err != nil {
			val = "invalid: " + p.Err.Error()
		}
		fmt.Fprintln(w, strings.Join(cols, "\t")+"\t"+val)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nbest %s: %.6f\n", o.metric, best.Value)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %g\n", name, best.Params[name])
	}
	return nil
}
