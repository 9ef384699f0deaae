package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/qatpsim/internal/config"
	"github.com/san-kum/qatpsim/internal/experiment"
	"github.com/san-kum/qatpsim/internal/qatp"
)

func builder(base *config.Config, run experiment.Config) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
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
}

func TestGridSearchMaximize(t *testing.T) {
	base := config.DefaultConfig()
	base.TunnelingProbability = 0

	g, err := NewGridSearch(
		[]string{"activation_threshold"},
		[][]float64{{5.0, 1.0, 3.0}},
		Maximize,
	)
	if err != nil {
		t.Fatal(err)
	}

	best, points, err := g.Search(context.Background(), builder(base, experiment.Config{Cycles: 3, Input: 3.0}), "activation_rate")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(points) != 3 {
		t.Errorf("expected 3 points, got %d", len(points))
	}
	// chain output is 1.8468 per cycle, so only threshold 1 activates
	if best.Params["activation_threshold"] != 1.0 || best.Value != 1.0 {
		t.Errorf("unexpected best: %+v", best)
	}
}

func TestGridSearchMinimizeTwoParams(t *testing.T) {
	base := config.DefaultConfig()
	g, _ := NewGridSearch(
		[]string{"battery_efficiency", "condensate_decay_rate"},
		[][]float64{{0.5, 1.0}, {0.0, 0.5}},
		Minimize,
	)
	if g.Size() != 4 {
		t.Fatalf("expected 4 points, got %d", g.Size())
	}

	best, _, err := g.Search(context.Background(), builder(base, experiment.Config{Cycles: 1, Input: 2.0}), "transfer_efficiency")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if best.Params["battery_efficiency"] != 0.5 || best.Params["condensate_decay_rate"] != 0.5 {
		t.Errorf("unexpected best: %+v", best)
	}
}

func TestGridSearchInvalidPoints(t *testing.T) {
	base := config.DefaultConfig()
	g, _ := NewGridSearch([]string{"battery_efficiency"}, [][]float64{{1.5, 0.9}}, Maximize)

	best, points, err := g.Search(context.Background(), builder(base, experiment.Config{Cycles: 1, Input: 1.0}), "mean_delivered")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !errors.Is(points[0].Err, qatp.ErrConfiguration) {
		t.Errorf("expected configuration error for efficiency 1.5, got %v", points[0].Err)
	}
	if best.Params["battery_efficiency"] != 0.9 {
		t.Errorf("unexpected best: %+v", best)
	}

	g, _ = NewGridSearch([]string{"battery_efficiency"}, [][]float64{{-1, 2}}, Maximize)
	if _, _, err := g.Search(context.Background(), builder(base, experiment.Config{Cycles: 1, Input: 1.0}), "mean_delivered"); err == nil {
		t.Error("expected error when every point fails")
	}
}

func TestGridSearchCanceled(t *testing.T) {
	g, _ := NewGridSearch([]string{"activation_threshold"}, [][]float64{{1, 2}}, Maximize)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := g.Search(ctx, builder(config.DefaultConfig(), experiment.Config{Cycles: 1, Input: 1}), "activation_rate")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewGridSearchValidation(t *testing.T) {
	if _, err := NewGridSearch(nil, nil, Minimize); err == nil {
		t.Error("expected error for no parameters")
	}
	if _, err := NewGridSearch([]string{"a"}, [][]float64{{}}, Minimize); err == nil {
		t.Error("expected error for empty range")
	}
	if _, err := NewGridSearch([]string{"a", "b"}, [][]float64{{1}}, Minimize); err == nil {
		t.Error("expected error for mismatched ranges")
	}
}
