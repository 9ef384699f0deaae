// Package optim sweeps configuration parameters over a grid and keeps the
// point with the best run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/qatpsim/internal/experiment"
)

type Goal int

const (
	Minimize Goal = iota
	Maximize
)

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	goal       Goal
}

func NewGridSearch(params []string, ranges [][]float64, goal Goal) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("need one range per parameter, got %d parameters and %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, goal: goal}, nil
}

// Size returns the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs one experiment per grid point. Points whose experiment cannot
// be built or fails are reported with Err set and never win. It fails when
// no point succeeds or ctx is canceled.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (Point, []Point, error) {
	points := make([]Point, 0, g.Size())
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &points); err != nil {
		return Point{}, points, err
	}

	best := Point{Value: math.Inf(1)}
	if g.goal == Maximize {
		best.Value = math.Inf(-1)
	}
	found := false
	var lastErr error
	for _, p := range points {
		if p.Err != nil {
			lastErr = p.Err
			continue
		}
		if !found || g.better(p.Value, best.Value) {
			best = p
			found = true
		}
	}
	if !found {
		return Point{}, points, fmt.Errorf("no grid point succeeded: %w", lastErr)
	}
	return best, points, nil
}

func (g *GridSearch) better(v, best float64) bool {
	if g.goal == Maximize {
		return v > best
	}
	return v < best
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		p := Point{Params: current}
		exp, err := buildExperiment(current)
		if err != nil {
			p.Err = err
			*points = append(*points, p)
			return nil
		}

		result, err := exp.Run(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if err != nil {
			p.Err = err
		} else {
			val, ok := result.Metrics[metricName]
			if !ok {
				p.Err = fmt.Errorf("unknown metric: %s", metricName)
			}
			p.Value = val
		}
		*points = append(*points, p)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, points); err != nil {
			return err
		}
	}
	return nil
}
