package experiment

import (
	"context"
	"sync"

	"github.com/san-kum/qatpsim/internal/qatp"
)

// Ensemble runs the same experiment on independent systems that differ
// only in their tunneling seed.
type Ensemble struct {
	system    qatp.Config
	run       Config
	numRuns   int
	seedStart int64
}

func NewEnsemble(system qatp.Config, run Config, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{system: system, run: run, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := e.system
			cfg.ChainNodeDecays = append([]float64(nil), e.system.ChainNodeDecays...)
			cfg.Seed = e.seedStart + int64(idx)

			sys, err := qatp.NewSystem(cfg)
			if err != nil {
				errs[idx] = err
				return
			}
			exp, err := New(e.run, sys, nil)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = exp.Run(ctx)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Mean averages one metric across ensemble results.
func Mean(results []*Result, metric string) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Metrics[metric]
	}
	return sum / float64(len(results))
}
