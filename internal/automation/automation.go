// Package automation runs scripted input schedules against one system.
package automation

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/san-kum/qatpsim/internal/experiment"
	"github.com/san-kum/qatpsim/internal/qatp"
	"gopkg.in/yaml.v3"
)

// Scenario is a sequence of steps run back to back on the same system,
// so each step starts from the state the previous one left.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Steps       []ScenarioStep `yaml:"steps"`
}

type ScenarioStep struct {
	Label    string  `yaml:"label"`
	Cycles   int     `yaml:"cycles"`
	Input    float64 `yaml:"input"`
	Strategy string  `yaml:"strategy"`
	// Recharge is added to the reservoir before the step's first cycle.
	Recharge float64 `yaml:"recharge"`
}

type StepResult struct {
	Step     ScenarioStep
	Recharge float64
	Result   *experiment.Result
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	return &scenario, nil
}

// RunScenario executes every step in order. It returns the steps completed
// so far along with the first error.
func RunScenario(ctx context.Context, sys *qatp.System, scenario *Scenario, registry *experiment.Registry, log zerolog.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		label := step.Label
		if label == "" {
			label = fmt.Sprintf("step %d", i+1)
		}
		log.Info().Str("scenario", scenario.Name).Str("step", label).
			Int("cycles", step.Cycles).Float64("input", step.Input).Msg("running step")

		var accepted float64
		if step.Recharge != 0 {
			var err error
			accepted, err = sys.Recharge(step.Recharge)
			if err != nil {
				return results, fmt.Errorf("%s recharge: %w", label, err)
			}
		}

		exp, err := experiment.New(experiment.Config{
			Cycles:   step.Cycles,
			Input:    step.Input,
			Strategy: step.Strategy,
		}, sys, registry)
		if err != nil {
			return results, fmt.Errorf("%s: %w", label, err)
		}
		exp.SetLogger(log)

		result, err := exp.Run(ctx)
		results = append(results, StepResult{Step: step, Recharge: accepted, Result: result})
		if err != nil {
			return results, fmt.Errorf("%s run: %w", label, err)
		}
	}

	return results, nil
}
