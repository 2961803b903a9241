// Package automation runs batches of experiments: scripted scenarios,
// mechanism parameter sweeps and Monte Carlo trials over the initial state.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/mbsym/internal/config"
	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/experiment"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Fields left out of the YAML keep the
// defaults of config.DefaultConfig.
type ScenarioStep struct {
	config.Config `yaml:",inline"`
	SaveAs        string `yaml:"save_as"`
}

type StepResult struct {
	Step       int
	Name       string
	Experiment *experiment.Experiment
	Result     *dynamo.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Steps       []yaml.Node `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	scenario := &Scenario{Name: raw.Name, Description: raw.Description}
	for i, node := range raw.Steps {
		step := ScenarioStep{Config: *config.DefaultConfig()}
		if err := node.Decode(&step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		scenario.Steps = append(scenario.Steps, step)
	}
	return scenario, nil
}

// RunScenario executes the steps in order. A failing step stops the
// scenario; the results of the earlier steps are returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("%s-%d", step.Mechanism, i+1)
		}
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", name)

		cfg := step.Config
		exp, err := experiment.New(ctx, &cfg, logger)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, StepResult{Step: i + 1, Name: name, Experiment: exp, Result: result})
	}
	return results, nil
}

// ParameterSweep reruns a mechanism with one parameter stepped over
// [Min, Max]. Each value rebuilds and reduces the mechanism.
type ParameterSweep struct {
	Base     *config.Config
	Param    string
	Min, Max float64
	Steps    int
}

// SweepResult summarizes one sweep point. Err is set when the mechanism
// could not be built at this value, or when the run stopped early.
type SweepResult struct {
	Value     float64
	Final     dynamo.State
	MinEnergy float64
	MaxEnergy float64
	Metrics   map[string]float64
	Err       error
}

func (p *ParameterSweep) Values() []float64 {
	if p.Steps <= 1 {
		return []float64{p.Min}
	}
	out := make([]float64, p.Steps)
	step := (p.Max - p.Min) / float64(p.Steps-1)
	for i := range out {
		out[i] = p.Min + float64(i)*step
	}
	out[len(out)-1] = p.Max
	return out
}

// RunSweep evaluates every sweep point concurrently. Per-point failures
// are reported in SweepResult.Err; only cancellation fails the sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.Base == nil {
		return nil, fmt.Errorf("%w: sweep needs a base config", dynamo.ErrInvalidConfig)
	}
	values := sweep.Values()
	results := make([]SweepResult, len(values))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, v := range values {
		g.Go(func() error {
			results[i] = sweepPoint(ctx, sweep, v, logger)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func sweepPoint(ctx context.Context, sweep *ParameterSweep, value float64, logger *slog.Logger) SweepResult {
	out := SweepResult{Value: value, MinEnergy: math.NaN(), MaxEnergy: math.NaN()}

	cfg := sweep.Base.Clone()
	if cfg.Params == nil {
		cfg.Params = map[string]float64{}
	}
	cfg.Params[sweep.Param] = value

	exp, err := experiment.New(ctx, cfg, logger)
	if err != nil {
		out.Err = err
		return out
	}
	result, err := exp.Run(ctx)
	if err != nil {
		out.Err = err
		return out
	}
	if len(result.Errors) > 0 {
		out.Err = result.Errors[0]
	}

	out.Final = result.Final()
	out.Metrics = result.Metrics
	for _, x := range result.States {
		e := exp.System().Energy(x)
		if math.IsNaN(e) {
			continue
		}
		if math.IsNaN(out.MinEnergy) || e < out.MinEnergy {
			out.MinEnergy = e
		}
		if math.IsNaN(out.MaxEnergy) || e > out.MaxEnergy {
			out.MaxEnergy = e
		}
	}
	return out
}

// MonteCarlo perturbs every component of the initial state uniformly by
// up to ±Perturbation.
type MonteCarlo struct {
	Base         *config.Config
	Perturbation float64
	Trials       int
	Seed         int64
}

type MonteCarloResult struct {
	Trial   int
	Initial dynamo.State
	Final   dynamo.State
	// Stable reports that the run finished without error and its
	// final state is finite and bounded.
	Stable bool
}

func RunMonteCarlo(ctx context.Context, mc *MonteCarlo, logger *slog.Logger) ([]MonteCarloResult, error) {
	if mc.Base == nil || mc.Trials <= 0 {
		return nil, fmt.Errorf("%w: monte carlo needs a base config and trials", dynamo.ErrInvalidConfig)
	}
	exp, err := experiment.New(ctx, mc.Base, logger)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(mc.Seed))
	base := exp.InitialState()
	x0s := make([]dynamo.State, mc.Trials)
	for i := range x0s {
		x0s[i] = make(dynamo.State, len(base))
		for j, v := range base {
			x0s[i][j] = v + (rng.Float64()-0.5)*2*mc.Perturbation
		}
	}

	runs, err := exp.Batch(ctx, x0s)
	if err != nil {
		return nil, err
	}
	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		final := r.Final()
		results[i] = MonteCarloResult{
			Trial:   i,
			Initial: x0s[i],
			Final:   final,
			Stable:  len(r.Errors) == 0 && final.IsValid() && final.Norm() < 1e6,
		}
	}
	return results, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stable, unstable int) {
	for _, r := range results {
		if r.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return stable, unstable
}
