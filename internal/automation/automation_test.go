package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/mbsym/internal/config"
	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/symbolic"
)

const scenarioYAML = `
name: warmup
description: two short runs
steps:
  - mechanism: crank_slider
    duration: 0.05
    save_as: crank
  - mechanism: fourbar
    integrator: rk45
    adaptive: true
    duration: 0.05
    params:
      q0: 0.9
`

func TestLoadScenario(t *testing.T) {
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	g.Expect(os.WriteFile(path, []byte(scenarioYAML), 0644)).To(Succeed())

	s, err := LoadScenario(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(s.Name).To(Equal("warmup"))
	g.Expect(s.Steps).To(HaveLen(2))
	g.Expect(s.Steps[0].SaveAs).To(Equal("crank"))
	g.Expect(s.Steps[0].Integrator).To(Equal("rk4"))
	g.Expect(s.Steps[0].Dt).To(Equal(config.DefaultDt))
	g.Expect(s.Steps[1].Params).To(HaveKeyWithValue("q0", 0.9))

	_, err = ParseScenario([]byte("steps:\n  - dt: 0\n"))
	g.Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
}

func TestRunScenario(t *testing.T) {
	g := NewWithT(t)

	s, err := ParseScenario([]byte(scenarioYAML))
	g.Expect(err).NotTo(HaveOccurred())

	results, err := RunScenario(context.Background(), s, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(2))
	g.Expect(results[0].Name).To(Equal("crank"))
	g.Expect(results[1].Name).To(Equal("fourbar-2"))
	for _, r := range results {
		g.Expect(r.Result.Errors).To(BeEmpty())
		g.Expect(r.Result.States).NotTo(BeEmpty())
	}

	s.Steps[1].Mechanism = "pantograph"
	results, err = RunScenario(context.Background(), s, nil)
	g.Expect(err).To(MatchError(ContainSubstring("step 2")))
	g.Expect(results).To(HaveLen(1))
}

func TestSweepFindsSingularLength(t *testing.T) {
	g := NewWithT(t)

	base := config.DefaultConfig()
	base.Duration = 0.02
	base.Params = map[string]float64{"q0": 0}

	// l1 == l2 folds the linkage flat at q0 = 0.
	sweep := &ParameterSweep{Base: base, Param: "l1", Min: 0.13, Max: 0.174, Steps: 2}
	g.Expect(sweep.Values()).To(Equal([]float64{0.13, 0.174}))

	results, err := RunSweep(context.Background(), sweep, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(2))

	g.Expect(results[0].Err).NotTo(HaveOccurred())
	g.Expect(results[0].MaxEnergy).To(BeNumerically(">=", results[0].MinEnergy))
	g.Expect(results[0].Metrics).To(HaveKey("closure_residual"))

	g.Expect(results[1].Err).To(MatchError(symbolic.ErrSingular))
	g.Expect(base.Params).To(HaveKeyWithValue("q0", 0.0))
	g.Expect(base.Params).NotTo(HaveKey("l1"))
}

func TestMonteCarlo(t *testing.T) {
	g := NewWithT(t)

	base := config.DefaultConfig()
	base.Mechanism = "fourbar"
	base.Duration = 0.05

	mc := &MonteCarlo{Base: base, Perturbation: 0.1, Trials: 6, Seed: 7}
	results, err := RunMonteCarlo(context.Background(), mc, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(6))
	for _, r := range results {
		g.Expect(r.Initial[0]).To(BeNumerically("~", 0.5, 0.1))
	}
	stable, unstable := MonteCarloStats(results)
	g.Expect(stable).To(Equal(6))
	g.Expect(unstable).To(BeZero())

	_, err = RunMonteCarlo(context.Background(), &MonteCarlo{Base: base}, nil)
	g.Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
}
