package experiment

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/mbsym/internal/config"
	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/mechanisms"
	"github.com/san-kum/mbsym/internal/storage"
)

func TestRunFromConfig(t *testing.T) {
	g := NewWithT(t)

	cfg := config.DefaultConfig()
	cfg.Mechanism = "fourbar"
	cfg.Duration = 0.2
	cfg.Params = map[string]float64{"q0": 0.7}

	e, err := New(context.Background(), cfg, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(e.InitialState()).To(Equal(dynamo.State{0.7, 0}))

	result, err := e.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Errors).To(BeEmpty())
	g.Expect(result.StepsTaken).To(Equal(200))
	g.Expect(result.Metrics).To(HaveKey("closure_residual"))
	g.Expect(result.Metrics["closure_residual"]).To(BeNumerically("<", 1e-10))

	meta := e.Metadata()
	g.Expect(meta.Coordinates).To(Equal([]string{"crank"}))
	g.Expect(meta.Params).To(HaveKeyWithValue("q0", 0.7))
	g.Expect(meta.Params).To(HaveKeyWithValue("b", 0.35))

	st := storage.New(t.TempDir())
	runID, err := st.Save(meta, result)
	g.Expect(err).NotTo(HaveOccurred())
	loaded, err := st.LoadResult(runID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(loaded.States).To(HaveLen(len(result.States)))
}

func TestEveryPresetBuilds(t *testing.T) {
	g := NewWithT(t)

	for _, name := range mechanisms.Names() {
		for _, preset := range config.ListPresets(name) {
			cfg := config.GetPreset(name, preset)
			_, err := New(context.Background(), cfg, nil)
			g.Expect(err).NotTo(HaveOccurred(), name+"/"+preset)
		}
	}
}

func TestSweep(t *testing.T) {
	g := NewWithT(t)

	cfg := config.DefaultConfig()
	cfg.Mechanism = "crank_slider"
	cfg.Duration = 0.1
	cfg.Parallel = true
	e, err := New(context.Background(), cfg, nil)
	g.Expect(err).NotTo(HaveOccurred())

	values := []float64{0.1, 0.4, 0.9}
	results, err := e.Sweep(context.Background(), 0, values)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(3))
	for i, r := range results {
		g.Expect(r.States[0][0]).To(Equal(values[i]))
		g.Expect(r.Errors).To(BeEmpty())
	}

	_, err = e.Sweep(context.Background(), 1, values)
	g.Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
}

func TestBadNamesFailEarly(t *testing.T) {
	g := NewWithT(t)

	cfg := config.DefaultConfig()
	cfg.Integrator = "midpoint"
	_, err := New(context.Background(), cfg, nil)
	g.Expect(err).To(MatchError(ContainSubstring("unknown integrator")))

	cfg = config.DefaultConfig()
	cfg.Controller = "lqr"
	_, err = New(context.Background(), cfg, nil)
	g.Expect(err).To(MatchError(ContainSubstring("unknown controller")))

	cfg = config.DefaultConfig()
	cfg.Mechanism = "pantograph"
	_, err = New(context.Background(), cfg, nil)
	g.Expect(errors.Is(err, mechanisms.ErrUnknown)).To(BeTrue())

	cfg = config.DefaultConfig()
	cfg.Params = map[string]float64{"l9": 1}
	_, err = New(context.Background(), cfg, nil)
	g.Expect(errors.Is(err, mechanisms.ErrUnknownParam)).To(BeTrue())
}

func TestPIDRunTracksTarget(t *testing.T) {
	g := NewWithT(t)

	cfg := config.GetPreset("fourbar", "hold")
	cfg.Duration = 0.2
	e, err := New(context.Background(), cfg, nil)
	g.Expect(err).NotTo(HaveOccurred())

	result, err := e.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Metrics).To(HaveKey("tracking_error"))
	g.Expect(result.Metrics["control_effort"]).To(BeNumerically(">", 0))
}

type stepCounter struct {
	steps int
	last  float64
}

func (c *stepCounter) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	c.steps++
	c.last = t
}

func TestRunObserved(t *testing.T) {
	g := NewWithT(t)

	cfg := config.DefaultConfig()
	cfg.Mechanism = "driven_slider"
	cfg.Duration = 0.1

	e, err := New(context.Background(), cfg, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(e.StateNames()).To(Equal([]string{"swing", "d_swing"}))

	c := &stepCounter{}
	result, err := e.RunObserved(context.Background(), c)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.steps).To(Equal(result.StepsTaken))
	g.Expect(c.last).To(BeNumerically("~", 0.099, 1e-9))
	g.Expect(result.Metrics).NotTo(HaveKey("energy_drift"))
	g.Expect(result.Metrics).To(HaveKey("closure_residual"))
}
