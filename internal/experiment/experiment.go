// Package experiment turns a run description into a reduced mechanism,
// a simulator and a result.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/mbsym/internal/assembly"
	"github.com/san-kum/mbsym/internal/config"
	"github.com/san-kum/mbsym/internal/control"
	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/integrators"
	"github.com/san-kum/mbsym/internal/mechanisms"
	"github.com/san-kum/mbsym/internal/metrics"
	"github.com/san-kum/mbsym/internal/sim"
	"github.com/san-kum/mbsym/internal/storage"
)

type Experiment struct {
	cfg     *config.Config
	reduced *assembly.Reduced
	system  *assembly.System
	logger  *slog.Logger
}

// New builds and reduces the configured mechanism and compiles its
// equations. The integrator and controller names are checked here so a
// bad name fails before any simulation starts.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Experiment, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := integrators.New(cfg.Integrator); err != nil {
		return nil, err
	}

	mech, err := mechanisms.Get(cfg.Mechanism)
	if err != nil {
		return nil, err
	}
	model, err := mech.Build(cfg.Params, assembly.WithLogger(logger), assembly.WithParallel(cfg.Parallel))
	if err != nil {
		return nil, err
	}
	reduced, err := model.Reduce(ctx)
	if err != nil {
		return nil, err
	}
	system, err := reduced.System()
	if err != nil {
		return nil, err
	}
	e := &Experiment{cfg: cfg, reduced: reduced, system: system, logger: logger}
	if _, err := e.newSimulator(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Experiment) Config() *config.Config     { return e.cfg }
func (e *Experiment) Reduced() *assembly.Reduced { return e.reduced }
func (e *Experiment) System() *assembly.System   { return e.system }

// InitialState returns [u0, ud0] taken from the mechanism's joints.
func (e *Experiment) InitialState() dynamo.State { return e.reduced.InitialState() }

func (e *Experiment) newSimulator() (*sim.Simulator, error) {
	integ, err := integrators.New(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}
	ctrl, err := control.New(e.cfg.Controller, e.system.ControlDim(), e.cfg.GetControllerParams())
	if err != nil {
		return nil, err
	}
	s := sim.New(e.system, integ, ctrl)
	s.SetLogger(e.logger)
	for _, m := range metrics.Defaults(e.system) {
		s.AddMetric(m)
	}
	if e.cfg.Controller == "pid" {
		s.AddMetric(metrics.NewTrackingError(e.cfg.ControllerParams.Index, e.cfg.ControllerParams.Target))
	}
	return s, nil
}

// Run simulates from the initial state.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	return e.RunObserved(ctx)
}

// RunObserved is Run with observers called before every step.
func (e *Experiment) RunObserved(ctx context.Context, obs ...dynamo.Observer) (*dynamo.Result, error) {
	s, err := e.newSimulator()
	if err != nil {
		return nil, err
	}
	for _, o := range obs {
		s.AddObserver(o)
	}
	return s.Run(ctx, e.InitialState(), e.cfg.Sim())
}

// StateNames names the state components: the independent coordinates,
// then their velocities as d_<name>.
func (e *Experiment) StateNames() []string {
	names := make([]string, 0, 2*len(e.reduced.U))
	for _, c := range e.reduced.U {
		names = append(names, c.Name)
	}
	for _, c := range e.reduced.U {
		names = append(names, "d_"+c.Name)
	}
	return names
}

// Sweep simulates once per value, replacing independent coordinate idx
// of the initial state. Runs proceed concurrently; results keep the order
// of values.
func (e *Experiment) Sweep(ctx context.Context, idx int, values []float64) ([]*dynamo.Result, error) {
	if idx < 0 || idx >= e.reduced.DOF() {
		return nil, fmt.Errorf("%w: coordinate %d of %d", dynamo.ErrDimensionMismatch, idx, e.reduced.DOF())
	}
	x0s := make([]dynamo.State, len(values))
	for i, v := range values {
		x0s[i] = e.InitialState()
		x0s[i][idx] = v
	}
	return e.Batch(ctx, x0s)
}

// Batch simulates once per initial state, concurrently.
func (e *Experiment) Batch(ctx context.Context, x0s []dynamo.State) ([]*dynamo.Result, error) {
	return sim.Sweep(ctx, e.newSimulator, x0s, e.cfg.Sim())
}

// Metadata describes a run of this experiment for storage.
func (e *Experiment) Metadata() storage.RunMetadata {
	coords := make([]string, len(e.reduced.U))
	for i, c := range e.reduced.U {
		coords[i] = c.Name
	}
	mech, _ := mechanisms.Get(e.cfg.Mechanism)
	params, _ := mech.Params(e.cfg.Params)
	return storage.RunMetadata{
		Mechanism:   e.cfg.Mechanism,
		Params:      params,
		Coordinates: coords,
		Dt:          e.cfg.Dt,
		Duration:    e.cfg.Duration,
		Adaptive:    e.cfg.Adaptive,
		Integrator:  e.cfg.Integrator,
		Controller:  e.cfg.Controller,
	}
}
