// Package sim runs reduced multibody systems through time.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/mbsym/internal/dynamo"
)

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *slog.Logger
}

// New returns a simulator. A nil controller applies no force.
func New(dyn dynamo.System, integrator dynamo.Integrator, controller dynamo.Controller) *Simulator {
	if controller == nil {
		controller = zeroController(dyn.ControlDim())
	}
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		logger:     slog.Default(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// SetLogger replaces the default logger; nil keeps the current one.
func (s *Simulator) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Run integrates from x0 over cfg.Duration. A state that cannot be
// evaluated stops the run; the partial trajectory is returned with a
// *dynamo.SimulationError in Result.Errors. Cancellation returns the
// partial result together with the context error.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	capacity := int(cfg.Duration/cfg.Dt) + 1
	result := &dynamo.Result{
		States:   make([]dynamo.State, 0, capacity),
		Controls: make([]dynamo.Control, 0, capacity),
		Times:    make([]float64, 0, capacity),
		Metrics:  make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
	initialEnergy := s.energy(x)

	for step := 0; cfg.Duration-t > 1e-12; step++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		u := s.controller.Compute(x, t)
		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		h := math.Min(dt, cfg.Duration-t)
		var newX dynamo.State
		if cfg.Adaptive {
			var next float64
			var err error
			newX, h, next, err = s.adaptiveStep(x, u, t, h, cfg)
			if err != nil {
				result.Errors = append(result.Errors, &dynamo.SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: err})
			}
			dt = next
		} else {
			newX = s.integrator.Step(s.dyn, x, u, t, h)
		}

		if cfg.ValidateState && !newX.IsValid() {
			err := &dynamo.SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: s.cause(x, u, t, h)}
			result.Errors = append(result.Errors, err)
			s.logger.Warn("simulation stopped", "step", step, "t", t, "err", err.Wrapped)
			break
		}

		x = newX
		t += h
		result.StepsTaken++
		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)
	}

	finalEnergy := s.energy(x)
	if initialEnergy != 0 && !math.IsNaN(finalEnergy) {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	s.logger.Debug("simulation finished", "steps", result.StepsTaken, "t", t, "errors", len(result.Errors))
	return result, nil
}

func (s *Simulator) validate(x0 dynamo.State, cfg dynamo.Config) error {
	switch {
	case cfg.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidConfig, cfg.Dt)
	case cfg.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrInvalidConfig, cfg.Duration)
	case cfg.Adaptive && cfg.Tolerance <= 0:
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", dynamo.ErrInvalidConfig)
	case len(x0) != s.dyn.StateDim():
		return fmt.Errorf("%w: initial state has %d entries, system wants %d", dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	return nil
}

// cause asks the system why x cannot be advanced by h. Failures usually
// happen at an intermediate stage, so the Euler predictor is checked when
// x itself is fine.
func (s *Simulator) cause(x dynamo.State, u dynamo.Control, t, h float64) error {
	v, ok := s.dyn.(dynamo.Validator)
	if !ok {
		return dynamo.ErrInvalidState
	}
	err := v.Validate(x, t)
	if err == nil {
		if d := s.dyn.Derive(x, u, t); d.IsValid() {
			err = v.Validate(x.Add(d.Scale(h)), t+h)
		}
	}
	if err != nil {
		return errors.Join(dynamo.ErrInvalidState, err)
	}
	return dynamo.ErrInvalidState
}

func (s *Simulator) energy(x dynamo.State) float64 {
	if d, ok := s.dyn.(dynamo.Driven); ok && d.Driven() {
		return math.NaN()
	}
	if h, ok := s.dyn.(dynamo.Hamiltonian); ok {
		return h.Energy(x)
	}
	return 0
}

// adaptiveStep advances by at most dt and returns the new state, the step
// actually taken and the proposed next step.
func (s *Simulator) adaptiveStep(x dynamo.State, u dynamo.Control, t, dt float64, cfg dynamo.Config) (dynamo.State, float64, float64, error) {
	clamp := func(h float64) float64 {
		if cfg.MaxDt > 0 {
			h = math.Min(h, cfg.MaxDt)
		}
		return math.Max(h, cfg.MinDt)
	}

	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		for {
			newX, next, err := adaptive.StepAdaptive(s.dyn, x, u, t, dt, cfg.Tolerance)
			if err != nil && !errors.Is(err, dynamo.ErrStepTooSmall) {
				return newX, dt, clamp(next), err
			}
			// A proposal well below the step taken means the step was rejected.
			if next >= 0.9*dt || dt <= cfg.MinDt {
				return newX, dt, clamp(next), err
			}
			dt = math.Max(next, cfg.MinDt)
		}
	}

	// Step doubling for fixed-step integrators.
	for {
		full := s.integrator.Step(s.dyn, x, u, t, dt)
		mid := s.integrator.Step(s.dyn, x, u, t, dt/2)
		fine := s.integrator.Step(s.dyn, mid, u, t+dt/2, dt/2)
		errEst := full.Sub(fine).Norm()

		switch {
		case math.IsNaN(errEst):
			return fine, dt, dt, nil
		case errEst > cfg.Tolerance && dt > cfg.MinDt:
			dt = math.Max(dt/2, cfg.MinDt)
			continue
		case errEst < cfg.Tolerance/10:
			return fine, dt, clamp(2 * dt), nil
		}
		return fine, dt, clamp(dt), nil
	}
}

type zeroController int

func (z zeroController) Compute(dynamo.State, float64) dynamo.Control {
	return make(dynamo.Control, int(z))
}
