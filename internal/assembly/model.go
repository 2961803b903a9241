// Package assembly reduces a kinematic tree with closed loops to an ODE in
// the independent coordinates.
//
// Every loop contributes v = v(u), vd = Bvu·ud and vdd = Bvu·udd + b'. With
// J and b stacking these relations for all coordinates, the reduced
// equations of motion are
//
//	M*·udd + h* = f*,   M* = JᵀMJ,   h* = Jᵀ(M·b + h),   f* = Jᵀf.
package assembly

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/mbsym/internal/dynamics"
	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/loops"
)

type options struct {
	logger   *slog.Logger
	loads    []dynamics.Load
	parallel bool
}

// Option configures a Model.
type Option func(*options)

// WithLogger sets the logger used during reduction.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLoads adds generalized forces to the equations of motion.
func WithLoads(loads ...dynamics.Load) Option {
	return func(o *options) { o.loads = append(o.loads, loads...) }
}

// WithParallel computes loop closures concurrently.
func WithParallel(on bool) Option {
	return func(o *options) { o.parallel = on }
}

// Model is a frozen kinematic graph plus its closing loops.
type Model struct {
	snap  *kinematics.Snapshot
	loops []loops.Loop
	names map[string]struct{}
	opts  options
}

func NewModel(snap *kinematics.Snapshot, opts ...Option) (*Model, error) {
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	m := &Model{snap: snap, names: make(map[string]struct{})}
	for _, opt := range opts {
		opt(&m.opts)
	}
	if m.opts.logger == nil {
		m.opts.logger = slog.Default()
	}
	return m, nil
}

func (m *Model) Snapshot() *kinematics.Snapshot { return m.snap }

// AddLoop registers l. Loops are evaluated in the order they are added.
func (m *Model) AddLoop(l loops.Loop) error {
	if l == nil {
		return fmt.Errorf("%w: nil loop", loops.ErrType)
	}
	if _, ok := m.names[l.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateLoop, l.Name())
	}
	m.names[l.Name()] = struct{}{}
	m.loops = append(m.loops, l)
	return nil
}

// Loops returns the registered loops in order.
func (m *Model) Loops() []loops.Loop { return append([]loops.Loop(nil), m.loops...) }

// Reduce derives the equations of motion, computes every closure and
// projects the equations onto the independent coordinates.
func (m *Model) Reduce(ctx context.Context) (*Reduced, error) {
	log := m.opts.logger
	eom, err := dynamics.Equations(m.snap, m.opts.loads...)
	if err != nil {
		return nil, &AssemblyError{Stage: "equations", Err: err}
	}
	log.Debug("equations of motion derived", "coordinates", len(eom.Coordinates))

	closures, err := m.closures(ctx)
	if err != nil {
		return nil, err
	}

	part, err := partition(m.snap, m.loops)
	if err != nil {
		return nil, &AssemblyError{Stage: "partition", Err: err}
	}
	log.Debug("coordinates partitioned", "independent", len(part.u), "dependent", len(part.v))

	r, err := project(m.snap, eom, m.loops, closures, part)
	if err != nil {
		return nil, &AssemblyError{Stage: "project", Err: err}
	}
	log.Info("model reduced", "loops", len(m.loops), "dof", len(r.U))
	return r, nil
}

func (m *Model) closures(ctx context.Context) ([]*loops.Closure, error) {
	out := make([]*loops.Closure, len(m.loops))
	calc := func(i int) error {
		l := m.loops[i]
		c, err := l.Calc(m.snap)
		if err != nil {
			return &AssemblyError{Stage: "calc", Err: err}
		}
		if err := loops.Check(l, c); err != nil {
			return &AssemblyError{Stage: "check", Err: err}
		}
		m.opts.logger.Debug("closure computed", "loop", l.Name(), "kind", l.Kind(),
			"u", l.U().Len(), "v", l.V().Len())
		out[i] = c
		return nil
	}

	if !m.opts.parallel {
		for i := range m.loops {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := calc(i); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range m.loops {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return calc(i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
