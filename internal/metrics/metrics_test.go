package metrics

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/mbsym/internal/dynamo"
)

type pendulum struct{ fail bool }

func (p pendulum) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -9.81 * math.Sin(x[0])}
}
func (pendulum) StateDim() int   { return 2 }
func (pendulum) ControlDim() int { return 1 }
func (pendulum) Energy(x dynamo.State) float64 {
	return 0.5*x[1]*x[1] + 9.81*(1-math.Cos(x[0]))
}

type drivenPendulum struct{ pendulum }

func (drivenPendulum) Driven() bool { return true }

func (p pendulum) Residual(x dynamo.State, t float64) ([]float64, error) {
	if p.fail {
		return nil, errors.New("cannot close")
	}
	return []float64{1e-3 * x[0], -2e-3 * x[0]}, nil
}

func TestEnergyDrift(t *testing.T) {
	g := NewWithT(t)

	m := NewEnergyDrift(pendulum{})
	e0 := pendulum{}.Energy(dynamo.State{0.5, 0})
	m.Observe(dynamo.State{0.5, 0}, nil, 0)
	g.Expect(m.Value()).To(BeZero())

	// Same angle, small extra speed.
	m.Observe(dynamo.State{0.5, 0.1}, nil, 0.1)
	g.Expect(m.Value()).To(BeNumerically("~", 0.005/e0, 1e-12))

	m.Reset()
	g.Expect(m.Value()).To(BeZero())
}

func TestStability(t *testing.T) {
	g := NewWithT(t)

	s := NewStability(10)
	g.Expect(s.Value()).To(Equal(1.0))
	s.Observe(dynamo.State{100, 1}, nil, 0)
	s.Observe(dynamo.State{0, 20}, nil, 0)
	s.Observe(dynamo.NaNState(2), nil, 0)
	s.Observe(dynamo.State{0, 1}, nil, 0)
	g.Expect(s.Value()).To(Equal(0.5))
}

func TestClosureResidual(t *testing.T) {
	g := NewWithT(t)

	r := NewClosureResidual(pendulum{})
	r.Observe(dynamo.State{1, 0}, nil, 0)
	r.Observe(dynamo.State{-0.5, 0}, nil, 0)
	g.Expect(r.Value()).To(BeNumerically("~", 2e-3, 1e-15))

	bad := NewClosureResidual(pendulum{fail: true})
	bad.Observe(dynamo.State{1, 0}, nil, 0)
	g.Expect(math.IsInf(bad.Value(), 1)).To(BeTrue())
}

func TestControlEffort(t *testing.T) {
	g := NewWithT(t)

	c := NewControlEffort()
	c.Observe(nil, dynamo.Control{-2}, 0)
	c.Observe(nil, dynamo.Control{1}, 0)
	g.Expect(c.Value()).To(Equal(1.5))
}

func TestDefaults(t *testing.T) {
	g := NewWithT(t)

	var names []string
	for _, m := range Defaults(pendulum{}) {
		names = append(names, m.Name())
	}
	g.Expect(names).To(ConsistOf("energy_drift", "stability", "closure_residual", "control_effort"))

	names = names[:0]
	for _, m := range Defaults(drivenPendulum{}) {
		names = append(names, m.Name())
	}
	g.Expect(names).To(ConsistOf("stability", "closure_residual", "control_effort"))
}

func TestTrackingError(t *testing.T) {
	g := NewWithT(t)

	m := NewTrackingError(0, 1)
	g.Expect(math.IsInf(m.Value(), 1)).To(BeTrue())

	m.Observe(dynamo.State{0, 5}, nil, 0)
	m.Observe(dynamo.State{3, 5}, nil, 0.1)
	m.Observe(dynamo.State{math.NaN(), 5}, nil, 0.2)
	g.Expect(m.Value()).To(BeNumerically("~", math.Sqrt(2.5), 1e-12))

	m.Reset()
	m.Observe(dynamo.State{1, 0}, nil, 0)
	g.Expect(m.Value()).To(BeZero())
}
