package assembly

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// System evaluates the reduced equations numerically over the state
// [u, ud]. It implements dynamo.System, dynamo.Hamiltonian and
// dynamo.Constrained. A System holds no mutable state and is safe for
// concurrent use.
type System struct {
	nu, n int
	base  []float64
	time  int
	uq    []int
	uqd   []int
	qs    []int
	qds   []int

	stages []compiledStage

	mass, bias, force, jac, accel symbolic.MatrixFunc
	kinetic, potential            symbolic.Func
}

type compiledStage struct {
	name       string
	prescribed bool
	q, qd      []int
	position   []symbolic.Func
	velocity   []symbolic.Func
	jv         symbolic.MatrixFunc
	residual   symbolic.MatrixFunc
	nres       int
}

// System compiles the reduced model. Every symbol must be a coordinate,
// a velocity, time or a snapshot parameter.
func (r *Reduced) System() (*System, error) {
	coords := r.Coordinates
	params := r.Snapshot.Params()
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	layout := symbolic.NewLayout()
	q, qd, _ := kinematics.Symbols(coords)
	s := &System{nu: len(r.U), n: len(coords)}
	for _, sym := range q {
		s.qs = append(s.qs, layout.Add(sym.Name()))
	}
	for _, sym := range qd {
		s.qds = append(s.qds, layout.Add(sym.Name()))
	}
	s.time = layout.Add(r.Snapshot.Time().Name())
	for _, k := range names {
		layout.Add(k)
	}
	s.base = make([]float64, layout.Len())
	for _, k := range names {
		i, _ := layout.Slot(k)
		s.base[i] = params[k]
	}
	for _, c := range r.U {
		i, _ := layout.Slot(c.Q.Name())
		d, _ := layout.Slot(c.QD.Name())
		s.uq = append(s.uq, i)
		s.uqd = append(s.uqd, d)
	}

	var err error
	compile := func(m symbolic.Matrix) symbolic.MatrixFunc {
		if err != nil {
			return nil
		}
		var f symbolic.MatrixFunc
		f, err = symbolic.CompileMatrix(m, layout)
		return f
	}
	s.mass = compile(r.EOM.M)
	s.bias = compile(r.EOM.H)
	s.force = compile(r.EOM.F)
	s.jac = compile(r.J)
	s.accel = compile(r.B)
	if err != nil {
		return nil, &AssemblyError{Stage: "compile", Err: err}
	}
	if s.kinetic, err = symbolic.Compile(r.EOM.Kinetic, layout); err != nil {
		return nil, &AssemblyError{Stage: "compile", Err: err}
	}
	if s.potential, err = symbolic.Compile(r.EOM.Potential, layout); err != nil {
		return nil, &AssemblyError{Stage: "compile", Err: err}
	}

	for _, st := range r.stages {
		cs := compiledStage{
			name:       st.loop.Name(),
			prescribed: st.prescribed,
			nres:       st.residual.Len(),
		}
		for _, c := range st.dependent {
			i, _ := layout.Slot(c.Q.Name())
			d, _ := layout.Slot(c.QD.Name())
			cs.q = append(cs.q, i)
			cs.qd = append(cs.qd, d)
		}
		for k := range st.position {
			p, err := symbolic.Compile(st.position[k], layout)
			if err != nil {
				return nil, &AssemblyError{Stage: "compile", Err: fmt.Errorf("loop %q: %w", cs.name, err)}
			}
			v, err := symbolic.Compile(st.velocity[k], layout)
			if err != nil {
				return nil, &AssemblyError{Stage: "compile", Err: fmt.Errorf("loop %q: %w", cs.name, err)}
			}
			cs.position = append(cs.position, p)
			cs.velocity = append(cs.velocity, v)
		}
		cs.jv = compile(st.jv)
		cs.residual = compile(st.residual)
		if err != nil {
			return nil, &AssemblyError{Stage: "compile", Err: fmt.Errorf("loop %q: %w", cs.name, err)}
		}
		s.stages = append(s.stages, cs)
	}
	return s, nil
}

func (s *System) StateDim() int   { return 2 * s.nu }
func (s *System) ControlDim() int { return s.nu }

// Derive returns [ud, udd]. When the configuration cannot be evaluated it
// returns a NaN state; Accelerations reports the cause.
func (s *System) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	udd, err := s.Accelerations(x, u, t)
	if err != nil {
		return dynamo.NaNState(len(x))
	}
	_, ud := x.Split()
	return dynamo.Join(ud, udd)
}

// Validate reports why the state x cannot be evaluated at t, or nil.
func (s *System) Validate(x dynamo.State, t float64) error {
	_, err := s.Accelerations(x, nil, t)
	return err
}

// Accelerations solves M*·udd = f* - h* + tau at (x, t). tau may be nil or
// shorter than the number of independent coordinates.
func (s *System) Accelerations(x dynamo.State, tau dynamo.Control, t float64) ([]float64, error) {
	slots, err := s.fill(x, t)
	if err != nil {
		return nil, err
	}
	n, nu := s.n, s.nu
	m := make([]float64, n*n)
	h := make([]float64, n)
	f := make([]float64, n)
	j := make([]float64, n*nu)
	b := make([]float64, n)
	s.mass(slots, m)
	s.bias(slots, h)
	s.force(slots, f)
	s.jac(slots, j)
	s.accel(slots, b)

	// r = f - h - M·b
	r := make([]float64, n)
	for i := 0; i < n; i++ {
		r[i] = f[i] - h[i]
		for k := 0; k < n; k++ {
			r[i] -= m[i*n+k] * b[k]
		}
	}
	// mj = M·J
	mj := make([]float64, n*nu)
	for i := 0; i < n; i++ {
		for c := 0; c < nu; c++ {
			for k := 0; k < n; k++ {
				mj[i*nu+c] += m[i*n+k] * j[k*nu+c]
			}
		}
	}
	mstar := make([]float64, nu*nu)
	rhs := make([]float64, nu)
	for a := 0; a < nu; a++ {
		for i := 0; i < n; i++ {
			ja := j[i*nu+a]
			if ja == 0 {
				continue
			}
			rhs[a] += ja * r[i]
			for c := 0; c < nu; c++ {
				mstar[a*nu+c] += ja * mj[i*nu+c]
			}
		}
		if a < len(tau) {
			rhs[a] += tau[a]
		}
	}

	udd, err := symbolic.SolveDense(mstar, rhs)
	if err != nil {
		return nil, fmt.Errorf("reduced mass matrix at t=%g: %w", t, err)
	}
	return udd, nil
}

// Driven reports whether any loop prescribes a coordinate in time.
func (s *System) Driven() bool {
	for _, st := range s.stages {
		if st.prescribed {
			return true
		}
	}
	return false
}

// Energy returns T + V. Prescribed coordinates are evaluated at t = 0,
// so the value is only comparable along a trajectory when Driven is false.
func (s *System) Energy(x dynamo.State) float64 {
	slots, err := s.fill(x, 0)
	if err != nil {
		return math.NaN()
	}
	return s.kinetic(slots) + s.potential(slots)
}

// Residual returns the stacked closure errors of every loop at (x, t).
// It vanishes up to rounding for any state the closures can evaluate.
func (s *System) Residual(x dynamo.State, t float64) ([]float64, error) {
	slots, err := s.fill(x, t)
	if err != nil {
		return nil, err
	}
	var out []float64
	for _, st := range s.stages {
		buf := make([]float64, st.nres)
		st.residual(slots, buf)
		out = append(out, buf...)
	}
	return out, nil
}

// Coordinates returns every coordinate and velocity, in snapshot order.
func (s *System) Coordinates(x dynamo.State, t float64) (q, qd []float64, err error) {
	slots, err := s.fill(x, t)
	if err != nil {
		return nil, nil, err
	}
	q = make([]float64, s.n)
	qd = make([]float64, s.n)
	for i := range s.qs {
		q[i] = slots[s.qs[i]]
		qd[i] = slots[s.qds[i]]
	}
	return q, qd, nil
}

// fill evaluates the loops in order: dependent positions, a check that
// the constraint Jacobian is invertible, then dependent velocities.
func (s *System) fill(x dynamo.State, t float64) ([]float64, error) {
	if len(x) != 2*s.nu {
		return nil, fmt.Errorf("%w: state length %d, want %d", dynamo.ErrDimensionMismatch, len(x), 2*s.nu)
	}
	slots := append([]float64(nil), s.base...)
	slots[s.time] = t
	u, ud := x.Split()
	for i := range s.uq {
		slots[s.uq[i]] = u[i]
		slots[s.uqd[i]] = ud[i]
	}

	for _, st := range s.stages {
		for k, f := range st.position {
			v := f(slots)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("loop %q cannot close at t=%g: %w", st.name, t, symbolic.ErrSingular)
			}
			slots[st.q[k]] = v
		}
		if !st.prescribed {
			nv := len(st.q)
			jv := make([]float64, nv*nv)
			st.jv(slots, jv)
			if _, err := symbolic.SolveDense(jv, make([]float64, nv)); err != nil {
				return nil, fmt.Errorf("loop %q at t=%g: %w", st.name, t, err)
			}
		}
		for k, f := range st.velocity {
			slots[st.qd[k]] = f(slots)
		}
	}
	return slots, nil
}
