// Package dynamics derives the equations of motion of an open kinematic
// tree,
//
//	M(q)·qdd + h(q, qd) = f(q, qd, t),
//
// by projecting the Newton–Euler equations of every body onto the joint
// coordinates.
package dynamics

import (
	"errors"
	"fmt"

	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/symbolic"
)

var (
	// ErrNoCoordinates indicates a graph without joints.
	ErrNoCoordinates = errors.New("dynamics: no joint coordinates")

	// ErrUnknownJoint indicates a load on a joint missing from the graph.
	ErrUnknownJoint = errors.New("dynamics: unknown joint")
)

// Load is a generalized force (or torque) acting on one joint coordinate.
// It may depend on coordinates, velocities, time and parameters.
type Load struct {
	Joint string
	Value symbolic.Expr
}

// EOM holds the equations of motion in the order of Coordinates.
type EOM struct {
	Coordinates []kinematics.Coordinate
	M           symbolic.Matrix // (n,n)
	H           symbolic.Matrix // (n,)
	F           symbolic.Matrix // (n,)
	Kinetic     symbolic.Expr
	Potential   symbolic.Expr
}

// Equations derives M, h and f for every body of snap.
//
// For a body with mass m, centre of gravity p, inertia I (world frame),
// angular velocity ω = Jr·qd and translational Jacobian Jt = ∂p/∂q:
//
//	M += m·Jtᵀ·Jt + Jrᵀ·I·Jr
//	h += m·Jtᵀ·(J̇t·qd - g) + Jrᵀ·(I·J̇r·qd + ω × I·ω)
func Equations(snap *kinematics.Snapshot, loads ...Load) (*EOM, error) {
	coords := snap.Coordinates()
	n := len(coords)
	if n == 0 {
		return nil, ErrNoCoordinates
	}
	q, qd, _ := kinematics.Symbols(coords)
	rates := kinematics.Rates(coords)
	qdv := make([]symbolic.Expr, n)
	for i, s := range qd {
		qdv[i] = s
	}
	qdVec := symbolic.Vector(qdv...)
	gravity := snap.Gravity()

	m := symbolic.Zeros(symbolic.MatrixShape(n, n))
	h := symbolic.Zeros(symbolic.VectorShape(n))
	kin := []symbolic.Expr{}
	pot := []symbolic.Expr{}
	half := symbolic.Const(0.5)

	for _, b := range snap.Bodies() {
		mass := b.Mass()
		if symbolic.IsZero(mass) && b.Inertia().IsZero() {
			continue
		}
		p := snap.CG(b)
		jt := symbolic.Jacobian(p, q)
		jr := snap.AngularJacobian(b)
		r := snap.Rotation(b.Origin())
		iw := r.Mul(b.Inertia()).Mul(r.T())

		vel := jt.Mul(qdVec)
		omega := jr.Mul(qdVec)
		jtDot := vel.TimeDiff(rates, nil)
		jrDot := omega.TimeDiff(rates, nil)
		iwOmega := iw.Mul(omega)

		m = m.Add(jt.T().Mul(jt).Scale(mass)).Add(jr.T().Mul(iw).Mul(jr))
		h = h.Add(jt.T().Mul(jtDot.Sub(gravity)).Scale(mass)).
			Add(jr.T().Mul(iw.Mul(jrDot).Add(symbolic.Cross(omega, iwOmega))))

		kin = append(kin,
			symbolic.Mul(half, mass, symbolic.Dot(vel, vel)),
			symbolic.Mul(half, symbolic.Dot(omega, iwOmega)))
		pot = append(pot, symbolic.Neg(symbolic.Mul(mass, symbolic.Dot(gravity, p))))
	}

	f, err := generalizedForces(snap, coords, loads)
	if err != nil {
		return nil, err
	}
	return &EOM{
		Coordinates: coords,
		M:           m,
		H:           h,
		F:           f,
		Kinetic:     symbolic.Add(kin...),
		Potential:   symbolic.Add(pot...),
	}, nil
}

func generalizedForces(snap *kinematics.Snapshot, coords []kinematics.Coordinate, loads []Load) (symbolic.Matrix, error) {
	f := make([]symbolic.Expr, len(coords))
	for i := range f {
		f[i] = symbolic.Zero()
	}
	for _, l := range loads {
		j, ok := snap.Joint(l.Joint)
		if !ok {
			return symbolic.Matrix{}, fmt.Errorf("%w: load on %q", ErrUnknownJoint, l.Joint)
		}
		i, _ := snap.Index(j.Coordinate())
		f[i] = symbolic.Add(f[i], l.Value)
	}
	return symbolic.Vector(f...), nil
}
