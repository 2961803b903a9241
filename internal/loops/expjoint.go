package loops

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// ExpJoint prescribes the coordinate of a joint by an expression of time and
// parameters. The independent coordinate is a dummy unit driver, so the
// velocity coupling is null. Only kinematics are supported: no force is
// propagated back through the prescribed joint.
type ExpJoint struct {
	name string
	j1   *kinematics.Joint
	exp  symbolic.Expr
}

// NewExpJoint returns the closure q_j1 = exp. j1 must be a *kinematics.Joint
// and exp a symbolic.Expr.
func NewExpJoint(name string, j1 any, exp any) (*ExpJoint, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty loop name", ErrType)
	}
	j, ok := j1.(*kinematics.Joint)
	if !ok || j == nil {
		return nil, &LoopError{Loop: name, Op: "new", Err: fmt.Errorf("%w: j1 is %T, want joint", ErrType, j1)}
	}
	e, ok := exp.(symbolic.Expr)
	if !ok || e == nil {
		return nil, &LoopError{Loop: name, Op: "new", Err: fmt.Errorf("%w: exp is %T, want expression", ErrType, exp)}
	}
	return &ExpJoint{name: name, j1: j, exp: e}, nil
}

func (l *ExpJoint) Name() string { return l.name }
func (l *ExpJoint) Kind() Kind   { return KindExpJoint }

// Joint returns the prescribed joint.
func (l *ExpJoint) Joint() *kinematics.Joint { return l.j1 }

// Expression returns the prescribed position.
func (l *ExpJoint) Expression() symbolic.Expr { return l.exp }

func (l *ExpJoint) U() Triple {
	one := []symbolic.Expr{symbolic.One()}
	return Triple{Q: one, QD: one, QDD: one}
}

func (l *ExpJoint) V() Triple {
	return tripleOf(l.Dependent())
}

func (l *ExpJoint) Independent() []kinematics.Coordinate { return nil }

func (l *ExpJoint) Dependent() []kinematics.Coordinate {
	return []kinematics.Coordinate{l.j1.Coordinate()}
}

func (l *ExpJoint) Residual(snap *kinematics.Snapshot) (symbolic.Matrix, error) {
	if snap == nil {
		return symbolic.Matrix{}, &LoopError{Loop: l.name, Op: "residual", Err: ErrNoSnapshot}
	}
	return symbolic.Vector(symbolic.Sub(l.j1.Coordinate().Q, l.exp)), nil
}

// Calc returns ([exp], [[0]], [0]).
func (l *ExpJoint) Calc(snap *kinematics.Snapshot) (*Closure, error) {
	if snap == nil {
		return nil, &LoopError{Loop: l.name, Op: "calc", Err: ErrNoSnapshot}
	}
	return &Closure{
		V:      []symbolic.Expr{l.exp},
		Bvu:    symbolic.MatrixOf([]symbolic.Expr{symbolic.Zero()}),
		BPrime: symbolic.Vector(symbolic.Zero()),
	}, nil
}

func (l *ExpJoint) sealed() {}
