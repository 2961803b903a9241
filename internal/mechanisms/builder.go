package mechanisms

import (
	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/loops"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// builder wraps a graph and keeps the first construction error; once it
// is set every call is a no-op returning nil.
type builder struct {
	g   *kinematics.Graph
	err error
}

func (b *builder) param(name string, p map[string]float64) *symbolic.Symbol {
	return b.g.Param(name, p[name])
}

func (b *builder) body(name string, mass symbolic.Expr, cg, inertia symbolic.Matrix) *kinematics.Body {
	if b.err != nil {
		return nil
	}
	body, err := b.g.AddBody(name, mass, cg, inertia)
	b.err = err
	return body
}

func (b *builder) frame(body *kinematics.Body, name string, p symbolic.Matrix) *kinematics.Frame {
	if b.err != nil {
		return nil
	}
	f, err := body.AddFrame(name, p, symbolic.Matrix{})
	b.err = err
	return f
}

func (b *builder) joint(name string, parent, child *kinematics.Frame, kind kinematics.JointKind, q0, qd0 float64) *kinematics.Joint {
	if b.err != nil {
		return nil
	}
	j, err := b.g.AddJoint(name, parent, child, kind, q0, qd0)
	b.err = err
	return j
}

func (b *builder) loop(l loops.Loop, err error) loops.Loop {
	if b.err != nil {
		return nil
	}
	b.err = err
	return l
}

func alongX(e symbolic.Expr) symbolic.Matrix {
	return symbolic.Vector(e, symbolic.Zero(), symbolic.Zero())
}

func half(e symbolic.Expr) symbolic.Expr { return symbolic.Mul(symbolic.Const(0.5), e) }

// rod returns the body-frame inertia of a slender rod of mass m and length
// l along x: diag(0, m·l²/12, m·l²/12).
func rod(m, l symbolic.Expr) symbolic.Matrix {
	i := symbolic.Div(symbolic.Mul(m, symbolic.Square(l)), symbolic.Const(12))
	return symbolic.Diag(symbolic.Zero(), i, i)
}

func point() symbolic.Matrix { return symbolic.Zeros(symbolic.MatrixShape(3, 3)) }
