package loops

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// Posture selects one of the two assembly branches of a linkage.
type Posture int

const (
	Open    Posture = 1
	Crossed Posture = -1
)

func (p Posture) sign() symbolic.Expr { return symbolic.Const(float64(p)) }

func checkPosture(name string, p Posture) error {
	if p != Open && p != Crossed {
		return &LoopError{Loop: name, Op: "new", Err: fmt.Errorf("%w: posture %d", ErrType, p)}
	}
	return nil
}

// planarMask selects the constrained position components: x and y.
var planarMask = []int{1, 1, 0}

// geometric is the part shared by the planar linkage closures: two frames
// whose x and y world positions must coincide.
type geometric struct {
	name     string
	csa, csb *kinematics.Frame
	u, v     []kinematics.Coordinate
}

func (g *geometric) Name() string { return g.name }
func (g *geometric) U() Triple    { return tripleOf(g.u) }
func (g *geometric) V() Triple    { return tripleOf(g.v) }
func (g *geometric) Independent() []kinematics.Coordinate {
	return append([]kinematics.Coordinate(nil), g.u...)
}
func (g *geometric) Dependent() []kinematics.Coordinate {
	return append([]kinematics.Coordinate(nil), g.v...)
}

// Frames returns the two frames the loop closes.
func (g *geometric) Frames() (csa, csb *kinematics.Frame) { return g.csa, g.csb }

func (g *geometric) sealed() {}

func (g *geometric) validate(snap *kinematics.Snapshot, op string) error {
	if snap == nil {
		return &LoopError{Loop: g.name, Op: op, Err: ErrNoSnapshot}
	}
	if !snap.Contains(g.csa) || !snap.Contains(g.csb) {
		return &LoopError{Loop: g.name, Op: op, Err: fmt.Errorf("%w: frames %s, %s not in snapshot", ErrTopology, g.csa, g.csb)}
	}
	return nil
}

func (g *geometric) Residual(snap *kinematics.Snapshot) (symbolic.Matrix, error) {
	if err := g.validate(snap, "residual"); err != nil {
		return symbolic.Matrix{}, err
	}
	return symbolic.Select(snap.Position(g.csa).Sub(snap.Position(g.csb)), planarMask), nil
}

// derive computes Bvu and b' from the constraint and pairs them with the
// explicit solution v.
func (g *geometric) derive(snap *kinematics.Snapshot, v []symbolic.Expr) (*Closure, error) {
	phi, err := g.Residual(snap)
	if err != nil {
		return nil, err
	}
	if phi.Len() != len(g.v) {
		return nil, &LoopError{Loop: g.name, Op: "calc", Err: fmt.Errorf("%w: %d constraints for %d dependent coordinates", ErrDimension, phi.Len(), len(g.v))}
	}

	uq, _, _ := kinematics.Symbols(g.u)
	vq, _, _ := kinematics.Symbols(g.v)
	all := append(append([]kinematics.Coordinate(nil), g.u...), g.v...)
	q, qd, _ := kinematics.Symbols(all)

	ju := symbolic.Jacobian(phi, uq)
	jv := symbolic.Jacobian(phi, vq)
	bvu, err := symbolic.Solve(jv, ju.Neg())
	if err != nil {
		return nil, &LoopError{Loop: g.name, Op: "calc", Err: err}
	}

	qdv := make([]symbolic.Expr, len(qd))
	for i, s := range qd {
		qdv[i] = s
	}
	jqd := symbolic.Jacobian(phi, q).Mul(symbolic.Vector(qdv...))
	jdotQd := jqd.TimeDiff(kinematics.Rates(all), nil)
	bp, err := symbolic.Solve(jv, jdotQd.Neg())
	if err != nil {
		return nil, &LoopError{Loop: g.name, Op: "calc", Err: err}
	}
	return &Closure{V: v, Bvu: bvu, BPrime: bp}, nil
}

// match finds the joint pattern (wantA below csa, wantB below csb), trying
// the frames in both orders. It returns the frames in pattern order.
func match(name string, csa, csb *kinematics.Frame, wantA, wantB []kinematics.JointKind) (a, b *kinematics.Frame, ja, jb []*kinematics.Joint, err error) {
	if csa == nil || csb == nil {
		return nil, nil, nil, nil, &LoopError{Loop: name, Op: "new", Err: fmt.Errorf("%w: nil frame", ErrType)}
	}
	toA, toB, err := kinematics.Path(csa, csb)
	if err != nil {
		return nil, nil, nil, nil, &LoopError{Loop: name, Op: "new", Err: fmt.Errorf("%w: %w", ErrTopology, err)}
	}
	switch {
	case kindsMatch(toA, wantA) && kindsMatch(toB, wantB):
		return csa, csb, toA, toB, nil
	case kindsMatch(toB, wantA) && kindsMatch(toA, wantB):
		return csb, csa, toB, toA, nil
	}
	return nil, nil, nil, nil, &LoopError{Loop: name, Op: "new", Err: fmt.Errorf("%w: joints %s / %s, want %v / %v", ErrTopology, joints(toA), joints(toB), wantA, wantB)}
}

func kindsMatch(js []*kinematics.Joint, want []kinematics.JointKind) bool {
	if len(js) != len(want) {
		return false
	}
	for i, j := range js {
		if j.Kind() != want[i] {
			return false
		}
	}
	return true
}

func joints(js []*kinematics.Joint) string {
	s := "["
	for i, j := range js {
		if i > 0 {
			s += " "
		}
		s += j.Name() + ":" + j.Kind().String()
	}
	return s + "]"
}

func coords(js ...*kinematics.Joint) []kinematics.Coordinate {
	out := make([]kinematics.Coordinate, len(js))
	for i, j := range js {
		out[i] = j.Coordinate()
	}
	return out
}

// relative returns the position of to in from coordinates, or panics; the
// frames were connected when the loop was built.
func relative(from, to *kinematics.Frame) kinematics.Transform {
	t, err := kinematics.Relative(from, to)
	if err != nil {
		panic(fmt.Sprintf("loops: %v", err))
	}
	return t
}

func planar(v symbolic.Matrix) symbolic.Matrix { return symbolic.Select(v, planarMask) }

// angle returns the direction of the planar vector v.
func angle(v symbolic.Matrix) symbolic.Expr { return symbolic.Atan2(v.Elem(1), v.Elem(0)) }

// perp rotates the planar vector v by +90°.
func perp(v symbolic.Matrix) symbolic.Matrix {
	return symbolic.Vector(symbolic.Neg(v.Elem(1)), v.Elem(0))
}

// quadratic returns the root (-b + σ√(b² - a·c))/a of a·x² + 2b·x + c = 0.
func quadratic(a, b, c, sigma symbolic.Expr) symbolic.Expr {
	disc := symbolic.Sub(symbolic.Square(b), symbolic.Mul(a, c))
	return symbolic.Div(symbolic.Add(symbolic.Neg(b), symbolic.Mul(sigma, symbolic.Sqrt(disc))), a)
}
