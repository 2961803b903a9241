package loops

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// Kind tags the loop variant.
type Kind int

const (
	KindExpJoint Kind = iota
	KindThreeBarTrans
	KindCrankSlider
	KindFourBar
)

func (k Kind) String() string {
	switch k {
	case KindExpJoint:
		return "exp_joint"
	case KindThreeBarTrans:
		return "three_bar_trans"
	case KindCrankSlider:
		return "crank_slider"
	case KindFourBar:
		return "four_bar"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Triple holds position, velocity and acceleration expressions of a
// coordinate set. All three have the same length.
type Triple struct {
	Q, QD, QDD []symbolic.Expr
}

// Len returns the number of coordinates.
func (t Triple) Len() int { return len(t.Q) }

func tripleOf(cs []kinematics.Coordinate) Triple {
	t := Triple{
		Q:   make([]symbolic.Expr, len(cs)),
		QD:  make([]symbolic.Expr, len(cs)),
		QDD: make([]symbolic.Expr, len(cs)),
	}
	for i, c := range cs {
		t.Q[i], t.QD[i], t.QDD[i] = c.Q, c.QD, c.QDD
	}
	return t
}

// Closure is the result of Calc.
type Closure struct {
	// V holds one expression per dependent coordinate, in terms of u.
	V []symbolic.Expr
	// Bvu has shape (len v, len u).
	Bvu symbolic.Matrix
	// BPrime has shape (len v,).
	BPrime symbolic.Matrix
}

// Loop is a kinematic closure. The set of implementations is closed.
type Loop interface {
	Name() string
	Kind() Kind

	// U and V return the independent and dependent coordinate triples.
	U() Triple
	V() Triple

	// Independent and Dependent return the joint coordinates behind U and
	// V. A dummy independent coordinate has no joint and is omitted.
	Independent() []kinematics.Coordinate
	Dependent() []kinematics.Coordinate

	// Residual returns the constraint vector Phi(q), which vanishes on
	// valid configurations.
	Residual(snap *kinematics.Snapshot) (symbolic.Matrix, error)

	// Calc derives the closure from the frozen graph.
	Calc(snap *kinematics.Snapshot) (*Closure, error)

	sealed()
}

// Check verifies that c has the shapes l declares.
func Check(l Loop, c *Closure) error {
	u, v := l.U(), l.V()
	fail := func(format string, args ...any) error {
		return &LoopError{Loop: l.Name(), Op: "check", Err: fmt.Errorf("%w: "+format, append([]any{ErrDimension}, args...)...)}
	}
	if len(u.QD) != u.Len() || len(u.QDD) != u.Len() || len(v.QD) != v.Len() || len(v.QDD) != v.Len() {
		return fail("ragged coordinate triples")
	}
	if c == nil {
		return fail("nil closure")
	}
	if len(c.V) != v.Len() {
		return fail("%d expressions for %d dependent coordinates", len(c.V), v.Len())
	}
	if want := symbolic.MatrixShape(v.Len(), u.Len()); c.Bvu.Shape() != want {
		return fail("Bvu shape %s, want %s", c.Bvu.Shape(), want)
	}
	if want := symbolic.VectorShape(v.Len()); c.BPrime.Shape() != want {
		return fail("b' shape %s, want %s", c.BPrime.Shape(), want)
	}
	return nil
}
