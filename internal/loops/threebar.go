package loops

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// ThreeBarTrans closes a three-bar linkage with one translational member.
// One frame hangs below a single Rz joint (the independent crank angle),
// the other below an Rz joint followed by a Tx joint (the dependent angle θ
// and extension s). Every Rz axis must be parallel to the world z axis.
type ThreeBarTrans struct {
	geometric
	rot   *kinematics.Joint
	slide *kinematics.Joint
}

// NewThreeBarTrans returns the closure making csa and csb coincide in x and
// y. The frames may be given in either order.
func NewThreeBarTrans(name string, csa, csb *kinematics.Frame) (*ThreeBarTrans, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty loop name", ErrType)
	}
	a, b, ja, jb, err := match(name, csa, csb,
		[]kinematics.JointKind{kinematics.Rz},
		[]kinematics.JointKind{kinematics.Rz, kinematics.Tx})
	if err != nil {
		return nil, err
	}
	return &ThreeBarTrans{
		geometric: geometric{name: name, csa: a, csb: b, u: coords(ja...), v: coords(jb...)},
		rot:       jb[0],
		slide:     jb[1],
	}, nil
}

func (l *ThreeBarTrans) Kind() Kind { return KindThreeBarTrans }

// Calc solves Rz(θ)·g(s) = d in the parent frame of the rotational joint,
// where d is csa and g(s) is csb seen from the rotated frame. g is affine
// in s, so |g(s)| = |d| yields s as the positive root of a quadratic, and
// θ = atan2(d) - atan2(g(s)).
func (l *ThreeBarTrans) Calc(snap *kinematics.Snapshot) (*Closure, error) {
	if err := l.validate(snap, "calc"); err != nil {
		return nil, err
	}
	s := l.slide.Coordinate().Q
	d := planar(relative(l.rot.Parent(), l.csa).P)
	g := planar(relative(l.rot.Child(), l.csb).P)

	a := g.Diff(s)
	g0 := g.Subs(symbolic.Substitution{}.Bind(s, symbolic.Zero()))
	sol := quadratic(symbolic.Dot(a, a), symbolic.Dot(g0, a), symbolic.Sub(symbolic.Dot(g0, g0), symbolic.Dot(d, d)), symbolic.One())
	theta := symbolic.Sub(angle(d), angle(g.Subs(symbolic.Substitution{}.Bind(s, sol))))

	return l.derive(snap, []symbolic.Expr{theta, sol})
}
