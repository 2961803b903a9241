package loops

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// CrankSlider closes a slider-crank mechanism. One frame hangs below a
// single Rz joint (the crank, independent), the other below a Tx joint (the
// slider) followed by an Rz joint (the connecting rod).
type CrankSlider struct {
	geometric
	slide   *kinematics.Joint
	rod     *kinematics.Joint
	posture Posture
}

// NewCrankSlider returns the closure for the crank pin csa and the rod end
// csb. Open places the slider on the positive side of the crank pin along
// the slide axis.
func NewCrankSlider(name string, csa, csb *kinematics.Frame, posture Posture) (*CrankSlider, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty loop name", ErrType)
	}
	if err := checkPosture(name, posture); err != nil {
		return nil, err
	}
	a, b, ja, jb, err := match(name, csa, csb,
		[]kinematics.JointKind{kinematics.Rz},
		[]kinematics.JointKind{kinematics.Tx, kinematics.Rz})
	if err != nil {
		return nil, err
	}
	return &CrankSlider{
		geometric: geometric{name: name, csa: a, csb: b, u: coords(ja...), v: coords(jb...)},
		slide:     jb[0],
		rod:       jb[1],
		posture:   posture,
	}, nil
}

func (l *CrankSlider) Kind() Kind { return KindCrankSlider }

func (l *CrankSlider) Posture() Posture { return l.posture }

func (l *CrankSlider) Calc(snap *kinematics.Snapshot) (*Closure, error) {
	if err := l.validate(snap, "calc"); err != nil {
		return nil, err
	}
	x := l.slide.Coordinate().Q
	frame := l.slide.Parent()

	pin := relative(frame, l.csa).P
	pivot := relative(frame, l.rod.Parent())
	k := planar(pivot.P)
	axis := k.Diff(x)
	r := planar(pin).Sub(k.Subs(symbolic.Substitution{}.Bind(x, symbolic.Zero())))
	rod := planar(relative(l.rod.Child(), l.csb).P)

	sol := quadratic(
		symbolic.Dot(axis, axis),
		symbolic.Neg(symbolic.Dot(axis, r)),
		symbolic.Sub(symbolic.Dot(r, r), symbolic.Dot(rod, rod)),
		l.posture.sign(),
	)
	w := pivot.R.T().Mul(pin.Sub(pivot.P).Subs(symbolic.Substitution{}.Bind(x, sol)))
	psi := symbolic.Sub(angle(planar(w)), angle(rod))

	return l.derive(snap, []symbolic.Expr{sol, psi})
}
