package loops

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// FourBar closes a planar four-bar linkage. One frame hangs below two Rz
// joints (crank, independent, then coupler, dependent), the other below a
// single Rz joint (rocker, dependent).
type FourBar struct {
	geometric
	crank   *kinematics.Joint
	coupler *kinematics.Joint
	rocker  *kinematics.Joint
	posture Posture
}

// NewFourBar returns the closure for the coupler end csa and the rocker end
// csb. Open puts the coupler-rocker pin on the left of the line from the
// rocker pivot to the crank pin.
func NewFourBar(name string, csa, csb *kinematics.Frame, posture Posture) (*FourBar, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty loop name", ErrType)
	}
	if err := checkPosture(name, posture); err != nil {
		return nil, err
	}
	a, b, ja, jb, err := match(name, csa, csb,
		[]kinematics.JointKind{kinematics.Rz, kinematics.Rz},
		[]kinematics.JointKind{kinematics.Rz})
	if err != nil {
		return nil, err
	}
	return &FourBar{
		geometric: geometric{name: name, csa: a, csb: b, u: coords(ja[0]), v: coords(ja[1], jb[0])},
		crank:     ja[0],
		coupler:   ja[1],
		rocker:    jb[0],
		posture:   posture,
	}, nil
}

func (l *FourBar) Kind() Kind { return KindFourBar }

func (l *FourBar) Posture() Posture { return l.posture }

// Calc intersects the circle of the coupler about the crank pin with the
// circle of the rocker about its pivot, in the rocker's parent frame.
func (l *FourBar) Calc(snap *kinematics.Snapshot) (*Closure, error) {
	if err := l.validate(snap, "calc"); err != nil {
		return nil, err
	}
	frame := l.rocker.Parent()
	pinT := relative(frame, l.coupler.Parent())
	pin := planar(pinT.P)
	coupler := planar(relative(l.coupler.Child(), l.csa).P)
	rocker := planar(relative(l.rocker.Child(), l.csb).P)

	lc2, lr2, d2 := symbolic.Dot(coupler, coupler), symbolic.Dot(rocker, rocker), symbolic.Dot(pin, pin)
	dist := symbolic.Sqrt(d2)
	along := symbolic.Div(symbolic.Add(symbolic.Sub(lr2, lc2), d2), symbolic.Mul(symbolic.Const(2), dist))
	across := symbolic.Mul(l.posture.sign(), symbolic.Sqrt(symbolic.Sub(lr2, symbolic.Square(along))))
	joint := pin.Scale(along).Add(perp(pin).Scale(across)).Scale(symbolic.Pow(dist, symbolic.Const(-1)))

	gamma := symbolic.Sub(angle(joint), angle(rocker))
	w := pinT.R.T().Mul(symbolic.Vector(
		symbolic.Sub(joint.Elem(0), pin.Elem(0)),
		symbolic.Sub(joint.Elem(1), pin.Elem(1)),
		symbolic.Zero(),
	))
	beta := symbolic.Sub(angle(planar(w)), angle(coupler))

	return l.derive(snap, []symbolic.Expr{beta, gamma})
}
