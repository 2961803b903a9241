package kinematics

import (
	"fmt"
	"strings"

	"github.com/san-kum/mbsym/internal/symbolic"
)

// JointKind is the motion a joint allows.
type JointKind int

const (
	Rx JointKind = iota
	Ry
	Rz
	Tx
	Ty
	Tz
)

var jointKindNames = [...]string{"Rx", "Ry", "Rz", "Tx", "Ty", "Tz"}

func (k JointKind) String() string {
	if k < Rx || k > Tz {
		return fmt.Sprintf("JointKind(%d)", int(k))
	}
	return jointKindNames[k]
}

// ParseJointKind parses names such as "Rz" or "tx".
func ParseJointKind(s string) (JointKind, error) {
	for i, n := range jointKindNames {
		if strings.EqualFold(n, s) {
			return JointKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: kind %q", ErrInvalidJoint, s)
}

// IsRotation reports whether k is a revolute joint.
func (k JointKind) IsRotation() bool { return k <= Rz }

// Axis returns the parent-frame axis the joint acts along.
func (k JointKind) Axis() symbolic.Axis { return symbolic.Axis(int(k) % 3) }

// Joint connects a parent frame to a child frame with one coordinate.
type Joint struct {
	name   string
	kind   JointKind
	parent *Frame
	child  *Frame
	coord  Coordinate
	q0     float64
	qd0    float64
}

func (j *Joint) Name() string           { return j.name }
func (j *Joint) Kind() JointKind        { return j.kind }
func (j *Joint) Parent() *Frame         { return j.parent }
func (j *Joint) Child() *Frame          { return j.child }
func (j *Joint) Coordinate() Coordinate { return j.coord }

// Initial returns the initial position and velocity of the joint.
func (j *Joint) Initial() (q0, qd0 float64) { return j.q0, j.qd0 }

// transform returns the rotation and translation of the child frame relative
// to the parent frame.
func (j *Joint) transform() (symbolic.Matrix, symbolic.Matrix) {
	if j.kind.IsRotation() {
		return symbolic.Rot(j.kind.Axis(), j.coord.Q), symbolic.Zeros(symbolic.VectorShape(3))
	}
	return symbolic.Identity(3), j.kind.Axis().Unit().Scale(j.coord.Q)
}

func (j *Joint) String() string {
	return fmt.Sprintf("%s(%s: %s -> %s)", j.name, j.kind, j.parent, j.child)
}
