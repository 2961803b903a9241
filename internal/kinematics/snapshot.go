package kinematics

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/symbolic"
)

// Snapshot is the frozen kinematic graph. Every frame pose is an expression
// of the joint coordinates and parameters. A Snapshot is read-only and safe
// for concurrent use.
type Snapshot struct {
	gravity symbolic.Matrix
	params  symbolic.Env
	world   *Body
	bodies  []*Body
	joints  []*Joint
	frames  map[string]*Frame
	poses   map[*Frame]Transform
	bodyPos map[*Body]Transform
	index   map[string]int
}

// Time returns the symbol for time used by prescribed motions.
func Time() *symbolic.Symbol { return symbolic.Sym("t") }

// Time returns the time symbol; see the package-level Time.
func (s *Snapshot) Time() *symbolic.Symbol { return Time() }

// Gravity returns the gravitational acceleration, shape (3,).
func (s *Snapshot) Gravity() symbolic.Matrix { return s.gravity }

// Params returns a copy of the parameter values.
func (s *Snapshot) Params() symbolic.Env {
	out := make(symbolic.Env, len(s.params))
	for k, v := range s.params {
		out[k] = v
	}
	return out
}

func (s *Snapshot) World() *Body { return s.world }

// Bodies returns the moving bodies, parents before children.
func (s *Snapshot) Bodies() []*Body { return append([]*Body(nil), s.bodies...) }

// Joints returns the joints, parents before children.
func (s *Snapshot) Joints() []*Joint { return append([]*Joint(nil), s.joints...) }

// Joint looks up a joint by name.
func (s *Snapshot) Joint(name string) (*Joint, bool) {
	for _, j := range s.joints {
		if j.name == name {
			return j, true
		}
	}
	return nil, false
}

// Coordinates returns one coordinate per joint, in joint order.
func (s *Snapshot) Coordinates() []Coordinate {
	out := make([]Coordinate, len(s.joints))
	for i, j := range s.joints {
		out[i] = j.coord
	}
	return out
}

// Index returns the position of c in Coordinates.
func (s *Snapshot) Index(c Coordinate) (int, bool) {
	i, ok := s.index[c.Q.Name()]
	return i, ok
}

// Frame looks up a frame by its qualified name, e.g. "bar2.CS_B".
func (s *Snapshot) Frame(name string) (*Frame, bool) {
	f, ok := s.frames[name]
	return f, ok
}

// Contains reports whether f belongs to the snapshot.
func (s *Snapshot) Contains(f *Frame) bool {
	_, ok := s.poses[f]
	return ok
}

// Pose returns the world pose of f.
func (s *Snapshot) Pose(f *Frame) Transform {
	p, ok := s.poses[f]
	if !ok {
		panic(fmt.Sprintf("kinematics: frame %s not in snapshot", f))
	}
	return p
}

// Position returns the world position of f, shape (3,).
func (s *Snapshot) Position(f *Frame) symbolic.Matrix { return s.Pose(f).P }

// Rotation returns the rotation of f into world coordinates, shape (3,3).
func (s *Snapshot) Rotation(f *Frame) symbolic.Matrix { return s.Pose(f).R }

// CG returns the world position of the centre of gravity of b.
func (s *Snapshot) CG(b *Body) symbolic.Matrix {
	return s.bodyPos[b].Apply(b.cg)
}

// Chain returns the joints from the world down to b.
func (s *Snapshot) Chain(b *Body) []*Joint { return chain(b) }

// Path returns the joints between the nearest common ancestor of a and b and
// each of the two frames. See Path.
func (s *Snapshot) Path(a, b *Frame) (toA, toB []*Joint, err error) {
	if !s.Contains(a) || !s.Contains(b) {
		return nil, nil, fmt.Errorf("%w: path %s -> %s", ErrUnknown, a, b)
	}
	return Path(a, b)
}

// AngularJacobian returns Jr with ω_b = Jr·qd in world coordinates, shape
// (3, len(Coordinates)).
func (s *Snapshot) AngularJacobian(b *Body) symbolic.Matrix {
	cols := make([]symbolic.Matrix, len(s.joints))
	for i := range cols {
		cols[i] = symbolic.Zeros(symbolic.VectorShape(3))
	}
	for _, j := range s.Chain(b) {
		if !j.kind.IsRotation() {
			continue
		}
		cols[s.index[j.coord.Q.Name()]] = s.Rotation(j.parent).Mul(j.kind.Axis().Unit())
	}
	return symbolic.Generate(symbolic.MatrixShape(3, len(cols)), func(i, k int) symbolic.Expr {
		return cols[k].Elem(i)
	})
}

// TranslationalJacobian returns ∂p/∂q for a world position p, shape
// (3, len(Coordinates)).
func (s *Snapshot) TranslationalJacobian(p symbolic.Matrix) symbolic.Matrix {
	q, _, _ := Symbols(s.Coordinates())
	return symbolic.Jacobian(p, q)
}
