package kinematics

import (
	"fmt"
	"sort"

	"github.com/san-kum/mbsym/internal/symbolic"
)

// WorldName is the name of the inertial body.
const WorldName = "world"

// OriginName is the short name of every body's origin frame.
const OriginName = "origin"

// Graph collects bodies, frames and joints of a mechanism. It is not safe
// for concurrent use; freeze it and share the Snapshot instead.
type Graph struct {
	gravity [3]float64
	params  map[string]float64
	world   *Body
	bodies  map[string]*Body
	order   []*Body
	joints  map[string]*Joint
	jorder  []*Joint
	frozen  bool
}

// NewGraph returns a graph containing only the world body. gravity is the
// gravitational acceleration in world coordinates.
func NewGraph(gravity [3]float64) *Graph {
	g := &Graph{
		gravity: gravity,
		params:  make(map[string]float64),
		bodies:  make(map[string]*Body),
		joints:  make(map[string]*Joint),
	}
	g.world = g.newBody(WorldName, symbolic.Zero(), symbolic.Zeros(symbolic.VectorShape(3)), symbolic.Zeros(symbolic.MatrixShape(3, 3)))
	return g
}

func (g *Graph) newBody(name string, mass symbolic.Expr, cg, inertia symbolic.Matrix) *Body {
	b := &Body{graph: g, name: name, mass: mass, cg: cg, inertia: inertia}
	b.origin = &Frame{body: b, name: OriginName, p: symbolic.Zeros(symbolic.VectorShape(3)), r: symbolic.Identity(3)}
	b.frames = []*Frame{b.origin}
	g.bodies[name] = b
	g.order = append(g.order, b)
	return b
}

// World returns the inertial body.
func (g *Graph) World() *Body { return g.world }

// Param declares a named parameter with its numeric value and returns its
// symbol. Declaring an existing name rebinds its value.
func (g *Graph) Param(name string, value float64) *symbolic.Symbol {
	g.params[name] = value
	return symbolic.Sym(name)
}

// SetParam changes the value of an existing parameter.
func (g *Graph) SetParam(name string, value float64) error {
	if _, ok := g.params[name]; !ok {
		return fmt.Errorf("%w: parameter %q", ErrUnknown, name)
	}
	g.params[name] = value
	return nil
}

// ParamNames returns the declared parameter names, sorted.
func (g *Graph) ParamNames() []string {
	names := make([]string, 0, len(g.params))
	for n := range g.params {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Body looks up a body by name.
func (g *Graph) Body(name string) (*Body, bool) {
	b, ok := g.bodies[name]
	return b, ok
}

// Joint looks up a joint by name.
func (g *Graph) Joint(name string) (*Joint, bool) {
	j, ok := g.joints[name]
	return j, ok
}

// AddBody adds a rigid body with mass, centre of gravity cg (shape (3,)) and
// inertia about cg (shape (3,3)), both in body coordinates.
func (g *Graph) AddBody(name string, mass symbolic.Expr, cg, inertia symbolic.Matrix) (*Body, error) {
	if g.frozen {
		return nil, ErrFrozen
	}
	if _, ok := g.bodies[name]; ok {
		return nil, fmt.Errorf("%w: body %q", ErrDuplicateName, name)
	}
	if cg.Shape() != symbolic.VectorShape(3) || inertia.Shape() != symbolic.MatrixShape(3, 3) {
		return nil, fmt.Errorf("%w: body %q: cg %s, inertia %s", symbolic.ErrShape, name, cg.Shape(), inertia.Shape())
	}
	return g.newBody(name, mass, cg, inertia), nil
}

// AddJoint connects child to parent. The child's body must not already
// have an inbound joint, and the joint must not close a cycle.
func (g *Graph) AddJoint(name string, parent, child *Frame, kind JointKind, q0, qd0 float64) (*Joint, error) {
	if g.frozen {
		return nil, ErrFrozen
	}
	if _, ok := g.joints[name]; ok {
		return nil, fmt.Errorf("%w: joint %q", ErrDuplicateName, name)
	}
	if parent == nil || child == nil {
		return nil, fmt.Errorf("%w: %s: nil frame", ErrInvalidJoint, name)
	}
	if parent.body.graph != g || child.body.graph != g {
		return nil, fmt.Errorf("%w: %s: frame of another graph", ErrInvalidJoint, name)
	}
	if kind < Rx || kind > Tz {
		return nil, fmt.Errorf("%w: %s: kind %s", ErrInvalidJoint, name, kind)
	}
	cb := child.body
	switch {
	case cb == g.world:
		return nil, fmt.Errorf("%w: %s: world cannot be a child", ErrInvalidJoint, name)
	case cb.inbound != nil:
		return nil, fmt.Errorf("%w: %s: body %q already attached by %s", ErrInvalidJoint, name, cb.name, cb.inbound.name)
	}
	for b := parent.body; b != nil; {
		if b == cb {
			return nil, fmt.Errorf("%w: %s: closes a cycle through %q", ErrInvalidJoint, name, cb.name)
		}
		if b.inbound == nil {
			break
		}
		b = b.inbound.parent.body
	}

	j := &Joint{name: name, kind: kind, parent: parent, child: child, coord: newCoordinate(name), q0: q0, qd0: qd0}
	cb.inbound = j
	g.joints[name] = j
	g.jorder = append(g.jorder, j)
	return j, nil
}

// Freeze resolves every frame pose and returns the immutable snapshot. The
// graph rejects further modification.
func (g *Graph) Freeze() (*Snapshot, error) {
	s := &Snapshot{
		gravity: symbolic.ConstVector(g.gravity[:]...),
		params:  make(symbolic.Env, len(g.params)),
		world:   g.world,
		frames:  make(map[string]*Frame),
		poses:   make(map[*Frame]Transform),
		bodyPos: make(map[*Body]Transform),
		index:   make(map[string]int),
	}
	for k, v := range g.params {
		s.params[k] = v
	}

	s.bodyPos[g.world] = IdentityTransform()
	for progress := true; progress; {
		progress = false
		for _, j := range g.jorder {
			cb := j.child.body
			if _, done := s.bodyPos[cb]; done {
				continue
			}
			pp, ok := s.bodyPos[j.parent.body]
			if !ok {
				continue
			}
			s.bodyPos[cb] = pp.Compose(j.across())
			s.joints = append(s.joints, j)
			s.bodies = append(s.bodies, cb)
			progress = true
		}
	}
	for _, b := range g.order {
		if _, ok := s.bodyPos[b]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotConnected, b.name)
		}
		bp := s.bodyPos[b]
		for _, f := range b.frames {
			s.frames[f.String()] = f
			s.poses[f] = bp.Compose(f.transform())
		}
	}
	for i, j := range s.joints {
		s.index[j.coord.Q.Name()] = i
	}
	g.frozen = true
	return s, nil
}
