package kinematics

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/symbolic"
)

// Body is a rigid body. The world is a body without mass.
type Body struct {
	graph   *Graph
	name    string
	mass    symbolic.Expr
	cg      symbolic.Matrix
	inertia symbolic.Matrix
	origin  *Frame
	frames  []*Frame
	inbound *Joint
}

func (b *Body) Name() string { return b.name }

// Mass returns the body mass.
func (b *Body) Mass() symbolic.Expr { return b.mass }

// CG returns the centre of gravity in body coordinates.
func (b *Body) CG() symbolic.Matrix { return b.cg }

// Inertia returns the inertia tensor about the centre of gravity in body
// coordinates.
func (b *Body) Inertia() symbolic.Matrix { return b.inertia }

// Inbound returns the joint attaching b to its parent, or nil.
func (b *Body) Inbound() *Joint { return b.inbound }

// Origin returns the body-fixed frame at the body origin.
func (b *Body) Origin() *Frame { return b.origin }

// Frames returns the frames fixed to b, origin first.
func (b *Body) Frames() []*Frame { return append([]*Frame(nil), b.frames...) }

// Frame looks up a frame of b by its short name.
func (b *Body) Frame(name string) (*Frame, bool) {
	for _, f := range b.frames {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// AddFrame fixes a new frame to b at position p (shape (3,)) with
// orientation r (shape (3,3), frame to body). A zero-length r means the
// identity.
func (b *Body) AddFrame(name string, p, r symbolic.Matrix) (*Frame, error) {
	if b.graph.frozen {
		return nil, ErrFrozen
	}
	if _, ok := b.Frame(name); ok {
		return nil, fmt.Errorf("%w: frame %s.%s", ErrDuplicateName, b.name, name)
	}
	if r.Len() == 0 {
		r = symbolic.Identity(3)
	}
	if p.Shape() != symbolic.VectorShape(3) || r.Shape() != symbolic.MatrixShape(3, 3) {
		return nil, fmt.Errorf("%w: frame %s.%s: position %s, rotation %s", symbolic.ErrShape, b.name, name, p.Shape(), r.Shape())
	}
	f := &Frame{body: b, name: name, p: p, r: r}
	b.frames = append(b.frames, f)
	return f, nil
}

// Frame is a coordinate system fixed to a body.
type Frame struct {
	body *Body
	name string
	p    symbolic.Matrix
	r    symbolic.Matrix
}

func (f *Frame) Body() *Body  { return f.body }
func (f *Frame) Name() string { return f.name }

// Local returns the position and rotation of f in body coordinates.
func (f *Frame) Local() (p, r symbolic.Matrix) { return f.p, f.r }

// String returns the qualified name body.frame.
func (f *Frame) String() string { return f.body.name + "." + f.name }
