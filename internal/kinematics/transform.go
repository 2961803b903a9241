package kinematics

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/symbolic"
)

// Transform is a rigid transformation. It maps coordinates of a child frame
// into its reference frame: x_ref = R·x_child + P.
type Transform struct {
	R symbolic.Matrix
	P symbolic.Matrix
}

// IdentityTransform returns the transformation that changes nothing.
func IdentityTransform() Transform {
	return Transform{R: symbolic.Identity(3), P: symbolic.Zeros(symbolic.VectorShape(3))}
}

// Compose returns t∘o: first o, then t.
func (t Transform) Compose(o Transform) Transform {
	return Transform{R: t.R.Mul(o.R), P: t.P.Add(t.R.Mul(o.P))}
}

// Inverse returns the transformation mapping the reference frame back into
// the child frame.
func (t Transform) Inverse() Transform {
	rt := t.R.T()
	return Transform{R: rt, P: rt.Mul(t.P).Neg()}
}

// Apply maps the point x, shape (3,).
func (t Transform) Apply(x symbolic.Matrix) symbolic.Matrix {
	return t.P.Add(t.R.Mul(x))
}

func (f *Frame) transform() Transform { return Transform{R: f.r, P: f.p} }

// across returns the pose of the child body of j in the coordinates of the
// parent body of j.
func (j *Joint) across() Transform {
	rj, tj := j.transform()
	return j.parent.transform().
		Compose(Transform{R: rj, P: tj}).
		Compose(j.child.transform().Inverse())
}

// chain returns the joints from the root of the tree down to b.
func chain(b *Body) []*Joint {
	var out []*Joint
	for b.inbound != nil {
		out = append(out, b.inbound)
		b = b.inbound.parent.body
	}
	for i, k := 0, len(out)-1; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out
}

// Path returns the joints leading from the nearest common ancestor body of
// a and b down to a and down to b, each ordered from the ancestor outwards.
func Path(a, b *Frame) (toA, toB []*Joint, err error) {
	if a == nil || b == nil {
		return nil, nil, fmt.Errorf("%w: nil frame", ErrUnknown)
	}
	if a.body.graph != b.body.graph {
		return nil, nil, fmt.Errorf("%w: %s and %s belong to different graphs", ErrNotConnected, a, b)
	}
	ca, cb := chain(a.body), chain(b.body)
	n := 0
	for n < len(ca) && n < len(cb) && ca[n] == cb[n] {
		n++
	}
	if n == 0 && rootOf(a.body, ca) != rootOf(b.body, cb) {
		return nil, nil, fmt.Errorf("%w: %s and %s share no ancestor", ErrNotConnected, a, b)
	}
	return ca[n:], cb[n:], nil
}

func rootOf(b *Body, c []*Joint) *Body {
	if len(c) == 0 {
		return b
	}
	return c[0].parent.body
}

// Relative returns the pose of frame to expressed in frame from. Only the
// joints between the two frames and their common ancestor enter the result.
func Relative(from, to *Frame) (Transform, error) {
	toFrom, toTo, err := Path(from, to)
	if err != nil {
		return Transform{}, err
	}
	return down(toFrom, from).Inverse().Compose(down(toTo, to)), nil
}

// down returns the pose of f in the coordinates of the body at the top of
// joints (the common ancestor).
func down(joints []*Joint, f *Frame) Transform {
	t := IdentityTransform()
	for _, j := range joints {
		t = t.Compose(j.across())
	}
	return t.Compose(f.transform())
}
