package assembly

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/dynamics"
	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/loops"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// Reduced is the model projected onto its independent coordinates.
//
// J and B are indexed by Coordinates (snapshot order): qd = J·ud and
// qdd = J·udd + B. MStar, HStar and FStar are expressions of every
// coordinate, velocity, time and parameter; the dependent values must be
// computed from the closures before they are evaluated.
type Reduced struct {
	Snapshot    *kinematics.Snapshot
	EOM         *dynamics.EOM
	Loops       []loops.Loop
	Closures    []*loops.Closure
	Coordinates []kinematics.Coordinate
	U           []kinematics.Coordinate
	V           []kinematics.Coordinate

	J     symbolic.Matrix // (n, len U)
	B     symbolic.Matrix // (n,)
	MStar symbolic.Matrix // (len U, len U)
	HStar symbolic.Matrix // (len U,)
	FStar symbolic.Matrix // (len U,)

	stages []stage
}

// stage holds what is needed to recover one loop's dependent coordinates.
type stage struct {
	loop       loops.Loop
	dependent  []kinematics.Coordinate
	position   []symbolic.Expr
	velocity   []symbolic.Expr
	jv         symbolic.Matrix
	residual   symbolic.Matrix
	prescribed bool
}

// DOF returns the number of independent coordinates.
func (r *Reduced) DOF() int { return len(r.U) }

// InitialState returns [u0, ud0] from the joint initial values.
func (r *Reduced) InitialState() dynamo.State {
	u := make([]float64, len(r.U))
	ud := make([]float64, len(r.U))
	for i, c := range r.U {
		j, _ := r.Snapshot.Joint(c.Name)
		u[i], ud[i] = j.Initial()
	}
	return dynamo.Join(u, ud)
}

type partitioned struct {
	u, v []kinematics.Coordinate
}

// partition splits the snapshot coordinates into independent and dependent
// sets and rejects loops that would have to be solved together.
func partition(snap *kinematics.Snapshot, ls []loops.Loop) (partitioned, error) {
	owner := make(map[string]int)
	for i, l := range ls {
		for _, c := range l.Dependent() {
			if _, ok := snap.Index(c); !ok {
				return partitioned{}, fmt.Errorf("%w: loop %q: coordinate %s not in model", loops.ErrTopology, l.Name(), c.Name)
			}
			if j, ok := owner[c.Name]; ok {
				return partitioned{}, fmt.Errorf("%w: %s is dependent in %q and %q", ErrCoupling, c.Name, ls[j].Name(), l.Name())
			}
			owner[c.Name] = i
		}
	}
	for _, l := range ls {
		for _, c := range l.Independent() {
			if j, ok := owner[c.Name]; ok {
				return partitioned{}, fmt.Errorf("%w: %s is independent in %q but dependent in %q", ErrCoupling, c.Name, l.Name(), ls[j].Name())
			}
		}
	}

	var p partitioned
	for _, c := range snap.Coordinates() {
		if _, ok := owner[c.Name]; ok {
			p.v = append(p.v, c)
		} else {
			p.u = append(p.u, c)
		}
	}
	if len(p.u) == 0 {
		return partitioned{}, ErrNoFreedom
	}
	return p, nil
}

func project(snap *kinematics.Snapshot, eom *dynamics.EOM, ls []loops.Loop, closures []*loops.Closure, p partitioned) (*Reduced, error) {
	coords := eom.Coordinates
	n, nu := len(coords), len(p.u)
	row := make(map[string]int, n)
	for i, c := range coords {
		row[c.Name] = i
	}
	col := make(map[string]int, nu)
	for k, c := range p.u {
		col[c.Name] = k
	}

	jm := make([][]symbolic.Expr, n)
	for i := range jm {
		jm[i] = make([]symbolic.Expr, nu)
		for k := range jm[i] {
			jm[i][k] = symbolic.Zero()
		}
	}
	for k, c := range p.u {
		jm[row[c.Name]][k] = symbolic.One()
	}
	b := make([]symbolic.Expr, n)
	for i := range b {
		b[i] = symbolic.Zero()
	}

	all, _, _ := kinematics.Symbols(coords)
	t := snap.Time()
	stages := make([]stage, len(ls))
	for i, l := range ls {
		c := closures[i]
		dep := l.Dependent()
		res, err := l.Residual(snap)
		if err != nil {
			return nil, err
		}
		qv, _, _ := kinematics.Symbols(dep)
		st := stage{
			loop:      l,
			dependent: dep,
			position:  c.V,
			jv:        symbolic.Jacobian(res, qv),
			residual:  res,
		}

		if ej, ok := l.(*loops.ExpJoint); ok {
			exp := ej.Expression()
			for _, q := range all {
				if symbolic.DependsOn(exp, q.Name()) {
					return nil, fmt.Errorf("%w: prescribed motion of %q depends on %s", ErrCoupling, l.Name(), q.Name())
				}
			}
			vel := symbolic.TimeDiff(exp, nil, t)
			st.velocity = []symbolic.Expr{vel}
			st.prescribed = true
			b[row[dep[0].Name]] = symbolic.TimeDiff(vel, nil, t)
			stages[i] = st
			continue
		}

		ind := l.Independent()
		_, qdu, _ := kinematics.Symbols(ind)
		st.velocity = c.Bvu.Mul(symbolic.Vector(exprs(qdu)...)).Elems()
		for a, d := range dep {
			r := row[d.Name]
			for k, ic := range ind {
				jc := col[ic.Name]
				jm[r][jc] = symbolic.Add(jm[r][jc], c.Bvu.At(a, k))
			}
			b[r] = c.BPrime.Elem(a)
		}
		stages[i] = st
	}

	j := symbolic.MatrixOf(jm...)
	bv := symbolic.Vector(b...)
	jt := j.T()
	return &Reduced{
		Snapshot:    snap,
		EOM:         eom,
		Loops:       append([]loops.Loop(nil), ls...),
		Closures:    closures,
		Coordinates: coords,
		U:           p.u,
		V:           p.v,
		J:           j,
		B:           bv,
		MStar:       jt.Mul(eom.M).Mul(j),
		HStar:       jt.Mul(eom.M.Mul(bv).Add(eom.H)),
		FStar:       jt.Mul(eom.F),
		stages:      stages,
	}, nil
}

func exprs(syms []*symbolic.Symbol) []symbolic.Expr {
	out := make([]symbolic.Expr, len(syms))
	for i, s := range syms {
		out[i] = s
	}
	return out
}
