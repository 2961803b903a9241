package loops

import (
	"testing"

	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/symbolic"
)

var (
	zero3     = symbolic.Zeros(symbolic.VectorShape(3))
	noInertia = symbolic.Zeros(symbolic.MatrixShape(3, 3))
)

func xVec(e symbolic.Expr) symbolic.Matrix {
	return symbolic.Vector(e, symbolic.Zero(), symbolic.Zero())
}

// must panics on err; fixtures are built from known-good graphs.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

type fixture struct {
	snap *kinematics.Snapshot
	loop Loop
}

// threeBarGraph builds the linkage: bar2 turns about the world origin (jA),
// bar3b about world.CS_C (jC) and bar3a slides along bar3b (jCB).
func threeBarGraph(t *testing.T, l1, l2 float64) (*kinematics.Graph, *kinematics.Frame, *kinematics.Frame) {
	t.Helper()
	g := kinematics.NewGraph([3]float64{0, -9.81, 0})
	p1 := g.Param("l1", l1)
	p2 := g.Param("l2", l2)
	m := g.Param("m", 0.25)

	worldC := must(g.World().AddFrame("CS_C", xVec(p1), symbolic.Matrix{}))
	bar2 := must(g.AddBody("bar2", m, zero3, noInertia))
	bar2B := must(bar2.AddFrame("CS_B", xVec(p2), symbolic.Matrix{}))
	bar3a := must(g.AddBody("bar3a", m, zero3, noInertia))
	bar3b := must(g.AddBody("bar3b", m, zero3, noInertia))

	must(g.AddJoint("jA", g.World().Origin(), bar2.Origin(), kinematics.Rz, 0.01, 0))
	must(g.AddJoint("jC", worldC, bar3b.Origin(), kinematics.Rz, 0, 0))
	must(g.AddJoint("jCB", bar3b.Origin(), bar3a.Origin(), kinematics.Tx, 0, 0))
	return g, bar2B, bar3a.Origin()
}

func threeBar(t *testing.T) fixture {
	t.Helper()
	g, a, b := threeBarGraph(t, 0.13, 0.174)
	loop := must(NewThreeBarTrans("ThreeBarLinkageTrans", a, b))
	return fixture{snap: must(g.Freeze()), loop: loop}
}

func crankSlider(t *testing.T, posture Posture) fixture {
	t.Helper()
	g := kinematics.NewGraph([3]float64{0, -9.81, 0})
	r := g.Param("r", 0.1)
	l := g.Param("l", 0.35)
	m := g.Param("m", 1)

	crank := must(g.AddBody("crank", m, zero3, noInertia))
	pin := must(crank.AddFrame("pin", xVec(r), symbolic.Matrix{}))
	slider := must(g.AddBody("slider", m, zero3, noInertia))
	rod := must(g.AddBody("rod", m, zero3, noInertia))
	end := must(rod.AddFrame("end", xVec(l), symbolic.Matrix{}))

	must(g.AddJoint("crank", g.World().Origin(), crank.Origin(), kinematics.Rz, 0, 0))
	must(g.AddJoint("slide", g.World().Origin(), slider.Origin(), kinematics.Tx, 0, 0))
	must(g.AddJoint("rod", slider.Origin(), rod.Origin(), kinematics.Rz, 0, 0))

	loop := must(NewCrankSlider("cs", pin, end, posture))
	return fixture{snap: must(g.Freeze()), loop: loop}
}

func fourBar(t *testing.T, posture Posture) fixture {
	t.Helper()
	g := kinematics.NewGraph([3]float64{0, -9.81, 0})
	a := g.Param("a", 0.1)
	b := g.Param("b", 0.35)
	c := g.Param("c", 0.3)
	d := g.Param("d", 0.4)
	m := g.Param("m", 1)

	ground := must(g.World().AddFrame("D", xVec(d), symbolic.Matrix{}))
	crank := must(g.AddBody("crank", m, zero3, noInertia))
	crankB := must(crank.AddFrame("B", xVec(a), symbolic.Matrix{}))
	coupler := must(g.AddBody("coupler", m, zero3, noInertia))
	couplerC := must(coupler.AddFrame("C", xVec(b), symbolic.Matrix{}))
	rocker := must(g.AddBody("rocker", m, zero3, noInertia))
	rockerC := must(rocker.AddFrame("C", xVec(c), symbolic.Matrix{}))

	must(g.AddJoint("crank", g.World().Origin(), crank.Origin(), kinematics.Rz, 0, 0))
	must(g.AddJoint("coupler", crankB, coupler.Origin(), kinematics.Rz, 0, 0))
	must(g.AddJoint("rocker", ground, rocker.Origin(), kinematics.Rz, 0, 0))

	loop := must(NewFourBar("fb", couplerC, rockerC, posture))
	return fixture{snap: must(g.Freeze()), loop: loop}
}

func geometricFixtures(t *testing.T) map[string]fixture {
	return map[string]fixture{
		"three bar":            threeBar(t),
		"crank slider open":    crankSlider(t, Open),
		"crank slider crossed": crankSlider(t, Crossed),
		"four bar open":        fourBar(t, Open),
		"four bar crossed":     fourBar(t, Crossed),
	}
}

// evaluation holds a numeric evaluation of a closure at one configuration.
type evaluation struct {
	env        symbolic.Env
	v, vd, vdd []float64
}

// evaluate computes v(u), vd = Bvu·ud and vdd = Bvu·udd + b'.
func evaluate(t *testing.T, f fixture, c *Closure, u, ud, udd []float64) evaluation {
	t.Helper()
	env := f.snap.Params()
	env["t"] = 0
	for i, co := range f.loop.Independent() {
		env[co.Q.Name()] = u[i]
		env[co.QD.Name()] = ud[i]
	}
	dep := f.loop.Dependent()
	ev := evaluation{env: env, v: make([]float64, len(dep)), vd: make([]float64, len(dep)), vdd: make([]float64, len(dep))}
	for i, e := range c.V {
		ev.v[i] = must(symbolic.Eval(e, env))
		env[dep[i].Q.Name()] = ev.v[i]
	}
	bvu := must(c.Bvu.Eval(env))
	nu := len(u)
	for i := range dep {
		for k := 0; k < nu; k++ {
			ev.vd[i] += bvu[i*nu+k] * ud[k]
			ev.vdd[i] += bvu[i*nu+k] * udd[k]
		}
		env[dep[i].QD.Name()] = ev.vd[i]
	}
	bp := must(c.BPrime.Eval(env))
	for i := range dep {
		ev.vdd[i] += bp[i]
	}
	return ev
}

// positionAt evaluates v along u(τ) = u + ud·τ + udd·τ²/2.
func positionAt(t *testing.T, f fixture, c *Closure, u, ud, udd []float64, tau float64) []float64 {
	t.Helper()
	env := f.snap.Params()
	for i, co := range f.loop.Independent() {
		env[co.Q.Name()] = u[i] + ud[i]*tau + 0.5*udd[i]*tau*tau
	}
	out := make([]float64, len(c.V))
	for i, e := range c.V {
		out[i] = must(symbolic.Eval(e, env))
	}
	return out
}
