package assembly_test

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/mbsym/internal/assembly"
	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/loops"
	"github.com/san-kum/mbsym/internal/mechanisms"
	"github.com/san-kum/mbsym/internal/symbolic"
)

func build(t *testing.T, name string, overrides map[string]float64, opts ...assembly.Option) *assembly.Model {
	t.Helper()
	m, err := mechanisms.Get(name)
	if err != nil {
		t.Fatal(err)
	}
	model, err := m.Build(overrides, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return model
}

func reduce(t *testing.T, name string, overrides map[string]float64, opts ...assembly.Option) (*assembly.Reduced, *assembly.System) {
	t.Helper()
	r, err := build(t, name, overrides, opts...).Reduce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	sys, err := r.System()
	if err != nil {
		t.Fatal(err)
	}
	return r, sys
}

func TestReduceThreeBar(t *testing.T) {
	g := NewWithT(t)

	r, sys := reduce(t, "threebar_trans", nil)
	g.Expect(r.DOF()).To(Equal(1))
	g.Expect(r.U[0].Name).To(Equal("jA"))
	g.Expect([]string{r.V[0].Name, r.V[1].Name}).To(ConsistOf("jC", "jCB"))
	g.Expect(r.J.Shape()).To(Equal(symbolic.MatrixShape(3, 1)))
	g.Expect(r.MStar.Shape()).To(Equal(symbolic.MatrixShape(1, 1)))
	g.Expect(r.HStar.Shape()).To(Equal(symbolic.VectorShape(1)))
	g.Expect(r.FStar.Shape()).To(Equal(symbolic.VectorShape(1)))
	g.Expect(r.Closures).To(HaveLen(1))

	g.Expect(sys.StateDim()).To(Equal(2))
	g.Expect(sys.ControlDim()).To(Equal(1))
	g.Expect(sys.Driven()).To(BeFalse())
	g.Expect(r.InitialState()).To(Equal(dynamo.State{0.01, 0}))
}

// The compiled system must agree with the symbolic M*, h* and f*.
func TestSystemMatchesSymbolicReduction(t *testing.T) {
	g := NewWithT(t)

	for _, name := range mechanisms.Names() {
		r, sys := reduce(t, name, nil)
		x := r.InitialState()
		_, ud := x.Split()
		ud[0] = 0.7
		const tm = 0.3

		q, qd, err := sys.Coordinates(x, tm)
		g.Expect(err).NotTo(HaveOccurred(), name)
		env := r.Snapshot.Params()
		env["t"] = tm
		for i, c := range r.Coordinates {
			env[c.Q.Name()] = q[i]
			env[c.QD.Name()] = qd[i]
		}
		m, err := r.MStar.Eval(env)
		g.Expect(err).NotTo(HaveOccurred(), name)
		h, err := r.HStar.Eval(env)
		g.Expect(err).NotTo(HaveOccurred(), name)
		f, err := r.FStar.Eval(env)
		g.Expect(err).NotTo(HaveOccurred(), name)

		udd, err := sys.Accelerations(x, dynamo.Control{0.05}, tm)
		g.Expect(err).NotTo(HaveOccurred(), name)
		g.Expect(udd[0]).To(BeNumerically("~", (f[0]-h[0]+0.05)/m[0], 1e-9), name)
	}
}

func TestResidualVanishes(t *testing.T) {
	g := NewWithT(t)

	for _, name := range mechanisms.Names() {
		_, sys := reduce(t, name, nil)
		for _, u := range []float64{-0.4, 0.1, 0.9} {
			res, err := sys.Residual(dynamo.State{u, 0.2}, 0.15)
			g.Expect(err).NotTo(HaveOccurred(), name)
			for _, v := range res {
				g.Expect(v).To(BeNumerically("~", 0, 1e-12), name)
			}
		}
	}
}

func TestPrescribedMotion(t *testing.T) {
	g := NewWithT(t)

	r, sys := reduce(t, "driven_slider", nil)
	g.Expect(r.DOF()).To(Equal(1))
	g.Expect(r.U[0].Name).To(Equal("swing"))
	g.Expect(sys.Driven()).To(BeTrue())

	const (
		amp, omega, length, grav = 0.05, 6.0, 0.3, 9.81
		tm                       = 0.4
		theta                    = 0.2
	)
	q, qd, err := sys.Coordinates(dynamo.State{theta, 0}, tm)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(q[0]).To(BeNumerically("~", amp*math.Sin(omega*tm), 1e-12))
	g.Expect(qd[0]).To(BeNumerically("~", amp*omega*math.Cos(omega*tm), 1e-12))

	// Pendulum on an accelerated support: L·θ'' = -g·sin θ - s''·cos θ.
	sdd := -amp * omega * omega * math.Sin(omega*tm)
	udd, err := sys.Accelerations(dynamo.State{theta, 0}, nil, tm)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(udd[0]).To(BeNumerically("~", -(grav*math.Sin(theta)+sdd*math.Cos(theta))/length, 1e-9))
}

func TestSingularConfiguration(t *testing.T) {
	g := NewWithT(t)

	// With equal bar lengths and jA at zero the slider collapses onto its
	// pivot and the constraint Jacobian loses rank.
	r, sys := reduce(t, "threebar_trans", map[string]float64{"l1": 0.174, "q0": 0})
	x := r.InitialState()

	_, err := sys.Accelerations(x, nil, 0)
	g.Expect(errors.Is(err, symbolic.ErrSingular)).To(BeTrue())
	g.Expect(sys.Validate(x, 0)).To(MatchError(symbolic.ErrSingular))
	g.Expect(sys.Derive(x, nil, 0).IsValid()).To(BeFalse())
	g.Expect(math.IsNaN(sys.Energy(x))).To(BeTrue())

	udd, err := sys.Accelerations(dynamo.State{0.3, 0}, nil, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(math.IsNaN(udd[0]) || math.IsInf(udd[0], 0)).To(BeFalse())
}

func TestStateLength(t *testing.T) {
	g := NewWithT(t)

	_, sys := reduce(t, "fourbar", nil)
	_, err := sys.Accelerations(dynamo.State{1, 2, 3}, nil, 0)
	g.Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
}

func TestDuplicateLoop(t *testing.T) {
	g := NewWithT(t)

	model := build(t, "threebar_trans", nil)
	err := model.AddLoop(model.Loops()[0])
	g.Expect(errors.Is(err, assembly.ErrDuplicateLoop)).To(BeTrue())
	g.Expect(model.AddLoop(nil)).To(MatchError(loops.ErrType))
}

func TestCoupledLoopsRejected(t *testing.T) {
	g := NewWithT(t)

	model := build(t, "threebar_trans", nil)
	jc, _ := model.Snapshot().Joint("jC")
	extra, err := loops.NewExpJoint("pin_jC", jc, symbolic.Const(0.2))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(model.AddLoop(extra)).To(Succeed())

	_, err = model.Reduce(context.Background())
	g.Expect(errors.Is(err, assembly.ErrCoupling)).To(BeTrue())
	var ae *assembly.AssemblyError
	g.Expect(errors.As(err, &ae)).To(BeTrue())
	g.Expect(ae.Stage).To(Equal("partition"))

	model = build(t, "threebar_trans", nil)
	ja, _ := model.Snapshot().Joint("jA")
	extra, _ = loops.NewExpJoint("pin_jA", ja, symbolic.Const(0.2))
	g.Expect(model.AddLoop(extra)).To(Succeed())
	_, err = model.Reduce(context.Background())
	g.Expect(errors.Is(err, assembly.ErrCoupling)).To(BeTrue())
}

func TestNoFreedom(t *testing.T) {
	g := NewWithT(t)

	model := build(t, "driven_slider", nil)
	swing, _ := model.Snapshot().Joint("swing")
	hold, _ := loops.NewExpJoint("hold", swing, symbolic.Zero())
	g.Expect(model.AddLoop(hold)).To(Succeed())

	_, err := model.Reduce(context.Background())
	g.Expect(errors.Is(err, assembly.ErrNoFreedom)).To(BeTrue())
}

func TestPrescribedMotionMustNotDependOnCoordinates(t *testing.T) {
	g := NewWithT(t)

	model := build(t, "fourbar", nil)
	snap := model.Snapshot()
	crank, _ := snap.Joint("crank")
	rocker, _ := snap.Joint("rocker")
	bad, _ := loops.NewExpJoint("follow", crank, rocker.Coordinate().Q)

	model2, err := assembly.NewModel(snap)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(model2.AddLoop(bad)).To(Succeed())
	_, err = model2.Reduce(context.Background())
	g.Expect(errors.Is(err, assembly.ErrCoupling)).To(BeTrue())
}

// multiLoop builds a four-bar next to two sliders with prescribed motion,
// three loops that share no coordinates.
func multiLoop(t *testing.T, opts ...assembly.Option) *assembly.Model {
	t.Helper()
	g := kinematics.NewGraph([3]float64{0, -9.81, 0})
	m := g.Param("m", 1)
	zero3 := symbolic.Zeros(symbolic.VectorShape(3))
	point := symbolic.Zeros(symbolic.MatrixShape(3, 3))
	along := func(v float64) symbolic.Matrix {
		return symbolic.Vector(symbolic.Const(v), symbolic.Zero(), symbolic.Zero())
	}
	check := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	ground, err := g.World().AddFrame("D", along(0.4), symbolic.Matrix{})
	check(err)
	crank, err := g.AddBody("crank", m, zero3, point)
	check(err)
	crankB, err := crank.AddFrame("B", along(0.1), symbolic.Matrix{})
	check(err)
	coupler, err := g.AddBody("coupler", m, zero3, point)
	check(err)
	couplerC, err := coupler.AddFrame("C", along(0.35), symbolic.Matrix{})
	check(err)
	rocker, err := g.AddBody("rocker", m, zero3, point)
	check(err)
	rockerC, err := rocker.AddFrame("C", along(0.3), symbolic.Matrix{})
	check(err)
	_, err = g.AddJoint("crank", g.World().Origin(), crank.Origin(), kinematics.Rz, 0.4, 0)
	check(err)
	_, err = g.AddJoint("coupler", crankB, coupler.Origin(), kinematics.Rz, 0, 0)
	check(err)
	_, err = g.AddJoint("rocker", ground, rocker.Origin(), kinematics.Rz, 0, 0)
	check(err)

	var slides []*kinematics.Joint
	for _, name := range []string{"sx", "sy"} {
		b, err := g.AddBody(name, m, zero3, point)
		check(err)
		kind := kinematics.Tx
		if name == "sy" {
			kind = kinematics.Ty
		}
		j, err := g.AddJoint(name, g.World().Origin(), b.Origin(), kind, 0, 0)
		check(err)
		slides = append(slides, j)
	}

	snap, err := g.Freeze()
	check(err)
	model, err := assembly.NewModel(snap, opts...)
	check(err)

	fb, err := loops.NewFourBar("fb", couplerC, rockerC, loops.Open)
	check(err)
	check(model.AddLoop(fb))
	tm := kinematics.Time()
	for i, j := range slides {
		l, err := loops.NewExpJoint(j.Name()+"_drive", j, symbolic.Mul(symbolic.Const(float64(i+1)), symbolic.Sin(tm)))
		check(err)
		check(model.AddLoop(l))
	}
	return model
}

func TestParallelClosures(t *testing.T) {
	g := NewWithT(t)

	serial, err := multiLoop(t).Reduce(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	for range 5 {
		parallel, err := multiLoop(t, assembly.WithParallel(true)).Reduce(context.Background())
		g.Expect(err).NotTo(HaveOccurred())

		g.Expect(parallel.Closures).To(HaveLen(3))
		for i, l := range parallel.Loops {
			g.Expect(l.Name()).To(Equal(serial.Loops[i].Name()))
			c, want := parallel.Closures[i], serial.Closures[i]
			g.Expect(c.V).To(HaveLen(len(want.V)), l.Name())
			for k := range c.V {
				g.Expect(symbolic.Equal(c.V[k], want.V[k])).To(BeTrue(), l.Name())
			}
			g.Expect(c.Bvu.Equal(want.Bvu)).To(BeTrue(), l.Name())
			g.Expect(c.BPrime.Equal(want.BPrime)).To(BeTrue(), l.Name())
		}
		g.Expect(parallel.J.Equal(serial.J)).To(BeTrue())
		g.Expect(parallel.MStar.Equal(serial.MStar)).To(BeTrue())
	}
	g.Expect(serial.DOF()).To(Equal(1))
	g.Expect(serial.U[0].Name).To(Equal("crank"))
}

func TestCanceledReduce(t *testing.T) {
	g := NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := build(t, "threebar_trans", nil).Reduce(ctx)
	g.Expect(errors.Is(err, context.Canceled)).To(BeTrue())
}

func TestNilSnapshot(t *testing.T) {
	g := NewWithT(t)

	_, err := assembly.NewModel(nil)
	g.Expect(err).To(MatchError(assembly.ErrNoSnapshot))
}
