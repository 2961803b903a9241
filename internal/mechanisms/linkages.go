package mechanisms

import (
	"github.com/san-kum/mbsym/internal/dynamics"
	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/loops"
	"github.com/san-kum/mbsym/internal/symbolic"
)

// threeBarTrans: bar2 turns about the world origin (jA, independent); bar3b
// turns about CS_C = (l1, 0, 0) (jC) and bar3a slides along it (jCB). The
// tip of bar2 is pinned to bar3a.
func threeBarTrans(b *builder, p map[string]float64) ([]loops.Loop, []dynamics.Load) {
	l1 := b.param("l1", p)
	m2, l2 := b.param("m2", p), b.param("l2", p)
	m3a, l3a := b.param("m3a", p), b.param("l3a", p)
	m3b, l3b := b.param("m3b", p), b.param("l3b", p)

	world := b.g.World()
	worldC := b.frame(world, "CS_C", alongX(l1))
	bar2 := b.body("bar2", m2, alongX(half(l2)), rod(m2, l2))
	bar2B := b.frame(bar2, "CS_B", alongX(l2))
	bar3a := b.body("bar3a", m3a, alongX(half(l3a)), rod(m3a, l3a))
	bar3b := b.body("bar3b", m3b, alongX(half(l3b)), rod(m3b, l3b))
	if b.err != nil {
		return nil, nil
	}

	b.joint("jA", world.Origin(), bar2.Origin(), kinematics.Rz, p["q0"], 0)
	b.joint("jC", worldC, bar3b.Origin(), kinematics.Rz, 0, 0)
	b.joint("jCB", bar3b.Origin(), bar3a.Origin(), kinematics.Tx, 0, 0)
	if b.err != nil {
		return nil, nil
	}
	loop := b.loop(loops.NewThreeBarTrans("ThreeBarLinkageTrans", bar2B, bar3a.Origin()))
	return []loops.Loop{loop}, nil
}

// crankSlider: the crank turns about the world origin, the slider moves
// along world x and the rod joins the slider to the crank pin.
func crankSlider(b *builder, p map[string]float64) ([]loops.Loop, []dynamics.Load) {
	r, l := b.param("r", p), b.param("l", p)
	mc, mr, ms := b.param("m_crank", p), b.param("m_rod", p), b.param("m_slider", p)
	torque := b.param("torque", p)

	world := b.g.World()
	crank := b.body("crank", mc, alongX(half(r)), rod(mc, r))
	pin := b.frame(crank, "pin", alongX(r))
	slider := b.body("slider", ms, alongX(symbolic.Zero()), point())
	link := b.body("rod", mr, alongX(half(l)), rod(mr, l))
	end := b.frame(link, "end", alongX(l))
	if b.err != nil {
		return nil, nil
	}

	b.joint("crank", world.Origin(), crank.Origin(), kinematics.Rz, p["q0"], p["qd0"])
	b.joint("slide", world.Origin(), slider.Origin(), kinematics.Tx, 0, 0)
	b.joint("rod", slider.Origin(), link.Origin(), kinematics.Rz, 0, 0)
	loop := b.loop(loops.NewCrankSlider("crank_slider", pin, end, loops.Open))
	return []loops.Loop{loop}, []dynamics.Load{{Joint: "crank", Value: torque}}
}

// fourBar: crank a about the world origin, coupler b on the crank pin and
// rocker c about D = (d, 0, 0).
func fourBar(b *builder, p map[string]float64) ([]loops.Loop, []dynamics.Load) {
	a, bl, c, d := b.param("a", p), b.param("b", p), b.param("c", p), b.param("d", p)
	ma, mb, mc := b.param("m_a", p), b.param("m_b", p), b.param("m_c", p)

	world := b.g.World()
	ground := b.frame(world, "D", alongX(d))
	crank := b.body("crank", ma, alongX(half(a)), rod(ma, a))
	crankB := b.frame(crank, "B", alongX(a))
	coupler := b.body("coupler", mb, alongX(half(bl)), rod(mb, bl))
	couplerC := b.frame(coupler, "C", alongX(bl))
	rocker := b.body("rocker", mc, alongX(half(c)), rod(mc, c))
	rockerC := b.frame(rocker, "C", alongX(c))
	if b.err != nil {
		return nil, nil
	}

	b.joint("crank", world.Origin(), crank.Origin(), kinematics.Rz, p["q0"], p["qd0"])
	b.joint("coupler", crankB, coupler.Origin(), kinematics.Rz, 0, 0)
	b.joint("rocker", ground, rocker.Origin(), kinematics.Rz, 0, 0)
	loop := b.loop(loops.NewFourBar("fourbar", couplerC, rockerC, loops.Open))
	return []loops.Loop{loop}, nil
}

// drivenSlider: a pendulum hangs from a slider on world x whose position
// is prescribed, s = A·sin(ω·t).
func drivenSlider(b *builder, p map[string]float64) ([]loops.Loop, []dynamics.Load) {
	amp, omega := b.param("A", p), b.param("omega", p)
	length, m, ms := b.param("L", p), b.param("m", p), b.param("m_slider", p)

	world := b.g.World()
	slider := b.body("slider", ms, alongX(symbolic.Zero()), point())
	// Rz(q) = 0 hangs the pendulum straight down.
	hang := symbolic.Vector(symbolic.Zero(), symbolic.Neg(length), symbolic.Zero())
	bob := b.body("bob", m, hang, point())
	if b.err != nil {
		return nil, nil
	}

	slide := b.joint("slide", world.Origin(), slider.Origin(), kinematics.Tx, 0, 0)
	b.joint("swing", slider.Origin(), bob.Origin(), kinematics.Rz, p["q0"], p["qd0"])
	motion := symbolic.Mul(amp, symbolic.Sin(symbolic.Mul(omega, kinematics.Time())))
	loop := b.loop(loops.NewExpJoint("drive", slide, motion))
	return []loops.Loop{loop}, nil
}
