package symbolic

import (
	"errors"
	"math"
	"testing"

	gm "github.com/onsi/gomega"
)

var (
	x   = Sym("x")
	y   = Sym("y")
	phi = Sym("phi")
	l   = Sym("l")
)

func TestAddCollectsLikeTerms(t *testing.T) {
	g := gm.NewWithT(t)

	g.Expect(Equal(Add(x, x), Mul(Const(2), x))).To(gm.BeTrue())
	g.Expect(IsZero(Add(x, Neg(x)))).To(gm.BeTrue())
	g.Expect(IsZero(Sub(Add(x, y, Const(3)), Add(Const(3), y, x)))).To(gm.BeTrue())
	g.Expect(Add(Const(1), Const(2)).String()).To(gm.Equal("3"))
}

func TestMulCombinesPowers(t *testing.T) {
	g := gm.NewWithT(t)

	g.Expect(Equal(Mul(x, Pow(x, Const(-1))), One())).To(gm.BeTrue())
	g.Expect(Equal(Mul(x, x, x), Pow(x, Const(3)))).To(gm.BeTrue())
	g.Expect(IsZero(Mul(x, Zero(), y))).To(gm.BeTrue())
	g.Expect(Equal(Neg(Neg(x)), x)).To(gm.BeTrue())
}

func TestMulDistributesCoefficient(t *testing.T) {
	g := gm.NewWithT(t)

	lhs := Mul(Const(2), Add(x, y))
	rhs := Add(Mul(Const(2), x), Mul(Const(2), y))
	g.Expect(Equal(lhs, rhs)).To(gm.BeTrue())

	g.Expect(IsZero(Add(Neg(Add(x, y)), x, y))).To(gm.BeTrue())
}

func TestPowDistributesOverProduct(t *testing.T) {
	g := gm.NewWithT(t)

	g.Expect(Equal(Square(Mul(l, Sin(phi))), Mul(Square(l), Square(Sin(phi))))).To(gm.BeTrue())
	g.Expect(Equal(Square(Sqrt(l)), l)).To(gm.BeTrue())
	g.Expect(Equal(Pow(Pow(x, Const(2)), Const(-1)), Pow(x, Const(-2)))).To(gm.BeTrue())
	g.Expect(Equal(Sqrt(Square(Sqrt(l))), Sqrt(l))).To(gm.BeTrue())
	g.Expect(Pow(Const(2), Const(3)).String()).To(gm.Equal("8"))
}

func TestSqrtOfSquareKeepsSign(t *testing.T) {
	g := gm.NewWithT(t)

	g.Expect(Equal(Sqrt(Square(l)), l)).To(gm.BeFalse())

	env := Env{"x": 2, "y": 3}
	cases := map[string]struct {
		e    Expr
		want float64
	}{
		"difference": {Sqrt(Square(Sub(x, y))), 1},
		"cosine":     {Sqrt(Square(Cos(x))), -math.Cos(2)},
		"product":    {Sqrt(Mul(Square(Sub(x, y)), Square(Sub(y, x)))), 1},
		"negated":    {Sqrt(Square(Neg(x))), 2},
	}
	for name, c := range cases {
		got, err := Eval(c.e, env)
		g.Expect(err).NotTo(gm.HaveOccurred(), name)
		g.Expect(got).To(gm.BeNumerically("~", c.want, 1e-12), name)
	}
}

func TestTrigOfAtan2(t *testing.T) {
	g := gm.NewWithT(t)

	r := Sqrt(Add(Square(x), Square(y)))
	g.Expect(Equal(Mul(Cos(Atan2(y, x)), r), x)).To(gm.BeTrue())
	g.Expect(Equal(Mul(Sin(Atan2(y, x)), r), y)).To(gm.BeTrue())
	g.Expect(IsZero(Atan2(Zero(), r))).To(gm.BeTrue())
	g.Expect(IsZero(Atan2(Zero(), x))).To(gm.BeFalse())
}

func TestTrigParity(t *testing.T) {
	g := gm.NewWithT(t)

	g.Expect(Equal(Sin(Neg(phi)), Neg(Sin(phi)))).To(gm.BeTrue())
	g.Expect(Equal(Cos(Neg(phi)), Cos(phi))).To(gm.BeTrue())
}

func TestDiff(t *testing.T) {
	g := gm.NewWithT(t)

	g.Expect(Equal(Diff(Mul(l, Cos(phi)), phi), Neg(Mul(l, Sin(phi))))).To(gm.BeTrue())
	g.Expect(Equal(Diff(Mul(l, Sin(phi)), phi), Mul(l, Cos(phi)))).To(gm.BeTrue())
	g.Expect(IsZero(Diff(Mul(l, Sin(phi)), x))).To(gm.BeTrue())
	g.Expect(Equal(Diff(Square(x), x), Mul(Const(2), x))).To(gm.BeTrue())
}

func TestDiffMatchesFiniteDifference(t *testing.T) {
	g := gm.NewWithT(t)

	exprs := []Expr{
		Atan2(Sin(phi), Add(Const(2), Cos(phi))),
		Sqrt(Add(Square(Mul(l, Cos(phi))), Const(1))),
		Div(Sin(phi), Add(Const(3), Mul(l, phi))),
		Acos(Mul(Const(0.5), Cos(phi))),
		Asin(Mul(Const(0.3), Sin(phi))),
		Tan(Mul(Const(0.2), phi)),
		Exp(Mul(l, phi)),
		Ln(Add(Const(2), Sin(phi))),
	}
	env := Env{"phi": 0.7, "l": 1.3}
	const h = 1e-6

	for _, e := range exprs {
		d, err := Eval(Diff(e, phi), env)
		g.Expect(err).NotTo(gm.HaveOccurred())

		plus, minus := Env{"phi": 0.7 + h, "l": 1.3}, Env{"phi": 0.7 - h, "l": 1.3}
		fp, _ := Eval(e, plus)
		fm, _ := Eval(e, minus)
		g.Expect(d).To(gm.BeNumerically("~", (fp-fm)/(2*h), 1e-6), e.String())
	}
}

func TestTimeDiff(t *testing.T) {
	g := gm.NewWithT(t)

	q, qd, tm := Sym("q"), Sym("qd"), Sym("t")
	e := Add(Sin(q), Mul(Const(2), tm))
	got := TimeDiff(e, []Rate{{Of: q, Dot: qd}}, tm)
	g.Expect(Equal(got, Add(Mul(Cos(q), qd), Const(2)))).To(gm.BeTrue())
}

func TestSubs(t *testing.T) {
	g := gm.NewWithT(t)

	e := Add(Mul(l, Cos(phi)), x)
	got := Subs(e, Substitution{}.Bind(x, Neg(Mul(l, Cos(phi)))))
	g.Expect(IsZero(got)).To(gm.BeTrue())

	g.Expect(Subs(e, nil)).To(gm.BeIdenticalTo(e))
}

func TestEvalAndCompileAgree(t *testing.T) {
	g := gm.NewWithT(t)

	e := Add(Mul(l, Cos(phi)), Pow(Add(x, Const(2)), Const(1.5)), Atan2(y, x), Div(One(), x))
	env := Env{"l": 0.4, "phi": 1.1, "x": 0.9, "y": -0.2}

	want, err := Eval(e, env)
	g.Expect(err).NotTo(gm.HaveOccurred())

	layout := NewLayout("x", "y", "phi", "l")
	f, err := Compile(e, layout)
	g.Expect(err).NotTo(gm.HaveOccurred())
	g.Expect(f([]float64{0.9, -0.2, 1.1, 0.4})).To(gm.BeNumerically("~", want, 1e-12))
}

func TestEvalUnbound(t *testing.T) {
	g := gm.NewWithT(t)

	_, err := Eval(Add(x, y), Env{"x": 1})
	g.Expect(errors.Is(err, ErrUnbound)).To(gm.BeTrue())

	var ue *UnboundError
	g.Expect(errors.As(err, &ue)).To(gm.BeTrue())
	g.Expect(ue.Name).To(gm.Equal("y"))

	_, err = Compile(x, NewLayout("y"))
	g.Expect(errors.Is(err, ErrUnbound)).To(gm.BeTrue())
}

func TestFreeSymbols(t *testing.T) {
	g := gm.NewWithT(t)

	e := Add(Mul(l, Cos(phi)), Atan2(y, x))
	g.Expect(FreeSymbols(e)).To(gm.Equal([]string{"l", "phi", "x", "y"}))
	g.Expect(DependsOn(e, "phi")).To(gm.BeTrue())
	g.Expect(DependsOn(e, "q")).To(gm.BeFalse())
	g.Expect(Size(x)).To(gm.Equal(1))
}
