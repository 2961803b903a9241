package symbolic

import "math"

// ============================================================
// Call
// ============================================================

// Call applies an elementary function to one argument.
type Call struct {
	fn  string
	arg Expr
	s   string
}

var numericFuncs = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"asin": math.Asin,
	"acos": math.Acos,
	"atan": math.Atan,
	"exp":  math.Exp,
	"ln":   math.Log,
	"abs":  math.Abs,
}

func call(fn string, arg Expr) Expr {
	if n, ok := arg.(*Number); ok {
		r := numericFuncs[fn](n.v)
		if !math.IsNaN(r) && !math.IsInf(r, 0) {
			return Const(r)
		}
	}
	return &Call{fn: fn, arg: arg, s: fn + "(" + arg.String() + ")"}
}

// negated reports whether e carries a negative numeric coefficient and
// returns -e when it does.
func negated(e Expr) (Expr, bool) {
	if p, ok := e.(*Product); ok && p.coef < 0 {
		return newProduct(-p.coef, p.factors), true
	}
	return e, false
}

// Sin returns sin(e).
func Sin(e Expr) Expr {
	if a, ok := e.(*Arctan2); ok {
		return Mul(a.y, Pow(Add(Square(a.x), Square(a.y)), Const(-0.5)))
	}
	if pos, ok := negated(e); ok {
		return Neg(Sin(pos))
	}
	return call("sin", e)
}

// Cos returns cos(e).
func Cos(e Expr) Expr {
	if a, ok := e.(*Arctan2); ok {
		return Mul(a.x, Pow(Add(Square(a.x), Square(a.y)), Const(-0.5)))
	}
	if pos, ok := negated(e); ok {
		return Cos(pos)
	}
	return call("cos", e)
}

// Tan returns tan(e).
func Tan(e Expr) Expr {
	if pos, ok := negated(e); ok {
		return Neg(Tan(pos))
	}
	return call("tan", e)
}

// Asin returns asin(e).
func Asin(e Expr) Expr { return call("asin", e) }

// Acos returns acos(e).
func Acos(e Expr) Expr { return call("acos", e) }

// Atan returns atan(e).
func Atan(e Expr) Expr { return call("atan", e) }

// Exp returns exp(e).
func Exp(e Expr) Expr { return call("exp", e) }

// Ln returns the natural logarithm of e.
func Ln(e Expr) Expr { return call("ln", e) }

// Abs returns |e|.
func Abs(e Expr) Expr { return call("abs", e) }

// Func returns the function name.
func (c *Call) Func() string   { return c.fn }
func (c *Call) Arg() Expr      { return c.arg }
func (c *Call) String() string { return c.s }
func (c *Call) key() string    { return c.s }

func (c *Call) diff(name string) Expr {
	da := c.arg.diff(name)
	if IsZero(da) {
		return zero
	}
	u := c.arg
	var outer Expr
	switch c.fn {
	case "sin":
		outer = Cos(u)
	case "cos":
		outer = Neg(Sin(u))
	case "tan":
		outer = Pow(Cos(u), Const(-2))
	case "asin":
		outer = Pow(Sub(one, Square(u)), Const(-0.5))
	case "acos":
		outer = Neg(Pow(Sub(one, Square(u)), Const(-0.5)))
	case "atan":
		outer = Pow(Add(one, Square(u)), negOne)
	case "exp":
		outer = c
	case "ln":
		outer = Pow(u, negOne)
	case "abs":
		outer = Div(u, c)
	default:
		panic("symbolic: no derivative for " + c.fn)
	}
	return Mul(outer, da)
}

func (c *Call) subs(m map[string]Expr) Expr {
	a := c.arg.subs(m)
	switch c.fn {
	case "sin":
		return Sin(a)
	case "cos":
		return Cos(a)
	case "tan":
		return Tan(a)
	}
	return call(c.fn, a)
}

func (c *Call) eval(env func(string) (float64, bool)) (float64, error) {
	v, err := c.arg.eval(env)
	if err != nil {
		return 0, err
	}
	return numericFuncs[c.fn](v), nil
}

func (c *Call) compile(l *Layout) (evalFn, error) {
	af, err := c.arg.compile(l)
	if err != nil {
		return nil, err
	}
	f := numericFuncs[c.fn]
	return func(s []float64) float64 { return f(af(s)) }, nil
}

func (c *Call) walk(fn func(Expr)) {
	fn(c)
	c.arg.walk(fn)
}

// ============================================================
// Arctan2
// ============================================================

// Arctan2 is the four-quadrant inverse tangent atan2(y, x).
type Arctan2 struct {
	y, x Expr
	s    string
}

// Atan2 returns atan2(y, x).
func Atan2(y, x Expr) Expr {
	yv, yok := IsConst(y)
	xv, xok := IsConst(x)
	if yok && xok {
		return Const(math.Atan2(yv, xv))
	}
	if IsZero(y) && nonNegative(x) {
		return zero
	}
	return &Arctan2{y: y, x: x, s: "atan2(" + y.String() + ", " + x.String() + ")"}
}

// nonNegative reports whether e is provably >= 0: a non-negative constant,
// a principal square root or even power, or a positive product of those.
func nonNegative(e Expr) bool {
	switch v := e.(type) {
	case *Number:
		return v.v >= 0
	case *Power:
		ev, ok := IsConst(v.exp)
		return ok && (ev == 0.5 || (isInteger(ev) && math.Mod(ev, 2) == 0) || nonNegative(v.base))
	case *Product:
		if v.coef <= 0 {
			return false
		}
		for _, f := range v.factors {
			if !nonNegative(f) {
				return false
			}
		}
		return true
	}
	return false
}

func (a *Arctan2) Y() Expr        { return a.y }
func (a *Arctan2) X() Expr        { return a.x }
func (a *Arctan2) String() string { return a.s }
func (a *Arctan2) key() string    { return a.s }

func (a *Arctan2) diff(name string) Expr {
	dy := a.y.diff(name)
	dx := a.x.diff(name)
	if IsZero(dy) && IsZero(dx) {
		return zero
	}
	num := Sub(Mul(a.x, dy), Mul(a.y, dx))
	return Div(num, Add(Square(a.x), Square(a.y)))
}

func (a *Arctan2) subs(m map[string]Expr) Expr {
	return Atan2(a.y.subs(m), a.x.subs(m))
}

func (a *Arctan2) eval(env func(string) (float64, bool)) (float64, error) {
	y, err := a.y.eval(env)
	if err != nil {
		return 0, err
	}
	x, err := a.x.eval(env)
	if err != nil {
		return 0, err
	}
	return math.Atan2(y, x), nil
}

func (a *Arctan2) compile(l *Layout) (evalFn, error) {
	yf, err := a.y.compile(l)
	if err != nil {
		return nil, err
	}
	xf, err := a.x.compile(l)
	if err != nil {
		return nil, err
	}
	return func(s []float64) float64 { return math.Atan2(yf(s), xf(s)) }, nil
}

func (a *Arctan2) walk(fn func(Expr)) {
	fn(a)
	a.y.walk(fn)
	a.x.walk(fn)
}
