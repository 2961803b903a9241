package symbolic

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Sum
// ============================================================

// Sum is a canonical sum of at least two terms.
type Sum struct {
	terms []Expr
	s     string
}

// Add returns the simplified sum of terms.
func Add(terms ...Expr) Expr {
	flat := make([]Expr, 0, len(terms))
	for _, t := range terms {
		if s, ok := t.(*Sum); ok {
			flat = append(flat, s.terms...)
		} else {
			flat = append(flat, t)
		}
	}

	type group struct {
		coef float64
		rest Expr
	}
	constant := 0.0
	groups := make(map[string]*group, len(flat))
	keys := make([]string, 0, len(flat))
	for _, t := range flat {
		if n, ok := t.(*Number); ok {
			constant += n.v
			continue
		}
		coef, rest := splitCoef(t)
		k := rest.key()
		g, ok := groups[k]
		if !ok {
			g = &group{rest: rest}
			groups[k] = g
			keys = append(keys, k)
		}
		g.coef += coef
	}
	sort.Strings(keys)

	out := make([]Expr, 0, len(keys)+1)
	for _, k := range keys {
		g := groups[k]
		if isZero(g.coef) {
			continue
		}
		out = append(out, scale(g.coef, g.rest))
	}
	if !isZero(constant) {
		out = append(out, Const(constant))
	}

	switch len(out) {
	case 0:
		return zero
	case 1:
		return out[0]
	}
	return newSum(out)
}

// Sub returns a - b.
func Sub(a, b Expr) Expr { return Add(a, Neg(b)) }

// Neg returns -e.
func Neg(e Expr) Expr { return Mul(negOne, e) }

func newSum(terms []Expr) *Sum {
	var b strings.Builder
	for i, t := range terms {
		s := t.String()
		switch {
		case i == 0:
			b.WriteString(s)
		case strings.HasPrefix(s, "-"):
			b.WriteString(" - ")
			b.WriteString(s[1:])
		default:
			b.WriteString(" + ")
			b.WriteString(s)
		}
	}
	return &Sum{terms: terms, s: b.String()}
}

// Terms returns a copy of the summands.
func (s *Sum) Terms() []Expr { return append([]Expr(nil), s.terms...) }

func (s *Sum) String() string { return s.s }
func (s *Sum) key() string    { return s.s }

func (s *Sum) diff(name string) Expr {
	out := make([]Expr, 0, len(s.terms))
	for _, t := range s.terms {
		out = append(out, t.diff(name))
	}
	return Add(out...)
}

func (s *Sum) subs(m map[string]Expr) Expr {
	out := make([]Expr, len(s.terms))
	for i, t := range s.terms {
		out[i] = t.subs(m)
	}
	return Add(out...)
}

func (s *Sum) eval(env func(string) (float64, bool)) (float64, error) {
	total := 0.0
	for _, t := range s.terms {
		v, err := t.eval(env)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

func (s *Sum) compile(l *Layout) (evalFn, error) {
	fns, err := compileAll(s.terms, l)
	if err != nil {
		return nil, err
	}
	return func(slots []float64) float64 {
		total := 0.0
		for _, f := range fns {
			total += f(slots)
		}
		return total
	}, nil
}

func (s *Sum) walk(fn func(Expr)) {
	fn(s)
	for _, t := range s.terms {
		t.walk(fn)
	}
}

// ============================================================
// Product
// ============================================================

// Product is a numeric coefficient times at least one non-numeric factor.
type Product struct {
	coef    float64
	factors []Expr
	s       string
}

// Mul returns the simplified product of factors.
func Mul(factors ...Expr) Expr {
	coef := 1.0
	flat := make([]Expr, 0, len(factors))
	for _, f := range factors {
		switch v := f.(type) {
		case *Number:
			coef *= v.v
		case *Product:
			coef *= v.coef
			flat = append(flat, v.factors...)
		default:
			flat = append(flat, f)
		}
	}
	if isZero(coef) {
		return zero
	}

	type group struct {
		base Expr
		exp  float64
	}
	groups := make(map[string]*group, len(flat))
	keys := make([]string, 0, len(flat))
	for _, f := range flat {
		base, exp := baseExp(f)
		k := base.key()
		g, ok := groups[k]
		if !ok {
			g = &group{base: base}
			groups[k] = g
			keys = append(keys, k)
		}
		g.exp += exp
	}
	sort.Strings(keys)

	out := make([]Expr, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		if isZero(g.exp) {
			continue
		}
		p := Pow(g.base, Const(g.exp))
		switch v := p.(type) {
		case *Number:
			coef *= v.v
		case *Product:
			coef *= v.coef
			out = append(out, v.factors...)
		default:
			out = append(out, p)
		}
	}
	if isZero(coef) {
		return zero
	}
	if len(out) == 0 {
		return Const(coef)
	}
	if len(out) == 1 {
		if s, ok := out[0].(*Sum); ok && coef != 1 {
			return distribute(coef, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key() < out[j].key() })
	return newProduct(coef, out)
}

// Div returns a / b.
func Div(a, b Expr) Expr { return Mul(a, Pow(b, negOne)) }

func newProduct(coef float64, factors []Expr) Expr {
	if len(factors) == 0 {
		return Const(coef)
	}
	if coef == 1 && len(factors) == 1 {
		return factors[0]
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		s := f.String()
		if _, ok := f.(*Sum); ok {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	body := strings.Join(parts, "*")
	switch coef {
	case 1:
	case -1:
		body = "-" + body
	default:
		body = strconv.FormatFloat(coef, 'g', -1, 64) + "*" + body
	}
	return &Product{coef: coef, factors: factors, s: body}
}

func distribute(coef float64, s *Sum) Expr {
	out := make([]Expr, len(s.terms))
	for i, t := range s.terms {
		if n, ok := t.(*Number); ok {
			out[i] = Const(coef * n.v)
			continue
		}
		c, rest := splitCoef(t)
		out[i] = scale(coef*c, rest)
	}
	return Add(out...)
}

// splitCoef separates the numeric coefficient of a non-numeric term.
func splitCoef(e Expr) (float64, Expr) {
	if p, ok := e.(*Product); ok {
		return p.coef, newProduct(1, p.factors)
	}
	return 1, e
}

func scale(coef float64, rest Expr) Expr {
	if coef == 1 {
		return rest
	}
	switch v := rest.(type) {
	case *Product:
		return newProduct(coef*v.coef, v.factors)
	case *Sum:
		return distribute(coef, v)
	case *Number:
		return Const(coef * v.v)
	}
	return newProduct(coef, []Expr{rest})
}

func baseExp(e Expr) (Expr, float64) {
	if p, ok := e.(*Power); ok {
		if n, ok := p.exp.(*Number); ok {
			return p.base, n.v
		}
	}
	return e, 1
}

// Coefficient returns the numeric coefficient of e and the remaining factor.
func Coefficient(e Expr) (float64, Expr) {
	if n, ok := e.(*Number); ok {
		return n.v, one
	}
	return splitCoef(e)
}

// Factors returns a copy of the non-numeric factors.
func (p *Product) Factors() []Expr { return append([]Expr(nil), p.factors...) }

// Coef returns the numeric coefficient.
func (p *Product) Coef() float64 { return p.coef }

func (p *Product) String() string { return p.s }
func (p *Product) key() string    { return p.s }

func (p *Product) diff(name string) Expr {
	terms := make([]Expr, 0, len(p.factors))
	for i, f := range p.factors {
		d := f.diff(name)
		if IsZero(d) {
			continue
		}
		parts := make([]Expr, 0, len(p.factors)+1)
		parts = append(parts, Const(p.coef), d)
		parts = append(parts, p.factors[:i]...)
		parts = append(parts, p.factors[i+1:]...)
		terms = append(terms, Mul(parts...))
	}
	return Add(terms...)
}

func (p *Product) subs(m map[string]Expr) Expr {
	out := make([]Expr, 0, len(p.factors)+1)
	out = append(out, Const(p.coef))
	for _, f := range p.factors {
		out = append(out, f.subs(m))
	}
	return Mul(out...)
}

func (p *Product) eval(env func(string) (float64, bool)) (float64, error) {
	total := p.coef
	for _, f := range p.factors {
		v, err := f.eval(env)
		if err != nil {
			return 0, err
		}
		total *= v
	}
	return total, nil
}

func (p *Product) compile(l *Layout) (evalFn, error) {
	fns, err := compileAll(p.factors, l)
	if err != nil {
		return nil, err
	}
	coef := p.coef
	return func(slots []float64) float64 {
		total := coef
		for _, f := range fns {
			total *= f(slots)
		}
		return total
	}, nil
}

func (p *Product) walk(fn func(Expr)) {
	fn(p)
	for _, f := range p.factors {
		f.walk(fn)
	}
}

// ============================================================
// Power
// ============================================================

// Power is base raised to exp.
type Power struct {
	base, exp Expr
	s         string
}

// Pow returns base^exp.
//
// Nested powers are merged, (a^p)^q = a^(p*q), only when q is an integer or
// a is provably non-negative, so sqrt(x^2) stays |x|. The same holds for
// distributing q over a product.
func Pow(base, exp Expr) Expr {
	if e, ok := exp.(*Number); ok {
		if isZero(e.v) {
			return one
		}
		if e.v == 1 {
			return base
		}
		switch b := base.(type) {
		case *Number:
			r := math.Pow(b.v, e.v)
			if !math.IsNaN(r) && !math.IsInf(r, 0) {
				return Const(r)
			}
		case *Power:
			if be, ok := b.exp.(*Number); ok && (isInteger(e.v) || nonNegative(b.base)) {
				return Pow(b.base, Const(be.v*e.v))
			}
		case *Product:
			if isInteger(e.v) || nonNegative(b) {
				parts := make([]Expr, 0, len(b.factors)+1)
				parts = append(parts, Const(math.Pow(b.coef, e.v)))
				for _, f := range b.factors {
					parts = append(parts, Pow(f, e))
				}
				return Mul(parts...)
			}
		}
	} else if n, ok := base.(*Number); ok && n.v == 1 {
		return one
	}
	return newPower(base, exp)
}

func isInteger(v float64) bool { return v == math.Trunc(v) }

// Sqrt returns e^(1/2).
func Sqrt(e Expr) Expr { return Pow(e, Const(0.5)) }

// Square returns e^2.
func Square(e Expr) Expr { return Pow(e, Const(2)) }

func newPower(base, exp Expr) *Power {
	bs := base.String()
	switch v := base.(type) {
	case *Sum, *Product, *Power:
		bs = "(" + bs + ")"
	case *Number:
		if v.v < 0 {
			bs = "(" + bs + ")"
		}
	}
	es := exp.String()
	if n, ok := exp.(*Number); !ok || n.v < 0 {
		es = "(" + es + ")"
	}
	return &Power{base: base, exp: exp, s: bs + "^" + es}
}

func (p *Power) Base() Expr     { return p.base }
func (p *Power) Exp() Expr      { return p.exp }
func (p *Power) String() string { return p.s }
func (p *Power) key() string    { return p.s }

func (p *Power) diff(name string) Expr {
	db := p.base.diff(name)
	if !DependsOn(p.exp, name) {
		if IsZero(db) {
			return zero
		}
		return Mul(p.exp, Pow(p.base, Sub(p.exp, one)), db)
	}
	de := p.exp.diff(name)
	return Mul(p, Add(Mul(de, Ln(p.base)), Mul(p.exp, db, Pow(p.base, negOne))))
}

func (p *Power) subs(m map[string]Expr) Expr {
	return Pow(p.base.subs(m), p.exp.subs(m))
}

func (p *Power) eval(env func(string) (float64, bool)) (float64, error) {
	b, err := p.base.eval(env)
	if err != nil {
		return 0, err
	}
	e, err := p.exp.eval(env)
	if err != nil {
		return 0, err
	}
	return powFloat(b, e), nil
}

func (p *Power) compile(l *Layout) (evalFn, error) {
	bf, err := p.base.compile(l)
	if err != nil {
		return nil, err
	}
	if n, ok := p.exp.(*Number); ok {
		e := n.v
		switch e {
		case 2:
			return func(s []float64) float64 { b := bf(s); return b * b }, nil
		case -1:
			return func(s []float64) float64 { return 1 / bf(s) }, nil
		case 0.5:
			return func(s []float64) float64 { return math.Sqrt(bf(s)) }, nil
		}
		return func(s []float64) float64 { return powFloat(bf(s), e) }, nil
	}
	ef, err := p.exp.compile(l)
	if err != nil {
		return nil, err
	}
	return func(s []float64) float64 { return powFloat(bf(s), ef(s)) }, nil
}

func (p *Power) walk(fn func(Expr)) {
	fn(p)
	p.base.walk(fn)
	p.exp.walk(fn)
}

func powFloat(b, e float64) float64 {
	switch e {
	case 1:
		return b
	case 2:
		return b * b
	case 0.5:
		return math.Sqrt(b)
	}
	return math.Pow(b, e)
}

func compileAll(es []Expr, l *Layout) ([]evalFn, error) {
	fns := make([]evalFn, len(es))
	for i, e := range es {
		f, err := e.compile(l)
		if err != nil {
			return nil, err
		}
		fns[i] = f
	}
	return fns, nil
}
