package symbolic

import (
	"math"
	"sort"
	"strconv"
)

// Expr is an immutable symbolic scalar expression.
//
// The set of node types is closed; construct expressions through the package
// functions rather than composite literals.
type Expr interface {
	String() string

	key() string
	diff(name string) Expr
	subs(m map[string]Expr) Expr
	eval(env func(string) (float64, bool)) (float64, error)
	compile(l *Layout) (evalFn, error)
	walk(fn func(Expr))
}

type evalFn func(slots []float64) float64

// tolerance below which collected numeric coefficients are treated as zero
const zeroTol = 1e-14

func isZero(v float64) bool { return math.Abs(v) < zeroTol }

// ============================================================
// Number
// ============================================================

// Number is a numeric constant.
type Number struct {
	v float64
	s string
}

var (
	zero   = &Number{v: 0, s: "0"}
	one    = &Number{v: 1, s: "1"}
	negOne = &Number{v: -1, s: "-1"}
)

// Const returns the constant v.
func Const(v float64) Expr {
	switch {
	case isZero(v):
		return zero
	case v == 1:
		return one
	case v == -1:
		return negOne
	}
	return &Number{v: v, s: strconv.FormatFloat(v, 'g', -1, 64)}
}

// Zero returns the constant 0.
func Zero() Expr { return zero }

// One returns the constant 1.
func One() Expr { return one }

func (n *Number) Value() float64 { return n.v }
func (n *Number) String() string { return n.s }
func (n *Number) key() string    { return n.s }
func (n *Number) diff(string) Expr {
	return zero
}
func (n *Number) subs(map[string]Expr) Expr { return n }
func (n *Number) eval(func(string) (float64, bool)) (float64, error) {
	return n.v, nil
}
func (n *Number) compile(*Layout) (evalFn, error) {
	v := n.v
	return func([]float64) float64 { return v }, nil
}
func (n *Number) walk(fn func(Expr)) { fn(n) }

// ============================================================
// Symbol
// ============================================================

// Symbol is a named scalar variable.
type Symbol struct {
	name string
}

// Sym returns the symbol called name.
func Sym(name string) *Symbol {
	if name == "" {
		panic("symbolic: empty symbol name")
	}
	return &Symbol{name: name}
}

func (s *Symbol) Name() string   { return s.name }
func (s *Symbol) String() string { return s.name }
func (s *Symbol) key() string    { return s.name }
func (s *Symbol) diff(name string) Expr {
	if s.name == name {
		return one
	}
	return zero
}
func (s *Symbol) subs(m map[string]Expr) Expr {
	if e, ok := m[s.name]; ok {
		return e
	}
	return s
}
func (s *Symbol) eval(env func(string) (float64, bool)) (float64, error) {
	if v, ok := env(s.name); ok {
		return v, nil
	}
	return 0, &UnboundError{Name: s.name}
}
func (s *Symbol) compile(l *Layout) (evalFn, error) {
	i, ok := l.index[s.name]
	if !ok {
		return nil, &UnboundError{Name: s.name}
	}
	return func(slots []float64) float64 { return slots[i] }, nil
}
func (s *Symbol) walk(fn func(Expr)) { fn(s) }

// UnboundError names the symbol that had no value during evaluation.
type UnboundError struct {
	Name string
}

func (e *UnboundError) Error() string { return "symbolic: unbound symbol " + e.Name }
func (e *UnboundError) Unwrap() error { return ErrUnbound }

// ============================================================
// Queries
// ============================================================

// Equal reports whether a and b have the same canonical form.
func Equal(a, b Expr) bool { return a.key() == b.key() }

// IsZero reports whether e is the constant zero.
func IsZero(e Expr) bool {
	n, ok := e.(*Number)
	return ok && isZero(n.v)
}

// IsConst reports whether e is a number, returning its value.
func IsConst(e Expr) (float64, bool) {
	if n, ok := e.(*Number); ok {
		return n.v, true
	}
	return 0, false
}

// FreeSymbols returns the sorted names of all symbols in e.
func FreeSymbols(e Expr) []string {
	seen := map[string]struct{}{}
	e.walk(func(x Expr) {
		if s, ok := x.(*Symbol); ok {
			seen[s.name] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DependsOn reports whether e contains the symbol name.
func DependsOn(e Expr, name string) bool {
	found := false
	e.walk(func(x Expr) {
		if s, ok := x.(*Symbol); ok && s.name == name {
			found = true
		}
	})
	return found
}

// Size returns the number of nodes in e.
func Size(e Expr) int {
	n := 0
	e.walk(func(Expr) { n++ })
	return n
}
