package symbolic

import "fmt"

// Substitution maps symbol names to replacement expressions.
type Substitution map[string]Expr

// Bind adds the replacement of s by e and returns the substitution.
func (m Substitution) Bind(s *Symbol, e Expr) Substitution {
	m[s.name] = e
	return m
}

// Subs replaces every symbol named in m and re-simplifies.
func Subs(e Expr, m Substitution) Expr {
	if len(m) == 0 {
		return e
	}
	return e.subs(m)
}

// Env holds numeric values for symbols.
type Env map[string]float64

// Eval evaluates e numerically.
func Eval(e Expr, env Env) (float64, error) {
	return e.eval(func(name string) (float64, bool) {
		v, ok := env[name]
		return v, ok
	})
}

// Layout assigns every symbol a slot in a flat value slice, so compiled
// expressions avoid map lookups on hot paths.
type Layout struct {
	names []string
	index map[string]int
}

// NewLayout returns a layout with one slot per name, in order.
func NewLayout(names ...string) *Layout {
	l := &Layout{index: make(map[string]int, len(names))}
	for _, n := range names {
		l.Add(n)
	}
	return l
}

// Add appends a slot for name and returns its index. Adding an existing
// name returns the existing slot.
func (l *Layout) Add(name string) int {
	if i, ok := l.index[name]; ok {
		return i
	}
	l.index[name] = len(l.names)
	l.names = append(l.names, name)
	return len(l.names) - 1
}

// Slot returns the index of name.
func (l *Layout) Slot(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}

// Len returns the number of slots.
func (l *Layout) Len() int { return len(l.names) }

// Names returns the slot names in order.
func (l *Layout) Names() []string { return append([]string(nil), l.names...) }

// Func is a compiled scalar expression.
type Func func(slots []float64) float64

// Compile turns e into a closure over slots laid out by l.
func Compile(e Expr, l *Layout) (Func, error) {
	f, err := e.compile(l)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", truncate(e.String()), err)
	}
	return Func(f), nil
}

// MatrixFunc is a compiled matrix; it writes row-major values into out.
type MatrixFunc func(slots []float64, out []float64)

// CompileMatrix compiles every entry of m.
func CompileMatrix(m Matrix, l *Layout) (MatrixFunc, error) {
	fns, err := compileAll(m.data, l)
	if err != nil {
		return nil, fmt.Errorf("compile matrix %s: %w", m.shape, err)
	}
	return func(slots []float64, out []float64) {
		for i, f := range fns {
			out[i] = f(slots)
		}
	}, nil
}

func truncate(s string) string {
	const limit = 60
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
