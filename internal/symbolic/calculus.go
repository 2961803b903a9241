package symbolic

// Diff returns the partial derivative of e with respect to s.
func Diff(e Expr, s *Symbol) Expr { return e.diff(s.name) }

// Rate pairs a coordinate with its time derivative.
type Rate struct {
	Of  *Symbol
	Dot Expr
}

// TimeDiff returns the total time derivative of e,
//
//	de/dt = Σ ∂e/∂q_k · qd_k (+ ∂e/∂t when time is non-nil).
func TimeDiff(e Expr, rates []Rate, time *Symbol) Expr {
	terms := make([]Expr, 0, len(rates)+1)
	for _, r := range rates {
		d := e.diff(r.Of.name)
		if IsZero(d) {
			continue
		}
		terms = append(terms, Mul(d, r.Dot))
	}
	if time != nil {
		terms = append(terms, e.diff(time.name))
	}
	return Add(terms...)
}

// Gradient returns ∂e/∂s for every symbol in syms.
func Gradient(e Expr, syms []*Symbol) []Expr {
	out := make([]Expr, len(syms))
	for i, s := range syms {
		out[i] = e.diff(s.name)
	}
	return out
}
