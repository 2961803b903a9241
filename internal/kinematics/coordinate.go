package kinematics

import "github.com/san-kum/mbsym/internal/symbolic"

// Coordinate is a generalized coordinate with its position, velocity and
// acceleration symbols.
type Coordinate struct {
	Name string
	Q    *symbolic.Symbol
	QD   *symbolic.Symbol
	QDD  *symbolic.Symbol
}

func newCoordinate(joint string) Coordinate {
	return Coordinate{
		Name: joint,
		Q:    symbolic.Sym("q_" + joint),
		QD:   symbolic.Sym("qd_" + joint),
		QDD:  symbolic.Sym("qdd_" + joint),
	}
}

// Symbols returns the position, velocity and acceleration symbols of cs.
func Symbols(cs []Coordinate) (q, qd, qdd []*symbolic.Symbol) {
	q = make([]*symbolic.Symbol, len(cs))
	qd = make([]*symbolic.Symbol, len(cs))
	qdd = make([]*symbolic.Symbol, len(cs))
	for i, c := range cs {
		q[i], qd[i], qdd[i] = c.Q, c.QD, c.QDD
	}
	return q, qd, qdd
}

// Rates pairs every coordinate with its velocity for total time derivatives.
func Rates(cs []Coordinate) []symbolic.Rate {
	out := make([]symbolic.Rate, len(cs))
	for i, c := range cs {
		out[i] = symbolic.Rate{Of: c.Q, Dot: c.QD}
	}
	return out
}
