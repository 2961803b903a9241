package symbolic

import (
	"fmt"
	"math"
	"strings"
)

// Shape is the static shape of a Matrix. Cols == 0 denotes a vector (Rows,).
type Shape struct {
	Rows, Cols int
}

// VectorShape returns the shape (n,).
func VectorShape(n int) Shape { return Shape{Rows: n} }

// MatrixShape returns the shape (r,c).
func MatrixShape(r, c int) Shape { return Shape{Rows: r, Cols: c} }

// IsVector reports whether s is one-dimensional.
func (s Shape) IsVector() bool { return s.Cols == 0 }

// Len returns the number of entries.
func (s Shape) Len() int {
	r, c := s.dims()
	return r * c
}

func (s Shape) dims() (int, int) {
	if s.IsVector() {
		return s.Rows, 1
	}
	return s.Rows, s.Cols
}

func (s Shape) String() string {
	if s.IsVector() {
		return fmt.Sprintf("(%d,)", s.Rows)
	}
	return fmt.Sprintf("(%d,%d)", s.Rows, s.Cols)
}

// Matrix is an immutable, row-major matrix or vector of expressions.
type Matrix struct {
	shape Shape
	data  []Expr
}

// Vector returns the vector of elems.
func Vector(elems ...Expr) Matrix {
	return Matrix{shape: VectorShape(len(elems)), data: append([]Expr(nil), elems...)}
}

// ConstVector returns a vector of numeric constants.
func ConstVector(vals ...float64) Matrix {
	data := make([]Expr, len(vals))
	for i, v := range vals {
		data[i] = Const(v)
	}
	return Matrix{shape: VectorShape(len(vals)), data: data}
}

// MatrixOf returns the matrix with the given rows.
func MatrixOf(rows ...[]Expr) Matrix {
	if len(rows) == 0 {
		return Matrix{shape: MatrixShape(0, 0)}
	}
	cols := len(rows[0])
	data := make([]Expr, 0, len(rows)*cols)
	for _, r := range rows {
		if len(r) != cols {
			shapePanic("matrix rows", MatrixShape(1, cols), MatrixShape(1, len(r)))
		}
		data = append(data, r...)
	}
	return Matrix{shape: MatrixShape(len(rows), cols), data: data}
}

// Generate builds a matrix of shape s from fn(i, j). For vectors j is 0.
func Generate(s Shape, fn func(i, j int) Expr) Matrix {
	r, c := s.dims()
	data := make([]Expr, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data[i*c+j] = fn(i, j)
		}
	}
	return Matrix{shape: s, data: data}
}

// Zeros returns the zero matrix of shape s.
func Zeros(s Shape) Matrix {
	return Generate(s, func(int, int) Expr { return zero })
}

// Identity returns the n×n identity.
func Identity(n int) Matrix {
	return Generate(MatrixShape(n, n), func(i, j int) Expr {
		if i == j {
			return one
		}
		return zero
	})
}

// Diag returns the square matrix with elems on the diagonal.
func Diag(elems ...Expr) Matrix {
	n := len(elems)
	return Generate(MatrixShape(n, n), func(i, j int) Expr {
		if i == j {
			return elems[i]
		}
		return zero
	})
}

func (m Matrix) Shape() Shape { return m.shape }
func (m Matrix) Len() int     { return len(m.data) }

// At returns entry (i, j). Vectors accept j == 0.
func (m Matrix) At(i, j int) Expr {
	r, c := m.shape.dims()
	if i < 0 || i >= r || j < 0 || j >= c {
		panic(fmt.Sprintf("symbolic: index (%d,%d) out of range for shape %s", i, j, m.shape))
	}
	return m.data[i*c+j]
}

// Elem returns element i of a vector.
func (m Matrix) Elem(i int) Expr {
	if !m.shape.IsVector() {
		shapePanic("elem", m.shape, VectorShape(m.shape.Rows))
	}
	return m.At(i, 0)
}

// Elems returns a copy of all entries in row-major order.
func (m Matrix) Elems() []Expr { return append([]Expr(nil), m.data...) }

// Row returns row i as a vector.
func (m Matrix) Row(i int) Matrix {
	_, c := m.shape.dims()
	return Generate(VectorShape(c), func(j, _ int) Expr { return m.At(i, j) })
}

// Col returns column j as a vector.
func (m Matrix) Col(j int) Matrix {
	r, _ := m.shape.dims()
	return Generate(VectorShape(r), func(i, _ int) Expr { return m.At(i, j) })
}

// Map applies fn to every entry.
func (m Matrix) Map(fn func(Expr) Expr) Matrix {
	data := make([]Expr, len(m.data))
	for i, e := range m.data {
		data[i] = fn(e)
	}
	return Matrix{shape: m.shape, data: data}
}

// Reshape reinterprets the entries with shape s of equal length.
func (m Matrix) Reshape(s Shape) Matrix {
	if s.Len() != m.shape.Len() {
		shapePanic("reshape", m.shape, s)
	}
	return Matrix{shape: s, data: m.data}
}

// T returns the transpose. A vector (n,) becomes a (1,n) matrix.
func (m Matrix) T() Matrix {
	r, c := m.shape.dims()
	return Generate(MatrixShape(c, r), func(i, j int) Expr { return m.data[j*c+i] })
}

// Add returns m + o.
func (m Matrix) Add(o Matrix) Matrix {
	if m.shape != o.shape {
		shapePanic("add", m.shape, o.shape)
	}
	data := make([]Expr, len(m.data))
	for i := range m.data {
		data[i] = Add(m.data[i], o.data[i])
	}
	return Matrix{shape: m.shape, data: data}
}

// Sub returns m - o.
func (m Matrix) Sub(o Matrix) Matrix {
	if m.shape != o.shape {
		shapePanic("sub", m.shape, o.shape)
	}
	data := make([]Expr, len(m.data))
	for i := range m.data {
		data[i] = Sub(m.data[i], o.data[i])
	}
	return Matrix{shape: m.shape, data: data}
}

// Scale returns s·m.
func (m Matrix) Scale(s Expr) Matrix {
	return m.Map(func(e Expr) Expr { return Mul(s, e) })
}

// Neg returns -m.
func (m Matrix) Neg() Matrix { return m.Map(Neg) }

// Mul returns the matrix product m·o. Vectors act as columns; a matrix
// times a vector is a vector.
func (m Matrix) Mul(o Matrix) Matrix {
	r, n := m.shape.dims()
	n2, c := o.shape.dims()
	if n != n2 {
		shapePanic("mul", m.shape, o.shape)
	}
	out := MatrixShape(r, c)
	if o.shape.IsVector() && !m.shape.IsVector() {
		out = VectorShape(r)
	}
	return Generate(out, func(i, j int) Expr {
		terms := make([]Expr, 0, n)
		for k := 0; k < n; k++ {
			a, b := m.data[i*n+k], o.data[k*c+j]
			if IsZero(a) || IsZero(b) {
				continue
			}
			terms = append(terms, Mul(a, b))
		}
		return Add(terms...)
	})
}

// Subs applies the substitution to every entry.
func (m Matrix) Subs(sub Substitution) Matrix {
	return m.Map(func(e Expr) Expr { return Subs(e, sub) })
}

// Diff differentiates every entry with respect to s.
func (m Matrix) Diff(s *Symbol) Matrix {
	return m.Map(func(e Expr) Expr { return Diff(e, s) })
}

// TimeDiff takes the total time derivative of every entry.
func (m Matrix) TimeDiff(rates []Rate, time *Symbol) Matrix {
	return m.Map(func(e Expr) Expr { return TimeDiff(e, rates, time) })
}

// IsZero reports whether every entry is the constant zero.
func (m Matrix) IsZero() bool {
	for _, e := range m.data {
		if !IsZero(e) {
			return false
		}
	}
	return true
}

// Equal reports entry-wise canonical equality with matching shapes.
func (m Matrix) Equal(o Matrix) bool {
	if m.shape != o.shape {
		return false
	}
	for i := range m.data {
		if !Equal(m.data[i], o.data[i]) {
			return false
		}
	}
	return true
}

// Eval evaluates every entry.
func (m Matrix) Eval(env Env) ([]float64, error) {
	out := make([]float64, len(m.data))
	for i, e := range m.data {
		v, err := Eval(e, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m Matrix) String() string {
	if m.shape.IsVector() {
		return "[" + joinExprs(m.data) + "]"
	}
	r, c := m.shape.dims()
	rows := make([]string, r)
	for i := 0; i < r; i++ {
		rows[i] = "[" + joinExprs(m.data[i*c:(i+1)*c]) + "]"
	}
	return "[" + strings.Join(rows, ", ") + "]"
}

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// ============================================================
// Vector algebra
// ============================================================

// Dot returns the inner product of two vectors of equal length.
func Dot(a, b Matrix) Expr {
	if !a.shape.IsVector() || a.shape != b.shape {
		shapePanic("dot", a.shape, b.shape)
	}
	terms := make([]Expr, 0, len(a.data))
	for i := range a.data {
		terms = append(terms, Mul(a.data[i], b.data[i]))
	}
	return Add(terms...)
}

// Cross returns a × b for vectors of shape (3,).
func Cross(a, b Matrix) Matrix {
	return Skew(a).Mul(b)
}

// Skew returns the (3,3) matrix w with w·p = v × p.
func Skew(v Matrix) Matrix {
	if v.shape != VectorShape(3) {
		shapePanic("skew", v.shape, VectorShape(3))
	}
	x, y, z := v.data[0], v.data[1], v.data[2]
	return MatrixOf(
		[]Expr{zero, Neg(z), y},
		[]Expr{z, zero, Neg(x)},
		[]Expr{Neg(y), x, zero},
	)
}

// Axis names a coordinate axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string { return [...]string{"x", "y", "z"}[a] }

// Unit returns the unit vector along a.
func (a Axis) Unit() Matrix {
	return Generate(VectorShape(3), func(i, _ int) Expr {
		if Axis(i) == a {
			return one
		}
		return zero
	})
}

// Rot returns the rotation by angle about a, mapping child coordinates into
// parent coordinates.
func Rot(a Axis, angle Expr) Matrix {
	c, s := Cos(angle), Sin(angle)
	switch a {
	case AxisX:
		return MatrixOf(
			[]Expr{one, zero, zero},
			[]Expr{zero, c, Neg(s)},
			[]Expr{zero, s, c},
		)
	case AxisY:
		return MatrixOf(
			[]Expr{c, zero, s},
			[]Expr{zero, one, zero},
			[]Expr{Neg(s), zero, c},
		)
	case AxisZ:
		return MatrixOf(
			[]Expr{c, Neg(s), zero},
			[]Expr{s, c, zero},
			[]Expr{zero, zero, one},
		)
	}
	panic(fmt.Sprintf("symbolic: unknown axis %d", a))
}

// Select returns the vector of the entries of v where mask is non-zero.
func Select(v Matrix, mask []int) Matrix {
	if !v.shape.IsVector() || len(mask) != v.shape.Rows {
		shapePanic("select", v.shape, VectorShape(len(mask)))
	}
	out := make([]Expr, 0, len(mask))
	for i, m := range mask {
		if m != 0 {
			out = append(out, v.data[i])
		}
	}
	return Vector(out...)
}

// Jacobian returns ∂f_i/∂s_j for a vector f, shape (len f, len syms).
func Jacobian(f Matrix, syms []*Symbol) Matrix {
	if !f.shape.IsVector() {
		shapePanic("jacobian", f.shape, VectorShape(f.shape.Rows))
	}
	return Generate(MatrixShape(f.shape.Rows, len(syms)), func(i, j int) Expr {
		return Diff(f.data[i], syms[j])
	})
}

// ============================================================
// Block construction
// ============================================================

// Stack concatenates vectors.
func Stack(parts ...Matrix) Matrix {
	out := make([]Expr, 0)
	for _, p := range parts {
		if !p.shape.IsVector() {
			shapePanic("stack", p.shape, VectorShape(p.shape.Rows))
		}
		out = append(out, p.data...)
	}
	return Vector(out...)
}

// Block assembles a matrix from a grid of matrices. All blocks of one block
// row share their row count and all block rows share the column total.
func Block(grid [][]Matrix) Matrix {
	if len(grid) == 0 || len(grid[0]) == 0 {
		panic("symbolic: empty block grid")
	}
	cols := 0
	for _, b := range grid[0] {
		_, c := b.shape.dims()
		cols += c
	}
	rows := make([][]Expr, 0)
	for _, blockRow := range grid {
		h, _ := blockRow[0].shape.dims()
		width := 0
		for _, b := range blockRow {
			r, c := b.shape.dims()
			if r != h {
				shapePanic("block row", blockRow[0].shape, b.shape)
			}
			width += c
		}
		if width != cols {
			shapePanic("block columns", MatrixShape(h, cols), MatrixShape(h, width))
		}
		for i := 0; i < h; i++ {
			row := make([]Expr, 0, cols)
			for _, b := range blockRow {
				_, c := b.shape.dims()
				row = append(row, b.data[i*c:(i+1)*c]...)
			}
			rows = append(rows, row)
		}
	}
	return MatrixOf(rows...)
}

// ============================================================
// Determinant and linear solve
// ============================================================

// Det returns the determinant of a square matrix.
func Det(m Matrix) Expr {
	r, c := m.shape.dims()
	if r != c || m.shape.IsVector() && r != 1 {
		shapePanic("det", m.shape, MatrixShape(r, r))
	}
	return det(m.data, r)
}

func det(a []Expr, n int) Expr {
	switch n {
	case 0:
		return one
	case 1:
		return a[0]
	case 2:
		return Sub(Mul(a[0], a[3]), Mul(a[1], a[2]))
	}
	terms := make([]Expr, 0, n)
	for j := 0; j < n; j++ {
		if IsZero(a[j]) {
			continue
		}
		minor := make([]Expr, 0, (n-1)*(n-1))
		for i := 1; i < n; i++ {
			for k := 0; k < n; k++ {
				if k != j {
					minor = append(minor, a[i*n+k])
				}
			}
		}
		t := Mul(a[j], det(minor, n-1))
		if j%2 == 1 {
			t = Neg(t)
		}
		terms = append(terms, t)
	}
	return Add(terms...)
}

// Solve returns X with A·X = B by Cramer's rule. B is a vector (n,) or a
// matrix (n,k); X has the shape of B. A determinant that simplifies to zero
// yields ErrSingular.
func Solve(a, b Matrix) (Matrix, error) {
	n, c := a.shape.dims()
	if n != c || a.shape.IsVector() {
		shapePanic("solve", a.shape, MatrixShape(n, n))
	}
	bn, k := b.shape.dims()
	if bn != n {
		shapePanic("solve", a.shape, b.shape)
	}
	d := det(a.data, n)
	if v, ok := IsConst(d); ok && math.Abs(v) < 1e-12 {
		return Matrix{}, fmt.Errorf("solve %s: %w", a.shape, ErrSingular)
	}
	inv := Pow(d, negOne)
	out := make([]Expr, n*k)
	col := make([]Expr, n*n)
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			copy(col, a.data)
			for r := 0; r < n; r++ {
				col[r*n+i] = b.data[r*k+j]
			}
			out[i*k+j] = Mul(det(col, n), inv)
		}
	}
	return Matrix{shape: b.shape, data: out}, nil
}
