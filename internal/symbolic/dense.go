package symbolic

import (
	"fmt"
	"math"
)

// pivotTol is the relative pivot magnitude below which SolveDense reports
// a singular system.
const pivotTol = 1e-12

// SolveDense solves a·x = b, without modifying its inputs, for a row-major n×n
// matrix a, using Gaussian elimination with partial pivoting.
func SolveDense(a []float64, b []float64) ([]float64, error) {
	n := len(b)
	if len(a) != n*n {
		return nil, fmt.Errorf("solve dense: %w: %d entries for %d unknowns", ErrShape, len(a), n)
	}
	m := append([]float64(nil), a...)
	x := append([]float64(nil), b...)

	scale := 0.0
	for _, v := range m {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 {
		scale = 1
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r*n+col]) > math.Abs(m[pivot*n+col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot*n+col]) < pivotTol*scale {
			return nil, fmt.Errorf("solve dense: column %d: %w", col, ErrSingular)
		}
		if pivot != col {
			for k := 0; k < n; k++ {
				m[col*n+k], m[pivot*n+k] = m[pivot*n+k], m[col*n+k]
			}
			x[col], x[pivot] = x[pivot], x[col]
		}
		for r := col + 1; r < n; r++ {
			f := m[r*n+col] / m[col*n+col]
			if f == 0 {
				continue
			}
			for k := col; k < n; k++ {
				m[r*n+k] -= f * m[col*n+k]
			}
			x[r] -= f * x[col]
		}
	}

	for r := n - 1; r >= 0; r-- {
		sum := x[r]
		for k := r + 1; k < n; k++ {
			sum -= m[r*n+k] * x[k]
		}
		x[r] = sum / m[r*n+r]
	}
	return x, nil
}
