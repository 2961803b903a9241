package dynamo

import "math"

// State is [u, ud] for a reduced model with len(State)/2 independent
// coordinates.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Add returns s + other; missing entries of other count as zero.
func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i]
		if i < len(other) {
			result[i] += other[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// Sub returns s - other; missing entries of other count as zero.
func (s State) Sub(other State) State {
	return s.Add(other.Scale(-1))
}

// Split returns the position and rate halves of a [u, ud] state.
// The halves alias s.
func (s State) Split() (u, ud []float64) {
	n := len(s) / 2
	return s[:n], s[n:]
}

// Join builds a [u, ud] state.
func Join(u, ud []float64) State {
	x := make(State, 0, len(u)+len(ud))
	x = append(x, u...)
	return append(x, ud...)
}

// NaNState returns a state of length n filled with NaN. Systems return it
// from Derive when the configuration cannot be evaluated.
func NaNState(n int) State {
	x := make(State, n)
	for i := range x {
		x[i] = math.NaN()
	}
	return x
}

// Control holds generalized forces applied to the independent coordinates.
type Control []float64
