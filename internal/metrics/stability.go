package metrics

import (
	"math"

	"github.com/san-kum/mbsym/internal/dynamo"
)

// Stability is the fraction of samples whose state is finite and whose
// independent rates stay below threshold.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	if !x.IsValid() {
		s.violations++
		return
	}
	_, ud := x.Split()
	for _, v := range ud {
		if math.Abs(v) > s.threshold {
			s.violations++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
