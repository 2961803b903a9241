package metrics

import (
	"math"

	"github.com/san-kum/mbsym/internal/dynamo"
)

// TrackingError is the RMS distance of independent coordinate index from
// target. Non-finite samples are skipped.
type TrackingError struct {
	index   int
	target  float64
	sumSq   float64
	samples int
}

func NewTrackingError(index int, target float64) *TrackingError {
	return &TrackingError{index: index, target: target}
}

func (e *TrackingError) Name() string { return "tracking_error" }

func (e *TrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	q, _ := x.Split()
	if e.index < 0 || e.index >= len(q) || math.IsNaN(q[e.index]) {
		return
	}
	d := q[e.index] - e.target
	e.sumSq += d * d
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}
