package metrics

import (
	"math"

	"github.com/san-kum/mbsym/internal/dynamo"
)

// ClosureResidual records the largest loop-closure error seen along the
// trajectory. The explicit closures satisfy the constraints by
// construction, so anything above rounding points at a wrong branch or an
// unassembled configuration. Evaluation failures count as +Inf.
type ClosureResidual struct {
	c   dynamo.Constrained
	max float64
}

func NewClosureResidual(dyn dynamo.System) *ClosureResidual {
	c, _ := dyn.(dynamo.Constrained)
	return &ClosureResidual{c: c}
}

func (r *ClosureResidual) Name() string { return "closure_residual" }

func (r *ClosureResidual) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if r.c == nil {
		return
	}
	res, err := r.c.Residual(x, t)
	if err != nil {
		r.max = math.Inf(1)
		return
	}
	for _, v := range res {
		r.max = math.Max(r.max, math.Abs(v))
	}
}

func (r *ClosureResidual) Value() float64 { return r.max }

func (r *ClosureResidual) Reset() { r.max = 0 }
