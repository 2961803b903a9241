package dynamo

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
)

func TestStateArithmetic(t *testing.T) {
	g := NewWithT(t)

	a := State{1, 2, 3, 4}
	b := State{1, 1}
	g.Expect(a.Add(b)).To(Equal(State{2, 3, 3, 4}))
	g.Expect(a.Sub(b)).To(Equal(State{0, 1, 3, 4}))
	g.Expect(a.Scale(2)).To(Equal(State{2, 4, 6, 8}))
	g.Expect(State{3, 4}.Norm()).To(BeNumerically("~", 5, 1e-12))

	c := a.Clone()
	c[0] = 9
	g.Expect(a[0]).To(Equal(1.0))
}

func TestSplitAndJoin(t *testing.T) {
	g := NewWithT(t)

	x := Join([]float64{0.1, 0.2}, []float64{1, 2})
	u, ud := x.Split()
	g.Expect(u).To(Equal([]float64{0.1, 0.2}))
	g.Expect(ud).To(Equal([]float64{1, 2}))
}

func TestValidity(t *testing.T) {
	g := NewWithT(t)

	g.Expect(State{1, 2}.IsValid()).To(BeTrue())
	g.Expect(State{1, math.Inf(1)}.IsValid()).To(BeFalse())
	g.Expect(NaNState(3).IsValid()).To(BeFalse())
	g.Expect(NaNState(3)).To(HaveLen(3))
}

func TestSimulationErrorUnwraps(t *testing.T) {
	g := NewWithT(t)

	err := &SimulationError{Step: 3, Time: 0.3, Wrapped: ErrInvalidState}
	g.Expect(errors.Is(err, ErrInvalidState)).To(BeTrue())
	g.Expect(err.Error()).To(ContainSubstring("step 3"))
}
