package control

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/mbsym/internal/dynamo"
)

func TestNone(t *testing.T) {
	g := NewWithT(t)

	u := NewNone(2).Compute(dynamo.State{1, 2, 3, 4}, 0)
	g.Expect(u).To(Equal(dynamo.Control{0, 0}))
}

func TestPIDDrivesTowardsTarget(t *testing.T) {
	g := NewWithT(t)

	p := NewPID(10, 1, 2, 0.5, 2, 1)
	u := p.Compute(dynamo.State{0, 0.2, 0, 0.1}, 0)
	g.Expect(u).To(HaveLen(2))
	g.Expect(u[0]).To(BeZero())
	g.Expect(u[1]).To(BeNumerically("~", 10*0.3-2*0.1, 1e-12))

	u = p.Compute(dynamo.State{0, 0.2, 0, 0}, 0.1)
	g.Expect(u[1]).To(BeNumerically("~", 3+0.03, 1e-12))

	p.Reset()
	u = p.Compute(dynamo.State{0, 0.2, 0, 0}, 5)
	g.Expect(u[1]).To(BeNumerically("~", 3, 1e-12))
}

func TestPIDParams(t *testing.T) {
	g := NewWithT(t)

	p := NewPID(1, 0, 0, 0, 1, 0)
	g.Expect(p.SetParam("target", 2)).To(Succeed())
	g.Expect(p.Params()).To(HaveKeyWithValue("target", 2.0))
	g.Expect(p.SetParam("gain", 1)).To(MatchError(ContainSubstring("unknown parameter")))
}

func TestRegistry(t *testing.T) {
	g := NewWithT(t)

	c, err := New("pid", 1, map[string]float64{"kp": 4})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.Compute(dynamo.State{-1, 0}, 0)).To(Equal(dynamo.Control{4}))

	c, err = New("", 3, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.Compute(dynamo.State{0, 0, 0, 0, 0, 0}, 0)).To(HaveLen(3))

	_, err = New("lqr", 1, nil)
	g.Expect(err).To(HaveOccurred())
}

func TestNames(t *testing.T) {
	NewWithT(t).Expect(Names()).To(Equal([]string{"none", "pid"}))
}
