package mechanisms_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/integrators"
	"github.com/san-kum/mbsym/internal/mechanisms"
	"github.com/san-kum/mbsym/internal/metrics"
	"github.com/san-kum/mbsym/internal/sim"
)

var _ = Describe("catalog", func() {
	It("lists every mechanism", func() {
		Expect(mechanisms.Names()).To(Equal([]string{"crank_slider", "driven_slider", "fourbar", "threebar_trans"}))
	})

	It("rejects unknown names and parameters", func() {
		_, err := mechanisms.Get("pantograph")
		Expect(err).To(MatchError(mechanisms.ErrUnknown))

		m, err := mechanisms.Get("fourbar")
		Expect(err).NotTo(HaveOccurred())
		_, err = m.Build(map[string]float64{"e": 1})
		Expect(err).To(MatchError(mechanisms.ErrUnknownParam))
	})

	It("applies overrides on top of the defaults", func() {
		m, _ := mechanisms.Get("crank_slider")
		p, err := m.Params(map[string]float64{"r": 0.05})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(HaveKeyWithValue("r", 0.05))
		Expect(p).To(HaveKeyWithValue("l", 0.35))
		Expect(m.ParamNames()).To(ContainElement("torque"))
	})
})

var _ = DescribeTable("every mechanism simulates without losing closure",
	func(name string, conservative bool) {
		r, sys := reduce(name, nil)
		Expect(r.DOF()).To(Equal(1))

		cfg := dynamo.DefaultConfig()
		cfg.Dt, cfg.Duration = 0.001, 0.5
		s := sim.New(sys, integrators.NewRK4(), nil)
		for _, m := range metrics.Defaults(sys) {
			s.AddMetric(m)
		}
		res, err := s.Run(context.Background(), r.InitialState(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Errors).To(BeEmpty())
		Expect(res.Final().IsValid()).To(BeTrue())
		Expect(res.Metrics["closure_residual"]).To(BeNumerically("<", 1e-10))
		if conservative {
			Expect(res.Metrics["energy_drift"]).To(BeNumerically("<", 1e-5))
		} else {
			Expect(res.Metrics).NotTo(HaveKey("energy_drift"))
			Expect(res.EnergyDrift).To(BeZero())
		}
	},
	Entry("three-bar", "threebar_trans", true),
	Entry("crank-slider", "crank_slider", true),
	Entry("four-bar", "fourbar", true),
	Entry("driven slider", "driven_slider", false),
)

var _ = Describe("crank-slider torque", func() {
	It("accelerates the crank when a torque is applied", func() {
		_, free := reduce("crank_slider", map[string]float64{"g": 0, "q0": 0.3})
		_, driven := reduce("crank_slider", map[string]float64{"g": 0, "q0": 0.3, "torque": 0.5})

		x := dynamo.State{0.3, 0}
		a0, err := free.Accelerations(x, nil, 0)
		Expect(err).NotTo(HaveOccurred())
		a1, err := driven.Accelerations(x, nil, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(a0[0]).To(BeNumerically("~", 0, 1e-12))
		Expect(a1[0]).To(BeNumerically(">", 0))
		Expect(math.IsInf(a1[0], 0)).To(BeFalse())
	})
})
