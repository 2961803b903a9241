package mechanisms_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mbsym/internal/assembly"
	"github.com/san-kum/mbsym/internal/dynamo"
	"github.com/san-kum/mbsym/internal/integrators"
	"github.com/san-kum/mbsym/internal/mechanisms"
	"github.com/san-kum/mbsym/internal/metrics"
	"github.com/san-kum/mbsym/internal/sim"
	"github.com/san-kum/mbsym/internal/symbolic"
)

func reduce(name string, overrides map[string]float64) (*assembly.Reduced, *assembly.System) {
	GinkgoHelper()
	m, err := mechanisms.Get(name)
	Expect(err).NotTo(HaveOccurred())
	model, err := m.Build(overrides)
	Expect(err).NotTo(HaveOccurred())
	r, err := model.Reduce(context.Background())
	Expect(err).NotTo(HaveOccurred())
	sys, err := r.System()
	Expect(err).NotTo(HaveOccurred())
	return r, sys
}

var _ = Describe("three-bar linkage with a sliding member", func() {
	var (
		reduced *assembly.Reduced
		system  *assembly.System
	)

	BeforeEach(func() {
		reduced, system = reduce("threebar_trans", nil)
	})

	It("reduces the two closure constraints to one degree of freedom", func() {
		Expect(reduced.DOF()).To(Equal(1))
		Expect(reduced.U[0].Name).To(Equal("jA"))
		Expect(reduced.V).To(HaveLen(2))
		Expect(reduced.MStar.Shape()).To(Equal(symbolic.MatrixShape(1, 1)))

		c := reduced.Closures[0]
		Expect(c.V).To(HaveLen(2))
		Expect(c.Bvu.Shape()).To(Equal(symbolic.MatrixShape(2, 1)))
		Expect(c.BPrime.Shape()).To(Equal(symbolic.VectorShape(2)))
	})

	It("has a finite, positive reduced mass and finite acceleration away from the singular pose", func() {
		for _, qa := range []float64{-2.5, -1, 0.01, 0.8, 2} {
			for _, qda := range []float64{-3, 0, 3} {
				x := dynamo.State{qa, qda}
				udd, err := system.Accelerations(x, nil, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(math.IsNaN(udd[0]) || math.IsInf(udd[0], 0)).To(BeFalse())
			}
		}
	})

	It("keeps the loop closed and conserves energy along a simulated swing", func() {
		cfg := dynamo.DefaultConfig()
		cfg.Dt, cfg.Duration = 0.001, 1.0
		s := sim.New(system, integrators.NewRK4(), nil)
		for _, m := range metrics.Defaults(system) {
			s.AddMetric(m)
		}

		res, err := s.Run(context.Background(), reduced.InitialState(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Errors).To(BeEmpty())
		Expect(res.Metrics["closure_residual"]).To(BeNumerically("<", 1e-10))
		Expect(res.Metrics["energy_drift"]).To(BeNumerically("<", 1e-5))
		Expect(res.Metrics["stability"]).To(Equal(1.0))
	})

	Context("when the bars are equally long", func() {
		BeforeEach(func() {
			reduced, system = reduce("threebar_trans", map[string]float64{"l1": 0.174, "q0": 0})
		})

		It("reports the fully collapsed pose as singular", func() {
			_, err := system.Accelerations(reduced.InitialState(), nil, 0)
			Expect(err).To(MatchError(symbolic.ErrSingular))
		})

		It("stops a simulation that starts there with the cause attached", func() {
			cfg := dynamo.DefaultConfig()
			cfg.Dt, cfg.Duration = 0.001, 0.01
			res, err := sim.New(system, integrators.NewRK4(), nil).Run(context.Background(), reduced.InitialState(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Errors).To(HaveLen(1))
			Expect(res.Errors[0]).To(MatchError(symbolic.ErrSingular))
			Expect(res.StepsTaken).To(BeZero())
		})
	})
})
