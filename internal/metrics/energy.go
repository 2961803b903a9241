package metrics

import (
	"math"

	"github.com/san-kum/mbsym/internal/dynamo"
)

// EnergyDrift tracks the largest relative change of the total mechanical
// energy from its first observed value. Systems without an energy report
// zero. Driven and controlled models are not conservative, so the value
// is only meaningful for free motion.
type EnergyDrift struct {
	initial  float64
	maxDrift float64
	samples  int
	h        dynamo.Hamiltonian
}

func NewEnergyDrift(dyn dynamo.System) *EnergyDrift {
	h, _ := dyn.(dynamo.Hamiltonian)
	return &EnergyDrift{h: h}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if e.h == nil {
		return
	}
	energy := e.h.Energy(x)
	if math.IsNaN(energy) {
		return
	}
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	// Energies near zero make the relative drift meaningless.
	den := math.Max(math.Abs(e.initial), 1e-9)
	e.maxDrift = math.Max(e.maxDrift, math.Abs(energy-e.initial)/den)
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
