package dynamo

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

// Driven is implemented by systems with motion prescribed in time. Their
// mechanical energy is not conserved.
type Driven interface {
	Driven() bool
}

// Constrained is implemented by systems that track kinematic closures.
// Residual returns the stacked closure errors of all loops at x.
type Constrained interface {
	Residual(x State, t float64) ([]float64, error)
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, error)
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

// Validator is implemented by systems that can explain why Derive returned
// an invalid state.
type Validator interface {
	Validate(x State, t float64) error
}
