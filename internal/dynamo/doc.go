// Package dynamo defines the numeric contracts shared by the simulation
// stack: state vectors, ODE systems, integrators, controllers and metrics.
//
// A reduced multibody model exposes itself as a [System] whose state is
// laid out as [u, ud], the independent coordinates followed by their rates.
// Models that can also report the kinematic closure error at a state
// implement [Constrained]; models with a total mechanical energy implement
// [Hamiltonian].
//
//   - [State]: flat state vector
//   - [System]: dx/dt = f(x, tau, t)
//   - [Integrator]: fixed-step solver
//   - [Controller]: generalized-force feedback on the independent coordinates
//   - [Metric]: scalar observed along a trajectory
package dynamo
