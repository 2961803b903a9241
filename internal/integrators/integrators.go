// Package integrators provides fixed and adaptive step solvers for reduced
// multibody systems. Every solver propagates a NaN state returned by the
// system unchanged, so callers detect a failed evaluation with
// dynamo.State.IsValid.
//
// Solvers keep scratch buffers between steps and are not safe for
// concurrent use; create one per simulation.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/mbsym/internal/dynamo"
)

var factories = map[string]func() dynamo.Integrator{
	"euler":    func() dynamo.Integrator { return NewEuler() },
	"rk4":      func() dynamo.Integrator { return NewRK4() },
	"rk45":     func() dynamo.Integrator { return NewRK45() },
	"verlet":   func() dynamo.Integrator { return NewVerlet() },
	"leapfrog": func() dynamo.Integrator { return NewLeapfrog() },
}

// New returns a fresh integrator by name.
func New(name string) (dynamo.Integrator, error) {
	fn, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

// Names returns the registered integrator names, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// axpy writes x + a·k into dst.
func axpy(dst, x dynamo.State, a float64, k dynamo.State) {
	for i := range dst {
		dst[i] = x[i] + a*k[i]
	}
}
