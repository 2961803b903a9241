// Package mechanisms holds the built-in linkage models.
package mechanisms

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/mbsym/internal/assembly"
	"github.com/san-kum/mbsym/internal/dynamics"
	"github.com/san-kum/mbsym/internal/kinematics"
	"github.com/san-kum/mbsym/internal/loops"
)

var (
	ErrUnknown      = errors.New("mechanisms: unknown mechanism")
	ErrUnknownParam = errors.New("mechanisms: unknown parameter")
)

// Mechanism describes a built-in model. Defaults lists every parameter the
// builder reads; "g" is the magnitude of gravity along -y and "q0" the
// initial value of the independent coordinate.
type Mechanism struct {
	Name        string
	Description string
	Defaults    map[string]float64

	assemble func(b *builder, p map[string]float64) ([]loops.Loop, []dynamics.Load)
}

var catalog = map[string]Mechanism{
	"threebar_trans": {
		Name:        "threebar_trans",
		Description: "three-bar linkage with a sliding member (one DOF)",
		Defaults: map[string]float64{
			"g": 9.81, "q0": 0.01,
			"l1": 0.13, "m2": 0.6, "l2": 0.174,
			"m3a": 0.25, "l3a": 0.025, "m3b": 0.25, "l3b": 0.025,
		},
		assemble: threeBarTrans,
	},
	"crank_slider": {
		Name:        "crank_slider",
		Description: "slider-crank with a constant crank torque (one DOF)",
		Defaults: map[string]float64{
			"g": 9.81, "q0": 0.3, "qd0": 0,
			"r": 0.1, "l": 0.35, "m_crank": 0.3, "m_rod": 0.5, "m_slider": 1.0,
			"torque": 0,
		},
		assemble: crankSlider,
	},
	"fourbar": {
		Name:        "fourbar",
		Description: "crank-rocker four-bar linkage (one DOF)",
		Defaults: map[string]float64{
			"g": 9.81, "q0": 0.5, "qd0": 0,
			"a": 0.1, "b": 0.35, "c": 0.3, "d": 0.4,
			"m_a": 0.2, "m_b": 0.5, "m_c": 0.4,
		},
		assemble: fourBar,
	},
	"driven_slider": {
		Name:        "driven_slider",
		Description: "pendulum on a slider driven by s = A·sin(ω·t) (one DOF)",
		Defaults: map[string]float64{
			"g": 9.81, "q0": 0.2, "qd0": 0,
			"A": 0.05, "omega": 6, "L": 0.3, "m": 0.5, "m_slider": 1.0,
		},
		assemble: drivenSlider,
	},
}

// Names returns the built-in mechanism names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Get(name string) (Mechanism, error) {
	m, ok := catalog[name]
	if !ok {
		return Mechanism{}, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return m, nil
}

// Params merges overrides into the defaults.
func (m Mechanism) Params(overrides map[string]float64) (map[string]float64, error) {
	p := make(map[string]float64, len(m.Defaults))
	for k, v := range m.Defaults {
		p[k] = v
	}
	for k, v := range overrides {
		if _, ok := p[k]; !ok {
			return nil, fmt.Errorf("%w: %s has no parameter %q", ErrUnknownParam, m.Name, k)
		}
		p[k] = v
	}
	return p, nil
}

// ParamNames returns the parameter names, sorted.
func (m Mechanism) ParamNames() []string {
	names := make([]string, 0, len(m.Defaults))
	for k := range m.Defaults {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Build constructs the graph, freezes it and registers the loops.
func (m Mechanism) Build(overrides map[string]float64, opts ...assembly.Option) (*assembly.Model, error) {
	p, err := m.Params(overrides)
	if err != nil {
		return nil, err
	}
	b := &builder{g: kinematics.NewGraph([3]float64{0, -p["g"], 0})}
	ls, loads := m.assemble(b, p)
	if b.err != nil {
		return nil, fmt.Errorf("build %s: %w", m.Name, b.err)
	}
	snap, err := b.g.Freeze()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", m.Name, err)
	}
	model, err := assembly.NewModel(snap, append(opts, assembly.WithLoads(loads...))...)
	if err != nil {
		return nil, err
	}
	for _, l := range ls {
		if err := model.AddLoop(l); err != nil {
			return nil, fmt.Errorf("build %s: %w", m.Name, err)
		}
	}
	return model, nil
}
