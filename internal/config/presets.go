package config

import "sort"

var Presets = map[string]map[string]*Config{
	"threebar_trans": {
		"release": {
			Mechanism: "threebar_trans", Integrator: "rk4", Dt: 0.001, Duration: 2.0,
			Params: map[string]float64{"q0": 0.01},
		},
		"hanging": {
			Mechanism: "threebar_trans", Integrator: "rk4", Dt: 0.001, Duration: 3.0,
			Params: map[string]float64{"q0": -1.2},
		},
		"adaptive": {
			Mechanism: "threebar_trans", Integrator: "rk45", Adaptive: true, Tolerance: 1e-9,
			Dt: 0.001, Duration: 2.0,
		},
	},
	"crank_slider": {
		"drop": {
			Mechanism: "crank_slider", Integrator: "rk4", Dt: 0.001, Duration: 2.0,
			Params: map[string]float64{"q0": 1.2},
		},
		"motor": {
			Mechanism: "crank_slider", Integrator: "rk4", Dt: 0.0005, Duration: 3.0,
			Params: map[string]float64{"q0": 0, "g": 0, "torque": 0.05},
		},
	},
	"fourbar": {
		"swing": {
			Mechanism: "fourbar", Integrator: "rk4", Dt: 0.001, Duration: 3.0,
			Params: map[string]float64{"q0": 0.5},
		},
		"hold": {
			Mechanism: "fourbar", Integrator: "rk4", Controller: "pid", Dt: 0.001, Duration: 3.0,
			Params:           map[string]float64{"q0": 0.5},
			ControllerParams: ControllerConfig{Kp: 2, Ki: 0.5, Kd: 0.2, Target: 1.0},
		},
	},
	"driven_slider": {
		"resonant": {
			Mechanism: "driven_slider", Integrator: "rk4", Dt: 0.001, Duration: 10.0,
			Params: map[string]float64{"omega": 5.72, "A": 0.02},
		},
		"fast": {
			Mechanism: "driven_slider", Integrator: "rk45", Adaptive: true, Tolerance: 1e-9,
			Dt: 0.001, Duration: 5.0,
			Params: map[string]float64{"omega": 20},
		},
	},
}

// GetPreset returns a copy of the preset, or nil.
func GetPreset(mechanism, preset string) *Config {
	presets, ok := Presets[mechanism]
	if !ok {
		return nil
	}
	cfg, ok := presets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names of mechanism, sorted.
func ListPresets(mechanism string) []string {
	presets, ok := Presets[mechanism]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
