// Package config loads run descriptions from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mbsym/internal/dynamo"
)

const (
	DefaultDt        = 0.001
	DefaultDuration  = 2.0
	DefaultTolerance = 1e-8
	DefaultKp        = 1.0
	DefaultKi        = 0.0
	DefaultKd        = 0.1
)

// Config describes one simulation run. Params overrides mechanism
// parameters by name, including the initial values q0 and qd0.
type Config struct {
	Mechanism        string             `yaml:"mechanism"`
	Integrator       string             `yaml:"integrator"`
	Controller       string             `yaml:"controller"`
	Dt               float64            `yaml:"dt"`
	Duration         float64            `yaml:"duration"`
	Adaptive         bool               `yaml:"adaptive"`
	Tolerance        float64            `yaml:"tolerance"`
	Parallel         bool               `yaml:"parallel"`
	Params           map[string]float64 `yaml:"params,omitempty"`
	ControllerParams ControllerConfig   `yaml:"controller_params"`
}

type ControllerConfig struct {
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
	Target float64 `yaml:"target"`
	Index  int     `yaml:"index"`
}

func DefaultConfig() *Config {
	return &Config{
		Mechanism:  "threebar_trans",
		Integrator: "rk4",
		Controller: "none",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Tolerance:  DefaultTolerance,
		ControllerParams: ControllerConfig{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Mechanism == "":
		return fmt.Errorf("%w: mechanism is required", dynamo.ErrInvalidConfig)
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidConfig, c.Dt)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrInvalidConfig, c.Duration)
	case c.Adaptive && c.Tolerance <= 0:
		return fmt.Errorf("%w: adaptive stepping needs a positive tolerance", dynamo.ErrInvalidConfig)
	}
	return nil
}

// Sim returns the integration settings.
func (c *Config) Sim() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = c.Dt
	cfg.Duration = c.Duration
	cfg.Adaptive = c.Adaptive
	if c.Tolerance > 0 {
		cfg.Tolerance = c.Tolerance
	}
	return cfg
}

func (c *Config) GetControllerParams() map[string]float64 {
	return map[string]float64{
		"kp":     c.ControllerParams.Kp,
		"ki":     c.ControllerParams.Ki,
		"kd":     c.ControllerParams.Kd,
		"target": c.ControllerParams.Target,
		"index":  float64(c.ControllerParams.Index),
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}
