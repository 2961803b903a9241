package control

import (
	"fmt"

	"github.com/san-kum/mbsym/internal/dynamo"
)

// PID applies u = Kp·e + Ki·∫e dt - Kd·ud to one independent coordinate,
// with e = Target - u. The derivative term uses the measured rate rather
// than differencing the error, so a setpoint change causes no kick.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64

	dim, index int
	integral   float64
	prevT      float64
	first      bool
}

// NewPID returns a controller for a system with dim independent
// coordinates acting on coordinate index.
func NewPID(kp, ki, kd, target float64, dim, index int) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		dim:    dim,
		index:  index,
		first:  true,
	}
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	out := make(dynamo.Control, p.dim)
	u, ud := x.Split()
	if p.index >= len(u) {
		return out
	}
	err := p.Target - u[p.index]

	if p.first {
		p.prevT = t
		p.first = false
	} else if dt := t - p.prevT; dt > 0 {
		p.integral += err * dt
		p.prevT = t
	}
	out[p.index] = p.Kp*err + p.Ki*p.integral - p.Kd*ud[p.index]
	return out
}

// Reset clears the integral state.
func (p *PID) Reset() {
	p.integral = 0
	p.first = true
}

func (p *PID) Params() map[string]float64 {
	return map[string]float64{
		"kp":     p.Kp,
		"ki":     p.Ki,
		"kd":     p.Kd,
		"target": p.Target,
	}
}

func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "target":
		p.Target = value
	default:
		return fmt.Errorf("pid: unknown parameter %q", name)
	}
	return nil
}
