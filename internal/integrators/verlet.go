package integrators

import "github.com/san-kum/mbsym/internal/dynamo"

// Verlet is velocity Verlet over [u, ud]. Reduced linkages have velocity
// dependent accelerations, so the second evaluation uses the old rates and
// the method is only second order in the position update.
type Verlet struct {
	scratch dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}
	pos, vel := x.Split()
	_, acc := dyn.Derive(x, u, t).Split()

	result := make(dynamo.State, n)
	newPos, newVel := result.Split()
	for i := range pos {
		newPos[i] = pos[i] + vel[i]*dt + 0.5*acc[i]*dt*dt
	}

	sp, sv := v.scratch.Split()
	copy(sp, newPos)
	copy(sv, vel)
	_, accNew := dyn.Derive(v.scratch, u, t+dt).Split()

	for i := range vel {
		newVel[i] = vel[i] + 0.5*(acc[i]+accNew[i])*dt
	}
	return result
}

// Leapfrog is the kick-drift-kick scheme.
type Leapfrog struct {
	scratch dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	if len(l.scratch) != n {
		l.scratch = make(dynamo.State, n)
	}
	halfDt := 0.5 * dt
	pos, vel := x.Split()
	_, acc := dyn.Derive(x, u, t).Split()

	sp, sv := l.scratch.Split()
	for i := range vel {
		sv[i] = vel[i] + acc[i]*halfDt
		sp[i] = pos[i] + sv[i]*dt
	}
	_, accNew := dyn.Derive(l.scratch, u, t+dt).Split()

	result := make(dynamo.State, n)
	newPos, newVel := result.Split()
	copy(newPos, sp)
	for i := range sv {
		newVel[i] = sv[i] + accNew[i]*halfDt
	}
	return result
}
