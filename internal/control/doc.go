// Package control provides feedback controllers that apply generalized
// forces to the independent coordinates of a reduced model.
//
//   - [PID]: drives one independent coordinate to a setpoint
//   - [None]: zero force
//
// Controllers are stateful; create one per simulation run.
package control
