package loops

import (
	"errors"
	"fmt"
)

var (
	// ErrType indicates a constructor argument of the wrong kind.
	ErrType = errors.New("loops: invalid argument type")

	// ErrTopology indicates frames whose connecting joints do not form the
	// loop's pattern.
	ErrTopology = errors.New("loops: unsupported topology")

	// ErrDimension indicates a closure whose shapes disagree with the
	// loop's coordinates.
	ErrDimension = errors.New("loops: closure dimension mismatch")

	// ErrNoSnapshot indicates Calc without a kinematic snapshot.
	ErrNoSnapshot = errors.New("loops: nil snapshot")
)

// LoopError wraps an error with the loop and stage it came from.
type LoopError struct {
	Loop string
	Op   string
	Err  error
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("loops: %s %q: %v", e.Op, e.Loop, e.Err)
}

func (e *LoopError) Unwrap() error {
	return e.Err
}
