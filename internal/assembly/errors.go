package assembly

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateLoop indicates a second loop with an existing name.
	ErrDuplicateLoop = errors.New("assembly: duplicate loop name")

	// ErrCoupling indicates loops that share a dependent coordinate, or a
	// loop whose independent coordinate is dependent in another loop.
	ErrCoupling = errors.New("assembly: coupled loops")

	// ErrNoFreedom indicates a model whose every coordinate is dependent.
	ErrNoFreedom = errors.New("assembly: no independent coordinates")

	ErrNoSnapshot = errors.New("assembly: nil snapshot")
)

// AssemblyError records the reduction stage that failed.
type AssemblyError struct {
	Stage string
	Err   error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly: %s: %v", e.Stage, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }
