package symbolic

import (
	"errors"
	"fmt"
)

var (
	// ErrShape indicates an operation on operands of incompatible shape.
	ErrShape = errors.New("symbolic: shape mismatch")

	// ErrSingular indicates a linear solve on a singular coefficient matrix.
	ErrSingular = errors.New("symbolic: singular matrix")

	// ErrUnbound indicates evaluation of a symbol without a value.
	ErrUnbound = errors.New("symbolic: unbound symbol")
)

// ShapeError describes the offending operation and operand shapes.
type ShapeError struct {
	Op    string
	Left  Shape
	Right Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("symbolic: %s: incompatible shapes %s and %s", e.Op, e.Left, e.Right)
}

func (e *ShapeError) Unwrap() error {
	return ErrShape
}

func shapePanic(op string, left, right Shape) {
	panic(&ShapeError{Op: op, Left: left, Right: right})
}
