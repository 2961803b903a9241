package kinematics

import "errors"

var (
	// ErrDuplicateName indicates a body, frame, joint or parameter name
	// that is already in use.
	ErrDuplicateName = errors.New("kinematics: duplicate name")

	// ErrNotConnected indicates a body with no joint path to the world.
	ErrNotConnected = errors.New("kinematics: body not connected to world")

	// ErrInvalidJoint indicates a joint that cannot be inserted into the tree.
	ErrInvalidJoint = errors.New("kinematics: invalid joint")

	// ErrFrozen indicates a modification after Freeze.
	ErrFrozen = errors.New("kinematics: graph is frozen")

	// ErrUnknown indicates a lookup of a name that does not exist.
	ErrUnknown = errors.New("kinematics: unknown element")
)
