// Package kinematics describes a tree of rigid bodies connected by
// single-degree-of-freedom joints and resolves the world position and
// orientation of every frame as symbolic expressions of the joint
// coordinates.
//
// A [Graph] is built incrementally ([Graph.AddBody], [Body.AddFrame],
// [Graph.AddJoint]) and then frozen into an immutable [Snapshot], which is
// what loop closures and the equations of motion read from.
//
// # Example
//
//	g := kinematics.NewGraph([3]float64{0, -9.81, 0})
//	bar, _ := g.AddBody("bar", mass, cg, inertia)
//	g.AddJoint("j", g.World().Origin(), bar.Origin(), kinematics.Rz, 0, 0)
//	snap, _ := g.Freeze()
//	tip := snap.Position(tipFrame)
//
// # Conventions
//
// Rotations are active: a frame's rotation maps its own coordinates into
// world coordinates. A joint rotates (or translates) its child frame
// relative to its parent frame about (along) the parent frame's axis.
package kinematics
