// Package symbolic provides the expression algebra used to derive closure
// relations and equations of motion.
//
// Expressions are immutable values. Every constructor ([Add], [Mul], [Pow],
// [Sin], ...) returns an already simplified node, so two expressions that are
// algebraically identical under the supported rewrite rules print the same
// way and compare equal with [Equal]:
//
//   - constants are folded and numeric coefficients collected,
//   - sums and products are flattened and canonically ordered,
//   - like terms and like bases are combined,
//   - a numeric coefficient is distributed over a sum,
//   - cos(atan2(y, x)) and sin(atan2(y, x)) are rewritten algebraically,
//   - atan2(0, x) is 0 when x is provably non-negative.
//
// Matrices ([Matrix]) carry a static [Shape]. Shape mismatches are
// programming errors and panic with [ErrShape]; a singular linear solve is
// reported through [ErrSingular].
//
// # Example
//
//	phi := symbolic.Sym("phi")
//	l := symbolic.Sym("l")
//	x := symbolic.Mul(l, symbolic.Cos(phi))
//	dx := symbolic.Diff(x, phi) // -(l*sin(phi))
//
// # Thread Safety
//
// Expressions hold no mutable state and may be shared freely between
// goroutines.
package symbolic
