// Package loops implements kinematic loop closures.
//
// A loop ties dependent coordinates v to independent coordinates u through
// a constraint Phi(q) = 0, q = [u, v]. [Loop.Calc] returns the closure:
//
//   - v as explicit expressions of u,
//   - Bvu with vd = Bvu·ud,
//   - b' with vdd = Bvu·udd + b'.
//
// Differentiating Phi once gives Ju·ud + Jv·vd = 0, so Bvu = -Jv⁻¹·Ju.
// Differentiating again gives Ju·udd + Jv·vdd + J̇·qd = 0, so
// b' = -Jv⁻¹·J̇·qd. Bvu and b' are expressed in q and qd; evaluate them
// after v and vd have been obtained from u and ud.
//
// The loop variants form a closed set: [ExpJoint], [ThreeBarTrans],
// [CrankSlider] and [FourBar].
package loops
