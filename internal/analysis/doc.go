// Package analysis post-processes simulated trajectories.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of one
//     state column, via go-dsp's FFT
//   - [NewPhasePortrait]: a coordinate against its rate
//   - [NewPoincareSection]: states recorded where a column crosses a level
//
// Everything here works on a finished [dynamo.Result]; nothing integrates.
package analysis
