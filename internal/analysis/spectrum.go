package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/mbsym/internal/dynamo"
)

var ErrTooShort = errors.New("analysis: series too short")

// PowerSpectrum returns |X_k| for k in [0, n/2) of the mean-removed
// series. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the largest non-DC
// bin, for samples spaced dt apart.
func DominantFrequency(data []float64, dt float64) (float64, error) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0, ErrTooShort
	}
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	return float64(best) / (float64(len(data)) * dt), nil
}

// Column extracts state column idx. Samples must be uniformly spaced for
// the spectrum to be meaningful; adaptive runs are not.
func Column(result *dynamo.Result, idx int) ([]float64, error) {
	if len(result.States) == 0 {
		return nil, ErrTooShort
	}
	if idx < 0 || idx >= len(result.States[0]) {
		return nil, dynamo.ErrDimensionMismatch
	}
	out := make([]float64, len(result.States))
	for i, s := range result.States {
		out[i] = s[idx]
	}
	return out, nil
}

// SampleInterval returns the mean spacing of result.Times.
func SampleInterval(result *dynamo.Result) float64 {
	n := len(result.Times)
	if n < 2 {
		return math.NaN()
	}
	return (result.Times[n-1] - result.Times[0]) / float64(n-1)
}
