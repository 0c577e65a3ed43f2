// Package hilbert computes analytic signals, their magnitudes and their
// unit phasors.
package hilbert

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// positiveGain doubles the strictly positive frequencies so the
// negative half can be dropped without losing energy.
const positiveGain = 2

// Analytic returns x + i*H{x}, where H is the Hilbert transform
// computed over the full period of x. DC and, for even lengths, the
// Nyquist bin are kept at unit gain.
func Analytic(x []float64) []complex128 {
	n := len(x)
	if n == 0 {
		return nil
	}

	half := fourier.NewFFT(n).Coefficients(nil, x)
	spectrum := make([]complex128, n)
	spectrum[0] = half[0]
	for k := 1; k < (n+1)/2; k++ {
		spectrum[k] = positiveGain * half[k]
	}
	if n%2 == 0 {
		spectrum[n/2] = half[n/2]
	}

	out := fourier.NewCmplxFFT(n).Sequence(nil, spectrum)
	scale := complex(1/float64(n), 0)
	for i := range out {
		out[i] *= scale
	}
	return out
}

// Magnitude returns |a| elementwise.
func Magnitude(a []complex128) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = cmplx.Abs(v)
	}
	return out
}

// UnitPhase returns a/|a| elementwise. Samples with zero magnitude have
// no defined phase; they are set to 1+0i and counted in zeros.
func UnitPhase(a []complex128) (phase []complex128, zeros int) {
	phase = make([]complex128, len(a))
	for i, v := range a {
		m := cmplx.Abs(v)
		if m == 0 {
			phase[i] = 1
			zeros++
			continue
		}
		phase[i] = v / complex(m, 0)
	}
	return phase, zeros
}

// Envelopes returns the analytic magnitude of every column of m.
func Envelopes(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	column := make([]float64, rows)
	for c := range cols {
		mat.Col(column, c, m)
		out.SetCol(c, Magnitude(Analytic(column)))
	}
	return out
}
