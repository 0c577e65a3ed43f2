// Package resample provides bandlimited Fourier-domain resampling of
// finite signals.
//
// The whole signal is transformed at once, its spectrum truncated or
// zero-padded to the new length, and transformed back. This treats the
// input as periodic, which is what the envelope pipeline expects: the
// filterbanks downstream apply circular filtering over the same period.
package resample

import (
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-sound-texture/internal/texerr"
)

const (
	// nyquistBoost restores the energy of a folded Nyquist bin when the
	// output length is even and shorter than the input.
	nyquistBoost = 2.0

	// nyquistSplit halves an even-length input's Nyquist bin when it
	// becomes an interior bin of a longer output.
	nyquistSplit = 0.5

	clipLow  = -1.0
	clipHigh = 1.0
)

// Option configures a resampling call.
type Option func(*options)

type options struct {
	kaiser bool
	beta   float64
	clip   bool
}

// WithKaiser tapers the spectrum with a Kaiser window of shape beta
// before truncation. Larger beta trades bandwidth for less ringing.
func WithKaiser(beta float64) Option {
	return func(o *options) {
		o.kaiser = true
		o.beta = beta
	}
}

// WithClip clamps the output to [-1, 1].
func WithClip() Option {
	return func(o *options) { o.clip = true }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FFT resamples x to num samples covering the same duration.
func FFT(x []float64, num int, opts ...Option) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: empty input", texerr.ErrInvalidArgument)
	}
	if num < 1 {
		return nil, fmt.Errorf("%w: output length %d must be positive", texerr.ErrInvalidArgument, num)
	}
	o := buildOptions(opts)
	if o.kaiser && (o.beta < 0 || math.IsNaN(o.beta)) {
		return nil, fmt.Errorf("%w: kaiser beta %v must be non-negative", texerr.ErrInvalidArgument, o.beta)
	}

	out := fftResample(x, num, o)
	if o.clip {
		clip(out)
	}
	return out, nil
}

func fftResample(x []float64, num int, o options) []float64 {
	nx := len(x)
	if num == nx && !o.kaiser {
		return append([]float64(nil), x...)
	}

	spectrum := fourier.NewFFT(nx).Coefficients(nil, x)
	if o.kaiser {
		for k, w := range spectralKaiser(nx, o.beta) {
			spectrum[k] *= complex(w, 0)
		}
	}

	n := min(num, nx)
	resized := make([]complex128, num/2+1)
	copy(resized, spectrum[:n/2+1])
	if n%2 == 0 {
		switch {
		case num < nx:
			resized[n/2] *= nyquistBoost
		case num > nx:
			resized[n/2] *= nyquistSplit
		}
	}

	out := fourier.NewFFT(num).Sequence(nil, resized)
	// Sequence is unnormalized; irfft's 1/num and the num/nx gain combine.
	f64.Scale(out, out, 1.0/float64(nx))
	return out
}

func clip(x []float64) {
	for i, v := range x {
		x[i] = math.Max(clipLow, math.Min(clipHigh, v))
	}
}

// Rate resamples x from inRate to outRate. The output length is the
// input length scaled by outRate/inRate, rounded half to even.
func Rate(x []float64, inRate, outRate float64, opts ...Option) ([]float64, error) {
	num, err := RateLength(len(x), inRate, outRate)
	if err != nil {
		return nil, err
	}
	return FFT(x, num, opts...)
}

// RateLength returns the sample count Rate produces for n input samples.
func RateLength(n int, inRate, outRate float64) (int, error) {
	if !(inRate > 0) || !(outRate > 0) || math.IsInf(inRate, 0) || math.IsInf(outRate, 0) {
		return 0, fmt.Errorf("%w: sample rates %v -> %v must be positive",
			texerr.ErrInvalidArgument, inRate, outRate)
	}
	return int(math.RoundToEven(float64(n) * outRate / inRate)), nil
}

// Columns resamples every column of m to num rows.
func Columns(m mat.Matrix, num int, opts ...Option) (*mat.Dense, error) {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: empty %dx%d matrix", texerr.ErrInvalidArgument, rows, cols)
	}

	column := make([]float64, rows)
	var out *mat.Dense
	for c := range cols {
		mat.Col(column, c, m)
		resampled, err := FFT(column, num, opts...)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", c, err)
		}
		if out == nil {
			out = mat.NewDense(num, cols, nil)
		}
		out.SetCol(c, resampled)
	}
	return out, nil
}

// GoodLength returns the longest prefix length of an n-sample signal
// that divides evenly when rescaled by newRate/oldRate, further cut to a
// multiple of multiple. A multiple below one disables the second cut.
func GoodLength(n int, newRate, oldRate float64, multiple int) int {
	factor := newRate / oldRate
	length := int(math.Floor(float64(n)/factor) * factor)
	if multiple > 1 {
		length -= length % multiple
	}
	return max(length, 0)
}
