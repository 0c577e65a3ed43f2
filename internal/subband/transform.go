// Package subband decomposes a signal into filterbank channels in the
// frequency domain and resynthesizes a signal from such channels.
//
// Forward and Inverse form an analysis/resynthesis pair only when both
// use the same filterbank: each channel is filtered once on the way in
// and once more on the way out, so an energy-preserving bank (squared
// responses summing to one) reconstructs the input.
package subband

import (
	"fmt"

	"github.com/tphakala/simd/c128"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-sound-texture/internal/texerr"
)

// rfftDivisor gives the unique bin count of a real FFT: n/2 + 1.
const rfftDivisor = 2

// Filterbank is the view of a filterbank the transform needs.
type Filterbank interface {
	// Length is the time-domain length the bank was sampled for.
	Length() int

	// NumChannels is the number of filters.
	NumChannels() int

	// ComplexResponse returns Length/2+1 response values for channel ch.
	ComplexResponse(ch int) []complex128
}

// Forward filters signal through every channel of fb and returns the
// subbands as a [time, channel] matrix.
func Forward(signal []float64, fb Filterbank) (*mat.Dense, error) {
	n := fb.Length()
	if len(signal) != n {
		return nil, fmt.Errorf("%w: signal has %d samples, filterbank expects %d",
			texerr.ErrShapeMismatch, len(signal), n)
	}
	channels := fb.NumChannels()

	fft := fourier.NewFFT(n)
	spectrum := fft.Coefficients(nil, signal)
	product := make([]complex128, len(spectrum))
	column := make([]float64, n)
	scale := 1.0 / float64(n)

	out := mat.NewDense(n, channels, nil)
	for ch := range channels {
		c128.Mul(product, spectrum, fb.ComplexResponse(ch))
		fft.Sequence(column, product)
		f64.Scale(column, column, scale)
		out.SetCol(ch, column)
	}
	return out, nil
}

// Inverse filters each subband column through its own channel of fb and
// sums the results into a single signal.
func Inverse(subbands mat.Matrix, fb Filterbank) ([]float64, error) {
	n := fb.Length()
	rows, cols := subbands.Dims()
	if rows != n {
		return nil, fmt.Errorf("%w: subbands have %d samples, filterbank expects %d",
			texerr.ErrShapeMismatch, rows, n)
	}
	if cols != fb.NumChannels() {
		return nil, fmt.Errorf("%w: %d subbands for a %d-channel filterbank",
			texerr.ErrShapeMismatch, cols, fb.NumChannels())
	}

	fft := fourier.NewFFT(n)
	spectrum := make([]complex128, n/rfftDivisor+1)
	product := make([]complex128, len(spectrum))
	column := make([]float64, n)

	out := make([]float64, n)
	for ch := range cols {
		mat.Col(column, ch, subbands)
		fft.Coefficients(spectrum, column)
		c128.Mul(product, spectrum, fb.ComplexResponse(ch))
		fft.Sequence(column, product)
		floats.Add(out, column)
	}
	f64.Scale(out, out, 1.0/float64(n))
	return out, nil
}
