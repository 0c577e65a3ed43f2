// Package filterbank builds cosine filterbanks sampled on the positive
// bins of a real FFT.
//
// Two families are provided: the cochlear bank on the ERB scale (with
// low-pass and high-pass edge channels, energy preserving) and the
// constant-Q modulation bank used to analyze subband envelopes. Both
// are immutable once built and can be shared between goroutines.
package filterbank

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Bank is a set of real magnitude responses indexed [bin, channel] on
// the frequency grid of a fixed signal length and sample rate.
type Bank struct {
	length     int
	sampleRate float64
	freqs      []float64
	resp       *mat.Dense

	// Complex copies of each channel, precomputed for spectral multiply.
	spectra [][]complex128
}

func newBank(length int, sampleRate float64, freqs []float64, resp *mat.Dense) *Bank {
	bins, channels := resp.Dims()
	spectra := make([][]complex128, channels)
	col := make([]float64, bins)
	for ch := range channels {
		mat.Col(col, ch, resp)
		spectrum := make([]complex128, bins)
		for i, v := range col {
			spectrum[i] = complex(v, 0)
		}
		spectra[ch] = spectrum
	}

	return &Bank{
		length:     length,
		sampleRate: sampleRate,
		freqs:      freqs,
		resp:       resp,
		spectra:    spectra,
	}
}

// Length returns the time-domain signal length the bank was built for.
func (b *Bank) Length() int { return b.length }

// SampleRate returns the sample rate the bank was built for.
func (b *Bank) SampleRate() float64 { return b.sampleRate }

// NumBins returns the number of frequency bins (Length/2 + 1).
func (b *Bank) NumBins() int { return len(b.freqs) }

// NumChannels returns the number of filters in the bank.
func (b *Bank) NumChannels() int { return len(b.spectra) }

// Freqs returns a copy of the bin frequencies in Hz.
func (b *Bank) Freqs() []float64 {
	out := make([]float64, len(b.freqs))
	copy(out, b.freqs)
	return out
}

// At returns the response of channel ch at bin.
func (b *Bank) At(bin, ch int) float64 {
	return b.resp.At(bin, ch)
}

// Response returns a copy of the magnitude response of channel ch.
func (b *Bank) Response(ch int) []float64 {
	return mat.Col(nil, ch, b.resp)
}

// Matrix returns a copy of the full [bin, channel] response matrix.
func (b *Bank) Matrix() *mat.Dense {
	return mat.DenseCopyOf(b.resp)
}

// ComplexResponse returns the response of channel ch as complex values.
// The slice is shared and must not be modified.
func (b *Bank) ComplexResponse(ch int) []complex128 {
	return b.spectra[ch]
}

// SquaredSum returns the sum of squared channel responses at bin.
func (b *Bank) SquaredSum(bin int) float64 {
	row := b.resp.RawRowView(bin)
	return floats.Dot(row, row)
}

// positiveFinite reports whether v is a usable rate, length scale or limit.
func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
