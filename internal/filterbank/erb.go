package filterbank

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-sound-texture/internal/texerr"
)

// ERB scale constants (Glasberg & Moore).
const (
	erbScale = 9.265
	erbWidth = 24.7

	// erbEdgeChannels counts the low-pass and high-pass channels
	// added around the bandpass channels.
	erbEdgeChannels = 2

	nyquistDivisor = 2.0
	halfDivisor    = 2.0
)

// FreqToERB maps a frequency in Hz onto the ERB-number scale.
func FreqToERB(hz float64) float64 {
	return erbScale * math.Log1p(hz/(erbWidth*erbScale))
}

// ERBToFreq is the inverse of FreqToERB.
func ERBToFreq(erb float64) float64 {
	return erbWidth * erbScale * math.Expm1(erb/erbScale)
}

// ERBParams describes a cochlear filterbank. It is comparable and used
// as the memoization key in Cache.
type ERBParams struct {
	// Length is the time-domain signal length in samples.
	Length int

	// SampleRate in Hz.
	SampleRate float64

	// NumBands is the number of bandpass channels, excluding the two
	// edge channels.
	NumBands int

	// LowHz and HighHz bound the bandpass channels. HighHz above
	// Nyquist is clamped.
	LowHz  float64
	HighHz float64
}

// Validate checks the parameters.
func (p ERBParams) Validate() error {
	if p.Length <= 0 {
		return fmt.Errorf("%w: filterbank length must be positive, got %d", texerr.ErrInvalidArgument, p.Length)
	}
	if !positiveFinite(p.SampleRate) {
		return fmt.Errorf("%w: sample rate must be positive, got %v", texerr.ErrInvalidArgument, p.SampleRate)
	}
	if p.NumBands < 1 {
		return fmt.Errorf("%w: need at least one band, got %d", texerr.ErrInvalidArgument, p.NumBands)
	}
	if !positiveFinite(p.LowHz) || math.IsNaN(p.HighHz) {
		return fmt.Errorf("%w: frequency limits must be positive, got %v-%v Hz", texerr.ErrInvalidArgument, p.LowHz, p.HighHz)
	}
	if high := p.clampedHigh(); p.LowHz >= high {
		return fmt.Errorf("%w: low limit %v Hz must be below high limit %v Hz", texerr.ErrInvalidArgument, p.LowHz, high)
	}
	return nil
}

func (p ERBParams) clampedHigh() float64 {
	return math.Min(p.HighHz, p.SampleRate/nyquistDivisor)
}

// ERB is a cochlear filterbank: a low-pass channel, NumBands half-cosine
// channels uniformly spaced on the ERB scale with 50% overlap, and a
// high-pass channel. At every bin the squared responses sum to one.
type ERB struct {
	*Bank
	cutoffs []float64
}

// Cutoffs returns a copy of the NumBands+2 cutoff frequencies in Hz.
func (e *ERB) Cutoffs() []float64 {
	out := make([]float64, len(e.cutoffs))
	copy(out, e.cutoffs)
	return out
}

// NumBands returns the number of bandpass channels.
func (e *ERB) NumBands() int {
	return e.NumChannels() - erbEdgeChannels
}

// NewERB builds a cochlear filterbank. Channels are ordered low to high:
// index 0 is the low-pass, 1..NumBands the bandpass channels and
// NumBands+1 the high-pass.
func NewERB(p ERBParams) (*ERB, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	high := p.clampedHigh()

	freqs, err := Grid(p.Length, 1/p.SampleRate)
	if err != nil {
		return nil, err
	}
	erbs := make([]float64, len(freqs))
	for i, f := range freqs {
		erbs[i] = FreqToERB(f)
	}

	cutoffs := floats.Span(make([]float64, p.NumBands+erbEdgeChannels), FreqToERB(p.LowHz), FreqToERB(high))
	for i, e := range cutoffs {
		cutoffs[i] = ERBToFreq(e)
	}

	resp := mat.NewDense(len(freqs), p.NumBands+erbEdgeChannels, nil)
	for k := range p.NumBands {
		lo, hi := cutoffs[k], cutoffs[k+2]
		loERB, hiERB := FreqToERB(lo), FreqToERB(hi)
		mid := (loERB + hiERB) / halfDivisor
		span := hiERB - loERB
		for i, f := range freqs {
			if f <= lo || f >= hi {
				continue
			}
			resp.Set(i, k+1, math.Cos((erbs[i]-mid)/span*math.Pi))
		}
	}

	// Low-pass runs up to the peak of the first bandpass channel.
	for i, f := range freqs {
		if f >= cutoffs[1] {
			break
		}
		resp.Set(i, 0, complement(resp.At(i, 1)))
	}

	// High-pass starts at the peak of the last bandpass channel.
	last := p.NumBands + 1
	for i, f := range freqs {
		if f <= cutoffs[p.NumBands] {
			continue
		}
		resp.Set(i, last, complement(resp.At(i, p.NumBands)))
	}

	return &ERB{
		Bank:    newBank(p.Length, p.SampleRate, freqs, resp),
		cutoffs: cutoffs,
	}, nil
}

// complement returns the response that tops up a neighbour's energy to one.
func complement(neighbour float64) float64 {
	return math.Sqrt(math.Max(0, 1-neighbour*neighbour))
}
