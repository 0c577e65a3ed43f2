package filterbank

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-sound-texture/internal/texerr"
)

// Modulation filterbank defaults.
const (
	DefaultModChannels = 10
	DefaultModLowHz    = 0.5
	DefaultModHighHz   = 200.0
	DefaultModQ        = 1.0

	// The energy normalization averages bins between the 4th-lowest and
	// 4th-highest center frequencies, so fewer channels leave no window.
	normLowIndex    = 3
	normHighOffset  = 4
	modWidthDivisor = 2.0
)

// MinModChannels is the smallest modulation bank with a non-empty
// normalization window.
const MinModChannels = normLowIndex + normHighOffset

// ModulationParams describes a constant-Q modulation filterbank. It is
// comparable and used as the memoization key in Cache.
type ModulationParams struct {
	// Length is the envelope length in samples.
	Length int

	// SampleRate is the envelope sample rate in Hz.
	SampleRate float64

	// NumChannels is the number of modulation channels.
	NumChannels int

	// LowHz and HighHz are the lowest and highest center frequencies.
	// HighHz above Nyquist is clamped.
	LowHz  float64
	HighHz float64

	// Q is the center-frequency to half-bandwidth ratio.
	Q float64
}

// DefaultModulationParams returns the standard 10-channel 0.5-200 Hz
// bank for an envelope of the given length and rate.
func DefaultModulationParams(length int, sampleRate float64) ModulationParams {
	return ModulationParams{
		Length:      length,
		SampleRate:  sampleRate,
		NumChannels: DefaultModChannels,
		LowHz:       DefaultModLowHz,
		HighHz:      DefaultModHighHz,
		Q:           DefaultModQ,
	}
}

// Validate checks the parameters.
func (p ModulationParams) Validate() error {
	if p.Length <= 0 {
		return fmt.Errorf("%w: filterbank length must be positive, got %d", texerr.ErrInvalidArgument, p.Length)
	}
	if !positiveFinite(p.SampleRate) {
		return fmt.Errorf("%w: sample rate must be positive, got %v", texerr.ErrInvalidArgument, p.SampleRate)
	}
	if p.NumChannels < MinModChannels {
		return fmt.Errorf("%w: need at least %d modulation channels, got %d",
			texerr.ErrInvalidArgument, MinModChannels, p.NumChannels)
	}
	if !positiveFinite(p.Q) {
		return fmt.Errorf("%w: Q must be positive, got %v", texerr.ErrInvalidArgument, p.Q)
	}
	if !positiveFinite(p.LowHz) || math.IsNaN(p.HighHz) {
		return fmt.Errorf("%w: frequency limits must be positive, got %v-%v Hz", texerr.ErrInvalidArgument, p.LowHz, p.HighHz)
	}
	if high := p.clampedHigh(); p.LowHz >= high {
		return fmt.Errorf("%w: low limit %v Hz must be below high limit %v Hz", texerr.ErrInvalidArgument, p.LowHz, high)
	}
	return nil
}

func (p ModulationParams) clampedHigh() float64 {
	return math.Min(p.HighHz, p.SampleRate/nyquistDivisor)
}

// Modulation is a bank of half-cosine filters with log-spaced centers on
// a linear frequency axis. It has no edge channels and does not preserve
// energy at the spectrum edges; it is meant for analysis only.
type Modulation struct {
	*Bank
	centers []float64
}

// Centers returns a copy of the channel center frequencies in Hz.
func (m *Modulation) Centers() []float64 {
	out := make([]float64, len(m.centers))
	copy(out, m.centers)
	return out
}

// NewModulation builds a modulation filterbank and scales it so that the
// aggregate energy in the well-covered middle of the spectrum is one.
func NewModulation(p ModulationParams) (*Modulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	freqs, err := Grid(p.Length, 1/p.SampleRate)
	if err != nil {
		return nil, err
	}

	centers := floats.LogSpan(make([]float64, p.NumChannels), p.LowHz, p.clampedHigh())
	resp := mat.NewDense(len(freqs), p.NumChannels, nil)
	for k, center := range centers {
		halfWidth := center / p.Q
		lo, hi := center-halfWidth, center+halfWidth
		span := modWidthDivisor * halfWidth
		for i, f := range freqs {
			if f <= lo || f >= hi {
				continue
			}
			resp.Set(i, k, math.Cos((f-center)/span*math.Pi))
		}
	}

	lower, upper := centers[normLowIndex], centers[p.NumChannels-normHighOffset]
	var energy float64
	var count int
	for i, f := range freqs {
		if f < lower || f > upper {
			continue
		}
		row := resp.RawRowView(i)
		energy += floats.Dot(row, row)
		count++
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: no frequency bins between %.3g and %.3g Hz for modulation normalization",
			texerr.ErrInvalidArgument, lower, upper)
	}
	mean := energy / float64(count)
	if mean <= 0 {
		return nil, fmt.Errorf("%w: modulation filterbank has no energy between %.3g and %.3g Hz",
			texerr.ErrInvalidArgument, lower, upper)
	}
	resp.Scale(1/math.Sqrt(mean), resp)

	return &Modulation{
		Bank:    newBank(p.Length, p.SampleRate, freqs, resp),
		centers: centers,
	}, nil
}
