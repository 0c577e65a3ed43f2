// Package synth turns a subband envelope trajectory back into a waveform
// by repeatedly imposing the target envelopes on the subbands of a noise
// signal while keeping the noise's instantaneous phase.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-sound-texture/internal/filterbank"
	"github.com/tphakala/go-sound-texture/internal/hilbert"
	"github.com/tphakala/go-sound-texture/internal/resample"
	"github.com/tphakala/go-sound-texture/internal/subband"
	"github.com/tphakala/go-sound-texture/internal/texerr"
)

// Default resynthesis parameters.
const (
	DefaultWorkingRate         = 20000.0
	DefaultIterations          = 3
	DefaultLowHz               = 20.0
	DefaultHighHz              = 10000.0
	DefaultCompressionExponent = 0.3
)

const (
	lengthMultiple = 100

	// edgeChannels are the low-pass and high-pass columns around the bands.
	edgeChannels = 2

	noiseStream = 0x7e47
)

// Config holds resynthesis parameters.
type Config struct {
	OutputRate   float64
	EnvelopeRate float64
	WorkingRate  float64
	Iterations   int
	LowHz        float64
	HighHz       float64

	// CompressionExponent must match the one the target was extracted with.
	CompressionExponent float64

	// Seed selects the initial noise.
	Seed uint64

	// StrictEnvelope fails instead of substituting a unit phase when a
	// subband's analytic magnitude is exactly zero.
	StrictEnvelope bool
}

// DefaultConfig returns the standard parameters for envelopes sampled at
// envelopeRate, rendered at outputRate.
func DefaultConfig(outputRate, envelopeRate float64) Config {
	return Config{
		OutputRate:          outputRate,
		EnvelopeRate:        envelopeRate,
		WorkingRate:         DefaultWorkingRate,
		Iterations:          DefaultIterations,
		LowHz:               DefaultLowHz,
		HighHz:              DefaultHighHz,
		CompressionExponent: DefaultCompressionExponent,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"output rate":   c.OutputRate,
		"envelope rate": c.EnvelopeRate,
		"working rate":  c.WorkingRate,
		"compression":   c.CompressionExponent,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", texerr.ErrInvalidArgument, name, v)
		}
	}
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be at least 1, got %d", texerr.ErrInvalidArgument, c.Iterations)
	}
	if !(c.LowHz > 0) || !(c.LowHz < c.HighHz) {
		return fmt.Errorf("%w: band limits %v-%v Hz", texerr.ErrInvalidArgument, c.LowHz, c.HighHz)
	}
	return nil
}

// Result is a synthesized waveform.
type Result struct {
	Samples    []float64
	SampleRate float64

	// ZeroEnvelopeSamples counts subband samples, over all iterations,
	// whose analytic magnitude was zero and got a unit phase.
	ZeroEnvelopeSamples int
}

// Invert synthesizes a waveform whose subband envelopes approximate
// target, a [time, channel] matrix laid out like the extractor's output
// (low-pass, bands, high-pass) and compressed with cfg.CompressionExponent.
func Invert(target mat.Matrix, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	frames, channels := target.Dims()
	if channels < edgeChannels+1 || frames < 1 {
		return nil, fmt.Errorf("%w: target envelopes must have at least %d channels, got %dx%d",
			texerr.ErrInvalidArgument, edgeChannels+1, frames, channels)
	}

	length := int(math.Ceil(float64(frames) * cfg.WorkingRate / cfg.EnvelopeRate))
	length -= length % lengthMultiple
	if length < 1 {
		return nil, fmt.Errorf("%w: %d envelope frames are shorter than %d working samples",
			texerr.ErrInvalidArgument, frames, lengthMultiple)
	}

	fb, err := filterbank.NewERB(filterbank.ERBParams{
		Length:     length,
		SampleRate: cfg.WorkingRate,
		NumBands:   channels - edgeChannels,
		LowHz:      cfg.LowHz,
		HighHz:     cfg.HighHz,
	})
	if err != nil {
		return nil, err
	}

	magnitudes, err := targetMagnitudes(target, length, cfg.CompressionExponent)
	if err != nil {
		return nil, err
	}

	sound := noise(length, cfg.Seed)
	column := make([]float64, length)
	zeros := 0
	for iter := range cfg.Iterations {
		subbands, err := subband.Forward(sound, fb)
		if err != nil {
			return nil, err
		}
		for c := range channels {
			mat.Col(column, c, subbands)
			phase, z := hilbert.UnitPhase(hilbert.Analytic(column))
			if z > 0 && cfg.StrictEnvelope {
				return nil, fmt.Errorf("%w: %d zero samples in channel %d, iteration %d",
					texerr.ErrDivisionByZeroEnvelope, z, c, iter)
			}
			zeros += z
			for i, p := range phase {
				column[i] = real(p) * magnitudes.At(i, c)
			}
			subbands.SetCol(c, column)
		}
		if sound, err = subband.Inverse(subbands, fb); err != nil {
			return nil, err
		}
	}

	out, err := resample.Rate(sound, cfg.WorkingRate, cfg.OutputRate, resample.WithClip())
	if err != nil {
		return nil, fmt.Errorf("resampling to output rate: %w", err)
	}
	return &Result{Samples: out, SampleRate: cfg.OutputRate, ZeroEnvelopeSamples: zeros}, nil
}

// targetMagnitudes clips the target to [0, 1], upsamples it to the
// working length and undoes the compression.
func targetMagnitudes(target mat.Matrix, length int, exp float64) (*mat.Dense, error) {
	clipped := mat.DenseCopyOf(target)
	clipped.Apply(func(_, _ int, v float64) float64 {
		return math.Max(0, math.Min(1, v))
	}, clipped)

	up, err := resample.Columns(clipped, length)
	if err != nil {
		return nil, fmt.Errorf("upsampling target envelopes: %w", err)
	}
	up.Apply(func(_, _ int, v float64) float64 {
		return math.Pow(math.Max(0, v), 1/exp)
	}, up)
	return up, nil
}

func noise(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, noiseStream))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}
