// Package envelope extracts compressed subband envelopes from a mono
// signal: the signal is brought to a fixed working rate, split by an ERB
// filterbank, demodulated with the Hilbert transform, compressed, and
// decimated to the envelope rate.
package envelope

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-sound-texture/internal/audio"
	"github.com/tphakala/go-sound-texture/internal/filterbank"
	"github.com/tphakala/go-sound-texture/internal/hilbert"
	"github.com/tphakala/go-sound-texture/internal/resample"
	"github.com/tphakala/go-sound-texture/internal/subband"
	"github.com/tphakala/go-sound-texture/internal/texerr"
)

// Default extraction parameters.
const (
	DefaultNumBands            = 30
	DefaultDownsampleRate      = 20000.0
	DefaultEnvelopeRate        = 400.0
	DefaultLowHz               = 20.0
	DefaultHighHz              = 10000.0
	DefaultCompressionExponent = 0.3
)

// goodLengthMultiple is the granularity the input is cut to before
// resampling.
const goodLengthMultiple = 100

// Config holds envelope extraction parameters.
type Config struct {
	// NumBands is the number of ERB bands between LowHz and HighHz. The
	// output carries two more columns for the low and high edge channels.
	NumBands int

	// DownsampleRate is the working rate the filterbank runs at.
	DownsampleRate float64

	// EnvelopeRate is the rate of the returned envelopes.
	EnvelopeRate float64

	LowHz  float64
	HighHz float64

	// CompressionExponent is applied to the raw envelopes.
	CompressionExponent float64

	// DesiredRMS rescales the input to this RMS first. Zero disables it.
	DesiredRMS float64

	// ClipSamples clamps the resampled signal to [-1, 1].
	ClipSamples bool

	// KaiserBeta tapers the input spectrum with a Kaiser window while
	// resampling to the working rate. Zero disables the taper.
	KaiserBeta float64
}

// DefaultConfig returns the standard extraction parameters.
func DefaultConfig() Config {
	return Config{
		NumBands:            DefaultNumBands,
		DownsampleRate:      DefaultDownsampleRate,
		EnvelopeRate:        DefaultEnvelopeRate,
		LowHz:               DefaultLowHz,
		HighHz:              DefaultHighHz,
		CompressionExponent: DefaultCompressionExponent,
		ClipSamples:         true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.NumBands < 1 {
		return fmt.Errorf("%w: number of bands must be at least 1, got %d", texerr.ErrInvalidArgument, c.NumBands)
	}
	if !positiveFinite(c.DownsampleRate) || !positiveFinite(c.EnvelopeRate) {
		return fmt.Errorf("%w: downsample rate %v and envelope rate %v must be positive",
			texerr.ErrInvalidArgument, c.DownsampleRate, c.EnvelopeRate)
	}
	if c.EnvelopeRate > c.DownsampleRate {
		return fmt.Errorf("%w: envelope rate %v exceeds downsample rate %v",
			texerr.ErrInvalidArgument, c.EnvelopeRate, c.DownsampleRate)
	}
	if !(c.LowHz > 0) || !(c.LowHz < c.HighHz) {
		return fmt.Errorf("%w: band limits %v-%v Hz", texerr.ErrInvalidArgument, c.LowHz, c.HighHz)
	}
	if !positiveFinite(c.CompressionExponent) {
		return fmt.Errorf("%w: compression exponent must be positive, got %v",
			texerr.ErrInvalidArgument, c.CompressionExponent)
	}
	if c.DesiredRMS < 0 || math.IsNaN(c.DesiredRMS) || math.IsInf(c.DesiredRMS, 0) {
		return fmt.Errorf("%w: desired RMS must be non-negative, got %v", texerr.ErrInvalidArgument, c.DesiredRMS)
	}
	if c.KaiserBeta < 0 || math.IsNaN(c.KaiserBeta) || math.IsInf(c.KaiserBeta, 0) {
		return fmt.Errorf("%w: kaiser beta must be non-negative, got %v", texerr.ErrInvalidArgument, c.KaiserBeta)
	}
	return nil
}

// decimation is the number of working-rate samples per envelope sample.
func (c Config) decimation() float64 {
	return c.DownsampleRate / c.EnvelopeRate
}

// Envelopes is a [time, channel] matrix of compressed subband envelopes,
// the low-pass channel first and the high-pass channel last.
type Envelopes struct {
	Data                *mat.Dense
	SampleRate          float64
	Cutoffs             []float64
	CompressionExponent float64
}

// NumFrames returns the number of envelope samples.
func (e *Envelopes) NumFrames() int {
	r, _ := e.Data.Dims()
	return r
}

// NumChannels returns the number of envelope channels.
func (e *Envelopes) NumChannels() int {
	_, c := e.Data.Dims()
	return c
}

// Extractor computes envelopes with a fixed configuration. It is safe
// for concurrent use when its cache is.
type Extractor struct {
	cfg   Config
	cache *filterbank.Cache
}

// NewExtractor validates cfg and returns an extractor. A nil cache
// builds a fresh filterbank per call.
func NewExtractor(cfg Config, cache *filterbank.Cache) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{cfg: cfg, cache: cache}, nil
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract computes the compressed subband envelopes of samples recorded
// at sampleRate. The input is not modified.
func (e *Extractor) Extract(samples []float64, sampleRate float64) (*Envelopes, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty signal", texerr.ErrInvalidArgument)
	}
	if !positiveFinite(sampleRate) {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %v", texerr.ErrInvalidArgument, sampleRate)
	}
	cfg := e.cfg

	signal := append([]float64(nil), samples...)
	if cfg.DesiredRMS > 0 {
		audio.ScaleRMS(signal, cfg.DesiredRMS)
	}

	good := resample.GoodLength(len(signal), cfg.DownsampleRate, sampleRate, goodLengthMultiple)
	if good < 1 {
		return nil, fmt.Errorf("%w: %d samples at %v Hz is too short", texerr.ErrInvalidArgument, len(samples), sampleRate)
	}

	var opts []resample.Option
	if cfg.ClipSamples {
		opts = append(opts, resample.WithClip())
	}
	if cfg.KaiserBeta > 0 {
		opts = append(opts, resample.WithKaiser(cfg.KaiserBeta))
	}
	working, err := resample.Rate(signal[:good], sampleRate, cfg.DownsampleRate, opts...)
	if err != nil {
		return nil, fmt.Errorf("resampling to working rate: %w", err)
	}

	step := int(math.Floor(cfg.decimation()))
	length := len(working) / step * step
	frames := int(float64(length) / cfg.decimation())
	if length < 1 || frames < 1 {
		return nil, fmt.Errorf("%w: %d working samples give no envelope frames", texerr.ErrInvalidArgument, len(working))
	}
	working = working[:length]

	fb, err := e.cache.ERB(filterbank.ERBParams{
		Length:     length,
		SampleRate: cfg.DownsampleRate,
		NumBands:   cfg.NumBands,
		LowHz:      cfg.LowHz,
		HighHz:     cfg.HighHz,
	})
	if err != nil {
		return nil, err
	}

	subbands, err := subband.Forward(working, fb)
	if err != nil {
		return nil, err
	}
	raw := hilbert.Envelopes(subbands)
	Compress(raw, cfg.CompressionExponent)

	data, err := resample.Columns(raw, frames)
	if err != nil {
		return nil, fmt.Errorf("decimating envelopes: %w", err)
	}

	return &Envelopes{
		Data:                data,
		SampleRate:          cfg.EnvelopeRate,
		Cutoffs:             fb.Cutoffs(),
		CompressionExponent: cfg.CompressionExponent,
	}, nil
}

// Compress raises every element of env to exp in place.
func Compress(env *mat.Dense, exp float64) {
	env.Apply(func(_, _ int, v float64) float64 {
		return math.Pow(v, exp)
	}, env)
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
