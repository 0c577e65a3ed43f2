package texture

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-sound-texture/internal/audio"
	"github.com/tphakala/go-sound-texture/internal/envelope"
	"github.com/tphakala/go-sound-texture/internal/filterbank"
	"github.com/tphakala/go-sound-texture/internal/stats"
	"github.com/tphakala/go-sound-texture/internal/texerr"
)

// Signal is a mono waveform and its sample rate.
type Signal = audio.Signal

// Envelopes is a [time, channel] matrix of compressed subband envelopes.
type Envelopes = envelope.Envelopes

// Statistics is the texture summary of one signal.
type Statistics = stats.Statistics

// Errors returned by the package. Test with errors.Is.
var (
	// ErrInvalidArgument indicates invalid configuration or input.
	ErrInvalidArgument = texerr.ErrInvalidArgument

	// ErrShapeMismatch indicates a signal or subband set does not fit a
	// filterbank.
	ErrShapeMismatch = texerr.ErrShapeMismatch

	// ErrNumericalInstability indicates a statistic came out NaN or Inf.
	ErrNumericalInstability = texerr.ErrNumericalInstability

	// ErrDivisionByZeroEnvelope indicates strict resynthesis met a zero
	// analytic magnitude.
	ErrDivisionByZeroEnvelope = texerr.ErrDivisionByZeroEnvelope

	// ErrUnsupportedFormat indicates an audio file type with no decoder.
	ErrUnsupportedFormat = audio.ErrUnsupportedFormat
)

// Config holds analysis parameters.
type Config struct {
	// NumBands is the number of ERB bands. Envelopes carry NumBands+2
	// channels including the low-pass and high-pass edges.
	NumBands int

	// DownsampleRate is the rate the cochlear filterbank runs at.
	DownsampleRate float64

	// EnvelopeRate is the rate envelopes are decimated to.
	EnvelopeRate float64

	// LowHz and HighHz bound the ERB bands. HighHz above the downsample
	// Nyquist frequency is clamped.
	LowHz  float64
	HighHz float64

	// CompressionExponent is applied to raw envelopes.
	CompressionExponent float64

	// DesiredRMS rescales input to this RMS before analysis. Zero
	// disables it.
	DesiredRMS float64

	// ClipSamples clamps the resampled input to [-1, 1].
	ClipSamples bool

	// KaiserBeta tapers the input spectrum with a Kaiser window of this
	// shape when resampling to DownsampleRate. Zero disables it.
	KaiserBeta float64

	// NormalizeLoudness divides envelopes by their median frame norm
	// before computing statistics.
	NormalizeLoudness bool

	// Modulation filterbank parameters.
	ModChannels int
	ModLowHz    float64
	ModHighHz   float64
	ModQ        float64
}

// DefaultConfig returns the standard analysis parameters.
func DefaultConfig() *Config {
	return &Config{
		NumBands:            DefaultNumBands,
		DownsampleRate:      DefaultDownsampleRate,
		EnvelopeRate:        DefaultEnvelopeRate,
		LowHz:               DefaultLowHz,
		HighHz:              DefaultHighHz,
		CompressionExponent: DefaultCompressionExponent,
		ClipSamples:         true,
		ModChannels:         DefaultModChannels,
		ModLowHz:            DefaultModLowHz,
		ModHighHz:           DefaultModHighHz,
		ModQ:                DefaultModQ,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.envelopeConfig().Validate(); err != nil {
		return err
	}
	return c.statsConfig().Validate()
}

func (c *Config) envelopeConfig() envelope.Config {
	return envelope.Config{
		NumBands:            c.NumBands,
		DownsampleRate:      c.DownsampleRate,
		EnvelopeRate:        c.EnvelopeRate,
		LowHz:               c.LowHz,
		HighHz:              c.HighHz,
		CompressionExponent: c.CompressionExponent,
		DesiredRMS:          c.DesiredRMS,
		ClipSamples:         c.ClipSamples,
		KaiserBeta:          c.KaiserBeta,
	}
}

func (c *Config) statsConfig() stats.Config {
	return stats.Config{
		NormalizeLoudness: c.NormalizeLoudness,
		ModChannels:       c.ModChannels,
		ModLowHz:          c.ModLowHz,
		ModHighHz:         c.ModHighHz,
		ModQ:              c.ModQ,
	}
}

// Analyzer computes envelopes and statistics with a fixed
// configuration, reusing filterbanks across calls.
type Analyzer struct {
	config    Config
	cache     *filterbank.Cache
	extractor *envelope.Extractor
}

// NewAnalyzer creates an analyzer. The config is copied.
func NewAnalyzer(config *Config) (*Analyzer, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidArgument)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cache := filterbank.NewCache()
	extractor, err := envelope.NewExtractor(config.envelopeConfig(), cache)
	if err != nil {
		return nil, err
	}
	return &Analyzer{config: *config, cache: cache, extractor: extractor}, nil
}

// Config returns a copy of the analyzer's configuration.
func (a *Analyzer) Config() Config {
	return a.config
}

// VectorLen returns the length of the vectors AnalyzeVector produces.
func (a *Analyzer) VectorLen() int {
	return stats.VectorLen(a.config.NumBands+EdgeChannels, a.config.ModChannels)
}

// Envelopes extracts the compressed subband envelopes of sig.
func (a *Analyzer) Envelopes(sig *Signal) (*Envelopes, error) {
	if sig == nil {
		return nil, fmt.Errorf("%w: signal is nil", ErrInvalidArgument)
	}
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	return a.extractor.Extract(sig.Samples, sig.SampleRate)
}

// Statistics computes texture statistics of previously extracted
// envelopes.
func (a *Analyzer) Statistics(env *Envelopes) (*Statistics, error) {
	if env == nil || env.Data == nil {
		return nil, fmt.Errorf("%w: envelopes are nil", ErrInvalidArgument)
	}
	return stats.Compute(env.Data, env.SampleRate, a.config.statsConfig(), a.cache)
}

// Analyze extracts envelopes from sig and summarizes them.
func (a *Analyzer) Analyze(sig *Signal) (*Statistics, error) {
	env, err := a.Envelopes(sig)
	if err != nil {
		return nil, err
	}
	return a.Statistics(env)
}

// AnalyzeVector returns the flattened statistic vector of sig.
func (a *Analyzer) AnalyzeVector(sig *Signal) ([]float64, error) {
	s, err := a.Analyze(sig)
	if err != nil {
		return nil, err
	}
	return s.Vector(), nil
}

// Analyze is a one-shot convenience returning the statistic vector of
// samples. A nil config uses DefaultConfig.
func Analyze(samples []float64, sampleRate float64, config *Config) ([]float64, error) {
	if config == nil {
		config = DefaultConfig()
	}
	a, err := NewAnalyzer(config)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeVector(&Signal{Samples: samples, SampleRate: sampleRate})
}

// IsNumericalInstability reports whether err came from a non-finite
// statistic, the case callers typically log and skip.
func IsNumericalInstability(err error) bool {
	return errors.Is(err, ErrNumericalInstability)
}
