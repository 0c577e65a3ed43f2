// Package stats summarizes subband envelopes as texture statistics:
// per-band moments, correlations between nearby bands, and the power of
// each band's envelope in a bank of modulation filters.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/go-sound-texture/internal/filterbank"
	"github.com/tphakala/go-sound-texture/internal/subband"
	"github.com/tphakala/go-sound-texture/internal/texerr"
)

const (
	// eps is float32 machine epsilon. It keeps normalized moments finite
	// for silent bands.
	eps = 0x1p-23

	minFrames   = 2
	medianSplit = 2
)

// correlationLags are the band offsets whose envelopes are correlated.
var correlationLags = [...]int{1, 2, 3, 5}

// Config holds statistics parameters.
type Config struct {
	// NormalizeLoudness divides the envelopes by the median of their
	// per-frame L2 norms before anything else and reports that median.
	NormalizeLoudness bool

	ModChannels int
	ModLowHz    float64
	ModHighHz   float64
	ModQ        float64
}

// DefaultConfig returns the standard statistics parameters.
func DefaultConfig() Config {
	return Config{
		ModChannels: filterbank.DefaultModChannels,
		ModLowHz:    filterbank.DefaultModLowHz,
		ModHighHz:   filterbank.DefaultModHighHz,
		ModQ:        filterbank.DefaultModQ,
	}
}

// Validate checks the modulation bank parameters that do not depend on
// the envelope length.
func (c Config) Validate() error {
	if c.ModChannels < filterbank.MinModChannels || !(c.ModLowHz > 0) || !(c.ModLowHz < c.ModHighHz) || !(c.ModQ > 0) {
		return fmt.Errorf("%w: modulation bank %d channels %v-%v Hz Q=%v",
			texerr.ErrInvalidArgument, c.ModChannels, c.ModLowHz, c.ModHighHz, c.ModQ)
	}
	return nil
}

func (c Config) modulationParams(length int, sampleRate float64) filterbank.ModulationParams {
	return filterbank.ModulationParams{
		Length:      length,
		SampleRate:  sampleRate,
		NumChannels: c.ModChannels,
		LowHz:       c.ModLowHz,
		HighHz:      c.ModHighHz,
		Q:           c.ModQ,
	}
}

// Statistics is the texture summary of one envelope set. For C envelope
// channels and M modulation channels, Mean and StdDev have C entries,
// Correlations follows CorrelationPairs(C), and ModPower is C x M.
type Statistics struct {
	Mean         []float64
	StdDev       []float64
	Correlations []float64
	ModPower     *mat.Dense
	Loudness     float64
}

// Vector flattens the statistics: means, normalized deviations,
// correlations, modulation power row by row, then loudness.
func (s *Statistics) Vector() []float64 {
	bands, mods := s.ModPower.Dims()
	out := make([]float64, 0, VectorLen(bands, mods))
	out = append(out, s.Mean...)
	out = append(out, s.StdDev...)
	out = append(out, s.Correlations...)
	for b := range bands {
		out = append(out, s.ModPower.RawRowView(b)...)
	}
	return append(out, s.Loudness)
}

// VectorLen returns the flattened length for the given channel counts.
func VectorLen(channels, modChannels int) int {
	return 2*channels + len(CorrelationPairs(channels)) + channels*modChannels + 1
}

// Pair identifies two envelope channels whose correlation is reported.
type Pair struct {
	A, B int
}

// CorrelationPairs enumerates correlated channel pairs in output order:
// for each channel i ascending, each lag ascending, (i, i+lag) when it
// is in range.
func CorrelationPairs(channels int) []Pair {
	var pairs []Pair
	for i := range channels {
		for _, lag := range correlationLags {
			if i+lag < channels {
				pairs = append(pairs, Pair{A: i, B: i + lag})
			}
		}
	}
	return pairs
}

// Compute derives texture statistics from a [time, channel] envelope
// matrix sampled at sampleRate. env is not modified. Every returned value
// is finite; otherwise the error wraps texerr.ErrNumericalInstability.
func Compute(env mat.Matrix, sampleRate float64, cfg Config, cache *filterbank.Cache) (*Statistics, error) {
	frames, channels := env.Dims()
	if frames < minFrames || channels < 1 {
		return nil, fmt.Errorf("%w: need at least %d frames and one channel, got %dx%d",
			texerr.ErrInvalidArgument, minFrames, frames, channels)
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: envelope rate must be positive, got %v", texerr.ErrInvalidArgument, sampleRate)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	data := mat.DenseCopyOf(env)
	s := &Statistics{
		Mean:   make([]float64, channels),
		StdDev: make([]float64, channels),
	}

	if cfg.NormalizeLoudness {
		s.Loudness = medianFrameNorm(data)
		data.Scale(1/s.Loudness, data)
	}

	columns := make([][]float64, channels)
	variance := make([]float64, channels)
	for c := range channels {
		columns[c] = mat.Col(nil, c, data)
		mean, v := stat.PopMeanVariance(columns[c], nil)
		s.Mean[c] = mean
		variance[c] = v
		s.StdDev[c] = math.Sqrt(v / (eps + mean*mean))
	}

	pairs := CorrelationPairs(channels)
	s.Correlations = make([]float64, len(pairs))
	for i, p := range pairs {
		r := stat.Correlation(columns[p.A], columns[p.B], nil)
		if math.IsNaN(r) {
			// Zero-variance bands have no defined correlation.
			r = 0
		}
		s.Correlations[i] = r
	}

	modPower, err := modulationPower(columns, variance, sampleRate, cfg, cache)
	if err != nil {
		return nil, err
	}
	s.ModPower = modPower

	if err := s.checkFinite(); err != nil {
		return nil, err
	}
	return s, nil
}

func modulationPower(columns [][]float64, variance []float64, sampleRate float64,
	cfg Config, cache *filterbank.Cache) (*mat.Dense, error) {
	frames := len(columns[0])
	bank, err := cache.Modulation(cfg.modulationParams(frames, sampleRate))
	if err != nil {
		return nil, err
	}

	mods := bank.NumChannels()
	out := mat.NewDense(len(columns), mods, nil)
	channel := make([]float64, frames)
	for b, col := range columns {
		sub, err := subband.Forward(col, bank)
		if err != nil {
			return nil, err
		}
		for m := range mods {
			mat.Col(channel, m, sub)
			meanSquare := f64.DotProduct(channel, channel) / float64(frames)
			out.Set(b, m, math.Sqrt(meanSquare/(eps+variance[b])))
		}
	}
	return out, nil
}

// medianFrameNorm returns the median over frames of the L2 norm across
// channels, averaging the middle pair for an even frame count.
func medianFrameNorm(m *mat.Dense) float64 {
	frames, _ := m.Dims()
	norms := make([]float64, frames)
	for t := range frames {
		norms[t] = floats.Norm(m.RawRowView(t), 2)
	}
	sort.Float64s(norms)
	mid := frames / medianSplit
	if frames%medianSplit == 1 {
		return norms[mid]
	}
	return (norms[mid-1] + norms[mid]) / medianSplit
}

func (s *Statistics) checkFinite() error {
	sections := []struct {
		name   string
		values []float64
	}{
		{"mean", s.Mean},
		{"stddev", s.StdDev},
		{"correlation", s.Correlations},
		{"modulation power", s.ModPower.RawMatrix().Data},
		{"loudness", []float64{s.Loudness}},
	}
	for _, sec := range sections {
		for i, v := range sec.values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s[%d] = %v", texerr.ErrNumericalInstability, sec.name, i, v)
			}
		}
	}
	return nil
}
