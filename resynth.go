package texture

import (
	"fmt"

	"github.com/tphakala/go-sound-texture/internal/synth"
)

// ResynthConfig holds resynthesis parameters. The envelope rate and
// compression exponent come from the envelopes being inverted.
type ResynthConfig struct {
	OutputRate  float64
	WorkingRate float64
	Iterations  int
	LowHz       float64
	HighHz      float64

	// Seed selects the initial noise; equal seeds give equal output.
	Seed uint64

	// StrictEnvelope fails on zero analytic magnitudes instead of
	// substituting a unit phase.
	StrictEnvelope bool
}

// DefaultResynthConfig returns the standard parameters for rendering at
// outputRate.
func DefaultResynthConfig(outputRate float64) *ResynthConfig {
	return &ResynthConfig{
		OutputRate:  outputRate,
		WorkingRate: DefaultWorkingRate,
		Iterations:  DefaultIterations,
		LowHz:       DefaultLowHz,
		HighHz:      DefaultHighHz,
	}
}

// Validate checks the configuration.
func (c *ResynthConfig) Validate() error {
	return c.synthConfig(DefaultEnvelopeRate, DefaultCompressionExponent).Validate()
}

func (c *ResynthConfig) synthConfig(envelopeRate, exp float64) synth.Config {
	return synth.Config{
		OutputRate:          c.OutputRate,
		EnvelopeRate:        envelopeRate,
		WorkingRate:         c.WorkingRate,
		Iterations:          c.Iterations,
		LowHz:               c.LowHz,
		HighHz:              c.HighHz,
		CompressionExponent: exp,
		Seed:                c.Seed,
		StrictEnvelope:      c.StrictEnvelope,
	}
}

// Resynthesize renders a waveform whose subband envelopes approximate
// env. It also returns how many zero-magnitude subband samples were
// given a unit phase.
func Resynthesize(env *Envelopes, config *ResynthConfig) (*Signal, int, error) {
	if config == nil {
		return nil, 0, fmt.Errorf("%w: config is nil", ErrInvalidArgument)
	}
	if env == nil || env.Data == nil {
		return nil, 0, fmt.Errorf("%w: envelopes are nil", ErrInvalidArgument)
	}

	res, err := synth.Invert(env.Data, config.synthConfig(env.SampleRate, env.CompressionExponent))
	if err != nil {
		return nil, 0, err
	}
	return &Signal{Samples: res.Samples, SampleRate: res.SampleRate}, res.ZeroEnvelopeSamples, nil
}
