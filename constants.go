package texture

import (
	"github.com/tphakala/go-sound-texture/internal/envelope"
	"github.com/tphakala/go-sound-texture/internal/filterbank"
	"github.com/tphakala/go-sound-texture/internal/synth"
)

// Common sample rates.
const (
	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateWideband is the wideband speech sample rate.
	RateWideband = 16000

	// RateFeature is the rate texture datasets are commonly stored at.
	RateFeature = 21000
)

// Analysis defaults.
const (
	DefaultNumBands            = envelope.DefaultNumBands
	DefaultDownsampleRate      = envelope.DefaultDownsampleRate
	DefaultEnvelopeRate        = envelope.DefaultEnvelopeRate
	DefaultLowHz               = envelope.DefaultLowHz
	DefaultHighHz              = envelope.DefaultHighHz
	DefaultCompressionExponent = envelope.DefaultCompressionExponent

	DefaultModChannels = filterbank.DefaultModChannels
	DefaultModLowHz    = filterbank.DefaultModLowHz
	DefaultModHighHz   = filterbank.DefaultModHighHz
	DefaultModQ        = filterbank.DefaultModQ
)

// Resynthesis defaults.
const (
	DefaultWorkingRate = synth.DefaultWorkingRate
	DefaultIterations  = synth.DefaultIterations
)

// EdgeChannels is the number of envelope channels beyond NumBands: one
// low-pass and one high-pass.
const EdgeChannels = 2
