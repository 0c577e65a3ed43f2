// Package audio loads sound files into floating-point signals and writes
// signals back out as WAV.
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-sound-texture/internal/texerr"
)

// minRMS floors RMS estimates so silence is left alone rather than
// amplified without bound.
const minRMS = 1e-5

// Signal is a mono waveform with nominal range [-1, 1].
type Signal struct {
	Samples    []float64
	SampleRate float64
}

// Validate checks the signal is non-empty with a positive rate.
func (s *Signal) Validate() error {
	if len(s.Samples) == 0 {
		return fmt.Errorf("%w: signal has no samples", texerr.ErrInvalidArgument)
	}
	if !(s.SampleRate > 0) || math.IsInf(s.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be positive, got %v", texerr.ErrInvalidArgument, s.SampleRate)
	}
	return nil
}

// Duration returns the signal length in time.
func (s *Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / s.SampleRate * float64(time.Second))
}

// Buffer is decoded multichannel audio, one slice per channel.
type Buffer struct {
	Channels   [][]float64
	SampleRate int
	BitDepth   int
}

// NumFrames returns the number of samples per channel.
func (b *Buffer) NumFrames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// ToMono averages all channels into a single signal.
func (b *Buffer) ToMono() *Signal {
	out := &Signal{Samples: make([]float64, b.NumFrames()), SampleRate: float64(b.SampleRate)}
	if len(b.Channels) == 0 {
		return out
	}
	for _, ch := range b.Channels {
		floats.Add(out.Samples, ch)
	}
	f64.Scale(out.Samples, out.Samples, 1/float64(len(b.Channels)))
	return out
}

// Normalize scales x in place so its peak magnitude is one. Silence is
// left unchanged.
func Normalize(x []float64) {
	if len(x) == 0 {
		return
	}
	peak := math.Max(floats.Max(x), -floats.Min(x))
	if peak == 0 {
		return
	}
	f64.Scale(x, x, 1/peak)
}

// ScaleRMS rescales x in place to the target RMS. The RMS estimate is
// floored at 1e-5.
func ScaleRMS(x []float64, target float64) {
	if len(x) == 0 {
		return
	}
	f64.Scale(x, x, target/RMS(x))
}

// RMS returns the root mean square of x, floored at 1e-5.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return minRMS
	}
	return math.Max(minRMS, math.Sqrt(f64.DotProduct(x, x)/float64(len(x))))
}
