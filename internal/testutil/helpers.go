// Package testutil provides reusable signal fixtures and assertions for
// the texture pipeline tests.
package testutil

import (
	"math"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance   = 1e-10
	PartitionTolerance = 1e-6
	RoundTripTolerance = 1e-6
)

const (
	pcm16Max     = 32767.0
	pcm16Bits    = 16
	wavPCMFormat = 1
	seedStream   = 0x5eed
)

// Sine returns n samples of a unit-amplitude sine at freq Hz.
func Sine(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

// WhiteNoise returns n samples of seeded Gaussian noise scaled by gain.
func WhiteNoise(n int, gain float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seedStream))
	out := make([]float64, n)
	for i := range out {
		out[i] = gain * rng.NormFloat64()
	}
	return out
}

// AMNoise returns Gaussian noise whose amplitude follows a raised sine at
// modHz, swinging between floor and 1, scaled by gain.
func AMNoise(n int, sampleRate, modHz, floor, gain float64, seed uint64) []float64 {
	out := WhiteNoise(n, gain, seed)
	applyAM(out, sampleRate, modHz, floor)
	return out
}

func applyAM(x []float64, sampleRate, modHz, floor float64) {
	half := (1 - floor) / 2
	for i := range x {
		x[i] *= floor + half*(1+math.Sin(2*math.Pi*modHz*float64(i)/sampleRate))
	}
}

// BandNoise returns Gaussian noise with every frequency outside
// [lowHz, highHz] removed, scaled to an RMS of gain.
func BandNoise(n int, sampleRate, lowHz, highHz, gain float64, seed uint64) []float64 {
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, WhiteNoise(n, 1, seed))
	for k := range coeffs {
		if f := fft.Freq(k) * sampleRate; f < lowHz || f > highHz {
			coeffs[k] = 0
		}
	}
	out := fft.Sequence(nil, coeffs)
	if rms := floats.Norm(out, 2) / math.Sqrt(float64(n)); rms > 0 {
		floats.Scale(gain/rms, out)
	}
	return out
}

// BandAMNoise is BandNoise with the raised-sine amplitude of AMNoise.
func BandAMNoise(n int, sampleRate, lowHz, highHz, modHz, floor, gain float64, seed uint64) []float64 {
	out := BandNoise(n, sampleRate, lowHz, highHz, gain, seed)
	applyAM(out, sampleRate, modHz, floor)
	return out
}

// Pearson returns the correlation coefficient of a and b.
func Pearson(a, b []float64) float64 {
	return stat.Correlation(a, b, nil)
}

// ColumnCorrelations returns the Pearson correlation of each column of
// want with the same column of got.
func ColumnCorrelations(want, got mat.Matrix) []float64 {
	_, cols := want.Dims()
	corr := make([]float64, cols)
	for c := range corr {
		corr[c] = Pearson(mat.Col(nil, c, want), mat.Col(nil, c, got))
	}
	return corr
}

// ArgMax returns the index of the largest element.
func ArgMax(s []float64) int {
	best := 0
	for i, v := range s {
		if v > s[best] {
			best = i
		}
	}
	return best
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", append([]any{"s[%d] is NaN", i}, msgAndArgs...)...)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", append([]any{"s[%d] is Inf", i}, msgAndArgs...)...)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertMonotonic verifies that a slice is monotonically increasing.
func AssertMonotonic(t *testing.T, s []float64) bool {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return assert.Fail(t, "not monotonic",
				"s[%d]=%f < s[%d]=%f", i, s[i], i-1, s[i-1])
		}
	}
	return true
}

// AssertSlicesInDelta verifies element-wise closeness of two slices.
func AssertSlicesInDelta(t *testing.T, want, got []float64, delta float64) bool {
	t.Helper()
	if !assert.Len(t, got, len(want)) {
		return false
	}
	for i := range want {
		if !assert.InDelta(t, want[i], got[i], delta, "index %d", i) {
			return false
		}
	}
	return true
}

// WriteWAV writes mono samples in [-1, 1] as a 16-bit PCM WAV file.
func WriteWAV(t *testing.T, path string, samples []float64, sampleRate int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Max(-1, math.Min(1, s)) * pcm16Max)
	}

	enc := wav.NewEncoder(f, sampleRate, pcm16Bits, 1, wavPCMFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: pcm16Bits,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}
