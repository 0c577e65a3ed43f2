package filterbank

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-sound-texture/internal/testutil"
	"github.com/tphakala/go-sound-texture/internal/texerr"
)

const (
	testBands       = 30
	testLowHz       = 20.0
	testHighHz      = 10000.0
	testRate20k     = 20000.0
	testLength20k   = 20000
	testEnvRate     = 400.0
	testEnvLength   = 400
	testModChannels = 10
)

func TestGrid(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		rate    float64
		wantLen int
		wantTop float64
	}{
		{"even_length", 8, 8000, 5, 4000},
		{"odd_length", 9, 9000, 5, 4000},
		{"single_sample", 1, 100, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			freqs, err := Grid(tt.n, 1/tt.rate)
			require.NoError(t, err)
			require.Len(t, freqs, tt.wantLen)
			assert.InDelta(t, 0.0, freqs[0], testutil.DefaultTolerance)
			assert.InDelta(t, tt.wantTop, freqs[len(freqs)-1], 1e-9)
			testutil.AssertMonotonic(t, freqs)
		})
	}
}

func TestGrid_InvalidArguments(t *testing.T) {
	for _, n := range []int{0, -4} {
		_, err := Grid(n, 1)
		assert.ErrorIs(t, err, texerr.ErrInvalidArgument, "n=%d", n)
	}
	_, err := Grid(16, 0)
	assert.ErrorIs(t, err, texerr.ErrInvalidArgument)
}

func TestERBScale_RoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 20, 228.8455, 1000, 10000} {
		assert.InDelta(t, hz, ERBToFreq(FreqToERB(hz)), 1e-9, "hz=%v", hz)
	}
	assert.InDelta(t, 9.265*0.6931471805599453, FreqToERB(erbWidth*erbScale), 1e-12)
}

// TestERB_PartitionOfUnity checks that squared channel responses sum to
// one at every bin, edges included.
func TestERB_PartitionOfUnity(t *testing.T) {
	tests := []struct {
		name   string
		params ERBParams
	}{
		{"default_20k", ERBParams{testLength20k, testRate20k, testBands, testLowHz, testHighHz}},
		{"odd_length_44k", ERBParams{44101, 44100, 40, 50, 16000}},
		{"single_band", ERBParams{4096, 16000, 1, 100, 4000}},
		{"clamped_high", ERBParams{8000, 16000, 12, 30, 12000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, err := NewERB(tt.params)
			require.NoError(t, err)
			require.Equal(t, tt.params.NumBands+2, fb.NumChannels())
			require.Equal(t, tt.params.Length/2+1, fb.NumBins())

			for bin := range fb.NumBins() {
				if !assert.InDelta(t, 1.0, fb.SquaredSum(bin), testutil.PartitionTolerance, "bin %d", bin) {
					return
				}
			}
			for ch := range fb.NumChannels() {
				testutil.AssertAllInRange(t, fb.Response(ch), 0, 1)
			}
		})
	}
}

func TestERB_ChannelsOrderedLowToHigh(t *testing.T) {
	fb, err := NewERB(ERBParams{testLength20k, testRate20k, testBands, testLowHz, testHighHz})
	require.NoError(t, err)

	cutoffs := fb.Cutoffs()
	require.Len(t, cutoffs, testBands+2)
	testutil.AssertMonotonic(t, cutoffs)
	assert.InDelta(t, testLowHz, cutoffs[0], 1e-9)
	assert.InDelta(t, testHighHz, cutoffs[len(cutoffs)-1], 1e-6)

	prevPeak := -1
	for ch := 1; ch <= fb.NumBands(); ch++ {
		peak := testutil.ArgMax(fb.Response(ch))
		assert.Greater(t, peak, prevPeak, "channel %d peak", ch)
		prevPeak = peak
	}
}

func TestERB_ClampsHighLimitToNyquist(t *testing.T) {
	fb, err := NewERB(ERBParams{1000, 8000, 8, 50, 20000})
	require.NoError(t, err)

	cutoffs := fb.Cutoffs()
	assert.InDelta(t, 4000.0, cutoffs[len(cutoffs)-1], 1e-6)
}

func TestERB_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params ERBParams
	}{
		{"zero_length", ERBParams{0, testRate20k, testBands, testLowHz, testHighHz}},
		{"zero_rate", ERBParams{100, 0, testBands, testLowHz, testHighHz}},
		{"no_bands", ERBParams{100, testRate20k, 0, testLowHz, testHighHz}},
		{"zero_low", ERBParams{100, testRate20k, testBands, 0, testHighHz}},
		{"low_above_high", ERBParams{100, testRate20k, testBands, 5000, 1000}},
		{"low_above_nyquist", ERBParams{100, 1000, testBands, 600, 900}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewERB(tt.params)
			assert.True(t, errors.Is(err, texerr.ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestModulation_Shape(t *testing.T) {
	fb, err := NewModulation(DefaultModulationParams(testEnvLength, testEnvRate))
	require.NoError(t, err)

	assert.Equal(t, testModChannels, fb.NumChannels())
	assert.Equal(t, testEnvLength/2+1, fb.NumBins())

	centers := fb.Centers()
	require.Len(t, centers, testModChannels)
	assert.InDelta(t, DefaultModLowHz, centers[0], 1e-12)
	assert.InDelta(t, DefaultModHighHz, centers[len(centers)-1], 1e-9)
	for i := 1; i < len(centers); i++ {
		assert.InDelta(t, centers[1]/centers[0], centers[i]/centers[i-1], 1e-9, "log spacing at %d", i)
	}
}

// TestModulation_MiddleEnergyNormalized checks the average aggregate
// energy over the normalization window is one after scaling.
func TestModulation_MiddleEnergyNormalized(t *testing.T) {
	fb, err := NewModulation(DefaultModulationParams(4000, testEnvRate))
	require.NoError(t, err)

	centers := fb.Centers()
	lower, upper := centers[normLowIndex], centers[testModChannels-normHighOffset]

	var sum float64
	var count int
	for bin, f := range fb.Freqs() {
		if f < lower || f > upper {
			continue
		}
		sum += fb.SquaredSum(bin)
		count++
	}
	require.Positive(t, count)
	assert.InDelta(t, 1.0, sum/float64(count), 1e-9)

	// No DC response: an envelope's mean carries no modulation energy.
	assert.InDelta(t, 0.0, fb.SquaredSum(0), testutil.DefaultTolerance)
}

func TestModulation_InvalidParams(t *testing.T) {
	base := DefaultModulationParams(testEnvLength, testEnvRate)

	tooFew := base
	tooFew.NumChannels = 6
	zeroQ := base
	zeroQ.Q = 0
	inverted := base
	inverted.LowHz, inverted.HighHz = 100, 10
	tiny := DefaultModulationParams(4, testEnvRate)

	for name, p := range map[string]ModulationParams{
		"too_few_channels": tooFew,
		"zero_q":           zeroQ,
		"inverted_limits":  inverted,
		"empty_window":     tiny,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewModulation(p)
			assert.ErrorIs(t, err, texerr.ErrInvalidArgument)
		})
	}
}

func TestCache_ReusesBanks(t *testing.T) {
	cache := NewCache()
	p := ERBParams{2000, 8000, 10, 50, 4000}

	a, err := cache.ERB(p)
	require.NoError(t, err)
	b, err := cache.ERB(p)
	require.NoError(t, err)
	assert.Same(t, a, b)

	p.NumBands = 11
	c, err := cache.ERB(p)
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	m1, err := cache.Modulation(DefaultModulationParams(testEnvLength, testEnvRate))
	require.NoError(t, err)
	m2, err := cache.Modulation(DefaultModulationParams(testEnvLength, testEnvRate))
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Equal(t, 3, cache.Len())
}

func TestCache_NilBuildsFresh(t *testing.T) {
	var cache *Cache
	p := ERBParams{2000, 8000, 10, 50, 4000}

	a, err := cache.ERB(p)
	require.NoError(t, err)
	b, err := cache.ERB(p)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Zero(t, cache.Len())
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	cache := NewCache()
	_, err := cache.ERB(ERBParams{})
	require.ErrorIs(t, err, texerr.ErrInvalidArgument)
	assert.Zero(t, cache.Len())
}

func TestBank_AccessorsReturnCopies(t *testing.T) {
	fb, err := NewERB(ERBParams{1000, 8000, 4, 100, 3000})
	require.NoError(t, err)

	resp := fb.Response(1)
	resp[10] = 42
	assert.NotEqual(t, 42.0, fb.At(10, 1))

	freqs := fb.Freqs()
	freqs[1] = -1
	assert.NotEqual(t, -1.0, fb.Freqs()[1])

	m := fb.Matrix()
	m.Set(0, 0, 42)
	assert.NotEqual(t, 42.0, fb.At(0, 0))
}
