package subband

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-sound-texture/internal/filterbank"
	"github.com/tphakala/go-sound-texture/internal/testutil"
	"github.com/tphakala/go-sound-texture/internal/texerr"
)

const (
	testRate   = 16000.0
	testBands  = 20
	testLowHz  = 50.0
	testHighHz = 8000.0
	testSeed   = 7
)

func newTestBank(t *testing.T, n int) *filterbank.ERB {
	t.Helper()
	fb, err := filterbank.NewERB(filterbank.ERBParams{
		Length: n, SampleRate: testRate, NumBands: testBands, LowHz: testLowHz, HighHz: testHighHz,
	})
	require.NoError(t, err)
	return fb
}

// TestRoundTrip verifies Inverse(Forward(x)) reconstructs x when both
// use the filterbank built for x's length.
func TestRoundTrip(t *testing.T) {
	for _, n := range []int{4000, 4001} {
		fb := newTestBank(t, n)
		signal := testutil.WhiteNoise(n, 0.3, testSeed)

		sub, err := Forward(signal, fb)
		require.NoError(t, err)
		rows, cols := sub.Dims()
		require.Equal(t, n, rows)
		require.Equal(t, testBands+2, cols)

		back, err := Inverse(sub, fb)
		require.NoError(t, err)
		testutil.AssertSlicesInDelta(t, signal, back, testutil.RoundTripTolerance)
	}
}

func TestForward_ToneLandsInCoveringChannels(t *testing.T) {
	const (
		n    = 16000
		tone = 1000.0
	)
	fb := newTestBank(t, n)
	sub, err := Forward(testutil.Sine(tone, testRate, n), fb)
	require.NoError(t, err)

	energy := make([]float64, fb.NumChannels())
	col := make([]float64, n)
	for ch := range energy {
		mat.Col(col, ch, sub)
		energy[ch] = floats.Dot(col, col)
	}

	best := testutil.ArgMax(energy)
	cutoffs := fb.Cutoffs()
	assert.Less(t, cutoffs[best-1], tone, "best channel %d lower edge", best)
	assert.Greater(t, cutoffs[best+1], tone, "best channel %d upper edge", best)

	// Channels whose support excludes the tone carry essentially nothing.
	for ch := 1; ch <= testBands; ch++ {
		if cutoffs[ch-1] < tone && tone < cutoffs[ch+1] {
			continue
		}
		assert.Less(t, energy[ch], 1e-9*energy[best], "channel %d", ch)
	}
}

func TestForward_Linearity(t *testing.T) {
	const n = 2048
	fb := newTestBank(t, n)
	a := testutil.WhiteNoise(n, 1, 1)
	b := testutil.WhiteNoise(n, 1, 2)
	sum := make([]float64, n)
	floats.AddTo(sum, a, b)

	subA, err := Forward(a, fb)
	require.NoError(t, err)
	subB, err := Forward(b, fb)
	require.NoError(t, err)
	subSum, err := Forward(sum, fb)
	require.NoError(t, err)

	var added mat.Dense
	added.Add(subA, subB)
	assert.True(t, mat.EqualApprox(&added, subSum, 1e-9))
}

func TestShapeMismatch(t *testing.T) {
	fb := newTestBank(t, 1000)

	_, err := Forward(make([]float64, 999), fb)
	assert.ErrorIs(t, err, texerr.ErrShapeMismatch)

	_, err = Inverse(mat.NewDense(999, testBands+2, nil), fb)
	assert.ErrorIs(t, err, texerr.ErrShapeMismatch)

	_, err = Inverse(mat.NewDense(1000, testBands, nil), fb)
	assert.ErrorIs(t, err, texerr.ErrShapeMismatch)
}
