package hilbert

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-sound-texture/internal/testutil"
)

const (
	testRate   = 1000.0
	testLength = 1000
	testTone   = 50.0
	delta      = 1e-9
)

func TestAnalytic_SineHasConstantEnvelope(t *testing.T) {
	for _, n := range []int{testLength, testLength + 1} {
		x := testutil.Sine(testTone, testRate, n)
		a := Analytic(x)
		require.Len(t, a, n)

		if n == testLength {
			// Whole cycles: the envelope is exactly one and the
			// quadrature component is -cos.
			for i, v := range a {
				assert.InDelta(t, x[i], real(v), delta, "real %d", i)
				assert.InDelta(t, -math.Cos(2*math.Pi*testTone*float64(i)/testRate), imag(v), delta, "imag %d", i)
			}
			testutil.AssertSlicesInDelta(t, onesLike(n), Magnitude(a), delta)
		}

		for i, v := range a {
			if !assert.InDelta(t, x[i], real(v), delta, "real part is the input at %d", i) {
				return
			}
		}
	}
}

func TestAnalytic_MatchesKnownSmallCases(t *testing.T) {
	// [1, 0, -1, 0] is cos at a quarter of the rate: analytic is e^{i w t}.
	a := Analytic([]float64{1, 0, -1, 0})
	want := []complex128{1, 1i, -1, -1i}
	for i := range want {
		assert.InDelta(t, 0, cmplx.Abs(a[i]-want[i]), delta, "index %d", i)
	}

	// Constant input has no quadrature part.
	for _, v := range Analytic([]float64{2, 2, 2}) {
		assert.InDelta(t, 0, cmplx.Abs(v-2), delta)
	}

	assert.Nil(t, Analytic(nil))
}

func TestUnitPhase(t *testing.T) {
	phase, zeros := UnitPhase([]complex128{3 + 4i, 0, -2, 0})
	assert.Equal(t, 2, zeros)
	assert.InDelta(t, 0, cmplx.Abs(phase[0]-(0.6+0.8i)), delta)
	assert.Equal(t, complex128(1), phase[1])
	assert.InDelta(t, 0, cmplx.Abs(phase[2]+1), delta)
	assert.Equal(t, complex128(1), phase[3])
	for _, p := range phase {
		assert.InDelta(t, 1, cmplx.Abs(p), delta)
	}
}

func TestEnvelopes_Columns(t *testing.T) {
	m := mat.NewDense(testLength, 2, nil)
	m.SetCol(0, testutil.Sine(testTone, testRate, testLength))
	half := testutil.Sine(2*testTone, testRate, testLength)
	for i := range half {
		half[i] *= 0.5
	}
	m.SetCol(1, half)

	env := Envelopes(m)
	col := make([]float64, testLength)
	testutil.AssertSlicesInDelta(t, onesLike(testLength), mat.Col(col, 0, env), delta)
	for _, v := range mat.Col(col, 1, env) {
		assert.InDelta(t, 0.5, v, delta)
	}
}

func onesLike(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
