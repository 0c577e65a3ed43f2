package resample

import "math"

const (
	// besselTolerance stops the I0 series once a term no longer moves
	// the sum.
	besselTolerance = 1e-17
	besselMaxTerms  = 500
)

// besselI0 evaluates the modified Bessel function of the first kind,
// order zero, by its power series sum_k ((x/2)^k / k!)^2.
func besselI0(x float64) float64 {
	q := x * x / 4
	sum, term := 1.0, 1.0
	for k := 1; k <= besselMaxTerms; k++ {
		term *= q / float64(k*k)
		sum += term
		if term < besselTolerance*sum {
			break
		}
	}
	return sum
}

// periodicKaiser returns a length-n Kaiser window suited to spectral use:
// the first n points of the symmetric window of length n+1.
func periodicKaiser(n int, beta float64) []float64 {
	window := make([]float64, n)
	if n == 1 {
		window[0] = 1
		return window
	}

	alpha := float64(n) / 2
	norm := besselI0(beta)
	for i := range window {
		x := (float64(i) - alpha) / alpha
		window[i] = besselI0(beta*math.Sqrt(math.Max(0, 1-x*x))) / norm
	}
	return window
}

// spectralKaiser returns the rfft-bin weights of a periodic Kaiser window
// centred on DC. The ifftshift-ed window is folded so bin k weighs the
// k-th positive and negative frequency equally: (W[k] + W[n-k]) / 2.
func spectralKaiser(n int, beta float64) []float64 {
	window := periodicKaiser(n, beta)
	shifted := func(k int) float64 { return window[(k+n/2)%n] }

	weights := make([]float64, n/2+1)
	weights[0] = shifted(0)
	for k := 1; k < len(weights); k++ {
		weights[k] = (shifted(k) + shifted(n-k)) / 2
	}
	return weights
}
