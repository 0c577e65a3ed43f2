package filterbank

import (
	"fmt"

	"github.com/tphakala/go-sound-texture/internal/texerr"
)

// rfftDivisor gives the unique bin count of a real FFT: n/2 + 1.
const rfftDivisor = 2

// Grid returns the non-negative FFT bin frequencies for a real signal of
// length n sampled with the given spacing (1/sampleRate). Bin k is
// k/(n*spacing); there are n/2+1 bins.
func Grid(n int, spacing float64) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: grid length must be positive, got %d", texerr.ErrInvalidArgument, n)
	}
	if !positiveFinite(spacing) {
		return nil, fmt.Errorf("%w: grid spacing must be positive, got %v", texerr.ErrInvalidArgument, spacing)
	}

	step := 1.0 / (float64(n) * spacing)
	freqs := make([]float64, n/rfftDivisor+1)
	for k := range freqs {
		freqs[k] = float64(k) * step
	}
	return freqs, nil
}
