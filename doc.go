// Package texture computes sound texture statistics in pure Go and
// resynthesizes waveforms from subband envelopes.
//
// A sound texture (rain, fire, applause, a crowd) is summarized by the
// time-averaged statistics of its cochlear subband envelopes rather than
// by its exact waveform. This package implements the analysis front end
// and an iterative envelope-matching synthesizer.
//
// # Features
//
//   - ERB-spaced half-cosine cochlear filterbank with low-pass and
//     high-pass edge channels whose squared responses sum to one
//   - Hilbert envelopes with power-law compression
//   - Constant-Q modulation filterbank for envelope modulation power
//   - Fixed-length statistic vectors suitable for feature extraction
//   - Iterative resynthesis from envelopes with a seeded noise start
//   - Filterbank memoization shared across concurrent analyses
//   - Optional SIMD acceleration via github.com/tphakala/simd
//
// # Quick Start
//
// One-shot analysis of a mono signal:
//
//	vec, err := texture.Analyze(samples, 44100, texture.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For repeated analyses, build an [Analyzer] once so filterbanks are
// reused:
//
//	a, err := texture.NewAnalyzer(texture.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, sig := range signals {
//	    stats, err := a.Analyze(sig)
//	    if err != nil {
//	        log.Printf("skipping: %v", err)
//	        continue
//	    }
//	    features = append(features, stats.Vector())
//	}
//
// # Statistic Vector
//
// For C envelope channels (NumBands + 2) and M modulation channels the
// vector holds, in order:
//
//   - C per-channel envelope means
//   - C normalized standard deviations, sqrt(var / (eps + mean²))
//   - the Pearson correlations of channel pairs 1, 2, 3 and 5 apart
//   - C×M modulation powers, channel-major
//   - the loudness normalizer (zero unless NormalizeLoudness is set)
//
// With the defaults (30 bands, 10 modulation channels) that is 502
// values. [Analyzer.VectorLen] reports the length for any configuration.
//
// # Resynthesis
//
// [Resynthesize] starts from Gaussian noise and, for a fixed number of
// iterations, replaces the magnitude of each subband's analytic signal
// with the target envelope while keeping its phase:
//
//	env, _ := a.Envelopes(sig)
//	out, zeros, err := texture.Resynthesize(env, texture.DefaultResynthConfig(44100))
//
// Subband samples whose analytic magnitude is exactly zero have no
// phase. They get a unit phase and are counted in zeros, unless
// StrictEnvelope is set, in which case resynthesis fails with
// [ErrDivisionByZeroEnvelope].
//
// # Thread Safety
//
// An [Analyzer] is safe for concurrent use. Resynthesis holds no shared
// state.
package texture
