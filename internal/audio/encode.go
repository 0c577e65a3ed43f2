package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// DefaultBitDepth is the sample size WriteWAV produces.
	DefaultBitDepth = bitsPerSample16

	wavPCMFormat = 1
	monoChannels = 1
)

// WriteWAV writes s to path as a mono 16-bit PCM WAV file. Samples
// outside [-1, 1] are clipped.
func WriteWAV(path string, s *Signal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := EncodeWAV(f, s, DefaultBitDepth); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// EncodeWAV writes s as mono PCM WAV with the given bit depth (16, 24 or
// 32).
func EncodeWAV(w io.WriteSeeker, s *Signal, bitDepth int) error {
	if err := s.Validate(); err != nil {
		return err
	}
	switch bitDepth {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
	default:
		return fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}

	rate := int(math.Round(s.SampleRate))
	full := maxValue(bitDepth)
	data := make([]int, len(s.Samples))
	for i, v := range s.Samples {
		data[i] = int(math.Round(math.Max(-1, math.Min(1, v)) * full))
	}

	enc := wav.NewEncoder(w, rate, bitDepth, monoChannels, wavPCMFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: monoChannels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return nil
}
