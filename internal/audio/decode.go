package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat is returned for file types no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

const (
	bitsPerSample8  = 8
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt8  = 127.0
	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	// unsigned8Offset centres unsigned 8-bit WAV samples on zero.
	unsigned8Offset = 128

	// go-mp3 always produces interleaved 16-bit little-endian stereo.
	mp3Channels       = 2
	mp3BytesPerSample = 2
)

// Extensions lists the file extensions Load understands.
var Extensions = []string{".wav", ".mp3", ".flac"}

// Load decodes the file at path, choosing the decoder by extension.
func Load(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return DecodeWAV(f)
	case ".mp3":
		return DecodeMP3(f)
	case ".flac":
		return DecodeFLAC(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadMono decodes the file at path and averages its channels.
func LoadMono(path string) (*Signal, error) {
	buf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return buf.ToMono(), nil
}

// DecodeWAV decodes a PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (*Buffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels < 1 {
		return nil, errors.New("WAV file has no channels")
	}

	bitDepth := int(decoder.BitDepth)
	channels := pcm.Format.NumChannels
	offset := 0
	if bitDepth == bitsPerSample8 {
		offset = unsigned8Offset
	}

	return &Buffer{
		Channels:   deinterleave(pcm.Data, channels, offset, 1/maxValue(bitDepth)),
		SampleRate: pcm.Format.SampleRate,
		BitDepth:   bitDepth,
	}, nil
}

// DecodeMP3 decodes an MP3 stream to stereo.
func DecodeMP3(r io.Reader) (*Buffer, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	data := make([]int, len(raw)/mp3BytesPerSample)
	for i := range data {
		data[i] = int(int16(binary.LittleEndian.Uint16(raw[i*mp3BytesPerSample:])))
	}

	return &Buffer{
		Channels:   deinterleave(data, mp3Channels, 0, 1/maxInt16),
		SampleRate: decoder.SampleRate(),
		BitDepth:   bitsPerSample16,
	}, nil
}

// DecodeFLAC decodes a FLAC stream.
func DecodeFLAC(r io.Reader) (*Buffer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	scale := 1 / maxValue(bitDepth)

	out := make([][]float64, channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}
		for ch := range channels {
			for _, s := range frame.Subframes[ch].Samples[:frame.BlockSize] {
				out[ch] = append(out[ch], float64(s)*scale)
			}
		}
	}

	return &Buffer{Channels: out, SampleRate: int(info.SampleRate), BitDepth: bitDepth}, nil
}

// maxValue returns the full-scale sample value for the given bit depth.
func maxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample8:
		return maxInt8
	case bitsPerSample16:
		return maxInt16
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// deinterleave splits interleaved integer samples into scaled channels.
func deinterleave(data []int, channels, offset int, scale float64) [][]float64 {
	frames := len(data) / channels
	out := make([][]float64, channels)
	for ch := range channels {
		out[ch] = make([]float64, frames)
	}
	for i := range frames {
		base := i * channels
		for ch := range channels {
			out[ch][i] = float64(data[base+ch]-offset) * scale
		}
	}
	return out
}
