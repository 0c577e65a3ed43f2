package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	texture "github.com/tphakala/go-sound-texture"
	"github.com/tphakala/go-sound-texture/internal/testutil"
)

const (
	testRate      = 16000
	testVectorLen = 502
)

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	testutil.WriteWAV(t, filepath.Join(dir, "tone.wav"), testutil.Sine(440, testRate, testRate), testRate)
	testutil.WriteWAV(t, filepath.Join(dir, "noise.wav"), testutil.WhiteNoise(testRate, 0.2, 3), testRate)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.wav"), []byte("not a wav file"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.wav"), 0o755))
}

func readVector(t *testing.T, path string) []float64 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var vec []float64
	require.NoError(t, npyio.Read(f, &vec))
	return vec
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	paths, err := Collect(dir, []string{".WAV"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "broken.wav"),
		filepath.Join(dir, "noise.wav"),
		filepath.Join(dir, "tone.wav"),
	}, paths)

	_, err = Collect(filepath.Join(dir, "missing"), []string{".wav"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, outDir, want string
	}{
		{"in/rain.wav", "", filepath.Join("in", "rain.wav.npy")},
		{"in/rain.wav", "feat", filepath.Join("feat", "rain.wav.npy")},
		{"fire.flac", "out", filepath.Join("out", "fire.flac.npy")},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputPath(tt.input, tt.outDir))
		})
	}
}

func TestRun_PartialFailure(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "features")
	writeFixtures(t, in)

	cfg := DefaultConfig(in)
	cfg.OutputDir = out
	cfg.Workers = 2

	report, err := Run(cfg)
	require.NoError(t, err)
	assert.False(t, report.OK())

	assert.Equal(t, []string{filepath.Join(in, "noise.wav"), filepath.Join(in, "tone.wav")}, report.Processed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, filepath.Join(in, "broken.wav"), report.Failed[0].Path)
	assert.Error(t, report.Failed[0].Err)

	for _, name := range []string{"noise.wav", "tone.wav"} {
		vec := readVector(t, filepath.Join(out, name+OutputExt))
		assert.Len(t, vec, testVectorLen, name)
		testutil.AssertNoNaNOrInf(t, vec, name)
	}
	assert.NoFileExists(t, filepath.Join(out, "broken.wav"+OutputExt))
}

func TestRun_SharedAnalyzer(t *testing.T) {
	cfg := texture.DefaultConfig()
	cfg.NumBands = 20
	analyzer, err := texture.NewAnalyzer(cfg)
	require.NoError(t, err)

	for _, seed := range []uint64{1, 2} {
		dir := t.TempDir()
		testutil.WriteWAV(t, filepath.Join(dir, "noise.wav"), testutil.WhiteNoise(testRate, 0.2, seed), testRate)

		bc := DefaultConfig(dir)
		bc.Analyzer = analyzer
		report, err := Run(bc)
		require.NoError(t, err)
		require.True(t, report.OK())

		vec := readVector(t, filepath.Join(dir, "noise.wav"+OutputExt))
		assert.Len(t, vec, analyzer.VectorLen())
	}
	assert.NotEqual(t, testVectorLen, analyzer.VectorLen())
}

func TestRun_EmptyDirectory(t *testing.T) {
	report, err := Run(DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, report.Processed)
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := Run(nil)
	require.ErrorIs(t, err, texture.ErrInvalidArgument)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no_input", func(c *Config) { c.InputDir = "" }},
		{"no_extensions", func(c *Config) { c.Extensions = nil }},
		{"negative_workers", func(c *Config) { c.Workers = -1 }},
		{"bad_analysis", func(c *Config) {
			c.Analysis = texture.DefaultConfig()
			c.Analysis.NumBands = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(t.TempDir())
			tt.mutate(cfg)
			_, err := Run(cfg)
			assert.ErrorIs(t, err, texture.ErrInvalidArgument)
		})
	}

	_, err = Run(DefaultConfig(filepath.Join(t.TempDir(), "missing")))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
