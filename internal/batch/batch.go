// Package batch computes texture statistic vectors for every audio file
// in a directory and stores each as a .npy file.
package batch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/sbinet/npyio"

	texture "github.com/tphakala/go-sound-texture"
	"github.com/tphakala/go-sound-texture/internal/audio"
)

// OutputExt is appended to the input file name to form the output name.
const OutputExt = ".npy"

// Config holds batch parameters.
type Config struct {
	// InputDir is scanned non-recursively.
	InputDir string

	// OutputDir receives the .npy files. Empty writes next to the inputs.
	OutputDir string

	// Extensions selects inputs by case-insensitive suffix.
	Extensions []string

	// Workers is the number of files analyzed concurrently. Zero uses
	// GOMAXPROCS.
	Workers int

	// Analysis configures the analyzer. Nil uses texture.DefaultConfig.
	Analysis *texture.Config

	// Analyzer, when set, is used instead of building one from Analysis
	// so callers can share its filterbanks across runs.
	Analyzer *texture.Analyzer

	Verbose bool
}

// DefaultConfig returns a configuration that analyzes every decodable
// file in inputDir.
func DefaultConfig(inputDir string) *Config {
	return &Config{
		InputDir:   inputDir,
		Extensions: slices.Clone(audio.Extensions),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("%w: input directory is empty", texture.ErrInvalidArgument)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: no file extensions selected", texture.ErrInvalidArgument)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", texture.ErrInvalidArgument, c.Workers)
	}
	if c.Analyzer == nil && c.Analysis != nil {
		return c.Analysis.Validate()
	}
	return nil
}

// Failure records a file that could not be analyzed.
type Failure struct {
	Path string
	Err  error
}

// Report lists the outcome of a run. Processed holds input paths whose
// vectors were written, sorted.
type Report struct {
	Processed []string
	Failed    []Failure
}

// OK reports whether every file succeeded.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Collect returns the sorted paths of regular files in dir whose names
// end in one of exts.
func Collect(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if hasExtension(e.Name(), exts) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)
	return paths, nil
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range exts {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// OutputPath returns where the vector of input is written: the full
// input name plus OutputExt, in outDir or next to the input.
func OutputPath(input, outDir string) string {
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	return filepath.Join(outDir, filepath.Base(input)+OutputExt)
}

// WriteVector stores vec as a 1-D float64 .npy file.
func WriteVector(path string, vec []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := npyio.Write(f, vec); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write npy data: %w", err)
	}
	return f.Close()
}

// Run analyzes every selected file. A file that fails is recorded in the
// report and the rest continue; the returned error covers only setup
// problems.
func Run(config *Config) (*Report, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", texture.ErrInvalidArgument)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	analyzer := config.Analyzer
	if analyzer == nil {
		analysis := config.Analysis
		if analysis == nil {
			analysis = texture.DefaultConfig()
		}
		var err error
		if analyzer, err = texture.NewAnalyzer(analysis); err != nil {
			return nil, err
		}
	}

	paths, err := Collect(config.InputDir, config.Extensions)
	if err != nil {
		return nil, err
	}
	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	workers := config.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, max(len(paths), 1))

	if config.Verbose {
		log.Printf("Found %d files in %s, %d workers", len(paths), config.InputDir, workers)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report Report
	)
	jobs := make(chan string)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				err := processFile(analyzer, path, OutputPath(path, config.OutputDir))

				mu.Lock()
				if err != nil {
					report.Failed = append(report.Failed, Failure{Path: path, Err: err})
				} else {
					report.Processed = append(report.Processed, path)
				}
				mu.Unlock()

				if config.Verbose {
					if err != nil {
						log.Printf("%s: %v", filepath.Base(path), err)
					} else {
						log.Printf("%s: done", filepath.Base(path))
					}
				}
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	slices.Sort(report.Processed)
	slices.SortFunc(report.Failed, func(a, b Failure) int {
		return strings.Compare(a.Path, b.Path)
	})
	return &report, nil
}

// processFile loads, peak normalizes and analyzes one file.
func processFile(a *texture.Analyzer, input, output string) error {
	sig, err := audio.LoadMono(input)
	if err != nil {
		return err
	}
	audio.Normalize(sig.Samples)

	vec, err := a.AnalyzeVector(sig)
	if err != nil {
		return err
	}
	return WriteVector(output, vec)
}
