// Command texture computes sound texture statistics and resynthesizes
// audio from subband envelopes.
//
// Usage:
//
//	texture analyze ./dataset/audio -o ./dataset/features   # one .npy per file
//	texture analyze rain.wav                                # writes rain.wav.npy
//	texture envelopes rain.wav rain_env.npy                 # [time, channel] matrix
//	texture resynth rain.wav rain_synth.wav -i 10           # envelope-matched noise
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sbinet/npyio"

	texture "github.com/tphakala/go-sound-texture"
	"github.com/tphakala/go-sound-texture/internal/audio"
	"github.com/tphakala/go-sound-texture/internal/batch"
)

var version = "dev"

// errItemsFailed signals that a batch finished with failures.
var errItemsFailed = errors.New("some files could not be analyzed")

// AnalysisFlags map onto texture.Config.
type AnalysisFlags struct {
	Bands             int     `help:"Number of ERB bands." default:"30"`
	DownsampleRate    float64 `help:"Cochlear filterbank rate in Hz." default:"20000"`
	EnvelopeRate      float64 `help:"Envelope rate in Hz." default:"400"`
	LowHz             float64 `help:"Lowest ERB band edge in Hz." default:"20"`
	HighHz            float64 `help:"Highest ERB band edge in Hz." default:"10000"`
	Compression       float64 `help:"Envelope compression exponent." default:"0.3"`
	DesiredRMS        float64 `name:"rms" help:"Rescale input to this RMS (0 disables)." default:"0"`
	NoClip            bool    `help:"Do not clip the resampled input to [-1, 1]."`
	KaiserBeta        float64 `help:"Kaiser taper of the input spectrum when resampling (0 disables)." default:"0"`
	NormalizeLoudness bool    `help:"Divide envelopes by their median frame norm."`
	ModChannels       int     `help:"Number of modulation channels." default:"10"`
}

func (f *AnalysisFlags) config() *texture.Config {
	cfg := texture.DefaultConfig()
	cfg.NumBands = f.Bands
	cfg.DownsampleRate = f.DownsampleRate
	cfg.EnvelopeRate = f.EnvelopeRate
	cfg.LowHz = f.LowHz
	cfg.HighHz = f.HighHz
	cfg.CompressionExponent = f.Compression
	cfg.DesiredRMS = f.DesiredRMS
	cfg.ClipSamples = !f.NoClip
	cfg.KaiserBeta = f.KaiserBeta
	cfg.NormalizeLoudness = f.NormalizeLoudness
	cfg.ModChannels = f.ModChannels
	return cfg
}

type Globals struct {
	Verbose bool `short:"v" help:"Verbose output."`
}

type cli struct {
	Globals

	Version   kong.VersionFlag `help:"Show version information."`
	Analyze   analyzeCmd       `cmd:"" help:"Write texture statistic vectors as .npy files."`
	Envelopes envelopesCmd     `cmd:"" help:"Write the subband envelope matrix of a file as .npy."`
	Resynth   resynthCmd       `cmd:"" help:"Resynthesize a file from its subband envelopes."`
}

type analyzeCmd struct {
	AnalysisFlags `embed:""`

	Paths     []string `arg:"" name:"path" help:"Audio files or directories." type:"existingpath"`
	OutputDir string   `short:"o" help:"Output directory (default: next to each input)." type:"path"`
	Workers   int      `short:"j" help:"Files analyzed concurrently (0 = all CPUs)." default:"0"`
}

func (c *analyzeCmd) Run(g *Globals) error {
	cfg := c.config()
	analyzer, err := texture.NewAnalyzer(cfg)
	if err != nil {
		return err
	}
	start := time.Now()
	processed, failed := 0, 0

	for _, path := range c.Paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat input: %w", err)
		}

		if !info.IsDir() {
			if err := analyzeFile(analyzer, path, batch.OutputPath(path, c.OutputDir), g.Verbose); err != nil {
				log.Printf("%s: %v", path, err)
				failed++
				continue
			}
			processed++
			continue
		}

		bc := batch.DefaultConfig(path)
		bc.OutputDir = c.OutputDir
		bc.Workers = c.Workers
		bc.Analyzer = analyzer
		bc.Verbose = g.Verbose

		report, err := batch.Run(bc)
		if err != nil {
			return err
		}
		for _, f := range report.Failed {
			log.Printf("%s: %v", f.Path, f.Err)
		}
		processed += len(report.Processed)
		failed += len(report.Failed)
	}

	fmt.Printf("Analyzed %d files (%d failed) in %.2fs\n", processed, failed, time.Since(start).Seconds())
	if failed > 0 {
		return errItemsFailed
	}
	return nil
}

func analyzeFile(a *texture.Analyzer, input, output string, verbose bool) error {
	if verbose {
		log.Printf("Analyzing %s -> %s", input, output)
	}
	sig, err := loadNormalized(input)
	if err != nil {
		return err
	}
	vec, err := a.AnalyzeVector(sig)
	if err != nil {
		return err
	}
	return batch.WriteVector(output, vec)
}

type envelopesCmd struct {
	AnalysisFlags `embed:""`

	Input  string `arg:"" help:"Input audio file." type:"existingfile"`
	Output string `arg:"" help:"Output .npy file." type:"path"`
}

func (c *envelopesCmd) Run(g *Globals) error {
	env, _, err := extract(c.Input, c.config(), g.Verbose)
	if err != nil {
		return err
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := npyio.Write(f, env.Data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write npy data: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %d frames x %d channels at %.0f Hz -> %s\n",
		env.NumFrames(), env.NumChannels(), env.SampleRate, c.Output)
	return nil
}

type resynthCmd struct {
	AnalysisFlags `embed:""`

	Input      string  `arg:"" help:"Input audio file." type:"existingfile"`
	Output     string  `arg:"" help:"Output WAV file." type:"path"`
	Rate       float64 `short:"r" help:"Output sample rate in Hz (0 = input rate)." default:"0"`
	Iterations int     `short:"i" help:"Envelope matching iterations." default:"3"`
	Seed       uint64  `help:"Seed of the initial noise." default:"0"`
	Strict     bool    `help:"Fail on zero analytic magnitudes instead of using a unit phase."`
}

func (c *resynthCmd) Run(g *Globals) error {
	env, inputRate, err := extract(c.Input, c.config(), g.Verbose)
	if err != nil {
		return err
	}

	rate := c.Rate
	if rate == 0 {
		rate = inputRate
	}
	rc := texture.DefaultResynthConfig(rate)
	rc.Iterations = c.Iterations
	rc.LowHz = c.LowHz
	rc.HighHz = c.HighHz
	rc.Seed = c.Seed
	rc.StrictEnvelope = c.Strict

	if g.Verbose {
		log.Printf("Resynthesizing %d frames at %.0f Hz, %d iterations", env.NumFrames(), rate, rc.Iterations)
	}

	start := time.Now()
	out, zeros, err := texture.Resynthesize(env, rc)
	if err != nil {
		return err
	}
	if zeros > 0 {
		log.Printf("Warning: %d zero-magnitude subband samples given a unit phase", zeros)
	}
	if err := audio.WriteWAV(c.Output, out); err != nil {
		return err
	}

	fmt.Printf("Resynthesized %s -> %s\n", c.Input, c.Output)
	fmt.Printf("  %.2fs at %.0f Hz in %.2fs\n", out.Duration().Seconds(), out.SampleRate, time.Since(start).Seconds())
	return nil
}

// extract loads input and returns its envelopes and original rate.
func extract(input string, cfg *texture.Config, verbose bool) (*texture.Envelopes, float64, error) {
	sig, err := loadNormalized(input)
	if err != nil {
		return nil, 0, err
	}
	if verbose {
		log.Printf("Input: %s, %.0f Hz, %.2fs", input, sig.SampleRate, sig.Duration().Seconds())
	}

	a, err := texture.NewAnalyzer(cfg)
	if err != nil {
		return nil, 0, err
	}
	env, err := a.Envelopes(sig)
	if err != nil {
		return nil, 0, err
	}
	return env, sig.SampleRate, nil
}

func loadNormalized(path string) (*texture.Signal, error) {
	sig, err := audio.LoadMono(path)
	if err != nil {
		return nil, err
	}
	audio.Normalize(sig.Samples)
	return sig, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("texture"),
		kong.Description("Sound texture statistics and envelope resynthesis"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(&c.Globals)
}
