package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/ocumetry/eyelid/internal/blinksim"
)

// Default configuration constants.
const (
	defaultSamplesPerPhase = 60
	defaultBlinkCycles     = 5
	defaultSamplesPerHalf  = 10
	defaultInterval        = 10 * time.Millisecond
	defaultTimeout         = 10 * time.Second
	defaultNoise           = 0.03
	defaultSessionTimeout  = 5 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		samples  = flag.Int("samples", defaultSamplesPerPhase, "Samples streamed during each staring phase")
		cycles   = flag.Int("cycles", defaultBlinkCycles, "Closed/open cycles during the blink phase")
		half     = flag.Int("half", defaultSamplesPerHalf, "Samples per blink half-cycle")
		interval = flag.Duration("interval", defaultInterval, "Delay between samples")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		noise    = flag.Float64("noise", defaultNoise, "Amplitude of per-sample jitter")
		seed     = flag.Int64("seed", 1, "Seed for the jitter source")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		blinksim.ShowHelp()
		return
	}

	if err := blinksim.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSessionTimeout)
	defer cancel()

	config := &blinksim.Config{
		BaseURL:         *baseURL,
		SamplesPerPhase: *samples,
		BlinkCycles:     *cycles,
		SamplesPerHalf:  *half,
		Interval:        *interval,
		Timeout:         *timeout,
		Noise:           *noise,
		Seed:            *seed,
		Verbose:         *verbose,
	}

	if err := blinksim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Calibration session failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
