package blinksim

import (
	"fmt"
	"os"

	"github.com/ocumetry/eyelid/pkg/logger"
)

// SetupLogging initializes the logger for the simulator.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the blink simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Eyelid Blink Simulator
======================

Drives a guided calibration session against a running eyelid service:
a closed stare, an open stare, and a blink sequence, then verifies the
calibrated openness mapping.

Usage:
  go run cmd/blink-sim/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -samples int
        Samples streamed during each staring phase (default 60)
  -cycles int
        Closed/open cycles during the blink phase (default 5)
  -half int
        Samples per blink half-cycle (default 10)
  -interval duration
        Delay between samples (default 10ms)
  -timeout duration
        HTTP request timeout (default 10s)
  -noise float
        Amplitude of per-sample jitter (default 0.03)
  -seed int
        Seed for the jitter source (default 1)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Calibrate against a local service
  go run cmd/blink-sim/main.go

  # Longer session with more blink cycles
  go run cmd/blink-sim/main.go -samples 200 -cycles 10

  # Noisier signal
  go run cmd/blink-sim/main.go -noise 0.08 -seed 42
`)
}
