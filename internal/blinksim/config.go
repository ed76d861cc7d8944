package blinksim

import "time"

// Config holds configuration for a simulated calibration session.
type Config struct {
	BaseURL         string        // Base URL of the service
	SamplesPerPhase int           // Samples streamed during each staring phase
	BlinkCycles     int           // Closed/open cycles during the blink phase
	SamplesPerHalf  int           // Samples per blink half-cycle
	Interval        time.Duration // Delay between samples
	Timeout         time.Duration // HTTP request timeout
	Noise           float64       // Amplitude of per-sample jitter
	Seed            int64         // Seed for the jitter source
	Verbose         bool          // Enable verbose logging
}

// event is the wire shape for POST /events.
type event struct {
	Type      string      `json:"type"`
	Phase     string      `json:"phase,omitempty"`
	Active    *bool       `json:"active,omitempty"`
	Variant   string      `json:"variant,omitempty"`
	Sample    *[3]float64 `json:"sample,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// opennessResponse is the wire shape for GET /openness.
type opennessResponse struct {
	Variant  string  `json:"variant"`
	Openness float64 `json:"openness"`
	Source   string  `json:"source"`
}

// Stats holds session statistics.
type Stats struct {
	EventsSubmitted int
	EventsFailed    int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration

	ClosedOpenness float64
	OpenOpenness   float64
	Source         string
}
