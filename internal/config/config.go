// Package config defines service configuration structures and loading hooks.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BusSize bounds the in-memory calibration event bus.
	BusSize int `koanf:"bus_size"`

	// StorePath locates the SQLite artifact store. Empty disables
	// persistence.
	StorePath string `koanf:"store_path"`

	// ModelVersion selects which model generation training writes and
	// inference reads.
	ModelVersion int `koanf:"model_version"`

	// PlotBuffer sets the per-client frame buffer on the plot stream.
	PlotBuffer int `koanf:"plot_buffer"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":9080",
		BusSize:      4096,
		StorePath:    "eyelid.db",
		ModelVersion: 2,
		PlotBuffer:   8,
	}
}
