// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// Stats is the read shape returned by GET /stats.
type Stats struct {
	BusSize          int             `json:"bus_size"`
	RegisteredModels int             `json:"registered_models"`
	Capturing        map[string]bool `json:"capturing"`
	BufferedSamples  map[string]int  `json:"buffered_samples"`
}

// StatsProvider exposes a point-in-time snapshot of pipeline state.
type StatsProvider interface {
	Stats(ctx context.Context) Stats
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.provider.Stats(r.Context()))
}
