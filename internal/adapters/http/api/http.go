// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ocumetry/eyelid/internal/adapters/bus"
	"github.com/ocumetry/eyelid/internal/domain/model"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the application service.
type Dependencies interface {
	// Enqueue pushes a calibration event for async processing. Returns
	// false on backpressure.
	Enqueue(ctx context.Context, e bus.Event) bool

	// Predict maps one encoder sample to an openness value and names the
	// model source that answered.
	Predict(x model.Sample, variant model.EyeVariant) (float64, string)
}

// Server wires HTTP routes for the calibration API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	eventsHandler   *EventsHandler
	opennessHandler *OpennessHandler
	plots           http.Handler
}

// NewServer creates a new API server with all handlers. The plots handler
// is optional; pass nil to disable the websocket endpoint.
func NewServer(deps Dependencies, statsProvider StatsProvider, plots http.Handler) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		eventsHandler:   NewEventsHandler(deps),
		opennessHandler: NewOpennessHandler(deps),
		plots:           plots,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/openness", MetricsMiddleware(s.opennessHandler.HandleGetOpenness, "openness"))
	if s.plots != nil {
		mux.Handle("/plots/ws", s.plots)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
