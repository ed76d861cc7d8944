// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ocumetry/eyelid/internal/adapters/bus"
	"github.com/ocumetry/eyelid/internal/domain/model"
)

// Event type discriminators accepted by POST /events.
const (
	eventTypePhase  = "phase"
	eventTypeSample = "sample"
)

// eventRequest is the wire shape for POST /events. Type selects which of
// the two payload groups must be present.
type eventRequest struct {
	Type string `json:"type"`

	// Phase edge payload.
	Phase  model.Phase `json:"phase,omitempty"`
	Active *bool       `json:"active,omitempty"`

	// Encoder sample payload.
	Variant   model.EyeVariant `json:"variant,omitempty"`
	Sample    *model.Sample    `json:"sample,omitempty"`
	Timestamp int64            `json:"timestamp,omitempty"`
}

func (e eventRequest) validate() error {
	switch e.Type {
	case eventTypePhase:
		if !e.Phase.Valid() {
			return fmt.Errorf("invalid phase %q", e.Phase)
		}
		if e.Active == nil {
			return errors.New("missing active")
		}
	case eventTypeSample:
		if !e.Variant.Valid() {
			return fmt.Errorf("invalid variant %q", e.Variant)
		}
		if e.Sample == nil {
			return errors.New("missing sample")
		}
	default:
		return fmt.Errorf("invalid type %q", e.Type)
	}
	return nil
}

func (e eventRequest) toEvent() bus.Event {
	if e.Type == eventTypePhase {
		return bus.PhaseEdge(e.Phase, *e.Active)
	}
	return bus.EncoderSample(e.Variant, *e.Sample, e.Timestamp)
}

type ackResponse struct {
	Status string `json:"status"`
}

// EventsHandler handles calibration event submissions.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Join(ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Join(ErrBadRequest, err))
		return
	}

	if ok := h.deps.Enqueue(r.Context(), req.toEvent()); !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
