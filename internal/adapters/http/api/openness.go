// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ocumetry/eyelid/internal/domain/model"
)

type opennessResponse struct {
	Variant  model.EyeVariant `json:"variant"`
	Openness float64          `json:"openness"`
	Source   string           `json:"source"`
}

// OpennessHandler answers runtime openness queries.
type OpennessHandler struct {
	deps Dependencies
}

// NewOpennessHandler creates a new openness handler.
func NewOpennessHandler(deps Dependencies) *OpennessHandler {
	return &OpennessHandler{deps: deps}
}

// HandleGetOpenness handles GET /openness?variant=left&x=&y=&z= requests.
func (h *OpennessHandler) HandleGetOpenness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()

	variant := model.EyeVariant(q.Get("variant"))
	if variant == "" {
		variant = model.Combined
	}
	if !variant.Valid() {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid variant %q", variant))
		return
	}

	var sample model.Sample
	for i, name := range []string{"x", "y", "z"} {
		raw := q.Get(name)
		if raw == "" {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("missing %s", name))
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid %s: %q", name, raw))
			return
		}
		sample[i] = v
	}

	openness, source := h.deps.Predict(sample, variant)
	writeJSON(w, http.StatusOK, opennessResponse{
		Variant:  variant,
		Openness: openness,
		Source:   source,
	})
}
