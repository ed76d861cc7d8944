// Package model contains domain types passed between pipeline layers.
package model

import "fmt"

// Sample is one residual triple emitted by the upstream gaze encoder.
// The three components carry no assigned semantic meaning; they are the
// classifier's input features.
type Sample [3]float64

// EyeVariant identifies which eye a sample or model belongs to.
// Each variant is calibrated independently.
type EyeVariant string

// Eye variants.
const (
	Combined EyeVariant = "combined"
	Left     EyeVariant = "left"
	Right    EyeVariant = "right"
)

// Variants lists all eye variants in a stable order.
func Variants() []EyeVariant {
	return []EyeVariant{Combined, Left, Right}
}

// Valid reports whether v is a known eye variant.
func (v EyeVariant) Valid() bool {
	switch v {
	case Combined, Left, Right:
		return true
	}
	return false
}

// Phase is one of the three guided calibration states.
type Phase string

// Calibration phases.
const (
	PhaseClosed Phase = "closed"
	PhaseOpen   Phase = "open"
	PhaseBlink  Phase = "blink"
)

// Phases lists all calibration phases in a stable order.
func Phases() []Phase {
	return []Phase{PhaseClosed, PhaseOpen, PhaseBlink}
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseClosed, PhaseOpen, PhaseBlink:
		return true
	}
	return false
}

// ModelKind distinguishes the two trained artifact families.
type ModelKind string

// Model kinds.
const (
	KindBinary ModelKind = "binary"
	KindSmooth ModelKind = "smooth"
)

// Kinds lists all model kinds in a stable order.
func Kinds() []ModelKind {
	return []ModelKind{KindBinary, KindSmooth}
}

// ModelKey identifies a trained artifact for lookup and persistence.
// Bumping Version invalidates prior artifacts without deleting them.
type ModelKey struct {
	Kind    ModelKind
	Variant EyeVariant
	Version int
}

// String renders a stable identifier, e.g. "smooth_left_v2".
func (k ModelKey) String() string {
	return fmt.Sprintf("%s_%s_v%d", k.Kind, k.Variant, k.Version)
}

// PlotFrame carries the visualization payload published after a smooth
// training round. Informational only; never consumed back into the pipeline.
type PlotFrame struct {
	Variant        EyeVariant `json:"variant"`
	Raw            []float64  `json:"raw"`
	Smoothed       []float64  `json:"smoothed"`
	OpenThreshold  float64    `json:"open_threshold"`
	CloseThreshold float64    `json:"close_threshold"`
	Peaks          []int      `json:"peaks"`
	Valleys        []int      `json:"valleys"`
}
