package training

import "errors"

var (
	// ErrTrainingInFlight is returned when a round for the same kind and
	// variant is already running.
	ErrTrainingInFlight = errors.New("training already in flight")

	// ErrNoBinaryModel is returned when a smooth round has no binary model
	// to bootstrap predictions from.
	ErrNoBinaryModel = errors.New("no binary model available")

	// ErrNoExtrema is returned when the blink signal yields no usable peaks
	// or valleys.
	ErrNoExtrema = errors.New("no extrema detected in blink signal")
)
