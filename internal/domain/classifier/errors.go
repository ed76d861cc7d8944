package classifier

import "errors"

// Sentinel kinds for trainer errors.
var (
	ErrNoSamples      = errors.New("no training samples")
	ErrLengthMismatch = errors.New("samples and labels differ in length")
	ErrNoAnchors      = errors.New("no anchor targets")
	ErrBadSigns       = errors.New("ordering signs must have length len(samples)-1")
	ErrBadPayload     = errors.New("malformed model payload")
)
