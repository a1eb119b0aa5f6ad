package contracts

import "errors"

// Errors returned by the SDK. Callers match them with errors.Is.
var (
	ErrDeviceNotFound    = errors.New("MIDI output device not found")
	ErrDeviceBusy        = errors.New("could not bind to MIDI output")
	ErrDeviceUnavailable = errors.New("MIDI output is no longer available")
	ErrInvalidTempo      = errors.New("tempo must be a positive number of beats per minute")
	ErrInvalidPhrase     = errors.New("invalid phrase")
	ErrUnsupportedDriver = errors.New("unsupported MIDI driver")
)
