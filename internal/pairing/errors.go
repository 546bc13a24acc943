package pairing

import "errors"

var (
	// ErrTaskAborted is reported when a background task exits without
	// producing a result, e.g. after a panic in a provider.
	ErrTaskAborted = errors.New("background task aborted")
	// ErrEmptyPairingURI is returned when a provider creates a session but
	// hands back no pairing URI.
	ErrEmptyPairingURI = errors.New("empty pairing uri")
	// ErrUnknownAction is returned when parsing an unrecognized action name.
	ErrUnknownAction = errors.New("unknown action")
)
