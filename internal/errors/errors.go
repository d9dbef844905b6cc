package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrStreamFailed - the backend reported a terminal error event for the stream
	ErrStreamFailed = errors.New("stream failed")

	// ErrMalformedFrame - a frame could not be decoded (dropped, never fatal to the stream)
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrCursorNotFound - no persisted cursor exists for the requested stream
	ErrCursorNotFound = errors.New("cursor not found")

	// ErrLocked - a recording is locked by another tsumugi instance
	ErrLocked = errors.New("recording locked")
)
