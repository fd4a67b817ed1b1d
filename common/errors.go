package common

import (
	"errors"
	"fmt"
)

// Sentinel configuration errors. They are wrapped in a ViewerError and can be matched with errors.Is.
var (
	ErrInvalidPanorama = errors.New("invalid panorama configuration")
	ErrNotPowerOfTwo   = errors.New("value must be a power of two")
	ErrResolutionLow   = errors.New("sphere resolution below the minimum")
	ErrTooManyCols     = errors.New("panorama cols exceed sphere segments")
	ErrTooManyRows     = errors.New("panorama rows exceed sphere horizontal segments")
	ErrOddWidth        = errors.New("panorama width must be even")
)

// ViewerError is a configuration error surfaced to the host before any network I/O happens.
type ViewerError struct {
	// Message is the human readable description.
	Message string
	// Err is the sentinel or underlying cause, may be nil.
	Err error
}

// NewViewerError creates a ViewerError wrapping cause with a formatted message.
//
// Parameters:
//   - cause: the sentinel or underlying error (may be nil)
//   - format: fmt-style message format
//   - args: format arguments
//
// Returns:
//   - *ViewerError: the new error
func NewViewerError(cause error, format string, args ...any) *ViewerError {
	return &ViewerError{Message: fmt.Sprintf(format, args...), Err: cause}
}

func (e *ViewerError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ViewerError) Unwrap() error {
	return e.Err
}
