package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFormatNotFound indicates no descriptor in the catalog satisfies the selection criteria.
	ErrFormatNotFound = errors.New("format not found")
	// ErrInvalidInput indicates a caller-level precondition was violated.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRunNotFound indicates the requested run does not exist in history.
	ErrRunNotFound = errors.New("run not found")
)

// TransferError is a network or stream failure while downloading.
// A partial destination file may have existed when it occurred.
type TransferError struct {
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer to %s failed: %v", e.Path, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// TranscodeError is reported when the external transcoder fails
type TranscodeError struct {
	Op     string // extract or mux
	Output string
	Stderr string // tail of the transcoder diagnostics
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s to %s failed: %v: %s", e.Op, e.Output, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s to %s failed: %v", e.Op, e.Output, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// IsKnownError reports whether err belongs to the pipeline's error taxonomy
func IsKnownError(err error) bool {
	var transferErr *TransferError
	var transcodeErr *TranscodeError
	return errors.Is(err, ErrFormatNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.As(err, &transferErr) ||
		errors.As(err, &transcodeErr)
}
