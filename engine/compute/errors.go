package compute

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrorKind classifies readback failures.
type ErrorKind int

const (
	// ErrorKindNotMapped is returned when the staging buffer is read before its map completed.
	ErrorKindNotMapped ErrorKind = iota

	// ErrorKindReadbackInFlight is returned when a dispatch is issued while a readback is outstanding.
	ErrorKindReadbackInFlight

	// ErrorKindMapFailed is delivered when the map request could not be issued or completed with a failure status.
	ErrorKindMapFailed

	// ErrorKindStaleHandle is returned when a Readback from an earlier dispatch is used.
	ErrorKindStaleHandle

	// ErrorKindInvalidState is returned for an operation the job cannot perform in its current state.
	ErrorKindInvalidState
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNotMapped:
		return "not mapped"
	case ErrorKindReadbackInFlight:
		return "readback in flight"
	case ErrorKindMapFailed:
		return "map failed"
	case ErrorKindStaleHandle:
		return "stale handle"
	case ErrorKindInvalidState:
		return "invalid state"
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrNotMapped        = &Error{Kind: ErrorKindNotMapped}
	ErrReadbackInFlight = &Error{Kind: ErrorKindReadbackInFlight}
	ErrMapFailed        = &Error{Kind: ErrorKindMapFailed}
	ErrStaleHandle      = &Error{Kind: ErrorKindStaleHandle}
	ErrInvalidState     = &Error{Kind: ErrorKindInvalidState}
)

// Error is a readback failure.
type Error struct {
	Kind ErrorKind
	// Op is the operation that failed.
	Op string
	// Status is the map completion status, set for ErrorKindMapFailed reported by the device.
	Status wgpu.BufferMapAsyncStatus
	Err    error
}

func (e *Error) Error() string {
	msg := "compute " + e.Op + ": " + e.Kind.String()
	if e.Kind == ErrorKindMapFailed && e.Status != wgpu.BufferMapAsyncStatusSuccess {
		msg += fmt.Sprintf(" (status %v)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error target of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
