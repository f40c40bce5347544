package gpu

import (
	"errors"
	"fmt"
	"strings"
)

// SurfaceErrorKind splits swapchain failures into those the renderer can recover from and those it cannot.
type SurfaceErrorKind int

const (
	// SurfaceRecoverable covers outdated, lost and timed out swapchains. The surface is reconfigured and the frame skipped.
	SurfaceRecoverable SurfaceErrorKind = iota

	// SurfaceFatal covers out of memory and device loss. The run loop must stop.
	SurfaceFatal
)

var (
	// ErrSurfaceRecoverable matches any recoverable *SurfaceError through errors.Is.
	ErrSurfaceRecoverable = errors.New("recoverable surface error")

	// ErrSurfaceFatal matches any fatal *SurfaceError through errors.Is.
	ErrSurfaceFatal = errors.New("fatal surface error")
)

// SurfaceError is returned by Surface.AcquireNextImage.
type SurfaceError struct {
	Kind SurfaceErrorKind
	Err  error
}

func (e *SurfaceError) Error() string {
	kind := "recoverable"
	if e.Kind == SurfaceFatal {
		kind = "fatal"
	}
	return fmt.Sprintf("%s surface error: %v", kind, e.Err)
}

func (e *SurfaceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels.
func (e *SurfaceError) Is(target error) bool {
	switch target {
	case ErrSurfaceRecoverable:
		return e.Kind == SurfaceRecoverable
	case ErrSurfaceFatal:
		return e.Kind == SurfaceFatal
	}
	return false
}

// ClassifySurfaceError wraps a raw swapchain acquisition error into a *SurfaceError.
// Out of memory and device loss are fatal, anything else (outdated, lost surface, timeout) is recoverable.
//
// Parameters:
//   - err: the error returned by the graphics API
//
// Returns:
//   - *SurfaceError: the classified error, nil if err is nil
func ClassifySurfaceError(err error) *SurfaceError {
	if err == nil {
		return nil
	}
	var se *SurfaceError
	if errors.As(err, &se) {
		return se
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "out of memory") || strings.Contains(msg, "outofmemory") || strings.Contains(msg, "device lost") || strings.Contains(msg, "devicelost") {
		return &SurfaceError{Kind: SurfaceFatal, Err: err}
	}
	return &SurfaceError{Kind: SurfaceRecoverable, Err: err}
}
