package compute

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Readback is the result handle of one Dispatch. It is valid until ReadAndRelease succeeds, the map fails, or the job
// is released; after that every method reports ErrStaleHandle.
type Readback[T any] struct {
	job        *Job[T]
	generation uint64

	once     sync.Once
	err      error
	done     chan error
	finished chan struct{}
}

// finish records the map outcome and delivers it once on done.
func (rb *Readback[T]) finish(err error) {
	rb.once.Do(func() {
		rb.err = err
		rb.done <- err
		close(rb.finished)
	})
}

// current reports whether rb is the job's outstanding readback. Must be called with the job locked.
func (rb *Readback[T]) current() bool {
	j := rb.job
	return !j.released && j.inFlight == rb && j.generation == rb.generation
}

// RequestMap asks the device to map the staging buffer. Completion is driven by Poll or Wait.
//
// Returns:
//   - error: ErrStaleHandle, ErrInvalidState if already requested, or ErrMapFailed if the request could not be issued
func (rb *Readback[T]) RequestMap() error {
	j := rb.job
	j.mu.Lock()
	if !rb.current() {
		j.mu.Unlock()
		return &Error{Kind: ErrorKindStaleHandle, Op: "request map"}
	}
	if j.state != StateDispatched {
		state := j.state
		j.mu.Unlock()
		return &Error{Kind: ErrorKindInvalidState, Op: "request map", Err: fmt.Errorf("job is %s", state)}
	}
	j.state = StateMapRequested
	staging, size := j.staging, j.size
	j.mu.Unlock()

	if err := staging.MapAsync(wgpu.MapModeRead, 0, size, rb.onMapped); err != nil {
		j.mu.Lock()
		if rb.current() && j.state == StateMapRequested {
			j.state = StateDispatched
		}
		j.mu.Unlock()
		return &Error{Kind: ErrorKindMapFailed, Op: "request map", Err: err}
	}
	return nil
}

func (rb *Readback[T]) onMapped(status wgpu.BufferMapAsyncStatus) {
	j := rb.job
	j.mu.Lock()
	defer j.mu.Unlock()
	if !rb.current() {
		return
	}
	if status == wgpu.BufferMapAsyncStatusSuccess {
		j.state = StateMapped
		rb.finish(nil)
		return
	}
	j.state = StateIdle
	j.inFlight = nil
	j.logger.Warn("compute readback map failed", "label", j.label, "status", status, "generation", rb.generation)
	rb.finish(&Error{Kind: ErrorKindMapFailed, Op: "map", Status: status})
}

// Done returns the channel the map outcome is delivered on, exactly once: nil on success or the *Error.
func (rb *Readback[T]) Done() <-chan error {
	return rb.done
}

// Poll drives the device without blocking.
//
// Returns:
//   - bool: true once the map outcome is known
func (rb *Readback[T]) Poll() bool {
	rb.job.device.Poll(gpu.PollNonBlocking)
	select {
	case <-rb.finished:
		return true
	default:
		return false
	}
}

// Wait blocks until the map outcome is known or ctx ends. RequestMap must have been called.
//
// Parameters:
//   - ctx: bounds the wait
//
// Returns:
//   - error: the map outcome, ctx.Err(), or ErrInvalidState if no map was requested
func (rb *Readback[T]) Wait(ctx context.Context) error {
	j := rb.job
	for {
		select {
		case <-rb.finished:
			return rb.err
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		j.mu.Lock()
		requested := rb.current() && j.state == StateMapRequested
		j.mu.Unlock()
		if !requested {
			select {
			case <-rb.finished:
				return rb.err
			default:
				return &Error{Kind: ErrorKindInvalidState, Op: "wait", Err: fmt.Errorf("no map requested")}
			}
		}
		j.device.Poll(gpu.PollWait)
	}
}

// ReadAndRelease decodes the mapped staging buffer, unmaps it and returns the job to idle.
//
// Parameters:
//   - decode: turns one element-sized chunk into a T, see LittleEndian
//
// Returns:
//   - []T: one value per job element
//   - error: the map failure, ErrNotMapped before the map completed, or ErrStaleHandle
func (rb *Readback[T]) ReadAndRelease(decode func([]byte) T) ([]T, error) {
	j := rb.job
	j.mu.Lock()
	defer j.mu.Unlock()
	if !rb.current() {
		select {
		case <-rb.finished:
			if rb.err != nil {
				return nil, rb.err
			}
		default:
		}
		return nil, &Error{Kind: ErrorKindStaleHandle, Op: "read"}
	}
	if j.state != StateMapped {
		return nil, &Error{Kind: ErrorKindNotMapped, Op: "read", Err: fmt.Errorf("job is %s", j.state)}
	}

	mapped := j.staging.MappedRange(0, j.size)
	if mapped == nil {
		return nil, &Error{Kind: ErrorKindNotMapped, Op: "read", Err: fmt.Errorf("staging buffer has no mapped range")}
	}
	j.state = StateConsumed
	out := make([]T, j.count)
	for i := range out {
		off := i * j.elemSize
		out[i] = decode(mapped[off : off+j.elemSize])
	}
	j.staging.Unmap()

	j.state = StateIdle
	j.inFlight = nil
	return out, nil
}
