package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// WriteBuffers queues every write on device in order. Writes whose provider has no buffer at the binding are an error.
//
// Parameters:
//   - device: the device owning the buffers
//   - writes: the writes to queue
//
// Returns:
//   - error: the first failed write
func WriteBuffers(device gpu.Device, writes []BufferWrite) error {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			return fmt.Errorf("%s: no buffer at binding %d", w.Provider.Label(), w.Binding)
		}
		if err := device.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			return fmt.Errorf("%s: failed to write binding %d: %w", w.Provider.Label(), w.Binding, err)
		}
	}
	return nil
}
