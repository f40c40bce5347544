package sprite

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrPoolExhausted is returned by Spawn once every slot of a pool has been handed out.
var ErrPoolExhausted = errors.New("sprite pool exhausted")

// ObjectInstance is the CPU mirror of one instance slot. Fields may be mutated freely; changes reach the GPU on the
// next Sync.
type ObjectInstance struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    float32

	slot uint32
}

// Slot returns the fixed slot index of the instance.
func (o *ObjectInstance) Slot() uint32 {
	return o.slot
}

// GPU returns the instance as its 48-byte GPU record.
func (o *ObjectInstance) GPU() GPUInstance {
	return GPUInstance{
		Position: o.Position,
		Scale:    o.Scale,
		Rotation: [4]float32{o.Rotation.V[0], o.Rotation.V[1], o.Rotation.V[2], o.Rotation.W},
		Slot:     o.slot,
	}
}

// InstancePool is a fixed-capacity, append-only arena of sprite instances backed by one GPU vertex buffer.
// Slots are handed out by a monotonic counter and are never reused or compacted.
type InstancePool struct {
	label     string
	instances []ObjectInstance
	numSpawns int
	buffer    gpu.Buffer
}

// NewInstancePool allocates a zeroed instance buffer of exactly capacity records.
//
// Parameters:
//   - device: the device to allocate on
//   - label: label used for the buffer and in errors
//   - capacity: number of slots, must be positive
//
// Returns:
//   - *InstancePool: the pool
//   - error: error if capacity is not positive or the buffer could not be created
func NewInstancePool(device gpu.Device, label string, capacity int) (*InstancePool, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("sprite pool %q: capacity must be positive, got %d", label, capacity)
	}
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Instance Buffer",
		Size:  uint64(capacity) * GPUInstanceSize,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create instance buffer for sprite pool %q: %w", label, err)
	}
	instances := make([]ObjectInstance, capacity)
	for i := range instances {
		instances[i].slot = uint32(i)
	}
	return &InstancePool{
		label:     label,
		instances: instances,
		buffer:    buf,
	}, nil
}

// Spawn writes the next free slot and returns its index.
//
// Parameters:
//   - position: world position
//   - rotation: orientation
//   - scale: uniform scale
//
// Returns:
//   - uint32: the slot index
//   - error: ErrPoolExhausted when every slot is in use, the pool is left untouched
func (p *InstancePool) Spawn(position mgl32.Vec3, rotation mgl32.Quat, scale float32) (uint32, error) {
	if p.numSpawns == len(p.instances) {
		return 0, fmt.Errorf("%w: %q has capacity %d", ErrPoolExhausted, p.label, len(p.instances))
	}
	slot := p.numSpawns
	inst := &p.instances[slot]
	inst.Position = position
	inst.Rotation = rotation
	inst.Scale = scale
	p.numSpawns++
	return uint32(slot), nil
}

// Instance returns the mirror of a spawned slot, or nil if the slot has not been spawned.
func (p *InstancePool) Instance(slot uint32) *ObjectInstance {
	if int(slot) >= p.numSpawns {
		return nil
	}
	return &p.instances[slot]
}

// Marshal serializes the whole mirror, spawned or not, in slot order.
func (p *InstancePool) Marshal() []byte {
	buf := make([]byte, len(p.instances)*GPUInstanceSize)
	for i := range p.instances {
		g := p.instances[i].GPU()
		g.MarshalTo(buf[i*GPUInstanceSize:])
	}
	return buf
}

// Upload writes data, produced by Marshal, over the whole instance buffer.
func (p *InstancePool) Upload(device gpu.Device, data []byte) error {
	if err := device.WriteBuffer(p.buffer, 0, data); err != nil {
		return fmt.Errorf("failed to sync sprite pool %q: %w", p.label, err)
	}
	return nil
}

// Sync serializes the mirror and overwrites the instance buffer with it.
func (p *InstancePool) Sync(device gpu.Device) error {
	return p.Upload(device, p.Marshal())
}

func (p *InstancePool) Label() string      { return p.label }
func (p *InstancePool) NumSpawns() int     { return p.numSpawns }
func (p *InstancePool) Capacity() int      { return len(p.instances) }
func (p *InstancePool) Buffer() gpu.Buffer { return p.buffer }

// Release frees the instance buffer.
func (p *InstancePool) Release() {
	if p.buffer != nil {
		p.buffer.Release()
		p.buffer = nil
	}
}
