package sprite

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnknownPool is returned for a PoolID or InstanceID that the Registry did not issue.
var ErrUnknownPool = errors.New("unknown sprite pool")

// Registry owns every batch of a renderer. PoolIDs are indices into the batch list and stay valid until Release.
type Registry struct {
	batches []*Batch
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add takes ownership of batch and returns its PoolID.
func (r *Registry) Add(batch *Batch) PoolID {
	r.batches = append(r.batches, batch)
	return PoolID(len(r.batches) - 1)
}

// Batch returns the batch registered under id.
//
// Parameters:
//   - id: the pool ID
//
// Returns:
//   - *Batch: the batch
//   - error: ErrUnknownPool if id was not issued by this registry
func (r *Registry) Batch(id PoolID) (*Batch, error) {
	if id < 0 || int(id) >= len(r.batches) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPool, id)
	}
	return r.batches[id], nil
}

// Spawn spawns an instance in the pool of batch id.
//
// Parameters:
//   - id: the pool ID
//   - position: world position
//   - rotation: orientation
//   - scale: uniform scale
//
// Returns:
//   - InstanceID: the handle of the new instance
//   - error: ErrUnknownPool or ErrPoolExhausted
func (r *Registry) Spawn(id PoolID, position mgl32.Vec3, rotation mgl32.Quat, scale float32) (InstanceID, error) {
	b, err := r.Batch(id)
	if err != nil {
		return InstanceID{}, err
	}
	slot, err := b.pool.Spawn(position, rotation, scale)
	if err != nil {
		return InstanceID{}, err
	}
	return InstanceID{Pool: id, Slot: slot}, nil
}

// Instance returns the mutable mirror of a spawned instance.
//
// Parameters:
//   - id: the instance handle
//
// Returns:
//   - *ObjectInstance: the mirror, valid for the lifetime of the registry
//   - error: ErrUnknownPool if the handle does not address a spawned instance
func (r *Registry) Instance(id InstanceID) (*ObjectInstance, error) {
	b, err := r.Batch(id.Pool)
	if err != nil {
		return nil, err
	}
	inst := b.pool.Instance(id.Slot)
	if inst == nil {
		return nil, fmt.Errorf("%w: instance %s was never spawned", ErrUnknownPool, id)
	}
	return inst, nil
}

// Batches returns the batches in PoolID order. The slice must not be modified.
func (r *Registry) Batches() []*Batch {
	return r.batches
}

func (r *Registry) Len() int {
	return len(r.batches)
}

// Release frees every batch and empties the registry.
func (r *Registry) Release() {
	for _, b := range r.batches {
		b.Release()
	}
	r.batches = nil
}
