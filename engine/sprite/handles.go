package sprite

import "fmt"

// PoolID is the index of a batch in the Registry that created it.
type PoolID int

// InstanceID addresses one spawned instance. It is only meaningful for the Registry that issued it.
type InstanceID struct {
	Pool PoolID
	Slot uint32
}

func (id InstanceID) String() string {
	return fmt.Sprintf("%d:%d", id.Pool, id.Slot)
}
