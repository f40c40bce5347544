package sprite

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/Carmen-Shannon/perspective/engine/renderer/layout"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUInstanceSize(t *testing.T) {
	var g GPUInstance
	assert.Equal(t, GPUInstanceSize, g.Size())
	assert.Len(t, g.Marshal(), GPUInstanceSize)
}

func TestPoolRejectsNonPositiveCapacity(t *testing.T) {
	_, err := NewInstancePool(gpu.NewSoftDevice(), "p", 0)
	assert.Error(t, err)
}

func TestSpawnBeyondCapacityLeavesPoolUntouched(t *testing.T) {
	d := gpu.NewSoftDevice()
	p, err := NewInstancePool(d, "p", 2)
	require.NoError(t, err)

	_, err = p.Spawn(mgl32.Vec3{1, 2, 3}, mgl32.QuatIdent(), 1)
	require.NoError(t, err)
	_, err = p.Spawn(mgl32.Vec3{4, 5, 6}, mgl32.QuatIdent(), 2)
	require.NoError(t, err)
	before := p.Marshal()

	_, err = p.Spawn(mgl32.Vec3{7, 8, 9}, mgl32.QuatIdent(), 3)
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.Equal(t, 2, p.NumSpawns())
	assert.Equal(t, before, p.Marshal())
}

func TestSyncRoundTrip(t *testing.T) {
	d := gpu.NewSoftDevice()
	p, err := NewInstancePool(d, "p", 4)
	require.NoError(t, err)

	slot, err := p.Spawn(mgl32.Vec3{}, mgl32.QuatIdent(), 1)
	require.NoError(t, err)

	inst := p.Instance(slot)
	inst.Position = mgl32.Vec3{1.5, -2.25, 3}
	inst.Rotation = mgl32.QuatRotate(0.5, mgl32.Vec3{0, 0, 1})
	inst.Scale = 0.75
	require.NoError(t, p.Sync(d))

	data := d.ReadBuffer(p.Buffer())
	require.Len(t, data, 4*GPUInstanceSize)
	got := UnmarshalGPUInstance(data[slot*GPUInstanceSize:])
	assert.Equal(t, [3]float32(inst.Position), got.Position)
	assert.Equal(t, [4]float32{inst.Rotation.V[0], inst.Rotation.V[1], inst.Rotation.V[2], inst.Rotation.W}, got.Rotation)
	assert.Equal(t, inst.Scale, got.Scale)
	assert.Equal(t, slot, got.Slot)
}

func newTestBatch(t *testing.T, d gpu.Device, capacity int) *Batch {
	t.Helper()
	set, err := layout.NewSet(d)
	require.NoError(t, err)
	b, err := NewBatch(d, set, uuid.New(), NewPoolSettings(WithCapacity(capacity), WithLabel("test")))
	require.NoError(t, err)
	return b
}

func TestRegistryCapacityThreeScenario(t *testing.T) {
	d := gpu.NewSoftDevice()
	r := NewRegistry()
	id := r.Add(newTestBatch(t, d, 3))

	var ids []InstanceID
	for i := 0; i < 3; i++ {
		iid, err := r.Spawn(id, mgl32.Vec3{float32(i), 0, 0}, mgl32.QuatIdent(), 1)
		require.NoError(t, err)
		ids = append(ids, iid)
	}
	_, err := r.Spawn(id, mgl32.Vec3{3, 0, 0}, mgl32.QuatIdent(), 1)
	assert.ErrorIs(t, err, ErrPoolExhausted)

	inst, err := r.Instance(ids[1])
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, inst.Position)
	assert.Equal(t, uint32(1), inst.Slot())
}

func TestRegistryUnknownIDs(t *testing.T) {
	d := gpu.NewSoftDevice()
	r := NewRegistry()
	id := r.Add(newTestBatch(t, d, 2))

	_, err := r.Batch(id + 1)
	assert.True(t, errors.Is(err, ErrUnknownPool))
	_, err = r.Spawn(-1, mgl32.Vec3{}, mgl32.QuatIdent(), 1)
	assert.True(t, errors.Is(err, ErrUnknownPool))
	_, err = r.Instance(InstanceID{Pool: id, Slot: 0})
	assert.True(t, errors.Is(err, ErrUnknownPool))
}

func TestAdvanceAnimation(t *testing.T) {
	d := gpu.NewSoftDevice()
	b := newTestBatch(t, d, 1)

	b.AdvanceAnimation(50 * time.Millisecond)
	assert.Equal(t, uint32(0), b.Progress())
	b.AdvanceAnimation(50 * time.Millisecond)
	assert.Equal(t, uint32(1), b.Progress())
	b.AdvanceAnimation(140 * time.Millisecond)
	assert.Equal(t, uint32(3), b.Progress())

	require.NoError(t, b.SyncAnimation(d))
}

type lookup map[uuid.UUID]gpu.BindGroup

func (l lookup) TextureBindGroup(id uuid.UUID) (gpu.BindGroup, bool) {
	g, ok := l[id]
	return g, ok
}

func TestDrawWithoutSpawnsIsSilent(t *testing.T) {
	d := gpu.NewSoftDevice()
	b := newTestBatch(t, d, 1)
	assert.NoError(t, b.Draw(nil, lookup{}))
}

func TestReleaseFreesBuffers(t *testing.T) {
	d := gpu.NewSoftDevice()
	b := newTestBatch(t, d, 8)
	assert.Equal(t, 5, d.LiveBuffers())
	b.Release()
	assert.Equal(t, 0, d.LiveBuffers())
}

func TestQuadWinding(t *testing.T) {
	v := QuadVertices(2, [2]float32{0.5, 0.5})
	assert.Equal(t, float32(1), v[1].Position[0])
	assert.Equal(t, float32(0.5), v[2].UV[1])
	assert.Equal(t, []uint16{0, 3, 1, 1, 3, 2}, QuadIndices())
}
