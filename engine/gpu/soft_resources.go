package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type mapState int

const (
	mapStateUnmapped mapState = iota
	mapStatePending
	mapStateMapped
)

type softBuffer struct {
	device *SoftDevice
	label  string
	usage  wgpu.BufferUsage
	data   []byte

	mapState    mapState
	mapCallback func(wgpu.BufferMapAsyncStatus)
	released    bool
}

var _ Buffer = &softBuffer{}

func (b *softBuffer) Label() string           { return b.label }
func (b *softBuffer) Size() uint64            { return uint64(len(b.data)) }
func (b *softBuffer) Usage() wgpu.BufferUsage { return b.usage }

func (b *softBuffer) MapAsync(mode wgpu.MapMode, offset, size uint64, callback func(wgpu.BufferMapAsyncStatus)) error {
	d := b.device
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case b.released:
		return fmt.Errorf("map of released buffer %q", b.label)
	case mode == wgpu.MapModeRead && b.usage&wgpu.BufferUsageMapRead == 0:
		return fmt.Errorf("buffer %q was not created with MapRead usage", b.label)
	case b.mapState != mapStateUnmapped:
		return fmt.Errorf("buffer %q is already mapped or has a pending map", b.label)
	case offset%8 != 0 || size%4 != 0:
		return fmt.Errorf("map range %d+%d of buffer %q is misaligned", offset, size, b.label)
	case offset+size > uint64(len(b.data)):
		return fmt.Errorf("map range %d+%d exceeds buffer %q of %d bytes", offset, size, b.label, len(b.data))
	case d.rejectNextMap != nil:
		err := d.rejectNextMap
		d.rejectNextMap = nil
		return fmt.Errorf("failed to map buffer %q: %w", b.label, err)
	}
	b.mapState = mapStatePending
	b.mapCallback = callback
	d.pendingMaps = append(d.pendingMaps, b)
	return nil
}

func (b *softBuffer) MappedRange(offset, size uint64) []byte {
	d := b.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if b.mapState != mapStateMapped || offset+size > uint64(len(b.data)) {
		return nil
	}
	return b.data[offset : offset+size]
}

func (b *softBuffer) Unmap() {
	d := b.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if b.mapState == mapStateMapped {
		b.mapState = mapStateUnmapped
	}
}

func (b *softBuffer) Release() {
	d := b.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	d.liveBuffers--
}

type softBindGroupLayout struct {
	label   string
	entries []wgpu.BindGroupLayoutEntry
}

func (l *softBindGroupLayout) Label() string                        { return l.label }
func (l *softBindGroupLayout) Entries() []wgpu.BindGroupLayoutEntry { return l.entries }
func (l *softBindGroupLayout) Release()                             {}

type softBindGroup struct {
	label   string
	layout  *softBindGroupLayout
	entries map[uint32]BindGroupEntry
}

func (g *softBindGroup) Label() string           { return g.label }
func (g *softBindGroup) Layout() BindGroupLayout { return g.layout }
func (g *softBindGroup) Release()                {}

type softTexture struct {
	device   *SoftDevice
	width    uint32
	height   uint32
	format   wgpu.TextureFormat
	pixels   []byte
	released bool
}

func (t *softTexture) Width() uint32              { return t.width }
func (t *softTexture) Height() uint32             { return t.height }
func (t *softTexture) Format() wgpu.TextureFormat { return t.format }

func (t *softTexture) CreateView() (TextureView, error) {
	return &softTextureView{texture: t}, nil
}

func (t *softTexture) Release() {
	t.device.mu.Lock()
	defer t.device.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	t.device.liveTextures--
}

type softTextureView struct {
	texture *softTexture
}

func (v *softTextureView) Release() {}

type softSampler struct{}

func (s *softSampler) Release() {}

type softRenderPipeline struct {
	label   string
	layouts []BindGroupLayout
}

func (p *softRenderPipeline) Label() string              { return p.label }
func (p *softRenderPipeline) Layouts() []BindGroupLayout { return p.layouts }
func (p *softRenderPipeline) Release()                   {}

type softComputePipeline struct {
	label   string
	kernel  Kernel
	layouts []BindGroupLayout
}

func (p *softComputePipeline) Label() string              { return p.label }
func (p *softComputePipeline) Layouts() []BindGroupLayout { return p.layouts }
func (p *softComputePipeline) Release()                   {}

// softCommand is a recorded command executed at Submit with the device lock held.
type softCommand interface {
	execute(d *SoftDevice) error
}

type softCommandBuffer struct {
	label     string
	commands  []softCommand
	submitted bool
}

func (c *softCommandBuffer) Release() {}

type softEncoder struct {
	label    string
	commands []softCommand
	open     bool
	finished bool
}

func (e *softEncoder) BeginRenderPass(desc *RenderPassDescriptor) RenderPass {
	p := &softRenderPass{encoder: e, bindGroups: map[uint32]BindGroup{}, vertexBuffers: map[uint32]Buffer{}}
	if desc != nil {
		p.label = desc.Label
	}
	e.open = true
	return p
}

func (e *softEncoder) BeginComputePass(label string) ComputePass {
	e.open = true
	return &softComputePass{encoder: e, label: label, bindGroups: map[uint32]BindGroup{}}
}

func (e *softEncoder) CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64) {
	s, _ := src.(*softBuffer)
	t, _ := dst.(*softBuffer)
	e.commands = append(e.commands, &copyCommand{src: s, srcOffset: srcOffset, dst: t, dstOffset: dstOffset, size: size})
}

func (e *softEncoder) Finish() (CommandBuffer, error) {
	if e.open {
		return nil, fmt.Errorf("encoder %q finished with an open pass", e.label)
	}
	if e.finished {
		return nil, fmt.Errorf("encoder %q already finished", e.label)
	}
	e.finished = true
	return &softCommandBuffer{label: e.label, commands: e.commands}, nil
}

func (e *softEncoder) Release() {}

type softRenderPass struct {
	encoder       *softEncoder
	label         string
	pipeline      RenderPipeline
	bindGroups    map[uint32]BindGroup
	vertexBuffers map[uint32]Buffer
	indexBuffer   Buffer
	draws         []DrawRecord
}

func (p *softRenderPass) SetPipeline(rp RenderPipeline)               { p.pipeline = rp }
func (p *softRenderPass) SetBindGroup(index uint32, g BindGroup)      { p.bindGroups[index] = g }
func (p *softRenderPass) SetVertexBuffer(slot uint32, b Buffer)       { p.vertexBuffers[slot] = b }
func (p *softRenderPass) SetIndexBuffer(b Buffer, _ wgpu.IndexFormat) { p.indexBuffer = b }

func (p *softRenderPass) DrawIndexed(indexCount, instanceCount uint32) {
	rec := DrawRecord{
		Pass:          p.label,
		BindGroups:    make(map[uint32]BindGroup, len(p.bindGroups)),
		VertexBuffers: make(map[uint32]Buffer, len(p.vertexBuffers)),
		IndexBuffer:   p.indexBuffer,
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
	}
	if p.pipeline != nil {
		rec.Pipeline = p.pipeline.Label()
	}
	for k, v := range p.bindGroups {
		rec.BindGroups[k] = v
	}
	for k, v := range p.vertexBuffers {
		rec.VertexBuffers[k] = v
	}
	p.draws = append(p.draws, rec)
}

func (p *softRenderPass) End() {
	p.encoder.open = false
	p.encoder.commands = append(p.encoder.commands, &renderPassCommand{draws: p.draws})
}

type softComputePass struct {
	encoder    *softEncoder
	label      string
	pipeline   *softComputePipeline
	bindGroups map[uint32]BindGroup
	dispatches []*dispatchCommand
}

func (p *softComputePass) SetPipeline(cp ComputePipeline) {
	p.pipeline, _ = cp.(*softComputePipeline)
}

func (p *softComputePass) SetBindGroup(index uint32, g BindGroup) { p.bindGroups[index] = g }

func (p *softComputePass) DispatchWorkgroups(x, y, z uint32) {
	groups := make(map[uint32]BindGroup, len(p.bindGroups))
	for k, v := range p.bindGroups {
		groups[k] = v
	}
	p.dispatches = append(p.dispatches, &dispatchCommand{pipeline: p.pipeline, groups: groups, workgroups: [3]uint32{x, y, z}})
}

func (p *softComputePass) End() {
	p.encoder.open = false
	for _, d := range p.dispatches {
		p.encoder.commands = append(p.encoder.commands, d)
	}
}

type copyCommand struct {
	src, dst             *softBuffer
	srcOffset, dstOffset uint64
	size                 uint64
}

func (c *copyCommand) execute(d *SoftDevice) error {
	if err := d.bufferUseCheck(c.src, "copy source"); err != nil {
		return err
	}
	if err := d.bufferUseCheck(c.dst, "copy destination"); err != nil {
		return err
	}
	if c.src.usage&wgpu.BufferUsageCopySrc == 0 || c.dst.usage&wgpu.BufferUsageCopyDst == 0 {
		return fmt.Errorf("copy %q -> %q needs CopySrc and CopyDst usages", c.src.label, c.dst.label)
	}
	if c.srcOffset%4 != 0 || c.dstOffset%4 != 0 || c.size%4 != 0 {
		return fmt.Errorf("copy %q -> %q is not 4 byte aligned (offsets %d, %d, size %d)", c.src.label, c.dst.label, c.srcOffset, c.dstOffset, c.size)
	}
	if c.srcOffset+c.size > uint64(len(c.src.data)) || c.dstOffset+c.size > uint64(len(c.dst.data)) {
		return fmt.Errorf("copy %q -> %q of %d bytes is out of range", c.src.label, c.dst.label, c.size)
	}
	copy(c.dst.data[c.dstOffset:c.dstOffset+c.size], c.src.data[c.srcOffset:c.srcOffset+c.size])
	return nil
}

type dispatchCommand struct {
	pipeline   *softComputePipeline
	groups     map[uint32]BindGroup
	workgroups [3]uint32
}

func (c *dispatchCommand) execute(d *SoftDevice) error {
	if c.pipeline == nil {
		return fmt.Errorf("dispatch without a compute pipeline")
	}
	buffers := make(map[uint32]map[uint32][]byte, len(c.groups))
	for gi, g := range c.groups {
		sg, ok := g.(*softBindGroup)
		if !ok {
			return fmt.Errorf("dispatch: bind group %d not owned by this device", gi)
		}
		buffers[gi] = make(map[uint32][]byte)
		for bi, e := range sg.entries {
			sb, ok := e.Buffer.(*softBuffer)
			if !ok || sb == nil {
				continue
			}
			if err := d.bufferUseCheck(sb, "dispatch"); err != nil {
				return err
			}
			buffers[gi][bi] = sb.data
		}
	}
	c.pipeline.kernel(c.workgroups, buffers)
	return nil
}

type renderPassCommand struct {
	draws []DrawRecord
}

func (c *renderPassCommand) execute(d *SoftDevice) error {
	for _, rec := range c.draws {
		rec.VertexData = make(map[uint32][]byte, len(rec.VertexBuffers))
		for slot, b := range rec.VertexBuffers {
			sb, ok := b.(*softBuffer)
			if !ok {
				return fmt.Errorf("draw: vertex buffer %d not owned by this device", slot)
			}
			if err := d.bufferUseCheck(sb, "draw"); err != nil {
				return err
			}
			rec.VertexData[slot] = append([]byte(nil), sb.data...)
		}
		d.draws = append(d.draws, rec)
	}
	return nil
}
