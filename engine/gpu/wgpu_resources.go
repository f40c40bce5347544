package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBuffer struct {
	buf   *wgpu.Buffer
	label string
	size  uint64
	usage wgpu.BufferUsage
}

func (b *wgpuBuffer) Label() string           { return b.label }
func (b *wgpuBuffer) Size() uint64            { return b.size }
func (b *wgpuBuffer) Usage() wgpu.BufferUsage { return b.usage }

func (b *wgpuBuffer) MapAsync(mode wgpu.MapMode, offset, size uint64, callback func(wgpu.BufferMapAsyncStatus)) error {
	err := b.buf.MapAsync(mode, offset, size, func(status wgpu.BufferMapAsyncStatus) {
		callback(status)
	})
	if err != nil {
		return fmt.Errorf("failed to map buffer %q: %w", b.label, err)
	}
	return nil
}

func (b *wgpuBuffer) MappedRange(offset, size uint64) []byte {
	return b.buf.GetMappedRange(uint(offset), uint(size))
}

func (b *wgpuBuffer) Unmap() {
	b.buf.Unmap()
}

func (b *wgpuBuffer) Release() {
	b.buf.Release()
}

type wgpuBindGroupLayout struct {
	layout  *wgpu.BindGroupLayout
	label   string
	entries []wgpu.BindGroupLayoutEntry
}

func (l *wgpuBindGroupLayout) Label() string                        { return l.label }
func (l *wgpuBindGroupLayout) Entries() []wgpu.BindGroupLayoutEntry { return l.entries }
func (l *wgpuBindGroupLayout) Release()                             { l.layout.Release() }

type wgpuBindGroup struct {
	group  *wgpu.BindGroup
	label  string
	layout *wgpuBindGroupLayout
}

func (g *wgpuBindGroup) Label() string           { return g.label }
func (g *wgpuBindGroup) Layout() BindGroupLayout { return g.layout }
func (g *wgpuBindGroup) Release()                { g.group.Release() }

type wgpuTexture struct {
	tex    *wgpu.Texture
	width  uint32
	height uint32
	format wgpu.TextureFormat
}

func (t *wgpuTexture) Width() uint32              { return t.width }
func (t *wgpuTexture) Height() uint32             { return t.height }
func (t *wgpuTexture) Format() wgpu.TextureFormat { return t.format }

func (t *wgpuTexture) CreateView() (TextureView, error) {
	v, err := t.tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuTextureView{view: v}, nil
}

func (t *wgpuTexture) Release() { t.tex.Release() }

type wgpuTextureView struct {
	view *wgpu.TextureView
}

func (v *wgpuTextureView) Release() { v.view.Release() }

type wgpuSampler struct {
	sampler *wgpu.Sampler
}

func (s *wgpuSampler) Release() { s.sampler.Release() }

type wgpuRenderPipeline struct {
	pipeline *wgpu.RenderPipeline
	label    string
	layouts  []BindGroupLayout
}

func (p *wgpuRenderPipeline) Label() string              { return p.label }
func (p *wgpuRenderPipeline) Layouts() []BindGroupLayout { return p.layouts }
func (p *wgpuRenderPipeline) Release()                   { p.pipeline.Release() }

type wgpuComputePipeline struct {
	pipeline *wgpu.ComputePipeline
	label    string
	layouts  []BindGroupLayout
}

func (p *wgpuComputePipeline) Label() string              { return p.label }
func (p *wgpuComputePipeline) Layouts() []BindGroupLayout { return p.layouts }
func (p *wgpuComputePipeline) Release()                   { p.pipeline.Release() }

type wgpuCommandBuffer struct {
	buffer *wgpu.CommandBuffer
}

func (c *wgpuCommandBuffer) Release() { c.buffer.Release() }

type wgpuEncoder struct {
	encoder *wgpu.CommandEncoder
}

func (e *wgpuEncoder) BeginRenderPass(desc *RenderPassDescriptor) RenderPass {
	color := wgpu.RenderPassColorAttachment{
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: desc.ClearColor,
	}
	if v, ok := desc.ColorView.(*wgpuTextureView); ok {
		color.View = v.view
	}
	rp := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
	}
	if v, ok := desc.DepthView.(*wgpuTextureView); ok && v != nil {
		rp.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            v.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		}
	}
	return &wgpuRenderPass{pass: e.encoder.BeginRenderPass(rp)}
}

func (e *wgpuEncoder) BeginComputePass(label string) ComputePass {
	return &wgpuComputePass{pass: e.encoder.BeginComputePass(nil)}
}

func (e *wgpuEncoder) CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64) {
	s, sok := src.(*wgpuBuffer)
	t, tok := dst.(*wgpuBuffer)
	if !sok || !tok {
		return
	}
	e.encoder.CopyBufferToBuffer(s.buf, srcOffset, t.buf, dstOffset, size)
}

func (e *wgpuEncoder) Finish() (CommandBuffer, error) {
	cb, err := e.encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuCommandBuffer{buffer: cb}, nil
}

func (e *wgpuEncoder) Release() { e.encoder.Release() }

type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *wgpuRenderPass) SetPipeline(rp RenderPipeline) {
	if wp, ok := rp.(*wgpuRenderPipeline); ok {
		p.pass.SetPipeline(wp.pipeline)
	}
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, g BindGroup) {
	if wg, ok := g.(*wgpuBindGroup); ok {
		p.pass.SetBindGroup(index, wg.group, nil)
	}
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, b Buffer) {
	if wb, ok := b.(*wgpuBuffer); ok {
		p.pass.SetVertexBuffer(slot, wb.buf, 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) SetIndexBuffer(b Buffer, format wgpu.IndexFormat) {
	if wb, ok := b.(*wgpuBuffer); ok {
		p.pass.SetIndexBuffer(wb.buf, format, 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *wgpuRenderPass) End() {
	p.pass.End()
}

type wgpuComputePass struct {
	pass *wgpu.ComputePassEncoder
}

func (p *wgpuComputePass) SetPipeline(cp ComputePipeline) {
	if wp, ok := cp.(*wgpuComputePipeline); ok {
		p.pass.SetPipeline(wp.pipeline)
	}
}

func (p *wgpuComputePass) SetBindGroup(index uint32, g BindGroup) {
	if wg, ok := g.(*wgpuBindGroup); ok {
		p.pass.SetBindGroup(index, wg.group, nil)
	}
}

func (p *wgpuComputePass) DispatchWorkgroups(x, y, z uint32) {
	p.pass.DispatchWorkgroups(x, y, z)
}

func (p *wgpuComputePass) End() {
	p.pass.End()
}
