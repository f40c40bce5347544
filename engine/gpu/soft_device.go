package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// Kernel is the CPU body of a compute entry point for the software device.
// Buffers is keyed by bind group index then binding index; the slices alias the bound buffers and may be mutated in place.
type Kernel func(workgroups [3]uint32, buffers map[uint32]map[uint32][]byte)

// DrawRecord is one DrawIndexed call executed by the software device, captured with the state bound at that point.
type DrawRecord struct {
	Pass          string
	Pipeline      string
	BindGroups    map[uint32]BindGroup
	VertexBuffers map[uint32]Buffer
	// VertexData is a snapshot of every bound vertex buffer's contents at execution time.
	VertexData    map[uint32][]byte
	IndexBuffer   Buffer
	IndexCount    uint32
	InstanceCount uint32
}

// SoftDevice is a Device that executes submissions on the CPU. Command buffers run in submission order inside Submit,
// compute dispatches call the Kernel registered for the pipeline's entry point, render passes are recorded as DrawRecords
// and map callbacks only fire from Poll.
type SoftDevice struct {
	mu *sync.Mutex

	kernels       map[string]Kernel
	pendingMaps   []*softBuffer
	failNextMap   *wgpu.BufferMapAsyncStatus
	rejectNextMap error

	draws            []DrawRecord
	validationErrors []error
	submissions      int
	liveTextures     int
	liveBuffers      int
	released         bool
}

var _ Device = &SoftDevice{}

// NewSoftDevice creates a software device.
//
// Parameters:
//   - options: functional options, see WithKernel
//
// Returns:
//   - *SoftDevice: the device
func NewSoftDevice(options ...SoftDeviceOption) *SoftDevice {
	d := &SoftDevice{
		mu:      &sync.Mutex{},
		kernels: make(map[string]Kernel),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// RegisterKernel makes a compute entry point available to CreateComputePipeline.
func (d *SoftDevice) RegisterKernel(entryPoint string, k Kernel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kernels[entryPoint] = k
}

// FailNextMap makes the next resolved map request complete with status instead of success.
func (d *SoftDevice) FailNextMap(status wgpu.BufferMapAsyncStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNextMap = &status
}

// RejectNextMap makes the next MapAsync call return err immediately, the way wgpu reports an invalid request.
func (d *SoftDevice) RejectNextMap(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rejectNextMap = err
}

// DrawRecords returns every draw executed since the last ResetDrawRecords.
func (d *SoftDevice) DrawRecords() []DrawRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DrawRecord, len(d.draws))
	copy(out, d.draws)
	return out
}

// ResetDrawRecords clears the recorded draw stream.
func (d *SoftDevice) ResetDrawRecords() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draws = nil
}

// ValidationErrors returns the misuse detected while executing submissions, in order.
func (d *SoftDevice) ValidationErrors() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]error, len(d.validationErrors))
	copy(out, d.validationErrors)
	return out
}

// Submissions returns the number of command buffers executed.
func (d *SoftDevice) Submissions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submissions
}

// LiveTextures returns the number of textures created and not yet released.
func (d *SoftDevice) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.liveTextures
}

// LiveBuffers returns the number of buffers created and not yet released.
func (d *SoftDevice) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.liveBuffers
}

// ReadBuffer returns a copy of a buffer's current GPU contents, bypassing the map protocol.
func (d *SoftDevice) ReadBuffer(buf Buffer) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	sb, ok := buf.(*softBuffer)
	if !ok {
		return nil
	}
	out := make([]byte, len(sb.data))
	copy(out, sb.data)
	return out
}

func (d *SoftDevice) CreateBuffer(desc *wgpu.BufferDescriptor) (Buffer, error) {
	if desc == nil {
		return nil, errors.New("buffer descriptor is nil")
	}
	if desc.Size == 0 {
		return nil, fmt.Errorf("buffer %q has zero size", desc.Label)
	}
	if desc.Usage&wgpu.BufferUsageMapRead != 0 && desc.Usage&^(wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst) != 0 {
		return nil, fmt.Errorf("buffer %q: MapRead may only be combined with CopyDst", desc.Label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.liveBuffers++
	return &softBuffer{
		device: d,
		label:  desc.Label,
		usage:  desc.Usage,
		data:   make([]byte, desc.Size),
	}, nil
}

func (d *SoftDevice) CreateBufferInit(label string, usage wgpu.BufferUsage, contents []byte) (Buffer, error) {
	size := (uint64(len(contents)) + 3) &^ 3
	if size == 0 {
		size = 4
	}
	buf, err := d.CreateBuffer(&wgpu.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, err
	}
	copy(buf.(*softBuffer).data, contents)
	return buf, nil
}

func (d *SoftDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	sb, ok := buf.(*softBuffer)
	if !ok || sb == nil {
		return errors.New("write to a buffer not owned by this device")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case sb.released:
		return fmt.Errorf("write to released buffer %q", sb.label)
	case sb.usage&wgpu.BufferUsageCopyDst == 0:
		return fmt.Errorf("write to buffer %q without CopyDst usage", sb.label)
	case sb.mapState != mapStateUnmapped:
		return fmt.Errorf("write to buffer %q while it is mapped", sb.label)
	case offset%4 != 0 || len(data)%4 != 0:
		return fmt.Errorf("write to buffer %q is not 4 byte aligned (offset %d, size %d)", sb.label, offset, len(data))
	case offset+uint64(len(data)) > uint64(len(sb.data)):
		return fmt.Errorf("write of %d bytes at %d overruns buffer %q of %d bytes", len(data), offset, sb.label, len(sb.data))
	}
	copy(sb.data[offset:], data)
	return nil
}

func (d *SoftDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	if desc == nil {
		return nil, errors.New("bind group layout descriptor is nil")
	}
	seen := make(map[uint32]bool, len(desc.Entries))
	for _, e := range desc.Entries {
		if seen[e.Binding] {
			return nil, fmt.Errorf("bind group layout %q declares binding %d twice", desc.Label, e.Binding)
		}
		seen[e.Binding] = true
	}
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	copy(entries, desc.Entries)
	return &softBindGroupLayout{label: desc.Label, entries: entries}, nil
}

func (d *SoftDevice) CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error) {
	if desc == nil || desc.Layout == nil {
		return nil, errors.New("bind group descriptor has no layout")
	}
	layout, ok := desc.Layout.(*softBindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("bind group %q: layout not owned by this device", desc.Label)
	}
	if len(desc.Entries) != len(layout.entries) {
		return nil, fmt.Errorf("bind group %q has %d entries, layout %q expects %d", desc.Label, len(desc.Entries), layout.label, len(layout.entries))
	}
	entries := make(map[uint32]BindGroupEntry, len(desc.Entries))
	for _, e := range desc.Entries {
		entries[e.Binding] = e
	}
	for _, le := range layout.entries {
		e, ok := entries[le.Binding]
		if !ok {
			return nil, fmt.Errorf("bind group %q is missing binding %d", desc.Label, le.Binding)
		}
		switch {
		case le.Buffer.Type != wgpu.BufferBindingTypeUndefined:
			sb, ok := e.Buffer.(*softBuffer)
			if !ok || sb == nil {
				return nil, fmt.Errorf("bind group %q binding %d expects a buffer", desc.Label, le.Binding)
			}
			want := wgpu.BufferUsageUniform
			if le.Buffer.Type != wgpu.BufferBindingTypeUniform {
				want = wgpu.BufferUsageStorage
			}
			if sb.usage&want == 0 {
				return nil, fmt.Errorf("bind group %q binding %d: buffer %q lacks the required usage", desc.Label, le.Binding, sb.label)
			}
		case le.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			if e.TextureView == nil {
				return nil, fmt.Errorf("bind group %q binding %d expects a texture view", desc.Label, le.Binding)
			}
		case le.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			if e.Sampler == nil {
				return nil, fmt.Errorf("bind group %q binding %d expects a sampler", desc.Label, le.Binding)
			}
		}
	}
	return &softBindGroup{label: desc.Label, layout: layout, entries: entries}, nil
}

func (d *SoftDevice) CreateTexture(desc *TextureDescriptor) (Texture, error) {
	if desc == nil || desc.Width == 0 || desc.Height == 0 {
		return nil, errors.New("texture must have non-zero dimensions")
	}
	t := &softTexture{device: d, width: desc.Width, height: desc.Height, format: desc.Format}
	if len(desc.Pixels) > 0 {
		if len(desc.Pixels) != int(desc.Width*desc.Height*4) {
			return nil, fmt.Errorf("texture %q: %d bytes of pixels for %dx%d", desc.Label, len(desc.Pixels), desc.Width, desc.Height)
		}
		t.pixels = append([]byte(nil), desc.Pixels...)
	}
	d.mu.Lock()
	d.liveTextures++
	d.mu.Unlock()
	return t, nil
}

func (d *SoftDevice) CreateSampler(desc *wgpu.SamplerDescriptor) (Sampler, error) {
	return &softSampler{}, nil
}

func (d *SoftDevice) CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error) {
	if desc == nil {
		return nil, errors.New("render pipeline descriptor is nil")
	}
	if desc.Source == "" || desc.VertexEntryPoint == "" || desc.FragmentEntryPoint == "" {
		return nil, fmt.Errorf("render pipeline %q needs a shader source with vertex and fragment entry points", desc.Label)
	}
	for i, l := range desc.Layouts {
		if l == nil {
			return nil, fmt.Errorf("render pipeline %q: bind group layout %d is nil", desc.Label, i)
		}
	}
	return &softRenderPipeline{label: desc.Label, layouts: append([]BindGroupLayout(nil), desc.Layouts...)}, nil
}

func (d *SoftDevice) CreateComputePipeline(desc *ComputePipelineDescriptor) (ComputePipeline, error) {
	if desc == nil {
		return nil, errors.New("compute pipeline descriptor is nil")
	}
	d.mu.Lock()
	k, ok := d.kernels[desc.EntryPoint]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("compute pipeline %q: no kernel registered for entry point %q", desc.Label, desc.EntryPoint)
	}
	return &softComputePipeline{label: desc.Label, kernel: k, layouts: append([]BindGroupLayout(nil), desc.Layouts...)}, nil
}

func (d *SoftDevice) CreateCommandEncoder(label string) (CommandEncoder, error) {
	return &softEncoder{label: label}, nil
}

func (d *SoftDevice) Submit(buffers ...CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cb := range buffers {
		scb, ok := cb.(*softCommandBuffer)
		if !ok || scb == nil {
			d.validationErrors = append(d.validationErrors, errors.New("submitted a command buffer not owned by this device"))
			continue
		}
		if scb.submitted {
			d.validationErrors = append(d.validationErrors, fmt.Errorf("command buffer %q submitted twice", scb.label))
			continue
		}
		scb.submitted = true
		for _, cmd := range scb.commands {
			if err := cmd.execute(d); err != nil {
				d.validationErrors = append(d.validationErrors, err)
			}
		}
		d.submissions++
	}
}

func (d *SoftDevice) Poll(mode PollMode) {
	d.mu.Lock()
	pending := d.pendingMaps
	d.pendingMaps = nil
	type completion struct {
		cb     func(wgpu.BufferMapAsyncStatus)
		status wgpu.BufferMapAsyncStatus
	}
	done := make([]completion, 0, len(pending))
	for _, b := range pending {
		status := wgpu.BufferMapAsyncStatusSuccess
		if d.failNextMap != nil {
			status = *d.failNextMap
			d.failNextMap = nil
		}
		if status == wgpu.BufferMapAsyncStatusSuccess {
			b.mapState = mapStateMapped
		} else {
			b.mapState = mapStateUnmapped
		}
		cb := b.mapCallback
		b.mapCallback = nil
		done = append(done, completion{cb: cb, status: status})
	}
	d.mu.Unlock()

	for _, c := range done {
		if c.cb != nil {
			c.cb(c.status)
		}
	}
}

func (d *SoftDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

// bufferUseCheck reports whether a buffer may be referenced by an executing command.
// Must be called with d.mu held.
func (d *SoftDevice) bufferUseCheck(b *softBuffer, what string) error {
	if b == nil {
		return fmt.Errorf("%s: nil buffer", what)
	}
	if b.released {
		return fmt.Errorf("%s: buffer %q was released", what, b.label)
	}
	if b.mapState != mapStateUnmapped {
		return fmt.Errorf("%s: buffer %q is mapped or has a pending map", what, b.label)
	}
	return nil
}
