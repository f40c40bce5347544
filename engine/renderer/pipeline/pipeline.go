package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/Carmen-Shannon/perspective/engine/renderer/layout"
	"github.com/Carmen-Shannon/perspective/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

func (t PipelineType) String() string {
	if t == PipelineTypeRender {
		return "render"
	}
	return "compute"
}

// ShaderError reports WGSL source that the naga front end rejected.
type ShaderError struct {
	Pipeline string
	Err      error
}

func (e *ShaderError) Error() string {
	return fmt.Sprintf("pipeline %q: shader validation failed: %v", e.Pipeline, e.Err)
}

func (e *ShaderError) Unwrap() error {
	return e.Err
}

// pipeline is the implementation of the Pipeline interface.
// It holds the underlying GPU pipeline object of either kind and the layouts it was created with.
type pipeline struct {
	// pipelineType indicates the type of pipeline this is; compute or render
	pipelineType PipelineType
	// pipelineKey is the unique identifier for this pipeline, used for labels and lookups
	pipelineKey string

	source                                   string
	vertexEntry, fragmentEntry, computeEntry string
	validateShader                           bool

	layouts []gpu.BindGroupLayout

	// renderPipeline is the render pipeline if this is a render pipeline, nil otherwise
	renderPipeline gpu.RenderPipeline
	// computePipeline is the compute pipeline if this is a compute pipeline, nil otherwise
	computePipeline gpu.ComputePipeline

	// The following properties are used to configure render pipelines and can be toggled/set with the builder options.

	vertexBuffers     []wgpu.VertexBufferLayout
	colorFormat       wgpu.TextureFormat
	depthFormat       wgpu.TextureFormat
	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	blendState        *wgpu.BlendState
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
}

// Pipeline is a tagged variant over render and compute pipelines. Both kinds answer the same bind group layout lookup.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// BindGroupLayout returns the layout the pipeline expects at group.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - gpu.BindGroupLayout: the layout
	//   - error: error if the pipeline has no such group
	BindGroupLayout(group int) (gpu.BindGroupLayout, error)

	// BindGroupLayouts returns all layouts in group order.
	BindGroupLayouts() []gpu.BindGroupLayout

	// Render returns the render pipeline, nil for compute pipelines.
	Render() gpu.RenderPipeline

	// Compute returns the compute pipeline, nil for render pipelines.
	Compute() gpu.ComputePipeline

	// Release frees the GPU pipeline. Layouts are not owned by the pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

func newPipeline(t PipelineType, options ...PipelineBuilderOption) *pipeline {
	p := &pipeline{
		pipelineType:      t,
		pipelineKey:       "pipeline",
		vertexEntry:       "vs_main",
		fragmentEntry:     "fs_main",
		computeEntry:      "main",
		colorFormat:       wgpu.TextureFormatBGRA8UnormSrgb,
		depthFormat:       wgpu.TextureFormatDepth32Float,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blendEnabled:      true,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{Operation: wgpu.BlendOperationAdd, SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha},
			Alpha: wgpu.BlendComponent{Operation: wgpu.BlendOperationAdd, SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha},
		},
		cullMode:  wgpu.CullModeNone,
		topology:  wgpu.PrimitiveTopologyTriangleList,
		frontFace: wgpu.FrontFaceCCW,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// NewRenderPipeline builds a render pipeline against the layout set. Unless WithBindGroupLayouts overrides them the
// set's layouts are used; either way they must match the set exactly, in order.
//
// Parameters:
//   - device: the device to create the pipeline on
//   - set: the layout contract
//   - options: builder options
//
// Returns:
//   - Pipeline: the created pipeline
//   - error: a *layout.ConfigurationError on a layout or shader mismatch, a *ShaderError when validation rejects the
//     source, or the device error
func NewRenderPipeline(device gpu.Device, set *layout.Set, options ...PipelineBuilderOption) (Pipeline, error) {
	p := newPipeline(PipelineTypeRender, options...)
	if p.layouts == nil {
		p.layouts = set.Layouts()
	}
	if err := set.Validate(p.pipelineKey, p.layouts); err != nil {
		return nil, err
	}
	if err := p.checkShader(); err != nil {
		return nil, err
	}

	desc := &gpu.RenderPipelineDescriptor{
		Label:              p.pipelineKey,
		Source:             p.source,
		VertexEntryPoint:   p.vertexEntry,
		FragmentEntryPoint: p.fragmentEntry,
		Layouts:            p.layouts,
		VertexBuffers:      p.vertexBuffers,
		ColorFormat:        p.colorFormat,
		DepthFormat:        p.depthFormat,
		DepthWriteEnabled:  p.depthWriteEnabled,
		DepthCompare:       wgpu.CompareFunctionLess,
		Topology:           p.topology,
		FrontFace:          p.frontFace,
		CullMode:           p.cullMode,
	}
	if !p.depthTestEnabled {
		desc.DepthCompare = wgpu.CompareFunctionAlways
	}
	if p.blendEnabled {
		desc.Blend = p.blendState
	}
	rp, err := device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", p.pipelineKey, err)
	}
	p.renderPipeline = rp
	return p, nil
}

// NewComputePipeline builds a compute pipeline. Layouts are supplied with WithBindGroupLayouts.
//
// Parameters:
//   - device: the device to create the pipeline on
//   - options: builder options
//
// Returns:
//   - Pipeline: the created pipeline
//   - error: a *layout.ConfigurationError on a shader mismatch, a *ShaderError when validation rejects the source, or
//     the device error
func NewComputePipeline(device gpu.Device, options ...PipelineBuilderOption) (Pipeline, error) {
	p := newPipeline(PipelineTypeCompute, options...)
	if err := p.checkShader(); err != nil {
		return nil, err
	}
	cp, err := device.CreateComputePipeline(&gpu.ComputePipelineDescriptor{
		Label:      p.pipelineKey,
		Source:     p.source,
		EntryPoint: p.computeEntry,
		Layouts:    p.layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create compute pipeline %q: %w", p.pipelineKey, err)
	}
	p.computePipeline = cp
	return p, nil
}

// checkShader rejects shaders whose declared resources the pipeline's layouts do not provide, and optionally runs
// the WGSL front end over the source.
func (p *pipeline) checkShader() error {
	if p.source == "" {
		return &layout.ConfigurationError{Pipeline: p.pipelineKey, Group: -1, Reason: "no shader source"}
	}
	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	if p.pipelineType == PipelineTypeCompute {
		visibility = wgpu.ShaderStageCompute
	}
	entries := make([][]wgpu.BindGroupLayoutEntry, len(p.layouts))
	for i, l := range p.layouts {
		if l != nil {
			entries[i] = l.Entries()
		}
	}
	if err := shader.Reflect(p.source, visibility).Check(p.pipelineKey, entries); err != nil {
		return err
	}
	if p.validateShader {
		if _, err := naga.Compile(p.source); err != nil {
			return &ShaderError{Pipeline: p.pipelineKey, Err: err}
		}
	}
	return nil
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) BindGroupLayout(group int) (gpu.BindGroupLayout, error) {
	if group < 0 || group >= len(p.layouts) {
		return nil, fmt.Errorf("%s pipeline %q has no bind group %d", p.pipelineType, p.pipelineKey, group)
	}
	return p.layouts[group], nil
}

func (p *pipeline) BindGroupLayouts() []gpu.BindGroupLayout {
	out := make([]gpu.BindGroupLayout, len(p.layouts))
	copy(out, p.layouts)
	return out
}

func (p *pipeline) Render() gpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) Compute() gpu.ComputePipeline {
	return p.computePipeline
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
}
