package pipeline

import (
	"github.com/Carmen-Shannon/perspective/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithPipelineKey sets the key used for labels and error reporting.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - PipelineBuilderOption: a function that sets the pipeline key
func WithPipelineKey(key string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.pipelineKey = key
	}
}

// WithShaderSource sets the WGSL module the pipeline is compiled from.
//
// Parameters:
//   - source: WGSL source holding every entry point the pipeline uses
//
// Returns:
//   - PipelineBuilderOption: a function that sets the shader source
func WithShaderSource(source string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.source = source
	}
}

// WithVertexEntryPoint sets the vertex entry point, "vs_main" by default.
func WithVertexEntryPoint(name string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexEntry = name
	}
}

// WithFragmentEntryPoint sets the fragment entry point, "fs_main" by default.
func WithFragmentEntryPoint(name string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentEntry = name
	}
}

// WithComputeEntryPoint sets the compute entry point, "main" by default.
func WithComputeEntryPoint(name string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.computeEntry = name
	}
}

// WithShaderValidation runs the WGSL source through the naga front end before creating the pipeline.
//
// Parameters:
//   - enabled: true to validate
//
// Returns:
//   - PipelineBuilderOption: a function that toggles validation
func WithShaderValidation(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.validateShader = enabled
	}
}

// WithBindGroupLayouts sets the layouts the pipeline is created with, in group order.
//
// Parameters:
//   - layouts: the bind group layouts
//
// Returns:
//   - PipelineBuilderOption: a function that sets the layouts
func WithBindGroupLayouts(layouts ...gpu.BindGroupLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.layouts = append([]gpu.BindGroupLayout{}, layouts...)
	}
}

// WithVertexBuffers sets the vertex buffer layouts, one per vertex buffer slot.
//
// Parameters:
//   - buffers: the vertex buffer layouts
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex buffer layouts
func WithVertexBuffers(buffers ...wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexBuffers = buffers
	}
}

// WithColorFormat sets the color target format, normally the surface format.
func WithColorFormat(format wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.colorFormat = format
	}
}

// WithDepthFormat sets the depth attachment format. wgpu.TextureFormatUndefined disables depth.
func WithDepthFormat(format wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthFormat = format
	}
}

// WithDepthTestEnabled sets whether depth testing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth testing should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth test enabled state for this pipeline
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled sets whether depth writing is enabled for this pipeline.
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithBlendEnabled sets whether blending is enabled for this pipeline.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithBlendState sets the blend state for this pipeline.
//
// Parameters:
//   - blendState: the blend state to use for this pipeline (e.g., &wgpu.BlendState{Color: wgpu.BlendComponent{Operation: wgpu.BlendOperationAdd, SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha}, Alpha: wgpu.BlendComponent{Operation: wgpu.BlendOperationAdd, SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorZero}})
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend state for this pipeline
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
	}
}

// WithCullMode sets the face culling mode.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology.
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFrontFace sets the winding order of front faces.
func WithFrontFace(face wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = face
	}
}
