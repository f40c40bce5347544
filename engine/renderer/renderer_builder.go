package renderer

import (
	"github.com/Carmen-Shannon/perspective/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/perspective/engine/texture"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSize sets the initial surface size. Zero dimensions keep the 1280x720 default.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSize(width, height uint32) RendererBuilderOption {
	return func(r *renderer) {
		if width == 0 || height == 0 {
			return
		}
		r.width, r.height = width, height
	}
}

// WithClearColor sets the color the render pass clears to.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(c wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithWorkers sets the size of the worker pool used to serialize instance mirrors.
// Values below one are raised to one.
//
// Parameters:
//   - n: the number of workers
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker count option to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.workers = max(n, 1)
	}
}

// WithLogger sets the logger. Defaults to logger.Default().
func WithLogger(l *log.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = l
	}
}

// WithShaderValidation enables WGSL validation of the sprite shader before the pipeline is created.
func WithShaderValidation(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.shaderValidation = enabled
	}
}

// WithPipelineOptions appends options to the sprite pipeline builder, after the renderer's own.
// Use it to swap the shader or to override the pipeline state.
//
// Parameters:
//   - options: the pipeline builder options
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline options to a renderer
func WithPipelineOptions(options ...pipeline.PipelineBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.pipelineOptions = append(r.pipelineOptions, options...)
	}
}

// WithTextureOptions passes options to the texture registry.
func WithTextureOptions(options ...texture.RegistryOption) RendererBuilderOption {
	return func(r *renderer) {
		r.textureOptions = append(r.textureOptions, options...)
	}
}
