package renderer

import (
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bloom"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/color_correction"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/pipeline"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipelines registers the given pipelines once the GPU context exists.
//
// Parameters:
//   - pipelines: the Pipelines to register
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipelines option to a renderer
func WithPipelines(pipelines ...pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPipelines = append(r.pendingPipelines, pipelines...)
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithBloomOptions passes options through to the bloom stage.
//
// Parameters:
//   - options: the bloom options, such as bloom.WithLevels or bloom.WithSettings
//
// Returns:
//   - RendererBuilderOption: a function that applies the bloom options to a renderer
func WithBloomOptions(options ...bloom.BloomBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.bloomOptions = append(r.bloomOptions, options...)
	}
}

// WithColorCorrection sets the initial color correction parameters.
//
// Parameters:
//   - u: the initial brightness, contrast and saturation
//
// Returns:
//   - RendererBuilderOption: a function that applies the color correction option to a renderer
func WithColorCorrection(u color_correction.Uniform) RendererBuilderOption {
	return func(r *renderer) {
		r.correction = &u
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
