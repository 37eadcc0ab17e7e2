package color_correction

import "github.com/cogentcore/webgpu/wgpu"

// ColorCorrectionBuilderOption is a functional option for configuring a ColorCorrection.
type ColorCorrectionBuilderOption func(*colorCorrection)

// WithUniform sets the initial correction parameters.
//
// Parameters:
//   - u: the initial parameters
//
// Returns:
//   - ColorCorrectionBuilderOption: functional option to set the uniform
func WithUniform(u Uniform) ColorCorrectionBuilderOption {
	return func(c *colorCorrection) {
		c.uniform = u
	}
}

// WithSampler shares a filtering sampler owned by the caller. Without it the stage creates and
// owns a clamp-to-edge linear sampler.
//
// Parameters:
//   - sampler: the sampler to use
//
// Returns:
//   - ColorCorrectionBuilderOption: functional option to set the sampler
func WithSampler(sampler *wgpu.Sampler) ColorCorrectionBuilderOption {
	return func(c *colorCorrection) {
		c.sampler = sampler
	}
}
