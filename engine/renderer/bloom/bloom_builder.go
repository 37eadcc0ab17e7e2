package bloom

import "github.com/cogentcore/webgpu/wgpu"

// BloomBuilderOption is a functional option for configuring a Bloom.
type BloomBuilderOption func(*bloom)

// WithLevels sets the mip level count of the chains. Levels beyond CompositeSlotCount are
// computed but not composited.
//
// Parameters:
//   - levels: the level count, at least 1
//
// Returns:
//   - BloomBuilderOption: functional option to set the level count
func WithLevels(levels int) BloomBuilderOption {
	return func(b *bloom) {
		b.levels = levels
	}
}

// WithSettings sets the initial bloom settings.
//
// Parameters:
//   - s: the initial settings
//
// Returns:
//   - BloomBuilderOption: functional option to set the settings
func WithSettings(s Settings) BloomBuilderOption {
	return func(b *bloom) {
		b.settings = s
	}
}

// WithSampler shares a clamp-to-edge linear sampler owned by the caller for the composite reads.
// Without it the bloom creates and owns its own.
//
// Parameters:
//   - sampler: the sampler to use
//
// Returns:
//   - BloomBuilderOption: functional option to set the sampler
func WithSampler(sampler *wgpu.Sampler) BloomBuilderOption {
	return func(b *bloom) {
		b.sampler = sampler
	}
}
