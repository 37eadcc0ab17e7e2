package bloom

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrInvalidLevels is returned when a mip chain is requested with fewer than one level.
	ErrInvalidLevels = errors.New("bloom: mip level count must be at least 1")

	// ErrInvalidExtent is returned when the render resolution has a zero width or height.
	ErrInvalidExtent = errors.New("bloom: width and height must be at least 1")
)

// chainFormat is the format of every mip chain texture.
const chainFormat = wgpu.TextureFormatRGBA32Float

// Extent is the size of one mip level in texels.
type Extent struct {
	Width  uint32
	Height uint32
}

// HalfExtent returns the level 0 size of the chains for a full render resolution. The chains
// run at half resolution, using integer division.
//
// Parameters:
//   - width, height: the full render resolution
//
// Returns:
//   - Extent: the unclamped half resolution
func HalfExtent(width, height uint32) Extent {
	return Extent{Width: width / 2, Height: height / 2}
}

// MipExtent returns the size of a mip level below base, clamped to at least 1x1.
//
// Parameters:
//   - base: the level 0 size, which may be zero in either dimension
//   - level: the mip level
//
// Returns:
//   - Extent: max(1, base >> level) in each dimension
func MipExtent(base Extent, level int) Extent {
	return Extent{
		Width:  max(1, base.Width>>level),
		Height: max(1, base.Height>>level),
	}
}

// ChainExtents returns the size of every level of a chain for a full render resolution.
//
// Parameters:
//   - width, height: the full render resolution, both at least 1
//   - levels: the number of mip levels, at least 1
//
// Returns:
//   - []Extent: one extent per level
//   - error: ErrInvalidExtent or ErrInvalidLevels when a precondition does not hold
func ChainExtents(width, height uint32, levels int) ([]Extent, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidExtent, width, height)
	}
	if levels < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLevels, levels)
	}
	half := HalfExtent(width, height)
	extents := make([]Extent, levels)
	for i := range extents {
		extents[i] = MipExtent(half, i)
	}
	return extents, nil
}

// sharesTexture reports whether a chain can live in one mip-mapped texture. A texture holds at
// most floor(log2(max(w, h))) + 1 levels, so small resolutions fall back to one texture per level.
func sharesTexture(extents []Extent) bool {
	if len(extents) == 0 {
		return false
	}
	largest := max(extents[0].Width, extents[0].Height)
	return len(extents) <= bits.Len32(largest)
}

// mipChain is one sequence of single-level views, either over the mip levels of one texture or
// over one texture per level.
type mipChain struct {
	label    string
	extents  []Extent
	textures []*wgpu.Texture
	views    []*wgpu.TextureView
}

// allocateChain creates the textures and per-level views of a chain. Every level is usable as a
// sampled input and as a storage write target.
func allocateChain(device *wgpu.Device, label string, extents []Extent) (*mipChain, error) {
	if len(extents) < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLevels, len(extents))
	}
	c := &mipChain{label: label, extents: extents}

	if sharesTexture(extents) {
		tex, err := createChainTexture(device, label, extents[0], len(extents))
		if err != nil {
			return nil, err
		}
		c.textures = append(c.textures, tex)
		for i := range extents {
			view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
				Label:           fmt.Sprintf("%s Mip %d", label, i),
				Format:          chainFormat,
				Dimension:       wgpu.TextureViewDimension2D,
				BaseMipLevel:    uint32(i),
				MipLevelCount:   1,
				BaseArrayLayer:  0,
				ArrayLayerCount: 1,
				Aspect:          wgpu.TextureAspectAll,
			})
			if err != nil {
				c.release()
				return nil, fmt.Errorf("failed to create view for %s mip %d: %w", label, i, err)
			}
			c.views = append(c.views, view)
		}
		return c, nil
	}

	for i, extent := range extents {
		tex, err := createChainTexture(device, fmt.Sprintf("%s Mip %d", label, i), extent, 1)
		if err != nil {
			c.release()
			return nil, err
		}
		c.textures = append(c.textures, tex)
		view, err := tex.CreateView(nil)
		if err != nil {
			c.release()
			return nil, fmt.Errorf("failed to create view for %s mip %d: %w", label, i, err)
		}
		c.views = append(c.views, view)
	}
	return c, nil
}

func createChainTexture(device *wgpu.Device, label string, extent Extent, levels int) (*wgpu.Texture, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              extent.Width,
			Height:             extent.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: uint32(levels),
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        chainFormat,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageStorageBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %s (%dx%d, %d levels): %w", label, extent.Width, extent.Height, levels, err)
	}
	return tex, nil
}

func (c *mipChain) view(level int) *wgpu.TextureView {
	if level < 0 || level >= len(c.views) {
		return nil
	}
	return c.views[level]
}

// release drops the views before the textures they were created from.
func (c *mipChain) release() {
	for _, v := range c.views {
		v.Release()
	}
	for _, t := range c.textures {
		t.Release()
	}
	c.views = nil
	c.textures = nil
}

// mipChains holds the downsample, horizontal-blur and vertical-blur chains. The three chains
// always share one set of extents and are only ever created and released together.
type mipChains struct {
	extents    []Extent
	downsample *mipChain
	horizontal *mipChain
	vertical   *mipChain
}

// newMipChains allocates all three chains or none of them.
func newMipChains(device *wgpu.Device, width, height uint32, levels int) (*mipChains, error) {
	extents, err := ChainExtents(width, height, levels)
	if err != nil {
		return nil, err
	}

	m := &mipChains{extents: extents}
	for _, slot := range []struct {
		label string
		dst   **mipChain
	}{
		{"Bloom Downsample", &m.downsample},
		{"Bloom Horizontal Blur", &m.horizontal},
		{"Bloom Vertical Blur", &m.vertical},
	} {
		chain, err := allocateChain(device, slot.label, extents)
		if err != nil {
			m.release()
			return nil, err
		}
		*slot.dst = chain
	}
	return m, nil
}

// view resolves a chain reference to its view. Scene and target references are not owned by the
// chains and resolve to nil.
func (m *mipChains) view(ref ViewRef) *wgpu.TextureView {
	switch ref.Chain {
	case ChainDownsample:
		return m.downsample.view(ref.Level)
	case ChainHorizontal:
		return m.horizontal.view(ref.Level)
	case ChainVertical:
		return m.vertical.view(ref.Level)
	default:
		return nil
	}
}

func (m *mipChains) release() {
	for _, c := range []*mipChain{m.downsample, m.horizontal, m.vertical} {
		if c != nil {
			c.release()
		}
	}
}
