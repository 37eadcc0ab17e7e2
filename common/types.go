// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/cogentcore/webgpu/wgpu"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds pixel data for a texture binding pending GPU upload.
// This is primarily used with a BindGroupProvider to stage texture data before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the raw texel data, tightly packed row by row and slice by slice.
	Pixels []byte
	// Width is the width of the texture in texels.
	Width uint32
	// Height is the height of the texture in texels.
	Height uint32
	// Depth is the number of slices. Values above 1 create a 3D texture, zero is treated as 1.
	Depth uint32
	// Format is the GPU texel format. Zero (Undefined) is treated as RGBA8UnormSrgb.
	Format wgpu.TextureFormat
	// BytesPerTexel is the byte size of one texel in Pixels. Zero is treated as 4.
	BytesPerTexel uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used with a BindGroupProvider to stage sampler data before creating the GPU sampler and bind group.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// DecodeImage decodes a PNG, JPEG, BMP or WebP image into tightly packed RGBA staging data.
// When maxSize is positive and either side of the image exceeds it, the image is scaled down
// with Catmull-Rom filtering so that its longest side equals maxSize.
//
// Parameters:
//   - r: the encoded image stream
//   - maxSize: the maximum side length in texels, or 0 for no limit
//
// Returns:
//   - TextureStagingData: RGBA8 staging data with Width and Height populated
//   - error: error if decoding fails
func DecodeImage(r io.Reader, maxSize int) (TextureStagingData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if maxSize > 0 && (width > maxSize || height > maxSize) {
		if width >= height {
			height = max(1, height*maxSize/width)
			width = maxSize
		} else {
			width = max(1, width*maxSize/height)
			height = maxSize
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == bounds.Dx() && height == bounds.Dy() {
		xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(rgba, rgba.Bounds(), img, bounds, xdraw.Src, nil)
	}

	return TextureStagingData{
		Pixels:        rgba.Pix,
		Width:         uint32(width),
		Height:        uint32(height),
		Depth:         1,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		BytesPerTexel: 4,
	}, nil
}
