package color_correction

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// KernelSource is the WGSL source of the color correction pass: a vertex-index driven full screen
// strip (vs_main) and the correction fragment kernel (fs_main).
//
//go:embed assets/color_correction.wgsl
var KernelSource string

// Rec. 709 luma weights, shared with the fragment kernel.
var lumaWeights = [3]float32{0.2126, 0.7152, 0.0722}

// Uniform holds the color correction parameters. Every field is a multiplicative identity at 1.
type Uniform struct {
	Brightness float32
	Contrast   float32
	Saturation float32
}

// DefaultUniform returns the identity correction {1, 1, 1}.
//
// Returns:
//   - Uniform: the identity uniform
func DefaultUniform() Uniform {
	return Uniform{Brightness: 1, Contrast: 1, Saturation: 1}
}

// GPUColorCorrection is the uniform at group 0 binding 2 of the color correction kernel.
// Size: 16 bytes.
type GPUColorCorrection struct {
	Brightness float32 // offset  0
	Contrast   float32 // offset  4
	Saturation float32 // offset  8
	_          float32 // offset 12: padding
}

func newGPUColorCorrection(u Uniform) GPUColorCorrection {
	return GPUColorCorrection{
		Brightness: u.Brightness,
		Contrast:   u.Contrast,
		Saturation: u.Saturation,
	}
}

// Size returns the size of the GPUColorCorrection struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUColorCorrection) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into a byte buffer suitable for a uniform upload.
//
// Returns:
//   - []byte: the uniform as a little endian byte slice
func (g *GPUColorCorrection) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.Brightness))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.Contrast))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(g.Saturation))
	return buf
}

// Reference applies the color correction to one linear RGB color on the CPU, in the same order as
// the fragment kernel: brightness multiply, contrast about 0.5, then saturation about Rec. 709 luma.
//
// Parameters:
//   - rgb: the input color
//   - u: the correction parameters
//
// Returns:
//   - [3]float32: the corrected color
func Reference(rgb [3]float32, u Uniform) [3]float32 {
	var c [3]float32
	for i := range c {
		c[i] = (rgb[i]*u.Brightness-0.5)*u.Contrast + 0.5
	}
	luma := c[0]*lumaWeights[0] + c[1]*lumaWeights[1] + c[2]*lumaWeights[2]
	for i := range c {
		c[i] = luma + (c[i]-luma)*u.Saturation
	}
	return c
}
