package bloom

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// KernelSource is the WGSL source of the bloom compute kernels. It declares one entry point per
// pass kind and the three bind groups every bloom pipeline shares.
//
//go:embed assets/bloom.wgsl
var KernelSource string

// BlurType selects the weighting of the separable blur.
type BlurType uint32

const (
	// BlurGaussian weights taps with a gaussian falloff.
	BlurGaussian BlurType = iota

	// BlurBox weights every tap equally.
	BlurBox
)

// Settings are the user-facing bloom parameters.
type Settings struct {
	// MinBrightness is the luminance at which the prefilter starts letting light through.
	MinBrightness float32
	// MaxBrightness is the luminance at which the prefilter passes light unattenuated.
	MaxBrightness float32
	// BlurRadius scales the blur kernel; 1.0 is four taps on either side.
	BlurRadius float32
	// BlurType selects gaussian or box weighting.
	BlurType BlurType
}

// DefaultSettings returns the bloom defaults: a 0.9 to 1.0 brightness knee, radius 1 and a gaussian blur.
//
// Returns:
//   - Settings: the default settings
func DefaultSettings() Settings {
	return Settings{
		MinBrightness: 0.9,
		MaxBrightness: 1.0,
		BlurRadius:    1.0,
		BlurType:      BlurGaussian,
	}
}

// GPUBloomSettings is the uniform shared by every bloom kernel at group 0.
// Matches the WGSL BloomSettings struct in KernelSource.
// Size: 32 bytes.
type GPUBloomSettings struct {
	MinBrightness float32   // offset  0
	MaxBrightness float32   // offset  4
	BlurRadius    float32   // offset  8
	BlurType      uint32    // offset 12: 0 gaussian, 1 box
	ActiveLevels  uint32    // offset 16: composite slots holding a distinct mip level
	_             [3]uint32 // offset 20: padding to 32 bytes
}

// newGPUBloomSettings packs s together with the number of composite slots in use.
func newGPUBloomSettings(s Settings, activeLevels int) GPUBloomSettings {
	return GPUBloomSettings{
		MinBrightness: s.MinBrightness,
		MaxBrightness: s.MaxBrightness,
		BlurRadius:    s.BlurRadius,
		BlurType:      uint32(s.BlurType),
		ActiveLevels:  uint32(activeLevels),
	}
}

// Size returns the size of the GPUBloomSettings struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUBloomSettings) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the settings into a byte buffer suitable for a uniform upload.
//
// Returns:
//   - []byte: the settings as a little endian byte slice
func (g *GPUBloomSettings) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.MinBrightness))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.MaxBrightness))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(g.BlurRadius))
	binary.LittleEndian.PutUint32(buf[12:], g.BlurType)
	binary.LittleEndian.PutUint32(buf[16:], g.ActiveLevels)
	return buf
}
