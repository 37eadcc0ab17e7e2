package terrain

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUQuadVertexSource is the canonical WGSL definition of the planet quad's VertexInput struct.
// Matches GPUQuadVertex layout exactly (32 bytes, tightly packed vertex attributes).
//
//go:embed assets/quad_vertex.wgsl
var GPUQuadVertexSource string

// GPUQuadVertex is a single vertex of the surface quad the planet is raymarched onto.
// Matches the WGSL VertexInput struct (see GPUQuadVertexSource).
// Size: 32 bytes.
type GPUQuadVertex struct {
	Position [3]float32 // offset  0: @location(0)
	TexUV    [2]float32 // offset 12: @location(1)
	Normal   [3]float32 // offset 20: @location(2)
}

// Size returns the size of the GPUQuadVertex struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUQuadVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// QuadVertices returns the four corners of the unit quad centred on the origin, facing +Z.
//
// Returns:
//   - []GPUQuadVertex: vertices in counter-clockwise order starting bottom-left
func QuadVertices() []GPUQuadVertex {
	return []GPUQuadVertex{
		{Position: [3]float32{-0.5, -0.5, 0}, TexUV: [2]float32{0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{0.5, -0.5, 0}, TexUV: [2]float32{1, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{0.5, 0.5, 0}, TexUV: [2]float32{1, 1}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{-0.5, 0.5, 0}, TexUV: [2]float32{0, 1}, Normal: [3]float32{0, 0, 1}},
	}
}

// QuadIndices returns the two counter-clockwise triangles of the quad.
//
// Returns:
//   - []uint32: six indices into QuadVertices
func QuadIndices() []uint32 {
	return []uint32{0, 1, 2, 0, 2, 3}
}

// MarshalQuadVertices serializes vertices into a byte buffer suitable for a vertex buffer upload.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: 32 bytes per vertex, little endian
func MarshalQuadVertices(vertices []GPUQuadVertex) []byte {
	const stride = 32
	buf := make([]byte, len(vertices)*stride)
	for i, v := range vertices {
		o := i * stride
		putFloats(buf[o:], v.Position[:])
		putFloats(buf[o+12:], v.TexUV[:])
		putFloats(buf[o+20:], v.Normal[:])
	}
	return buf
}

// MarshalIndices serializes uint32 indices into a byte buffer suitable for an index buffer upload.
//
// Parameters:
//   - indices: the indices to serialize
//
// Returns:
//   - []byte: 4 bytes per index, little endian
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// GPUVoxelSettingsSource is the canonical WGSL definition of the VoxelSettings struct.
// Matches GPUVoxelSettings layout exactly (112 bytes, uniform aligned).
//
//go:embed assets/voxel_settings.wgsl
var GPUVoxelSettingsSource string

// GPUVoxelSettings holds the raymarcher parameters of the planet shader.
// Matches the WGSL VoxelSettings struct layout exactly (see GPUVoxelSettingsSource).
// Size: 112 bytes.
type GPUVoxelSettings struct {
	Max              float32 // offset   0
	RInner           float32 // offset   4: inner (core) radius
	R                float32 // offset   8: surface radius
	MaxHeight        float32 // offset  12
	MaxWaterHeight   float32 // offset  16
	WaterHeight      float32 // offset  20
	TunnelRadius     float32 // offset  24
	SurfaceFactor    float32 // offset  28
	CameraSpeed      float32 // offset  32
	CameraTimeOffset float32 // offset  36
	VoxelLevel       int32   // offset  40
	VoxelSize        float32 // offset  44: always 2^-VoxelLevel
	Steps            int32   // offset  48: raymarch step budget
	MaxDist          float32 // offset  52
	MinDist          float32 // offset  56
	Eps              float32 // offset  60

	LightColor     [4]float32 // offset 64: rgb + intensity
	LightDirection [4]float32 // offset 80: xyz, w unused

	ShowNormals            int32  // offset  96
	ShowSteps              int32  // offset 100
	VisualizeDistanceField int32  // offset 104
	_pad                   uint32 // offset 108: padding to 112 bytes
}

// MinVoxelLevel and MaxVoxelLevel bound the voxel subdivision level exposed by the HUD.
const (
	MinVoxelLevel = 1
	MaxVoxelLevel = 7
)

// DefaultVoxelSettings returns the planet's default raymarch parameters.
//
// Returns:
//   - GPUVoxelSettings: the defaults, with VoxelSize consistent with VoxelLevel
func DefaultVoxelSettings() GPUVoxelSettings {
	s := GPUVoxelSettings{
		Max:              10000.0,
		RInner:           1.0,
		R:                1.8,
		MaxHeight:        5.0,
		MaxWaterHeight:   -2.2,
		WaterHeight:      -2.2,
		TunnelRadius:     1.1,
		SurfaceFactor:    0.42,
		CameraSpeed:      -1.5,
		CameraTimeOffset: 0.0,
		VoxelLevel:       3,
		Steps:            2048,
		MaxDist:          600000.0,
		MinDist:          0.0001,
		Eps:              1e-5,
		LightColor:       [4]float32{1.0, 0.9, 0.75, 2.0},
		LightDirection:   [4]float32{0.507746, 0.716817, 0.477878, 0.0},
	}
	s.UpdateVoxelSize()
	return s
}

// UpdateVoxelSize recomputes VoxelSize as 2^-VoxelLevel.
func (g *GPUVoxelSettings) UpdateVoxelSize() {
	g.VoxelSize = float32(math.Pow(2, -float64(g.VoxelLevel)))
}

// SetVoxelLevel clamps level to [MinVoxelLevel, MaxVoxelLevel], stores it and updates VoxelSize.
//
// Parameters:
//   - level: the requested voxel level
//
// Returns:
//   - bool: true if the stored level changed
func (g *GPUVoxelSettings) SetVoxelLevel(level int32) bool {
	level = min(max(level, MinVoxelLevel), MaxVoxelLevel)
	if level == g.VoxelLevel {
		return false
	}
	g.VoxelLevel = level
	g.UpdateVoxelSize()
	return true
}

// Size returns the size of the GPUVoxelSettings struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (112)
func (g *GPUVoxelSettings) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVoxelSettings struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload
func (g *GPUVoxelSettings) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf[0:], []float32{
		g.Max, g.RInner, g.R, g.MaxHeight,
		g.MaxWaterHeight, g.WaterHeight, g.TunnelRadius, g.SurfaceFactor,
		g.CameraSpeed, g.CameraTimeOffset,
	})
	binary.LittleEndian.PutUint32(buf[40:], uint32(g.VoxelLevel))
	binary.LittleEndian.PutUint32(buf[44:], math.Float32bits(g.VoxelSize))
	binary.LittleEndian.PutUint32(buf[48:], uint32(g.Steps))
	putFloats(buf[52:], []float32{g.MaxDist, g.MinDist, g.Eps})
	putFloats(buf[64:], g.LightColor[:])
	putFloats(buf[80:], g.LightDirection[:])
	binary.LittleEndian.PutUint32(buf[96:], uint32(g.ShowNormals))
	binary.LittleEndian.PutUint32(buf[100:], uint32(g.ShowSteps))
	binary.LittleEndian.PutUint32(buf[104:], uint32(g.VisualizeDistanceField))
	binary.LittleEndian.PutUint32(buf[108:], 0) // _pad
	return buf
}

func putFloats(buf []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
