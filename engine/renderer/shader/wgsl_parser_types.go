package shader

import "github.com/cogentcore/webgpu/wgpu"

// bindingKind is the category of a @group/@binding declaration as the post-processing kernels use them.
type bindingKind int

const (
	bindingUnsupported bindingKind = iota
	bindingUniform
	bindingStorageBuffer
	bindingSampler
	bindingSampledTexture
	bindingStorageTexture
)

func (k bindingKind) String() string {
	switch k {
	case bindingUniform:
		return "uniform buffer"
	case bindingStorageBuffer:
		return "storage buffer"
	case bindingSampler:
		return "sampler"
	case bindingSampledTexture:
		return "sampled texture"
	case bindingStorageTexture:
		return "storage texture"
	default:
		return "unsupported"
	}
}

// wgslTypeLayout is the byte size and alignment of a host-shareable WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// vertexFormatInfo is a vertex attribute format and its byte size.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// parsedField is one member of a WGSL struct.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct is a WGSL struct block. Uniform blocks (CameraUniform, VoxelSettings, BloomSettings,
// ColorCorrection) and vertex inputs are both read from these.
type parsedStruct struct {
	name   string
	fields []parsedField
}

// uniformMemberLayouts covers the member types the uniform blocks are built from.
// Sizes and alignments follow the WGSL host-shareable layout rules.
var uniformMemberLayouts = map[string]wgslTypeLayout{
	"f32": {4, 4},
	"i32": {4, 4},
	"u32": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec2<i32>": {8, 8},
	"vec2<u32>": {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec3<i32>": {12, 16},
	"vec3<u32>": {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},
	"vec4<i32>": {16, 16},
	"vec4<u32>": {16, 16},

	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

// vertexFormats covers the vertex input types of the planet quad and the overlay mesh.
var vertexFormats = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
}

// sampledTextureDimensions maps sampled texture types to their view dimension. The planet samples a 3D noise volume,
// everything else reads 2D textures.
var sampledTextureDimensions = map[string]wgpu.TextureViewDimension{
	"texture_2d": wgpu.TextureViewDimension2D,
	"texture_3d": wgpu.TextureViewDimension3D,
}

// storageTextureFormats maps the texel formats a kernel may write to. Bloom mips are rgba32float.
var storageTextureFormats = map[string]wgpu.TextureFormat{
	"rgba32float": wgpu.TextureFormatRGBA32Float,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
	"rgba8unorm":  wgpu.TextureFormatRGBA8Unorm,
}

var storageTextureAccess = map[string]wgpu.StorageTextureAccess{
	"write":      wgpu.StorageTextureAccessWriteOnly,
	"read_write": wgpu.StorageTextureAccessReadWrite,
}
