package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planetSource = `//@oxy:include camera
//@oxy:include quad_vertex
//@oxy:include voxel_settings
//@oxy:group 0 0 storage_uniform camera camera

//@oxy:provider 1 0 terrain noise0_texture
@group(1) @binding(0) var noise0: texture_2d<f32>;
//@oxy:provider 1 1 terrain noise1_texture
@group(1) @binding(1) var noise1: texture_3d<f32>;
//@oxy:provider 1 4 terrain terrain_sampler
@group(1) @binding(4) var terrain_sampler: sampler;

//@oxy:group 2 0 storage_uniform voxel voxel_settings

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = vec4<f32>(in.position.xy * 2.0, 0.0, 1.0);
    out.uv = in.tex_uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(in.uv, voxel.voxel_size, camera.time);
}
`

const kernelSource = `struct Settings {
    min_brightness: f32,
    max_brightness: f32,
    blur_radius: f32,
    blur_type: u32,
}

@group(0) @binding(0) var<uniform> settings: Settings;
@group(1) @binding(0) var input_texture: texture_2d<f32>;
@group(1) @binding(1) var output_texture: texture_storage_2d<rgba32float, write>;

// @compute fn commented_out() {}

@compute @workgroup_size(8, 8)
fn first(@builtin(global_invocation_id) id: vec3<u32>) {}

fn helper() -> f32 { return 1.0; }

@compute @workgroup_size(8, 8)
fn second(@builtin(global_invocation_id) id: vec3<u32>) {}
`

func TestNewShaderFromSourceVertexReflection(t *testing.T) {
	s := NewShaderFromSource("planet_vert", ShaderTypeVertex, planetSource)

	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, []string{"vs_main"}, s.EntryPoints())
	assert.Contains(t, s.Source(), "struct CameraUniform")
	assert.Contains(t, s.Source(), "@group(0) @binding(0) var<uniform> camera: CameraUniform;")
	assert.Contains(t, s.Source(), "@group(2) @binding(0) var<uniform> voxel: VoxelSettings;")
	assert.NotContains(t, s.Source(), "@oxy:")
	assert.Equal(t, "planet_vert", s.Module().Label)

	layout := s.VertexLayout(0)
	require.Len(t, layout, 1)
	assert.Equal(t, uint64(32), layout[0].ArrayStride)
	require.Len(t, layout[0].Attributes, 3)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layout[0].Attributes[1].Format)
	assert.Equal(t, uint64(12), layout[0].Attributes[1].Offset)
	assert.Equal(t, uint64(20), layout[0].Attributes[2].Offset)

	cameraGroup := s.BindGroupLayoutDescriptor(0)
	require.Len(t, cameraGroup.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, cameraGroup.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(208), cameraGroup.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex, cameraGroup.Entries[0].Visibility)

	voxelGroup := s.BindGroupLayoutDescriptor(2)
	require.Len(t, voxelGroup.Entries, 1)
	assert.Equal(t, uint64(112), voxelGroup.Entries[0].Buffer.MinBindingSize)

	terrainGroup := s.BindGroupLayoutDescriptor(1)
	require.Len(t, terrainGroup.Entries, 3)
	assert.Equal(t, wgpu.TextureViewDimension3D, terrainGroup.Entries[1].Texture.ViewDimension)
	assert.Equal(t, uint32(4), terrainGroup.Entries[2].Binding)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, terrainGroup.Entries[2].Sampler.Type)
	assert.Equal(t, "terrain_sampler", s.BindGroupVarName(1, 4))

	binding, ok := s.BindGroupFromVarName(1, "noise1")
	assert.True(t, ok)
	assert.Equal(t, 1, binding)
}

func TestNewShaderFromSourceDeclarations(t *testing.T) {
	s := NewShaderFromSource("planet_frag", ShaderTypeFragment, planetSource)
	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.Empty(t, s.VertexLayouts())

	var providers, groups int
	for _, decl := range s.Declarations() {
		switch decl.Type {
		case AnnotationTypeProvider:
			providers++
			assert.Equal(t, AnnotationArgTerrain, decl.Args[0])
			require.Len(t, decl.Args, 2)
		case AnnotationTypeBindingGroup:
			groups++
		}
	}
	assert.Equal(t, 3, providers)
	assert.Equal(t, 2, groups)
}

func TestNewShaderFromSourceComputeEntryPoints(t *testing.T) {
	s := NewShaderFromSource("kernel", ShaderTypeCompute, kernelSource)

	assert.Equal(t, []string{"first", "second"}, s.EntryPoints())
	assert.Equal(t, "first", s.EntryPoint())
	assert.Equal(t, [3]uint32{8, 8, 1}, s.WorkgroupSize())

	g0 := s.BindGroupLayoutDescriptor(0)
	require.Len(t, g0.Entries, 1)
	assert.Equal(t, uint64(16), g0.Entries[0].Buffer.MinBindingSize)

	g1 := s.BindGroupLayoutDescriptor(1)
	require.Len(t, g1.Entries, 2)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, g1.Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureFormatRGBA32Float, g1.Entries[1].StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, g1.Entries[1].StorageTexture.Access)
	assert.Equal(t, wgpu.ShaderStageCompute, g1.Entries[1].Visibility)
}

func TestNewShaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(kernelSource), 0o644))

	s := NewShader("kernel_file", ShaderTypeCompute, path)
	assert.Equal(t, []string{"first", "second"}, s.EntryPoints())
}

func TestNewShaderPanics(t *testing.T) {
	assert.Panics(t, func() { NewShader("missing", ShaderTypeCompute, "") })
	assert.Panics(t, func() { NewShader("missing", ShaderTypeCompute, filepath.Join(t.TempDir(), "nope.wgsl")) })
	assert.Panics(t, func() { NewShaderFromSource("empty", ShaderTypeCompute, "") })
	assert.Panics(t, func() {
		NewShaderFromSource("bad", ShaderTypeFragment, "//@oxy:include light\n")
	})
}

func TestParseAnnotation(t *testing.T) {
	a, err := parseAnnotation("  // plain comment", 1)
	assert.NoError(t, err)
	assert.Nil(t, a)

	a, err = parseAnnotation("//@oxy:provider 1 3 terrain dirt_texture", 7)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, AnnotationTypeProvider, a.Type)
	assert.Equal(t, 1, *a.Group)
	assert.Equal(t, 3, *a.Binding)
	assert.Equal(t, []AnnotationArg{AnnotationArgTerrain, AnnotationArgDirtTexture}, a.Args)

	_, err = parseAnnotation("//@oxy:provider 1 3 material diffuse_texture", 8)
	assert.Error(t, err)

	_, err = parseAnnotation("//@oxy:group 0 x storage_uniform camera camera", 9)
	assert.Error(t, err)

	_, err = parseAnnotation("//@oxy:group 0 0 storage_uniform camera camera extra", 10)
	assert.Error(t, err)

	_, err = parseAnnotation("//@oxy:", 11)
	assert.Error(t, err)
}

func TestNewShaderRejectsUnsupportedBinding(t *testing.T) {
	for _, decl := range []string{
		"@group(0) @binding(0) var depth: texture_depth_2d;",
		"@group(0) @binding(0) var shadow: sampler_comparison;",
		"@group(0) @binding(0) var ids: texture_2d<u32>;",
		"@group(0) @binding(0) var<private> scratch: f32;",
	} {
		src := decl + "\n@fragment\nfn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }\n"
		assert.Panics(t, func() { NewShaderFromSource("unsupported", ShaderTypeFragment, src) }, decl)
	}
}

func TestParseBindGroupLayoutsStorageTexture(t *testing.T) {
	_, _, err := parseBindGroupLayouts("@group(1) @binding(1) var out: texture_storage_2d<r32uint, write>;", wgpu.ShaderStageCompute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group 1 out")

	layouts, names, err := parseBindGroupLayouts("@group(1) @binding(1) var out: texture_storage_2d<rgba16float, read_write>;", wgpu.ShaderStageCompute)
	require.NoError(t, err)
	entry := layouts[1].Entries[0]
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, entry.StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessReadWrite, entry.StorageTexture.Access)
	assert.Equal(t, wgpu.TextureViewDimension2D, entry.StorageTexture.ViewDimension)
	assert.Equal(t, "out", names[1][1])
}

func TestParseBindGroupLayoutsBufferKinds(t *testing.T) {
	src := `struct Inner { a: vec3<f32>, b: f32, }
struct Outer { inner: Inner, level: u32, }
@group(0) @binding(1) var<storage, read> ro: Outer;
@group(0) @binding(0) var<uniform> settings: Outer;
@group(0) @binding(2) var<storage, read_write> rw: Outer;
`
	layouts, _, err := parseBindGroupLayouts(src, wgpu.ShaderStageCompute)
	require.NoError(t, err)
	entries := layouts[0].Entries
	require.Len(t, entries, 3)

	assert.Equal(t, uint32(0), entries[0].Binding, "entries are sorted by binding")
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[0].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[1].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, entries[2].Buffer.Type)
	for _, e := range entries {
		assert.Equal(t, uint64(32), e.Buffer.MinBindingSize)
	}
}

func TestUniformBlockLayouts(t *testing.T) {
	structs := parseStructBlocks(`struct Hit { t: f32, hit: bool, }
struct Uses { first: Base, tail: vec2<f32>, }
struct Base { m: mat4x4<f32>, p: vec3<f32>, }`)

	layouts := uniformBlockLayouts(structs)
	assert.Equal(t, wgslTypeLayout{80, 16}, layouts["Base"])
	assert.Equal(t, wgslTypeLayout{96, 16}, layouts["Uses"], "declaration order does not matter")
	assert.NotContains(t, layouts, "Hit")
}

func TestParseVertexLayoutsSkipsOutputs(t *testing.T) {
	layouts := parseVertexLayouts(`/* struct Old { @location(0) a: vec4<f32>, } /* nested */ */
struct OverlayVertex {
    @location(0) position: vec2<f32>,
    @location(1) color: vec4<f32>,
}
struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) color: vec4<f32>,
}`)
	require.Len(t, layouts, 1)
	layout := layouts[0][0]
	assert.Equal(t, uint64(24), layout.ArrayStride)
	assert.Equal(t, uint32(1), layout.Attributes[1].ShaderLocation)
}

func TestBindingKindString(t *testing.T) {
	assert.Equal(t, "storage texture", classifyBinding("", "texture_storage_2d<rgba32float, write>").String())
	assert.Equal(t, "sampled texture", classifyBinding("", "texture_3d<f32>").String())
	assert.Equal(t, "unsupported", classifyBinding("", "texture_cube<f32>").String())
}
