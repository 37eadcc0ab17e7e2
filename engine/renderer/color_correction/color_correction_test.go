package color_correction

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceIsIdentityOnGray(t *testing.T) {
	for _, v := range []float32{0, 0.18, 0.5, 0.73, 1, 4.5} {
		gray := [3]float32{v, v, v}
		got := Reference(gray, DefaultUniform())
		for i := range got {
			assert.InDelta(t, v, got[i], 1e-6, "gray %v channel %d", v, i)
		}
	}
}

func TestReferenceIsIdentityOnColorAtDefaults(t *testing.T) {
	in := [3]float32{0.9, 0.2, 0.4}
	got := Reference(in, DefaultUniform())
	for i := range got {
		assert.InDelta(t, in[i], got[i], 1e-6)
	}
}

func TestReferenceBrightness(t *testing.T) {
	got := Reference([3]float32{0.25, 0.25, 0.25}, Uniform{Brightness: 2, Contrast: 1, Saturation: 1})
	assert.InDelta(t, 0.5, got[0], 1e-6)
}

func TestReferenceContrastPivotsOnMidGray(t *testing.T) {
	u := Uniform{Brightness: 1, Contrast: 2, Saturation: 1}

	mid := Reference([3]float32{0.5, 0.5, 0.5}, u)
	assert.InDelta(t, 0.5, mid[0], 1e-6)

	dark := Reference([3]float32{0.25, 0.25, 0.25}, u)
	assert.InDelta(t, 0.0, dark[0], 1e-6)

	light := Reference([3]float32{0.75, 0.75, 0.75}, u)
	assert.InDelta(t, 1.0, light[0], 1e-6)
}

func TestReferenceZeroSaturationIsLuma(t *testing.T) {
	got := Reference([3]float32{1, 0, 0}, Uniform{Brightness: 1, Contrast: 1, Saturation: 0})
	for i := range got {
		assert.InDelta(t, 0.2126, got[i], 1e-6)
	}
}

func TestGPUColorCorrection(t *testing.T) {
	g := newGPUColorCorrection(Uniform{Brightness: 1.5, Contrast: 0.8, Saturation: 1.2})
	assert.Equal(t, 16, g.Size())

	buf := g.Marshal()
	require.Len(t, buf, 16)
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])))
	assert.Equal(t, float32(0.8), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, float32(1.2), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[12:]))
}

func TestKernelEntryPoints(t *testing.T) {
	p := NewPipeline(wgpu.TextureFormatBGRA8Unorm)

	assert.Equal(t, "vs_main", p.EntryPoint(shader.ShaderTypeVertex))
	assert.Equal(t, "fs_main", p.EntryPoint(shader.ShaderTypeFragment))
	assert.Empty(t, p.Shader(shader.ShaderTypeVertex).VertexLayouts(), "the strip is generated from vertex_index")
}

func TestPipelineDescription(t *testing.T) {
	p := NewPipeline(wgpu.TextureFormatBGRA8Unorm)

	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, p.Topology())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, p.ColorFormat())
	assert.Equal(t, wgpu.TextureFormatUndefined, p.DepthFormat())
	assert.False(t, p.BlendEnabled())
	assert.Nil(t, p.BindGroupLayouts())
}

func TestReflectedLayout(t *testing.T) {
	descriptors := pipeline.BindGroupLayoutDescriptors(NewPipeline(wgpu.TextureFormatBGRA8Unorm))
	require.Len(t, descriptors, 1)

	entries := descriptors[0].Entries
	require.Len(t, entries, 3)

	assert.Equal(t, uint32(bindingInput), entries[0].Binding)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, entries[0].Texture.ViewDimension)

	assert.Equal(t, uint32(bindingSampler), entries[1].Binding)
	assert.NotEqual(t, wgpu.SamplerBindingTypeUndefined, entries[1].Sampler.Type)

	assert.Equal(t, uint32(bindingUniform), entries[2].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[2].Buffer.Type)
	assert.Equal(t, uint64(16), entries[2].Buffer.MinBindingSize)

	for _, e := range entries {
		assert.NotZero(t, e.Visibility&wgpu.ShaderStageFragment, "binding %d", e.Binding)
	}
}
