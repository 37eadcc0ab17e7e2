package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBindGroupProviderKeepsLabel(t *testing.T) {
	p := NewBindGroupProvider("camera_0")
	assert.Equal(t, "camera_0", p.Label())
	assert.Nil(t, p.BindGroup())
	assert.Empty(t, p.Buffers())
	assert.Empty(t, p.TextureViews())
	assert.Empty(t, p.Samplers())
}

func TestNewBindGroupProviderAppliesOptions(t *testing.T) {
	p := NewBindGroupProvider("bloom_settings", WithBuffer(0, nil), WithBuffer(2, nil), WithBindGroup(nil))
	require.Len(t, p.Buffers(), 2)
	assert.Nil(t, p.Buffer(2))
	assert.Nil(t, p.BindGroup())
}

func TestWithVertexBufferLeavesBindingsEmpty(t *testing.T) {
	p := NewBindGroupProvider("overlay_mesh", WithVertexBuffer(nil))
	assert.Nil(t, p.VertexBuffer())
	assert.Empty(t, p.Buffers())
	assert.Zero(t, p.IndexCount())
}

func TestPendingSkipsEmptySlots(t *testing.T) {
	camera := NewBindGroupProvider("camera_0")
	voxel := NewBindGroupProvider("planet_voxel")

	cameraWrite := &BufferWrite{Provider: camera, Binding: 0, Data: make([]byte, 208)}
	voxelWrite := &BufferWrite{Provider: voxel, Binding: 0, Data: make([]byte, 112)}

	writes := Pending(cameraWrite, nil, voxelWrite, &BufferWrite{Provider: voxel}, &BufferWrite{Data: []byte{1}})
	require.Len(t, writes, 2)
	assert.Equal(t, camera, writes[0].Provider)
	assert.Equal(t, voxel, writes[1].Provider)

	assert.Empty(t, Pending(nil, nil))
}

func TestBufferWriteTarget(t *testing.T) {
	assert.Nil(t, BufferWrite{}.Target())

	p := NewBindGroupProvider("camera_0")
	w := BufferWrite{Provider: p, Binding: 1, Data: []byte{1, 2, 3, 4}}
	assert.Nil(t, w.Target(), "no buffer has been created at the binding yet")

	buf := &wgpu.Buffer{}
	p.SetBuffer(1, buf)
	assert.Same(t, buf, w.Target())

	w.Data = nil
	assert.Nil(t, w.Target())
}

func TestReleaseClearsNilEntries(t *testing.T) {
	p := NewBindGroupProvider("terrain")
	p.SetTexture(0, nil)
	p.SetTextureView(0, nil)
	p.SetSampler(4, nil)
	p.SetIndexCount(6)

	p.Release()

	assert.Nil(t, p.Texture(0))
	assert.Nil(t, p.TextureView(0))
	assert.Nil(t, p.Sampler(4))
	assert.Equal(t, 6, p.IndexCount())
}
