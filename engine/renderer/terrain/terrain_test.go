package terrain

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-planet/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTerrainDefaults(t *testing.T) {
	tr := NewTerrain(WithName("moon"))

	assert.Equal(t, "moon", tr.Name())
	assert.Equal(t, "moon_terrain", tr.BindGroupProvider().Label())
	assert.Equal(t, "moon_voxel", tr.VoxelProvider().Label())
	assert.Equal(t, wgpu.AddressModeRepeat, tr.Sampler().AddressModeW)

	settings, dirty := tr.TakeVoxelSettings()
	assert.True(t, dirty, "initial settings must be uploaded once")
	assert.Equal(t, DefaultVoxelSettings(), settings)

	_, dirty = tr.TakeVoxelSettings()
	assert.False(t, dirty)
}

func TestTerrainTextures(t *testing.T) {
	tex := common.TextureStagingData{Width: 2, Height: 2, Pixels: make([]byte, 16)}
	tr := NewTerrain(WithTextures(map[TextureRole]common.TextureStagingData{TextureRoleDirt: tex}))

	got, ok := tr.Texture(TextureRoleDirt)
	require.True(t, ok)
	assert.Equal(t, tex, got)

	_, ok = tr.Texture(TextureRoleGrain)
	assert.False(t, ok)
}

func TestStepVoxelLevel(t *testing.T) {
	tr := NewTerrain()
	tr.TakeVoxelSettings()

	assert.Equal(t, int32(4), tr.StepVoxelLevel(1))
	s, dirty := tr.TakeVoxelSettings()
	assert.True(t, dirty)
	assert.Equal(t, float32(1.0/16), s.VoxelSize)

	for range 10 {
		tr.StepVoxelLevel(1)
	}
	assert.Equal(t, int32(MaxVoxelLevel), tr.VoxelSettings().VoxelLevel)
	tr.TakeVoxelSettings()

	assert.Equal(t, int32(MaxVoxelLevel), tr.StepVoxelLevel(1))
	_, dirty = tr.TakeVoxelSettings()
	assert.False(t, dirty, "a clamped step does not change the settings")
}

func TestSetVoxelSettingsRecomputesSize(t *testing.T) {
	tr := NewTerrain()
	s := DefaultVoxelSettings()
	s.VoxelLevel = 6
	s.VoxelSize = 99
	tr.SetVoxelSettings(s)

	got, dirty := tr.TakeVoxelSettings()
	assert.True(t, dirty)
	assert.Equal(t, float32(1.0/64), got.VoxelSize)
}
