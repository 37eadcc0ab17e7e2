package terrain

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-planet/common"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureRole names the purpose of a terrain texture binding. The values match the
// binding role arguments the planet shader declares on its terrain provider group.
type TextureRole string

const (
	// TextureRoleNoise0 is the 2D RGB noise texture.
	TextureRoleNoise0 TextureRole = "noise0_texture"

	// TextureRoleNoise1 is the 32x32x32 grayscale noise volume.
	TextureRoleNoise1 TextureRole = "noise1_texture"

	// TextureRoleGrain is the rock grain texture.
	TextureRoleGrain TextureRole = "grain_texture"

	// TextureRoleDirt is the dirt texture.
	TextureRoleDirt TextureRole = "dirt_texture"
)

// TextureRoles lists every terrain texture role in binding order.
var TextureRoles = []TextureRole{TextureRoleNoise0, TextureRoleNoise1, TextureRoleGrain, TextureRoleDirt}

// terrain is the implementation of the Terrain interface.
type terrain struct {
	mu *sync.Mutex

	name          string
	textures      map[TextureRole]common.TextureStagingData
	sampler       common.SamplerStagingData
	voxelSettings GPUVoxelSettings
	voxelDirty    bool

	bindGroupProvider bind_group_provider.BindGroupProvider
	voxelProvider     bind_group_provider.BindGroupProvider
}

// Terrain holds the CPU-side resources of the planet surface: the four terrain textures
// and their shared sampler, the raymarcher's voxel settings, and the bind group providers
// that carry them on the GPU.
//
// Textures and the sampler are staged at load time and are read-only through this interface.
// Voxel settings are mutable at runtime; each change marks them dirty until the scene
// uploads them with TakeVoxelSettings.
type Terrain interface {
	// Name retrieves the terrain identifier.
	//
	// Returns:
	//   - string: the name of the terrain
	Name() string

	// Texture retrieves the staged texture for a role.
	//
	// Parameters:
	//   - role: the texture role to look up
	//
	// Returns:
	//   - common.TextureStagingData: the staged texture data
	//   - bool: false if no texture is staged for the role
	Texture(role TextureRole) (common.TextureStagingData, bool)

	// Sampler retrieves the sampler configuration shared by every terrain texture.
	//
	// Returns:
	//   - common.SamplerStagingData: repeat addressing with linear filtering
	Sampler() common.SamplerStagingData

	// VoxelSettings retrieves a copy of the current raymarcher parameters.
	//
	// Returns:
	//   - GPUVoxelSettings: the current settings
	VoxelSettings() GPUVoxelSettings

	// SetVoxelSettings replaces the raymarcher parameters and marks them for upload.
	// VoxelSize is recomputed from VoxelLevel.
	//
	// Parameters:
	//   - settings: the new settings
	SetVoxelSettings(settings GPUVoxelSettings)

	// StepVoxelLevel moves the voxel level by delta, clamped to [MinVoxelLevel, MaxVoxelLevel],
	// and marks the settings for upload when the level changed.
	//
	// Parameters:
	//   - delta: the number of levels to move, negative to lower
	//
	// Returns:
	//   - int32: the voxel level after the step
	StepVoxelLevel(delta int32) int32

	// TakeVoxelSettings returns the settings and clears the dirty flag.
	//
	// Returns:
	//   - GPUVoxelSettings: the current settings
	//   - bool: true if the settings changed since the previous call
	TakeVoxelSettings() (GPUVoxelSettings, bool)

	// BindGroupProvider retrieves the provider holding the terrain textures and sampler.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the terrain texture provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// VoxelProvider retrieves the provider holding the voxel settings uniform buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the voxel settings provider
	VoxelProvider() bind_group_provider.BindGroupProvider
}

var _ Terrain = &terrain{}

// NewTerrain creates a new Terrain with the default voxel settings and a repeat/linear sampler.
// Textures are supplied with WithTextures, usually from LoadTextures.
//
// Parameters:
//   - options: variadic list of TerrainBuilderOption functions to configure the terrain
//
// Returns:
//   - Terrain: a new Terrain instance
func NewTerrain(options ...TerrainBuilderOption) Terrain {
	t := &terrain{
		mu:            &sync.Mutex{},
		name:          "planet",
		textures:      make(map[TextureRole]common.TextureStagingData),
		sampler:       DefaultSampler(),
		voxelSettings: DefaultVoxelSettings(),
		voxelDirty:    true,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.bindGroupProvider == nil {
		t.bindGroupProvider = bind_group_provider.NewBindGroupProvider(t.name + "_terrain")
	}
	if t.voxelProvider == nil {
		t.voxelProvider = bind_group_provider.NewBindGroupProvider(t.name + "_voxel")
	}
	return t
}

// DefaultSampler returns the sampler used for terrain textures: repeat on every axis,
// linear filtering for magnification, minification and mip selection.
//
// Returns:
//   - common.SamplerStagingData: the sampler configuration
func DefaultSampler() common.SamplerStagingData {
	return common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

func (t *terrain) Name() string {
	return t.name
}

func (t *terrain) Texture(role TextureRole) (common.TextureStagingData, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tex, ok := t.textures[role]
	return tex, ok
}

func (t *terrain) Sampler() common.SamplerStagingData {
	return t.sampler
}

func (t *terrain) VoxelSettings() GPUVoxelSettings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.voxelSettings
}

func (t *terrain) SetVoxelSettings(settings GPUVoxelSettings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	settings.VoxelLevel = min(max(settings.VoxelLevel, MinVoxelLevel), MaxVoxelLevel)
	settings.UpdateVoxelSize()
	t.voxelSettings = settings
	t.voxelDirty = true
}

func (t *terrain) StepVoxelLevel(delta int32) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.voxelSettings.SetVoxelLevel(t.voxelSettings.VoxelLevel + delta) {
		t.voxelDirty = true
	}
	return t.voxelSettings.VoxelLevel
}

func (t *terrain) TakeVoxelSettings() (GPUVoxelSettings, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dirty := t.voxelDirty
	t.voxelDirty = false
	return t.voxelSettings, dirty
}

func (t *terrain) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return t.bindGroupProvider
}

func (t *terrain) VoxelProvider() bind_group_provider.BindGroupProvider {
	return t.voxelProvider
}
