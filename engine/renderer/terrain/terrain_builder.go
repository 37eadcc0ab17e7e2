package terrain

import (
	"maps"

	"github.com/Carmen-Shannon/oxy-planet/common"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bind_group_provider"
)

// TerrainBuilderOption is a function that configures a terrain instance during construction.
type TerrainBuilderOption func(*terrain)

// WithName is an option builder that sets the name of the terrain. The name prefixes the
// labels of the default bind group providers.
//
// Parameters:
//   - name: the identifier for the terrain
//
// Returns:
//   - TerrainBuilderOption: a function that applies the name option to a terrain
func WithName(name string) TerrainBuilderOption {
	return func(t *terrain) {
		t.name = name
	}
}

// WithTextures is an option builder that stages the terrain textures keyed by role.
//
// Parameters:
//   - textures: the staged texture data per role
//
// Returns:
//   - TerrainBuilderOption: a function that applies the textures option to a terrain
func WithTextures(textures map[TextureRole]common.TextureStagingData) TerrainBuilderOption {
	return func(t *terrain) {
		maps.Copy(t.textures, textures)
	}
}

// WithSampler is an option builder that overrides the terrain sampler.
//
// Parameters:
//   - sampler: the sampler configuration
//
// Returns:
//   - TerrainBuilderOption: a function that applies the sampler option to a terrain
func WithSampler(sampler common.SamplerStagingData) TerrainBuilderOption {
	return func(t *terrain) {
		t.sampler = sampler
	}
}

// WithVoxelSettings is an option builder that sets the initial raymarcher parameters.
// VoxelSize is recomputed from VoxelLevel.
//
// Parameters:
//   - settings: the initial voxel settings
//
// Returns:
//   - TerrainBuilderOption: a function that applies the voxel settings option to a terrain
func WithVoxelSettings(settings GPUVoxelSettings) TerrainBuilderOption {
	return func(t *terrain) {
		settings.UpdateVoxelSize()
		t.voxelSettings = settings
	}
}

// WithBindGroupProvider is an option builder that sets the provider for the terrain texture group.
//
// Parameters:
//   - provider: the bind group provider
//
// Returns:
//   - TerrainBuilderOption: a function that applies the provider option to a terrain
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) TerrainBuilderOption {
	return func(t *terrain) {
		t.bindGroupProvider = provider
	}
}

// WithVoxelProvider is an option builder that sets the provider for the voxel settings group.
//
// Parameters:
//   - provider: the bind group provider
//
// Returns:
//   - TerrainBuilderOption: a function that applies the provider option to a terrain
func WithVoxelProvider(provider bind_group_provider.BindGroupProvider) TerrainBuilderOption {
	return func(t *terrain) {
		t.voxelProvider = provider
	}
}
