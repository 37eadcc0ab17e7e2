package scene

import (
	"github.com/Carmen-Shannon/oxy-planet/engine/config"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/color_correction"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/terrain"
	"github.com/chewxy/math32"
)

// VoxelSettingsFrom overlays the configurable raymarch parameters onto base. Fields the settings
// file does not expose, such as the planet radii and the light, keep their base values.
//
// Parameters:
//   - base: the current voxel settings
//   - s: the [voxel] section of the settings file
//
// Returns:
//   - terrain.GPUVoxelSettings: the merged settings, VoxelLevel clamped to 1..7 and VoxelSize consistent with it
func VoxelSettingsFrom(base terrain.GPUVoxelSettings, s config.VoxelSettings) terrain.GPUVoxelSettings {
	base.VoxelLevel = min(max(int32(s.VoxelLevel), terrain.MinVoxelLevel), terrain.MaxVoxelLevel)
	base.Steps = int32(s.Steps)
	base.MaxDist = s.MaxDist
	base.MinDist = s.MinDist
	base.Eps = s.Eps
	base.WaterHeight = s.WaterHeight
	base.SurfaceFactor = s.SurfaceFactor
	base.ShowNormals = boolToInt32(s.ShowNormals)
	base.ShowSteps = boolToInt32(s.ShowSteps)
	base.VisualizeDistanceField = boolToInt32(s.VisualizeDistanceField)
	base.UpdateVoxelSize()
	return base
}

// CorrectionFrom converts the [color_correction] section into the color correction uniform.
//
// Parameters:
//   - s: the color correction settings
//
// Returns:
//   - color_correction.Uniform: the uniform values
func CorrectionFrom(s config.ColorCorrectionSettings) color_correction.Uniform {
	return color_correction.Uniform{
		Brightness: s.Brightness,
		Contrast:   s.Contrast,
		Saturation: s.Saturation,
	}
}

func fovRadians(degrees float32) float32 {
	return degrees * math32.Pi / 180
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
