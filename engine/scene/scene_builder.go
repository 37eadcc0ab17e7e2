package scene

import (
	"github.com/Carmen-Shannon/oxy-planet/engine/camera"
	"github.com/Carmen-Shannon/oxy-planet/engine/input"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/color_correction"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/terrain"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier, also used to label its GPU resources.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithCamera sets the camera the scene renders through. Defaults to camera.NewCamera().
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(c camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.camera = c
	}
}

// WithTerrain sets the terrain whose textures and voxel settings the planet samples.
// The terrain must have every texture role staged.
//
// Parameters:
//   - t: the terrain
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTerrain(t terrain.Terrain) SceneBuilderOption {
	return func(s *scene) {
		s.terrain = t
	}
}

// WithInput sets the input state the scene reads. The window callbacks should write to the same state.
//
// Parameters:
//   - in: the input state
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithInput(in input.State) SceneBuilderOption {
	return func(s *scene) {
		s.input = in
	}
}

// WithCorrection sets the initial color correction parameters.
//
// Parameters:
//   - u: the parameters
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCorrection(u color_correction.Uniform) SceneBuilderOption {
	return func(s *scene) {
		s.correction = u
	}
}
