package camera

import (
	"github.com/Carmen-Shannon/oxy-planet/engine/config"
	"github.com/chewxy/math32"
)

// CameraBuilderOption is a functional option for configuring a Camera.
type CameraBuilderOption func(*cameraImpl)

// WithFovDegrees sets the vertical field of view. The planet shader reconstructs rays from the inverse
// view projection, so this is the only place the angle is given in degrees.
//
// Parameters:
//   - degrees: field of view in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFovDegrees(degrees float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = degrees * math32.Pi / 180
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClipPlanes sets the near and far plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets both planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near, c.far = near, far
	}
}

// WithController attaches a controller to the camera in place of the default fly controller.
// After all options are applied, the camera computes its matrices from the controller's state.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}

// WithSettings applies the [camera] section of the settings file: projection, start position and fly speeds.
//
// Parameters:
//   - s: the decoded camera settings
//
// Returns:
//   - CameraBuilderOption: functional option applying every camera setting
func WithSettings(s config.CameraSettings) CameraBuilderOption {
	return func(c *cameraImpl) {
		WithFovDegrees(s.FovDegrees)(c)
		WithClipPlanes(s.Near, s.Far)(c)
		p := s.StartPosition
		c.controller = NewCameraController(
			WithPosition(p[0], p[1], p[2]),
			WithMoveSpeed(s.MoveSpeed),
			WithLookSpeed(s.LookSpeed),
		)
	}
}
