package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = [3]float32{x, y, z}
	}
}

// WithOrientation sets the initial yaw and pitch.
//
// Parameters:
//   - yaw: rotation around world +Y in radians
//   - pitch: rotation around the yawed +X axis in radians
//
// Returns:
//   - CameraControllerOption: functional option to set the orientation
func WithOrientation(yaw, pitch float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw, cc.pitch = yaw, pitch
	}
}

// WithMoveSpeed sets the base translation speed in world units per second.
//
// Parameters:
//   - speed: the base move speed
//
// Returns:
//   - CameraControllerOption: functional option to set the move speed
func WithMoveSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.moveSpeed = speed
	}
}

// WithSpeedMultiplier sets the initial speed multiplier.
//
// Parameters:
//   - mult: the initial multiplier
//
// Returns:
//   - CameraControllerOption: functional option to set the speed multiplier
func WithSpeedMultiplier(mult float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.speedMultiplier = mult
	}
}

// WithLookSpeed sets the mouse look sensitivity.
//
// Parameters:
//   - speed: radians of rotation per pixel of mouse drag
//
// Returns:
//   - CameraControllerOption: functional option to set the look speed
func WithLookSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.lookSpeed = speed
	}
}
