package camera

// InputState is the read side of the input system the controller consumes each frame.
// Key and button codes follow the GLFW numbering in package common.
type InputState interface {
	// IsKeyDown reports whether a key is currently held.
	IsKeyDown(key int) bool

	// IsMouseButtonDown reports whether a mouse button is currently held.
	IsMouseButtonDown(button int) bool

	// MouseDelta returns the cursor movement accumulated since the last input update, in pixels.
	MouseDelta() (dx, dy float64)

	// ScrollDelta returns the vertical scroll accumulated since the last input update.
	ScrollDelta() float64
}

// CameraController defines the interface for the free-flying camera controller.
// The controller owns the camera's position and orientation. Orientation is stored as yaw
// (around world +Y) and pitch (around the yawed +X); the rotation is Ry(yaw) * Rx(pitch).
// Camera reads position and rotation from the controller to build its view matrix.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// SetPosition sets the camera's world-space position directly.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// Yaw returns the rotation around world +Y in radians.
	//
	// Returns:
	//   - float32: yaw in radians
	Yaw() float32

	// Pitch returns the rotation around the yawed +X axis in radians.
	//
	// Returns:
	//   - float32: pitch in radians
	Pitch() float32

	// SetOrientation sets yaw and pitch directly.
	//
	// Parameters:
	//   - yaw: rotation around world +Y in radians
	//   - pitch: rotation around the yawed +X axis in radians
	SetOrientation(yaw, pitch float32)

	// Rotation returns the orientation as a column-major 4x4 rotation matrix.
	//
	// Returns:
	//   - [16]float32: Ry(yaw) * Rx(pitch)
	Rotation() [16]float32

	// Forward returns the unit view direction, the rotated -Z axis.
	//
	// Returns:
	//   - [3]float32: the forward vector
	Forward() [3]float32

	// Right returns the unit right direction, the rotated +X axis.
	//
	// Returns:
	//   - [3]float32: the right vector
	Right() [3]float32

	// Up returns the unit up direction of the view, the rotated +Y axis.
	//
	// Returns:
	//   - [3]float32: the up vector
	Up() [3]float32

	// MoveSpeed returns the base translation speed in world units per second.
	//
	// Returns:
	//   - float32: the base move speed
	MoveSpeed() float32

	// SpeedMultiplier returns the scroll-controlled multiplier applied to MoveSpeed.
	//
	// Returns:
	//   - float32: the current multiplier
	SpeedMultiplier() float32

	// LookSpeed returns the radians of rotation per pixel of mouse drag.
	//
	// Returns:
	//   - float32: the look speed
	LookSpeed() float32

	// Update advances the controller by one frame. Scrolling scales the speed multiplier by
	// (1 + scroll * dt * 5). Dragging with the left mouse button held turns the camera.
	// W/S move along Forward, A/D along Right, Space and Left Shift along worldUp; the combined
	// direction is normalized and scaled by MoveSpeed * SpeedMultiplier * dt.
	//
	// Parameters:
	//   - in: the input state for this frame
	//   - worldUp: the up axis used for vertical movement
	//   - dt: the frame time in seconds
	Update(in InputState, worldUp [3]float32, dt float32)
}
