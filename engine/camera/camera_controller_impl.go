package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-planet/common"
)

// cameraControllerImpl is the single implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position [3]float32
	yaw      float32
	pitch    float32
	rotation [16]float32

	moveSpeed       float32
	speedMultiplier float32
	lookSpeed       float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new fly controller at (0, 1, 3) looking down -Z, with a
// move speed of 5 units per second and a look speed of 0.003 radians per pixel.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:              &sync.Mutex{},
		position:        [3]float32{0, 1, 3},
		moveSpeed:       5.0,
		speedMultiplier: 1.0,
		lookSpeed:       0.003,
	}

	for _, option := range options {
		option(cc)
	}

	cc.updateRotation()
	return cc
}

// updateRotation rebuilds the rotation matrix from yaw and pitch. Caller must hold the mutex.
func (cc *cameraControllerImpl) updateRotation() {
	common.RotationYX(cc.rotation[:], cc.yaw, cc.pitch)
}

func (cc *cameraControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *cameraControllerImpl) SetPosition(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = [3]float32{x, y, z}
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) SetOrientation(yaw, pitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw, cc.pitch = yaw, pitch
	cc.updateRotation()
}

func (cc *cameraControllerImpl) Rotation() [16]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.rotation
}

func (cc *cameraControllerImpl) Forward() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return common.TransformDirection(cc.rotation[:], 0, 0, -1)
}

func (cc *cameraControllerImpl) Right() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return common.TransformDirection(cc.rotation[:], 1, 0, 0)
}

func (cc *cameraControllerImpl) Up() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return common.TransformDirection(cc.rotation[:], 0, 1, 0)
}

func (cc *cameraControllerImpl) MoveSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.moveSpeed
}

func (cc *cameraControllerImpl) SpeedMultiplier() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speedMultiplier
}

func (cc *cameraControllerImpl) LookSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.lookSpeed
}

func (cc *cameraControllerImpl) Update(in InputState, worldUp [3]float32, dt float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.speedMultiplier += cc.speedMultiplier * float32(in.ScrollDelta()) * dt * 5.0

	if in.IsMouseButtonDown(common.MouseButtonLeft) {
		dx, dy := in.MouseDelta()
		cc.yaw -= float32(dx) * cc.lookSpeed
		cc.pitch -= float32(dy) * cc.lookSpeed
		cc.updateRotation()
	}

	forward := common.TransformDirection(cc.rotation[:], 0, 0, -1)
	right := common.TransformDirection(cc.rotation[:], 1, 0, 0)

	var move [3]float32
	add := func(v [3]float32, sign float32) {
		move[0] += v[0] * sign
		move[1] += v[1] * sign
		move[2] += v[2] * sign
	}
	if in.IsKeyDown(common.KeyW) {
		add(forward, 1)
	}
	if in.IsKeyDown(common.KeyS) {
		add(forward, -1)
	}
	if in.IsKeyDown(common.KeyA) {
		add(right, -1)
	}
	if in.IsKeyDown(common.KeyD) {
		add(right, 1)
	}
	if in.IsKeyDown(common.KeySpace) {
		add(worldUp, 1)
	}
	if in.IsKeyDown(common.KeyLeftShift) {
		add(worldUp, -1)
	}
	if move == [3]float32{} {
		return
	}

	move = common.Normalize3(move)
	step := cc.moveSpeed * cc.speedMultiplier * dt
	cc.position[0] += move[0] * step
	cc.position[1] += move[1] * step
	cc.position[2] += move[2] * step
}
