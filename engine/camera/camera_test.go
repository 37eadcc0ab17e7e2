package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-planet/common"
	"github.com/Carmen-Shannon/oxy-planet/engine/config"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInput struct {
	keys    map[int]bool
	buttons map[int]bool
	dx, dy  float64
	scroll  float64
}

func newFakeInput() *fakeInput {
	return &fakeInput{keys: map[int]bool{}, buttons: map[int]bool{}}
}

func (f *fakeInput) IsKeyDown(key int) bool            { return f.keys[key] }
func (f *fakeInput) IsMouseButtonDown(button int) bool { return f.buttons[button] }
func (f *fakeInput) MouseDelta() (float64, float64)    { return f.dx, f.dy }
func (f *fakeInput) ScrollDelta() float64              { return f.scroll }

func assertVec3(t *testing.T, want, got [3]float32) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d", i)
	}
}

func TestControllerDefaults(t *testing.T) {
	cc := NewCameraController()

	x, y, z := cc.Position()
	assert.Equal(t, [3]float32{0, 1, 3}, [3]float32{x, y, z})
	assert.Equal(t, float32(5), cc.MoveSpeed())
	assert.Equal(t, float32(1), cc.SpeedMultiplier())
	assert.Equal(t, float32(0.003), cc.LookSpeed())
	assertVec3(t, [3]float32{0, 0, -1}, cc.Forward())
	assertVec3(t, [3]float32{1, 0, 0}, cc.Right())
	assertVec3(t, [3]float32{0, 1, 0}, cc.Up())
}

func TestControllerMovesForward(t *testing.T) {
	cc := NewCameraController()
	in := newFakeInput()
	in.keys[common.KeyW] = true

	cc.Update(in, [3]float32{0, 1, 0}, 0.5)

	x, y, z := cc.Position()
	assertVec3(t, [3]float32{0, 1, 0.5}, [3]float32{x, y, z})
}

func TestControllerNormalizesDiagonalMovement(t *testing.T) {
	cc := NewCameraController(WithPosition(0, 0, 0))
	in := newFakeInput()
	in.keys[common.KeyW] = true
	in.keys[common.KeyD] = true

	cc.Update(in, [3]float32{0, 1, 0}, 1)

	x, y, z := cc.Position()
	assert.InDelta(t, 5.0, math32.Sqrt(x*x+y*y+z*z), 1e-4)
	assert.InDelta(t, x, -z, 1e-5)
}

func TestControllerVerticalMovementUsesWorldUp(t *testing.T) {
	cc := NewCameraController(WithPosition(0, 0, 0), WithOrientation(0, 0.5))
	in := newFakeInput()
	in.keys[common.KeySpace] = true

	cc.Update(in, [3]float32{0, 1, 0}, 1)
	x, y, z := cc.Position()
	assertVec3(t, [3]float32{0, 5, 0}, [3]float32{x, y, z})

	in.keys[common.KeySpace] = false
	in.keys[common.KeyLeftShift] = true
	cc.Update(in, [3]float32{0, 1, 0}, 1)
	x, y, z = cc.Position()
	assertVec3(t, [3]float32{0, 0, 0}, [3]float32{x, y, z})
}

func TestControllerOpposingKeysCancel(t *testing.T) {
	cc := NewCameraController()
	in := newFakeInput()
	in.keys[common.KeyW] = true
	in.keys[common.KeyS] = true

	cc.Update(in, [3]float32{0, 1, 0}, 1)

	x, y, z := cc.Position()
	assert.Equal(t, [3]float32{0, 1, 3}, [3]float32{x, y, z})
}

func TestControllerLooksOnlyWhileDragging(t *testing.T) {
	cc := NewCameraController()
	in := newFakeInput()
	in.dx, in.dy = 100, 50

	cc.Update(in, [3]float32{0, 1, 0}, 0.016)
	assert.Zero(t, cc.Yaw())
	assert.Zero(t, cc.Pitch())

	in.buttons[common.MouseButtonLeft] = true
	cc.Update(in, [3]float32{0, 1, 0}, 0.016)
	assert.InDelta(t, -0.3, cc.Yaw(), 1e-6)
	assert.InDelta(t, -0.15, cc.Pitch(), 1e-6)
}

func TestControllerYawTurnsLeft(t *testing.T) {
	cc := NewCameraController(WithOrientation(math32.Pi/2, 0))

	assertVec3(t, [3]float32{-1, 0, 0}, cc.Forward())
	assertVec3(t, [3]float32{0, 0, -1}, cc.Right())
}

func TestControllerScrollScalesMultiplier(t *testing.T) {
	cc := NewCameraController()
	in := newFakeInput()
	in.scroll = 2

	cc.Update(in, [3]float32{0, 1, 0}, 0.1)
	assert.InDelta(t, 2.0, cc.SpeedMultiplier(), 1e-6)

	in.scroll = 0
	in.keys[common.KeyW] = true
	cc.SetPosition(0, 0, 0)
	cc.Update(in, [3]float32{0, 1, 0}, 0.1)
	_, _, z := cc.Position()
	assert.InDelta(t, -1.0, z, 1e-5)
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()

	assert.InDelta(t, math.Pi/4, c.Fov(), 1e-6)
	assert.InDelta(t, 16.0/9.0, c.Aspect(), 1e-6)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())
	require.NotNil(t, c.Controller())
	require.NotNil(t, c.BindGroupProvider())
	assert.Contains(t, c.BindGroupProvider().Label(), "camera_")
}

func TestCameraWithSettings(t *testing.T) {
	s := config.Default().Camera
	s.FovDegrees = 60
	s.Near, s.Far = 0.5, 250
	s.StartPosition = [3]float32{1, 2, 9}
	s.LookSpeed = 0.01

	c := NewCamera(WithSettings(s), WithAspect(2))
	assert.InDelta(t, math.Pi/3, c.Fov(), 1e-6)
	assert.Equal(t, float32(0.5), c.Near())
	assert.Equal(t, float32(250), c.Far())
	assert.Equal(t, float32(2), c.Aspect())

	x, y, z := c.Position()
	assertVec3(t, [3]float32{1, 2, 9}, [3]float32{x, y, z})
	assert.Equal(t, s.MoveSpeed, c.Controller().MoveSpeed())
	assert.Equal(t, float32(0.01), c.Controller().LookSpeed())
}

func TestCameraViewMovesEyeToOrigin(t *testing.T) {
	c := NewCamera(WithController(NewCameraController(WithPosition(2, 3, 4), WithOrientation(0.4, -0.2))))

	view := c.ViewMatrix()
	eye := [4]float32{2, 3, 4, 1}
	var out [4]float32
	for row := range 4 {
		for col := range 4 {
			out[row] += view[col*4+row] * eye[col]
		}
	}
	assertVec3(t, [3]float32{0, 0, 0}, [3]float32{out[0], out[1], out[2]})
}

func TestCameraInverseViewProjection(t *testing.T) {
	c := NewCamera()
	in := newFakeInput()
	in.keys[common.KeyA] = true
	in.buttons[common.MouseButtonLeft] = true
	in.dx = 40
	c.Update(in, 0.25)

	vp := c.ViewProjectionMatrix()
	inv := c.InverseViewProjectionMatrix()
	var product, id [16]float32
	common.Mul4(product[:], vp[:], inv[:])
	common.Identity(id[:])
	for i := range product {
		assert.InDelta(t, id[i], product[i], 1e-3, "element %d", i)
	}
}

func TestCameraSetAspectUpdatesProjection(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()

	c.SetAspect(1)

	after := c.ProjectionMatrix()
	assert.InDelta(t, before[0]*16/9, after[0], 1e-5)
	assert.Equal(t, before[5], after[5])
}

func TestCameraUniform(t *testing.T) {
	c := NewCamera()
	u := c.Uniform(12.5)

	require.Equal(t, 208, u.Size())
	assert.Equal(t, c.ViewProjectionMatrix(), u.ViewProj)
	assert.Equal(t, c.InverseViewProjectionMatrix(), u.InvViewProj)
	assert.Equal(t, c.ViewMatrix(), u.View)
	assert.Equal(t, [3]float32{0, 1, 3}, u.Position)

	buf := u.Marshal()
	require.Len(t, buf, 208)
	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, u.ViewProj[0], f32(0))
	assert.Equal(t, u.InvViewProj[5], f32(64+20))
	assert.Equal(t, u.View[15], f32(128+60))
	assert.Equal(t, float32(1), f32(196))
	assert.Equal(t, float32(3), f32(200))
	assert.Equal(t, float32(12.5), f32(204))
}
