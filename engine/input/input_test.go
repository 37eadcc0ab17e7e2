package input

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-planet/common"
	"github.com/stretchr/testify/assert"
)

func TestKeyEdges(t *testing.T) {
	s := NewState()

	s.KeyDown(common.KeyW)
	assert.True(t, s.IsKeyDown(common.KeyW))
	assert.True(t, s.IsKeyPressed(common.KeyW))
	assert.False(t, s.IsKeyReleased(common.KeyW))

	s.Update()
	assert.True(t, s.IsKeyDown(common.KeyW))
	assert.False(t, s.IsKeyPressed(common.KeyW), "pressed lasts one frame")

	s.KeyUp(common.KeyW)
	assert.False(t, s.IsKeyDown(common.KeyW))
	assert.True(t, s.IsKeyReleased(common.KeyW))

	s.Update()
	assert.False(t, s.IsKeyReleased(common.KeyW))
}

func TestKeyRepeatDoesNotRetrigger(t *testing.T) {
	s := NewState()
	s.KeyDown(common.KeyRightBracket)
	s.Update()

	s.KeyDown(common.KeyRightBracket)
	assert.False(t, s.IsKeyPressed(common.KeyRightBracket))
}

func TestMouseButtonEdges(t *testing.T) {
	s := NewState()

	s.MouseButtonDown(common.MouseButtonLeft)
	assert.True(t, s.IsMouseButtonPressed(common.MouseButtonLeft))
	assert.False(t, s.IsMouseButtonDown(common.MouseButtonRight))

	s.Update()
	s.MouseButtonUp(common.MouseButtonLeft)
	assert.False(t, s.IsMouseButtonDown(common.MouseButtonLeft))
	assert.True(t, s.IsMouseButtonReleased(common.MouseButtonLeft))
}

func TestCursorDeltaAccumulatesAndResets(t *testing.T) {
	s := NewState()

	s.CursorMoved(100, 100)
	dx, dy := s.MouseDelta()
	assert.Zero(t, dx, "first position only sets the origin")
	assert.Zero(t, dy)

	s.CursorMoved(110, 95)
	s.CursorMoved(115, 90)
	dx, dy = s.MouseDelta()
	assert.Equal(t, 15.0, dx)
	assert.Equal(t, -10.0, dy)

	x, y := s.CursorPosition()
	assert.Equal(t, 115.0, x)
	assert.Equal(t, 90.0, y)

	s.Update()
	dx, dy = s.MouseDelta()
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}

func TestScrollAccumulatesAndResets(t *testing.T) {
	s := NewState()
	s.Scrolled(1)
	s.Scrolled(0.5)
	assert.Equal(t, 1.5, s.ScrollDelta())

	s.Update()
	assert.Zero(t, s.ScrollDelta())
}

func TestConcurrentWritersAndReader(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				s.KeyDown(i)
				s.CursorMoved(float64(j), float64(j))
				s.Scrolled(1)
				s.KeyUp(i)
			}
		}()
	}
	for range 50 {
		s.IsKeyDown(0)
		s.MouseDelta()
	}
	wg.Wait()

	assert.Equal(t, 800.0, s.ScrollDelta())
	for i := range 8 {
		assert.False(t, s.IsKeyDown(i))
	}
}
