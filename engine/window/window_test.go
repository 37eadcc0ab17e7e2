package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-planet/engine/config"
	"github.com/stretchr/testify/assert"
)

func apply(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{title: "Voxel Renderer", width: 800, height: 800}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func TestWithSizeClampsToOnePixel(t *testing.T) {
	w := apply(WithSize(0, -4), WithMinSize(0, 0))
	assert.Equal(t, 1, w.Width())
	assert.Equal(t, 1, w.Height())
	assert.Equal(t, 1, w.minWidth)
	assert.Equal(t, 1, w.minHeight)
}

func TestWithSettingsAppliesWindowSection(t *testing.T) {
	w := apply(WithSettings(config.WindowSettings{
		Title:     "planet",
		Width:     1280,
		Height:    720,
		MinWidth:  320,
		MinHeight: 240,
	}))
	assert.Equal(t, "planet", w.title)
	assert.Equal(t, 1280, w.Width())
	assert.Equal(t, 720, w.Height())
	assert.Equal(t, 320, w.minWidth)
	assert.Equal(t, 240, w.minHeight)
}

func TestWithSettingsKeepsTitleWhenEmpty(t *testing.T) {
	w := apply(WithSettings(config.Default().Window), WithSettings(config.WindowSettings{Width: 640, Height: 480}))
	assert.Equal(t, "Voxel Renderer", w.title)
	assert.Equal(t, 640, w.Width())
}

func TestFramebufferResizedDropsRepeatedSize(t *testing.T) {
	w := apply(WithSize(800, 600))
	var got [][2]int
	w.SetResizeCallback(func(width, height int) { got = append(got, [2]int{width, height}) })

	w.framebufferResized(800, 600)
	w.framebufferResized(1024, 768)
	w.framebufferResized(1024, 768)
	w.framebufferResized(0, 0)

	assert.Equal(t, [][2]int{{1024, 768}, {0, 0}}, got, "a minimized window is still forwarded")
	assert.Equal(t, 0, w.Width())
}

func TestKeyAndButtonEventsRouteByState(t *testing.T) {
	w := apply()
	var down, up, pressed, released []int
	w.SetKeyDownCallback(func(k int) { down = append(down, k) })
	w.SetKeyUpCallback(func(k int) { up = append(up, k) })
	w.SetMouseButtonDownCallback(func(b int) { pressed = append(pressed, b) })
	w.SetMouseButtonUpCallback(func(b int) { released = append(released, b) })

	w.keyEvent(91, true)
	w.keyEvent(91, false)
	w.mouseButtonEvent(0, true)
	w.mouseButtonEvent(0, false)

	assert.Equal(t, []int{91}, down)
	assert.Equal(t, []int{91}, up)
	assert.Equal(t, []int{0}, pressed)
	assert.Equal(t, []int{0}, released)

	bare := apply()
	assert.NotPanics(t, func() {
		bare.keyEvent(1, true)
		bare.mouseButtonEvent(1, false)
		bare.framebufferResized(10, 10)
	})
}
