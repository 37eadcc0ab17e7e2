package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-planet/engine/camera"
	"github.com/Carmen-Shannon/oxy-planet/engine/config"
	"github.com/Carmen-Shannon/oxy-planet/engine/input"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bloom"
	"github.com/Carmen-Shannon/oxy-planet/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScene records the calls the engine makes. Methods the engine never calls are left to the
// embedded nil interface.
type fakeScene struct {
	scene.Scene
	cam      camera.Camera
	in       input.State
	calls    []string
	settings *config.Settings
}

func newFakeScene() *fakeScene {
	return &fakeScene{cam: camera.NewCamera(), in: input.NewState()}
}

func (s *fakeScene) Camera() camera.Camera { return s.cam }
func (s *fakeScene) Input() input.State { return s.in }

func (s *fakeScene) ApplySettings(settings config.Settings) {
	s.settings = &settings
}

func (s *fakeScene) Update(dt float32) {
	s.calls = append(s.calls, "update")
}

func (s *fakeScene) Frame() renderer.FrameInput {
	s.calls = append(s.calls, "frame")
	return renderer.FrameInput{}
}

// fakeBloom tracks the level count the way the bloom stage does: SetLevels only stages it and
// the next Resize applies it.
type fakeBloom struct {
	bloom.Bloom
	levels   int
	pending  int
	settings bloom.Settings
}

func (b *fakeBloom) Levels() int { return b.levels }
func (b *fakeBloom) SetSettings(s bloom.Settings) { b.settings = s }

func (b *fakeBloom) SetLevels(levels int) error {
	if levels < 1 {
		return bloom.ErrInvalidLevels
	}
	b.pending = levels
	return nil
}

type fakeRenderer struct {
	renderer.Renderer
	bloom     *fakeBloom
	width     uint32
	height    uint32
	resizes   [][2]int
	resizeErr error
	drawErr   error
	draws     int
	mode      renderer.PresentMode
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{bloom: &fakeBloom{levels: 8, pending: 8}, width: 1280, height: 720}
}

func (r *fakeRenderer) Bloom() bloom.Bloom { return r.bloom }
func (r *fakeRenderer) Size() (uint32, uint32) { return r.width, r.height }
func (r *fakeRenderer) SetPresentMode(m renderer.PresentMode) { r.mode = m }

func (r *fakeRenderer) Resize(width, height int) error {
	r.resizes = append(r.resizes, [2]int{width, height})
	if r.resizeErr != nil {
		return r.resizeErr
	}
	r.bloom.levels = r.bloom.pending
	return nil
}

func (r *fakeRenderer) Draw(renderer.FrameInput) error {
	r.draws++
	return r.drawErr
}

func quitSignaled(e *engine) bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

func TestBloomSettingsFrom(t *testing.T) {
	got := BloomSettingsFrom(config.BloomSettings{
		Levels:        5,
		MinBrightness: 0.8,
		MaxBrightness: 2,
		BlurRadius:    1.5,
		BlurType:      1,
	})
	assert.Equal(t, bloom.Settings{
		MinBrightness: 0.8,
		MaxBrightness: 2,
		BlurRadius:    1.5,
		BlurType:      bloom.BlurBox,
	}, got)

	def := BloomSettingsFrom(config.Default().Bloom)
	assert.Equal(t, bloom.BlurGaussian, def.BlurType)
	assert.Equal(t, float32(0.9), def.MinBrightness)
}

func TestPresentModeFrom(t *testing.T) {
	assert.Equal(t, renderer.PresentModeUncapped, PresentModeFrom("uncapped"))
	assert.Equal(t, renderer.PresentModeVSync, PresentModeFrom("vsync"))
	assert.Equal(t, renderer.PresentModeVSync, PresentModeFrom(""))
}

func TestFrameDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), frameDuration(0))
	assert.Equal(t, time.Duration(0), frameDuration(-30))
	assert.Equal(t, 10*time.Millisecond, frameDuration(100))
	assert.InDelta(t, float64(time.Second/60), float64(frameDuration(60)), 1)
}

func TestAspectRatio(t *testing.T) {
	aspect, ok := aspectRatio(1600, 800)
	require.True(t, ok)
	assert.Equal(t, float32(2), aspect)

	_, ok = aspectRatio(800, 0)
	assert.False(t, ok)
}

func TestNewEngineUsesSceneInput(t *testing.T) {
	sc := newFakeScene()
	e := NewEngine(WithScene(sc))
	assert.Same(t, sc.in, e.Input())

	other := input.NewState()
	e = NewEngine(WithScene(sc), WithInput(other))
	assert.Same(t, other, e.Input())

	assert.NotNil(t, NewEngine().Input())
}

func TestResizeUpdatesCameraAspect(t *testing.T) {
	sc := newFakeScene()
	e := NewEngine(WithScene(sc)).(*engine)

	require.NoError(t, e.resize(1000, 500))
	assert.Equal(t, float32(2), sc.cam.Aspect())

	require.NoError(t, e.resize(1000, 0))
	assert.Equal(t, float32(2), sc.cam.Aspect(), "a minimized window keeps the previous aspect")
}

func TestRenderFrameUpdatesBeforeFrame(t *testing.T) {
	sc := newFakeScene()
	e := NewEngine(WithScene(sc)).(*engine)

	e.renderFrame(0.016)
	e.renderFrame(0.016)
	assert.Equal(t, []string{"update", "frame", "update", "frame"}, sc.calls)

	NewEngine().(*engine).renderFrame(0.016)
}

func TestApplySettings(t *testing.T) {
	sc := newFakeScene()
	e := NewEngine(WithScene(sc)).(*engine)

	s := config.Default()
	s.Renderer.FrameLimit = 50
	s.Profiler.Enabled = true
	s.Voxel.VoxelLevel = 5
	require.NoError(t, e.ApplySettings(s))

	require.NotNil(t, sc.settings)
	assert.Equal(t, 5, sc.settings.Voxel.VoxelLevel)
	assert.Equal(t, 20*time.Millisecond, e.renderFrameLimit)
	assert.True(t, e.profilingEnabled)

	s.Renderer.FrameLimit = 0
	s.Profiler.Enabled = false
	require.NoError(t, e.ApplySettings(s))
	assert.Zero(t, e.renderFrameLimit)
	assert.False(t, e.profilingEnabled)
}

func TestSetRenderFrameLimit(t *testing.T) {
	e := NewEngine(WithRenderFrameLimit(25)).(*engine)
	assert.Equal(t, 40*time.Millisecond, e.renderFrameLimit)

	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.renderFrameLimit)
}

func TestSetTickRate(t *testing.T) {
	e := NewEngine(WithTickRate(0)).(*engine)
	assert.InDelta(t, float64(time.Second/60), float64(e.engineTickRate), 1)

	e.SetTickRate(20)
	assert.Equal(t, 50*time.Millisecond, e.engineTickRate)
}

func TestQuitIsIdempotent(t *testing.T) {
	e := NewEngine().(*engine)
	e.Quit()
	e.Quit()

	select {
	case <-e.quitChannel:
	default:
		t.Fatal("quit channel not closed")
	}
}

func TestApplySettingsRebuildsBloomWhenLevelsChange(t *testing.T) {
	r := newFakeRenderer()
	e := NewEngine(WithRenderer(r)).(*engine)

	s := config.Default()
	s.Bloom.Levels = 5
	s.Bloom.MinBrightness = 0.7
	require.NoError(t, e.ApplySettings(s))

	assert.Equal(t, [][2]int{{1280, 720}}, r.resizes, "the chains are rebuilt at the current size")
	assert.Equal(t, 5, r.bloom.levels)
	assert.Equal(t, float32(0.7), r.bloom.settings.MinBrightness)

	s.Bloom.MinBrightness = 0.5
	require.NoError(t, e.ApplySettings(s))
	assert.Len(t, r.resizes, 1, "unchanged levels only rewrite the settings buffer")
	assert.Equal(t, float32(0.5), r.bloom.settings.MinBrightness)
	assert.False(t, quitSignaled(e))
}

func TestApplySettingsFailedRebuildStopsEngine(t *testing.T) {
	r := newFakeRenderer()
	r.resizeErr = errors.New("out of memory")
	e := NewEngine(WithRenderer(r)).(*engine)

	s := config.Default()
	s.Bloom.Levels = 4
	err := e.ApplySettings(s)
	require.ErrorIs(t, err, r.resizeErr)
	assert.True(t, quitSignaled(e))
}

func TestApplySettingsRejectsInvalidLevels(t *testing.T) {
	r := newFakeRenderer()
	e := NewEngine(WithRenderer(r)).(*engine)

	s := config.Default()
	s.Bloom.Levels = 0
	require.ErrorIs(t, e.ApplySettings(s), bloom.ErrInvalidLevels)
	assert.Empty(t, r.resizes)
}

func TestFailedResizeStopsEngine(t *testing.T) {
	r := newFakeRenderer()
	r.resizeErr = errors.New("bloom: out of memory")
	sc := newFakeScene()
	e := NewEngine(WithRenderer(r), WithScene(sc)).(*engine)
	before := sc.cam.Aspect()

	e.onResize(1000, 500)
	assert.True(t, quitSignaled(e))
	assert.Equal(t, before, sc.cam.Aspect())
}

func TestRenderFrameStopsOnIncompleteResize(t *testing.T) {
	r := newFakeRenderer()
	e := NewEngine(WithRenderer(r), WithScene(newFakeScene())).(*engine)

	r.drawErr = errors.New("frame scene pass: pipeline missing")
	e.renderFrame(0.016)
	assert.False(t, quitSignaled(e), "an ordinary frame error drops the frame only")

	r.drawErr = fmt.Errorf("%w: resize 800x600, bloom: lost", renderer.ErrResizeIncomplete)
	e.renderFrame(0.016)
	assert.True(t, quitSignaled(e))
	assert.Equal(t, 2, r.draws)
}
