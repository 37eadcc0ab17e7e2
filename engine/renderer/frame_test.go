package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/color_correction"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/overlay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	calls   []string
	failAt  FrameStep
	fail    error
	aborted int

	correction *color_correction.Uniform
	state      overlay.State
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{failAt: -1}
}

func (f *fakeRecorder) step(s FrameStep) error {
	f.calls = append(f.calls, s.String())
	if s == f.failAt {
		return f.fail
	}
	return nil
}

func (f *fakeRecorder) begin(FrameInput) error { return f.step(StepBegin) }
func (f *fakeRecorder) scenePass(FrameInput) error { return f.step(StepScene) }
func (f *fakeRecorder) bloomRender() error { return f.step(StepBloomRender) }
func (f *fakeRecorder) bloomApply() error { return f.step(StepBloomApply) }
func (f *fakeRecorder) submit() error { return f.step(StepSubmit) }
func (f *fakeRecorder) present() error { return f.step(StepPresent) }
func (f *fakeRecorder) abort() { f.aborted++ }
func (f *fakeRecorder) drawOverlay(s overlay.State) error {
	f.state = s
	return f.step(StepOverlay)
}
func (f *fakeRecorder) correctColor(u *color_correction.Uniform) error {
	f.correction = u
	return f.step(StepColorCorrection)
}

func stepNames(steps []FrameStep) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.String()
	}
	return names
}

func TestDrawFrameRunsStepsInOrder(t *testing.T) {
	f := newFakeRecorder()
	u := color_correction.Uniform{Brightness: 1.2, Contrast: 1, Saturation: 0.5}
	state := overlay.State{VoxelLevel: 4, Correction: u}

	err := drawFrame(f, FrameInput{Correction: &u, Overlay: state})
	require.NoError(t, err)

	assert.Equal(t, stepNames(FrameSteps), f.calls)
	assert.Equal(t, []string{"begin", "scene pass", "bloom render", "bloom apply", "color correction", "overlay", "submit", "present"}, f.calls)
	assert.Zero(t, f.aborted)
	require.NotNil(t, f.correction)
	assert.Equal(t, u, *f.correction)
	assert.Equal(t, state, f.state)
}

func TestDrawFrameOverlayFollowsColorCorrection(t *testing.T) {
	f := newFakeRecorder()
	require.NoError(t, drawFrame(f, FrameInput{}))

	cc := indexOf(f.calls, StepColorCorrection.String())
	ov := indexOf(f.calls, StepOverlay.String())
	submit := indexOf(f.calls, StepSubmit.String())
	assert.Less(t, cc, ov)
	assert.Less(t, ov, submit)
	assert.Nil(t, f.correction)
}

func TestDrawFrameAbortsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	for i, failing := range FrameSteps {
		t.Run(failing.String(), func(t *testing.T) {
			f := newFakeRecorder()
			f.failAt = failing
			f.fail = boom

			err := drawFrame(f, FrameInput{})
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), failing.String())

			assert.Equal(t, stepNames(FrameSteps[:i+1]), f.calls)
			if failing == StepBegin {
				assert.Zero(t, f.aborted)
			} else {
				assert.Equal(t, 1, f.aborted)
			}
		})
	}
}

func indexOf(calls []string, name string) int {
	for i, c := range calls {
		if c == name {
			return i
		}
	}
	return -1
}

type fakeResizer struct {
	calls  []string
	sizes  [][2]uint32
	failAt ResizeStep
	fail   error
}

func (f *fakeResizer) record(s ResizeStep, w, h uint32) error {
	f.calls = append(f.calls, s.String())
	f.sizes = append(f.sizes, [2]uint32{w, h})
	if s == f.failAt {
		return f.fail
	}
	return nil
}

func (f *fakeResizer) configureSurface(w, h uint32) error {
	return f.record(ResizeSurface, w, h)
}

func (f *fakeResizer) recreateTarget(kind TargetKind, w, h uint32) error {
	switch kind {
	case TargetDepth:
		return f.record(ResizeDepth, w, h)
	case TargetScene:
		return f.record(ResizeScene, w, h)
	default:
		return f.record(ResizePost, w, h)
	}
}

func (f *fakeResizer) resizeBloom(w, h uint32) error {
	return f.record(ResizeBloom, w, h)
}

func (f *fakeResizer) resizeColorCorrection() error {
	return f.record(ResizeColorCorrection, 0, 0)
}

func TestResizeTargetsOrder(t *testing.T) {
	f := &fakeResizer{failAt: -1}
	w, h, err := resizeTargets(f, 1280, 720)
	require.NoError(t, err)

	assert.Equal(t, uint32(1280), w)
	assert.Equal(t, uint32(720), h)

	want := make([]string, len(ResizeSteps))
	for i, s := range ResizeSteps {
		want[i] = s.String()
	}
	assert.Equal(t, want, f.calls)
	assert.Equal(t, []string{"surface", "depth target", "scene target", "post target", "bloom", "color correction"}, f.calls)
	for _, size := range f.sizes[:5] {
		assert.Equal(t, [2]uint32{1280, 720}, size)
	}
}

func TestResizeTargetsClampsToOne(t *testing.T) {
	f := &fakeResizer{failAt: -1}
	w, h, err := resizeTargets(f, 0, -5)
	require.NoError(t, err)

	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)
	assert.Equal(t, [2]uint32{1, 1}, f.sizes[0])
	assert.Equal(t, [2]uint32{1, 1}, f.sizes[4])
}

func TestResizeTargetsStopsAtFailure(t *testing.T) {
	boom := errors.New("out of memory")
	f := &fakeResizer{failAt: ResizeScene, fail: boom}

	_, _, err := resizeTargets(f, 640, 480)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "640x480")
	assert.Equal(t, []string{"surface", "depth target", "scene target"}, f.calls)
}

func TestFrameGateRefusesFramesAfterFailedBloomResize(t *testing.T) {
	boom := errors.New("out of memory")
	var gate frameGate
	res := &fakeResizer{failAt: ResizeBloom, fail: boom}

	_, _, err := gate.resize(res, 1024, 768)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"surface", "depth target", "scene target", "post target", "bloom"}, res.calls,
		"color correction is never rebound to the new post target")

	rec := newFakeRecorder()
	err = gate.draw(rec, FrameInput{})
	require.ErrorIs(t, err, ErrResizeIncomplete)
	assert.Contains(t, err.Error(), "out of memory")
	assert.Empty(t, rec.calls, "no step of the frame is recorded")
	assert.Zero(t, rec.aborted)

	err = gate.draw(rec, FrameInput{})
	require.ErrorIs(t, err, ErrResizeIncomplete, "frames stay refused until a resize completes")
}

func TestFrameGateRecoversAfterCompletedResize(t *testing.T) {
	var gate frameGate
	_, _, err := gate.resize(&fakeResizer{failAt: ResizeColorCorrection, fail: errors.New("lost")}, 800, 600)
	require.Error(t, err)

	w, h, err := gate.resize(&fakeResizer{failAt: -1}, 800, 600)
	require.NoError(t, err)
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)

	rec := newFakeRecorder()
	require.NoError(t, gate.draw(rec, FrameInput{}))
	assert.Equal(t, stepNames(FrameSteps), rec.calls)
}

func TestClampSize(t *testing.T) {
	w, h := ClampSize(800, 600)
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)

	w, h = ClampSize(0, 0)
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)
}

func TestStepStrings(t *testing.T) {
	assert.Equal(t, "unknown", FrameStep(99).String())
	assert.Equal(t, "unknown", ResizeStep(99).String())
	assert.Equal(t, "Post", TargetPost.String())
}
