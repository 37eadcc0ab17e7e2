package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-planet/common"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/color_correction"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/overlay"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/pipeline"
)

// FrameInput is everything the scene hands the renderer for one frame.
type FrameInput struct {
	// Pipeline is the registered scene render pipeline.
	Pipeline pipeline.Pipeline
	// Mesh holds the vertex and index buffers drawn by the scene pass.
	Mesh bind_group_provider.BindGroupProvider
	// BindGroups are set on the scene pass in group order.
	BindGroups []bind_group_provider.BindGroupProvider
	// Writes are queued before any pass is recorded.
	Writes []bind_group_provider.BufferWrite
	// Correction is written to the color correction uniform ahead of its pass. Nil keeps the current one.
	Correction *color_correction.Uniform
	// Overlay is what the HUD displays.
	Overlay overlay.State
}

// FrameStep is one step of a frame, in the order drawFrame runs them.
type FrameStep int

const (
	StepBegin FrameStep = iota
	StepScene
	StepBloomRender
	StepBloomApply
	StepColorCorrection
	StepOverlay
	StepSubmit
	StepPresent
)

// FrameSteps lists every frame step in execution order.
var FrameSteps = []FrameStep{StepBegin, StepScene, StepBloomRender, StepBloomApply, StepColorCorrection, StepOverlay, StepSubmit, StepPresent}

func (s FrameStep) String() string {
	switch s {
	case StepBegin:
		return "begin"
	case StepScene:
		return "scene pass"
	case StepBloomRender:
		return "bloom render"
	case StepBloomApply:
		return "bloom apply"
	case StepColorCorrection:
		return "color correction"
	case StepOverlay:
		return "overlay"
	case StepSubmit:
		return "submit"
	case StepPresent:
		return "present"
	default:
		return "unknown"
	}
}

// frameRecorder records the steps of one frame into a single command stream.
type frameRecorder interface {
	// begin queues the frame's buffer writes, acquires the surface and creates the encoder.
	begin(frame FrameInput) error
	scenePass(frame FrameInput) error
	bloomRender() error
	bloomApply() error
	correctColor(u *color_correction.Uniform) error
	drawOverlay(state overlay.State) error
	submit() error
	present() error
	// abort drops the encoder and the surface of a frame that failed after begin.
	abort()
}

// drawFrame records and submits one frame in pass order. The first failing step aborts the frame
// and its error is returned; no later step runs.
func drawFrame(r frameRecorder, frame FrameInput) error {
	steps := []struct {
		step FrameStep
		run  func() error
	}{
		{StepBegin, func() error { return r.begin(frame) }},
		{StepScene, func() error { return r.scenePass(frame) }},
		{StepBloomRender, r.bloomRender},
		{StepBloomApply, r.bloomApply},
		{StepColorCorrection, func() error { return r.correctColor(frame.Correction) }},
		{StepOverlay, func() error { return r.drawOverlay(frame.Overlay) }},
		{StepSubmit, r.submit},
		{StepPresent, r.present},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			if s.step != StepBegin {
				r.abort()
			}
			return fmt.Errorf("frame %s: %w", s.step, err)
		}
	}
	return nil
}

// ResizeStep is one step of the resize protocol, in the order resizeTargets runs them.
type ResizeStep int

const (
	ResizeSurface ResizeStep = iota
	ResizeDepth
	ResizeScene
	ResizePost
	ResizeBloom
	ResizeColorCorrection
)

// ResizeSteps lists every resize step in execution order.
var ResizeSteps = []ResizeStep{ResizeSurface, ResizeDepth, ResizeScene, ResizePost, ResizeBloom, ResizeColorCorrection}

func (s ResizeStep) String() string {
	switch s {
	case ResizeSurface:
		return "surface"
	case ResizeDepth:
		return "depth target"
	case ResizeScene:
		return "scene target"
	case ResizePost:
		return "post target"
	case ResizeBloom:
		return "bloom"
	case ResizeColorCorrection:
		return "color correction"
	default:
		return "unknown"
	}
}

// resizer performs the individual steps of the resize protocol.
type resizer interface {
	configureSurface(width, height uint32) error
	recreateTarget(kind TargetKind, width, height uint32) error
	resizeBloom(width, height uint32) error
	// resizeColorCorrection rebinds color correction to the post target created in this resize.
	resizeColorCorrection() error
}

// ClampSize clamps a window size to the smallest valid surface, 1x1.
//
// Parameters:
//   - width, height: the window size, possibly zero or negative while minimized
//
// Returns:
//   - uint32, uint32: the clamped size
func ClampSize(width, height int) (uint32, uint32) {
	return common.AtLeastOne(width), common.AtLeastOne(height)
}

// resizeTargets runs the resize protocol: surface, depth, scene, post, bloom, color correction.
// It stops at the first failing step.
func resizeTargets(r resizer, width, height int) (uint32, uint32, error) {
	w, h := ClampSize(width, height)
	steps := []struct {
		step ResizeStep
		run  func() error
	}{
		{ResizeSurface, func() error { return r.configureSurface(w, h) }},
		{ResizeDepth, func() error { return r.recreateTarget(TargetDepth, w, h) }},
		{ResizeScene, func() error { return r.recreateTarget(TargetScene, w, h) }},
		{ResizePost, func() error { return r.recreateTarget(TargetPost, w, h) }},
		{ResizeBloom, func() error { return r.resizeBloom(w, h) }},
		{ResizeColorCorrection, r.resizeColorCorrection},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			return w, h, fmt.Errorf("resize %dx%d, %s: %w", w, h, s.step, err)
		}
	}
	return w, h, nil
}

// ErrResizeIncomplete is returned by Draw after a resize failed part way. Some targets may already
// have been replaced while later stages still reference the released views, so no frame is drawn
// until a resize completes.
var ErrResizeIncomplete = errors.New("renderer: resize incomplete")

// frameGate runs frames and resizes and refuses frames while the last resize is incomplete.
type frameGate struct {
	failed error
}

// resize runs the resize protocol and records whether it completed.
func (g *frameGate) resize(r resizer, width, height int) (uint32, uint32, error) {
	w, h, err := resizeTargets(r, width, height)
	g.failed = err
	return w, h, err
}

// draw runs one frame unless the last resize is incomplete.
func (g *frameGate) draw(r frameRecorder, frame FrameInput) error {
	if g.failed != nil {
		return fmt.Errorf("%w: %v", ErrResizeIncomplete, g.failed)
	}
	return drawFrame(r, frame)
}
