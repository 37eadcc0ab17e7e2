package overlay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// maxRects bounds the vertex buffer; Layout never produces more.
const maxRects = 32

// ErrMissingView is returned when the overlay is recorded without a target view.
var ErrMissingView = errors.New("overlay: missing texture view")

// overlay is the implementation of the Overlay interface.
type overlay struct {
	mu *sync.Mutex

	device *wgpu.Device
	queue  *wgpu.Queue

	pipeline pipeline.Pipeline
	mesh     bind_group_provider.BindGroupProvider
}

// Overlay draws the HUD over a view that already holds the frame. Its render pass loads the
// existing contents and never clears them.
type Overlay interface {
	// Record uploads the HUD vertices for state and records the overlay render pass into encoder.
	//
	// Parameters:
	//   - encoder: the frame's command encoder
	//   - view: the view to draw over, usually the surface view
	//   - width, height: the size of view in pixels
	//   - state: the values to display
	//
	// Returns:
	//   - error: ErrMissingView if view is nil
	Record(encoder *wgpu.CommandEncoder, view *wgpu.TextureView, width, height uint32, state State) error

	// Release frees every GPU resource the overlay owns.
	Release()
}

var _ Overlay = &overlay{}

// NewOverlay creates the overlay pipeline for the given target format and its vertex buffer.
//
// Parameters:
//   - device: the GPU device
//   - queue: the device queue used for vertex uploads
//   - format: the format of the view Record draws over
//
// Returns:
//   - Overlay: the overlay
//   - error: a creation error
func NewOverlay(device *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat) (Overlay, error) {
	o := &overlay{
		mu:     &sync.Mutex{},
		device: device,
		queue:  queue,
	}

	p := NewPipeline(format)
	if err := pipeline.CreateRenderPipeline(device, p); err != nil {
		return nil, err
	}
	o.pipeline = p

	stride := (&GPUOverlayVertex{}).Size()
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Overlay Vertex Buffer",
		Size:  uint64(maxRects * verticesPerRect * stride),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		o.Release()
		return nil, fmt.Errorf("failed to create overlay vertex buffer: %w", err)
	}
	o.mesh = bind_group_provider.NewBindGroupProvider("overlay_mesh", bind_group_provider.WithVertexBuffer(buf))
	return o, nil
}

// NewPipeline describes the overlay render pipeline: alpha blended triangles, no culling and no depth stage.
//
// Parameters:
//   - format: the format of the color target
//
// Returns:
//   - pipeline.Pipeline: the pipeline description, not yet created on a device
func NewPipeline(format wgpu.TextureFormat) pipeline.Pipeline {
	vs := shader.NewShaderFromSource("overlay_vs", shader.ShaderTypeVertex, KernelSource)
	fs := shader.NewShaderFromSource("overlay_fs", shader.ShaderTypeFragment, KernelSource)
	return pipeline.NewPipeline("overlay", pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithCullMode(wgpu.CullModeNone),
		pipeline.WithColorFormat(format),
		pipeline.WithDepthFormat(wgpu.TextureFormatUndefined),
		pipeline.WithBlendEnabled(true),
	)
}

// loadAttachment is the overlay's color attachment. It must load, the view already holds the frame.
func loadAttachment(view *wgpu.TextureView) wgpu.RenderPassColorAttachment {
	return wgpu.RenderPassColorAttachment{
		View:    view,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
}

func (o *overlay) Record(encoder *wgpu.CommandEncoder, view *wgpu.TextureView, width, height uint32, state State) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if encoder == nil || view == nil {
		return fmt.Errorf("%w: record needs an encoder and a view", ErrMissingView)
	}

	rects := Layout(state, width, height)
	if len(rects) > maxRects {
		rects = rects[:maxRects]
	}
	vertices := RectVertices(rects)
	o.queue.WriteBuffer(o.mesh.VertexBuffer(), 0, MarshalVertices(vertices))

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "Overlay Render Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{loadAttachment(view)},
	})
	pass.SetPipeline(o.pipeline.Pipeline().(*wgpu.RenderPipeline))
	pass.SetVertexBuffer(0, o.mesh.VertexBuffer(), 0, wgpu.WholeSize)
	pass.Draw(uint32(len(vertices)), 1, 0, 0)
	pass.End()
	pass.Release()
	return nil
}

func (o *overlay) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeline != nil {
		if rp, ok := o.pipeline.Pipeline().(*wgpu.RenderPipeline); ok && rp != nil {
			rp.Release()
		}
		o.pipeline = nil
	}
	if o.mesh != nil {
		o.mesh.Release()
		o.mesh = nil
	}
}
