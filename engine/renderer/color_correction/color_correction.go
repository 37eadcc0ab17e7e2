package color_correction

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	bindingInput   = 0
	bindingSampler = 1
	bindingUniform = 2
)

// ErrMissingView is returned when the pass is recorded or rebuilt without a texture view.
var ErrMissingView = errors.New("color correction: missing texture view")

// colorCorrection is the implementation of the ColorCorrection interface.
type colorCorrection struct {
	mu *sync.Mutex

	device *wgpu.Device
	queue  *wgpu.Queue

	uniform     Uniform
	sampler     *wgpu.Sampler
	ownsSampler bool

	pipeline pipeline.Pipeline
	provider bind_group_provider.BindGroupProvider
}

// ColorCorrection is the full screen color correction stage. It samples the post-process target
// and writes brightness, contrast and saturation corrected color into the frame's output view.
type ColorCorrection interface {
	// Uniform returns the current correction parameters.
	//
	// Returns:
	//   - Uniform: the current parameters
	Uniform() Uniform

	// UpdateUniform queues a write of new correction parameters. The write lands ahead of any pass
	// recorded into the same submission.
	//
	// Parameters:
	//   - u: the new parameters
	UpdateUniform(u Uniform)

	// Apply records the color correction render pass into encoder. The pass clears outputView to
	// black and draws one full screen strip. Recording it twice with the same uniform and input
	// produces the same output.
	//
	// Parameters:
	//   - encoder: the frame's command encoder
	//   - outputView: the view to write, usually the surface view
	//
	// Returns:
	//   - error: ErrMissingView if outputView is nil
	Apply(encoder *wgpu.CommandEncoder, outputView *wgpu.TextureView) error

	// Resize rebuilds the bind group over a new input view. The previous bind group is released
	// once the new one exists.
	//
	// Parameters:
	//   - inputView: the post-process view to sample
	//
	// Returns:
	//   - error: ErrMissingView if inputView is nil, or a bind group creation error
	Resize(inputView *wgpu.TextureView) error

	// Release frees every GPU resource the stage owns.
	Release()
}

var _ ColorCorrection = &colorCorrection{}

// NewColorCorrection creates the color correction stage, compiling its render pipeline for the
// given output format and binding inputView.
//
// Parameters:
//   - device: the GPU device
//   - queue: the device queue used for uniform uploads
//   - inputView: the post-process view to sample
//   - outputFormat: the format of the view Apply writes into
//   - options: functional options to configure the stage
//
// Returns:
//   - ColorCorrection: the color correction stage
//   - error: a precondition or creation error
func NewColorCorrection(device *wgpu.Device, queue *wgpu.Queue, inputView *wgpu.TextureView, outputFormat wgpu.TextureFormat, options ...ColorCorrectionBuilderOption) (ColorCorrection, error) {
	c := &colorCorrection{
		mu:      &sync.Mutex{},
		device:  device,
		queue:   queue,
		uniform: DefaultUniform(),
	}
	for _, option := range options {
		option(c)
	}
	if inputView == nil {
		return nil, fmt.Errorf("%w: no input view", ErrMissingView)
	}

	p := NewPipeline(outputFormat)
	layout, err := device.CreateBindGroupLayout(ptr(pipeline.BindGroupLayoutDescriptors(p)[0]))
	if err != nil {
		return nil, fmt.Errorf("failed to create color correction bind group layout: %w", err)
	}
	c.provider = bind_group_provider.NewBindGroupProvider("color_correction",
		bind_group_provider.WithBindGroupLayout(layout),
	)

	if c.sampler == nil {
		if c.sampler, err = createSampler(device); err != nil {
			c.Release()
			return nil, err
		}
		c.ownsSampler = true
	}

	gpu := newGPUColorCorrection(c.uniform)
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Color Correction Uniform Buffer",
		Size:  uint64(gpu.Size()),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("failed to create color correction uniform buffer: %w", err)
	}
	c.provider.SetBuffer(bindingUniform, buf)
	queue.WriteBuffer(buf, 0, gpu.Marshal())

	p = NewPipeline(outputFormat, pipeline.WithBindGroupLayouts(layout))
	if err = pipeline.CreateRenderPipeline(device, p); err != nil {
		c.Release()
		return nil, err
	}
	c.pipeline = p

	if err = c.Resize(inputView); err != nil {
		c.Release()
		return nil, err
	}

	log.Printf("[ColorCorrection] created, output format %v", outputFormat)
	return c, nil
}

// NewPipeline describes the color correction render pipeline: a vertex-index driven strip with no
// vertex buffers, no culling and no depth stage.
//
// Parameters:
//   - outputFormat: the format of the color target
//   - options: extra pipeline options, applied last
//
// Returns:
//   - pipeline.Pipeline: the pipeline description, not yet created on a device
func NewPipeline(outputFormat wgpu.TextureFormat, options ...pipeline.PipelineBuilderOption) pipeline.Pipeline {
	vs := shader.NewShaderFromSource("color_correction_vs", shader.ShaderTypeVertex, KernelSource)
	fs := shader.NewShaderFromSource("color_correction_fs", shader.ShaderTypeFragment, KernelSource)
	opts := []pipeline.PipelineBuilderOption{
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		pipeline.WithCullMode(wgpu.CullModeNone),
		pipeline.WithColorFormat(outputFormat),
		pipeline.WithDepthFormat(wgpu.TextureFormatUndefined),
		pipeline.WithBlendEnabled(false),
	}
	return pipeline.NewPipeline("color_correction", pipeline.PipelineTypeRender, append(opts, options...)...)
}

func createSampler(device *wgpu.Device) (*wgpu.Sampler, error) {
	s, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Color Correction Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create color correction sampler: %w", err)
	}
	return s, nil
}

func ptr[T any](v T) *T {
	return &v
}

func (c *colorCorrection) Uniform() Uniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uniform
}

func (c *colorCorrection) UpdateUniform(u Uniform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uniform = u
	gpu := newGPUColorCorrection(u)
	c.queue.WriteBuffer(c.provider.Buffer(bindingUniform), 0, gpu.Marshal())
}

func (c *colorCorrection) Apply(encoder *wgpu.CommandEncoder, outputView *wgpu.TextureView) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if encoder == nil || outputView == nil {
		return fmt.Errorf("%w: apply needs an encoder and an output view", ErrMissingView)
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Color Correction Render Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       outputView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	pass.SetPipeline(c.pipeline.Pipeline().(*wgpu.RenderPipeline))
	pass.SetBindGroup(0, c.provider.BindGroup(), nil)
	pass.Draw(4, 1, 0, 0)
	pass.End()
	pass.Release()
	return nil
}

func (c *colorCorrection) Resize(inputView *wgpu.TextureView) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if inputView == nil {
		return fmt.Errorf("%w: resize needs an input view", ErrMissingView)
	}

	group, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Color Correction Bind Group",
		Layout: c.provider.BindGroupLayout(),
		Entries: []wgpu.BindGroupEntry{
			{Binding: bindingInput, TextureView: inputView},
			{Binding: bindingSampler, Sampler: c.sampler},
			{Binding: bindingUniform, Buffer: c.provider.Buffer(bindingUniform), Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create color correction bind group: %w", err)
	}

	if old := c.provider.BindGroup(); old != nil {
		old.Release()
	}
	c.provider.SetBindGroup(group)
	return nil
}

func (c *colorCorrection) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pipeline != nil {
		if rp, ok := c.pipeline.Pipeline().(*wgpu.RenderPipeline); ok && rp != nil {
			rp.Release()
		}
		c.pipeline = nil
	}
	if c.provider != nil {
		c.provider.Release()
		c.provider = nil
	}
	if c.ownsSampler && c.sampler != nil {
		c.sampler.Release()
	}
	c.sampler = nil
}
