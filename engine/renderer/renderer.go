package renderer

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-planet/common"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bloom"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/color_correction"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/overlay"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-planet/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoPipeline is returned when a frame is drawn without a created scene render pipeline.
	ErrNoPipeline = errors.New("renderer: scene pipeline not created")

	// ErrNoMesh is returned when a frame is drawn without vertex and index buffers.
	ErrNoMesh = errors.New("renderer: scene mesh has no buffers")
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	// mu serializes frames and resizes.
	mu *sync.Mutex

	cacheMu       *sync.Mutex
	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	sampler         *wgpu.Sampler
	bloom           bloom.Bloom
	colorCorrection color_correction.ColorCorrection
	overlay         overlay.Overlay

	width  uint32
	height uint32
	gate   frameGate

	// per-frame state, set by begin and cleared by submit, present or abort
	encoder     *wgpu.CommandEncoder
	surfaceView *wgpu.TextureView

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingPipelines     []pipeline.Pipeline
	bloomOptions         []bloom.BloomBuilderOption
	correction           *color_correction.Uniform
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the GPU context, the intermediate render targets and the post-processing chain.
// A frame is drawn in one call: the scene pass into the scene target, bloom into the post target,
// color correction into the surface, then the HUD overlay on top. Frames and resizes never overlap.
type Renderer interface {
	// Pipeline retrieves the registered Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates the GPU pipeline objects (render or compute) for one or more
	// pipelines, then caches them by PipelineKey. Pipelines whose keys are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize runs the resize protocol: the surface, then the depth, scene and post targets, then the
	// bloom chains, then the color correction bind group. Sizes below 1 are clamped to 1.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: the first failing step's error; Draw then returns ErrResizeIncomplete until a
	//     later Resize completes
	Resize(width, height int) error

	// Draw records, submits and presents one frame.
	//
	// Parameters:
	//   - frame: the scene draw and post-processing inputs of the frame
	//
	// Returns:
	//   - error: the first failing step's error; the frame is dropped and nothing is presented
	Draw(frame FrameInput) error

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data and stores them
	// on the given BindGroupProvider for later use in draw calls.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//   - indexCount: the number of indices, used for draw calls
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider. Textures and samplers must be initialized via InitTextureView
	// and InitSampler before calling this method. Buffer usage and size can be overridden per binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferUsageOverrides: additional buffer usage flags to OR into the derived usage, keyed by binding index (nil safe)
	//   - bufferSizeOverrides: custom buffer sizes to use instead of MinBindingSize, keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a GPU texture from staging data and stores the resulting texture view
	// on the given BindGroupProvider at the specified binding index. Must be called before InitBindGroup
	// for any texture bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture view on
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the texel data and dimensions for the texture
	//
	// Returns:
	//   - error: an error if texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a GPU sampler from staging data and stores it on the given BindGroupProvider
	// at the specified binding index. Must be called before InitBindGroup for any sampler bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// Bloom returns the bloom stage.
	//
	// Returns:
	//   - bloom.Bloom: the bloom stage
	Bloom() bloom.Bloom

	// ColorCorrection returns the color correction stage.
	//
	// Returns:
	//   - color_correction.ColorCorrection: the color correction stage
	ColorCorrection() color_correction.ColorCorrection

	// Size returns the current render resolution.
	//
	// Returns:
	//   - uint32, uint32: width and height in pixels
	Size() (uint32, uint32)

	// SurfaceFormat returns the texture format of the presentation surface.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format
	SurfaceFormat() wgpu.TextureFormat

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Release frees the post-processing chain, the registered pipelines and the GPU context.
	Release()
}

var _ Renderer = &renderer{}
var _ frameRecorder = &renderer{}
var _ resizer = &renderer{}

// NewRenderer creates a new Renderer for the given window: the GPU context, the surface, the
// depth, scene and post targets, then the bloom, color correction and overlay stages.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window whose surface the renderer presents to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer
//   - error: an error if any GPU object could not be created
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		cacheMu:       &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	var err error
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend, err = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter)
	}
	if err != nil {
		return nil, err
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	if err := r.setup(window.Width(), window.Height()); err != nil {
		r.Release()
		return nil, err
	}

	if err := r.RegisterPipelines(r.pendingPipelines...); err != nil {
		r.Release()
		return nil, err
	}
	r.pendingPipelines = nil
	return r, nil
}

// setup creates the targets and the post-processing stages for the first size.
func (r *renderer) setup(width, height int) error {
	w, h := ClampSize(width, height)
	if err := r.configureSurface(w, h); err != nil {
		return err
	}
	for _, kind := range []TargetKind{TargetDepth, TargetScene, TargetPost} {
		if err := r.recreateTarget(kind, w, h); err != nil {
			return err
		}
	}
	r.width, r.height = w, h

	device := r.backend.Device()
	queue := r.backend.Queue()

	sampler, err := createPostSampler(device)
	if err != nil {
		return err
	}
	r.sampler = sampler

	bloomOptions := append([]bloom.BloomBuilderOption{bloom.WithSampler(sampler)}, r.bloomOptions...)
	r.bloom, err = bloom.NewBloom(device, queue, w, h, bloomOptions...)
	if err != nil {
		return err
	}

	ccOptions := []color_correction.ColorCorrectionBuilderOption{color_correction.WithSampler(sampler)}
	if r.correction != nil {
		ccOptions = append(ccOptions, color_correction.WithUniform(*r.correction))
	}
	r.colorCorrection, err = color_correction.NewColorCorrection(device, queue, r.backend.TargetView(TargetPost), r.backend.SurfaceFormat(), ccOptions...)
	if err != nil {
		return err
	}

	r.overlay, err = overlay.NewOverlay(device, queue, r.backend.SurfaceFormat())
	if err != nil {
		return err
	}

	log.Printf("[Renderer] post-processing ready at %dx%d with %d bloom levels", w, h, r.bloom.Levels())
	return nil
}

// createPostSampler creates the clamp-to-edge linear sampler shared by bloom and color correction.
func createPostSampler(device *wgpu.Device) (*wgpu.Sampler, error) {
	s, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Post Process Sampler",
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
		return nil, fmt.Errorf("failed to create post process sampler: %w", err)
	}
	return s, nil
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h, err := r.gate.resize(r, width, height)
	if err != nil {
		return err
	}
	r.width, r.height = w, h
	return nil
}

func (r *renderer) configureSurface(width, height uint32) error {
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) recreateTarget(kind TargetKind, width, height uint32) error {
	return r.backend.RecreateTarget(kind, width, height)
}

func (r *renderer) resizeBloom(width, height uint32) error {
	return r.bloom.Resize(width, height)
}

func (r *renderer) resizeColorCorrection() error {
	return r.colorCorrection.Resize(r.backend.TargetView(TargetPost))
}

func (r *renderer) Draw(frame FrameInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gate.draw(r, frame)
}

func (r *renderer) begin(frame FrameInput) error {
	r.backend.WriteBuffers(frame.Writes)

	view, err := r.backend.AcquireSurface()
	if err != nil {
		return err
	}
	encoder, err := r.backend.CreateCommandEncoder("Frame Encoder")
	if err != nil {
		r.backend.ReleaseSurface()
		return err
	}
	r.surfaceView = view
	r.encoder = encoder
	return nil
}

func (r *renderer) scenePass(frame FrameInput) error {
	if frame.Pipeline == nil {
		return ErrNoPipeline
	}
	rp, ok := frame.Pipeline.Pipeline().(*wgpu.RenderPipeline)
	if !ok || rp == nil {
		return fmt.Errorf("%w: %q", ErrNoPipeline, frame.Pipeline.PipelineKey())
	}
	if frame.Mesh == nil || frame.Mesh.VertexBuffer() == nil || frame.Mesh.IndexBuffer() == nil {
		return ErrNoMesh
	}

	pass := r.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Scene Render Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       r.backend.TargetView(TargetScene),
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.backend.TargetView(TargetDepth),
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	pass.SetPipeline(rp)
	for i, bg := range frame.BindGroups {
		pass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	pass.SetVertexBuffer(0, frame.Mesh.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(frame.Mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(frame.Mesh.IndexCount()), 1, 0, 0, 0)
	pass.End()
	pass.Release()
	return nil
}

func (r *renderer) bloomRender() error {
	return r.bloom.Render(r.encoder, r.backend.TargetView(TargetScene))
}

func (r *renderer) bloomApply() error {
	return r.bloom.Apply(r.encoder, r.backend.TargetView(TargetPost), r.backend.TargetView(TargetScene))
}

func (r *renderer) correctColor(u *color_correction.Uniform) error {
	if u != nil {
		r.colorCorrection.UpdateUniform(*u)
	}
	return r.colorCorrection.Apply(r.encoder, r.surfaceView)
}

func (r *renderer) drawOverlay(state overlay.State) error {
	return r.overlay.Record(r.encoder, r.surfaceView, r.width, r.height, state)
}

func (r *renderer) submit() error {
	encoder := r.encoder
	r.encoder = nil
	return r.backend.Submit(encoder)
}

func (r *renderer) present() error {
	r.backend.Present()
	r.surfaceView = nil
	return nil
}

func (r *renderer) abort() {
	if r.encoder != nil {
		r.encoder.Release()
		r.encoder = nil
	}
	r.backend.ReleaseSurface()
	r.surfaceView = nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			if err := pipeline.CreateComputePipeline(r.backend.Device(), p); err != nil {
				return err
			}
		case pipeline.PipelineTypeRender:
			if err := pipeline.CreateRenderPipeline(r.backend.Device(), p); err != nil {
				return err
			}
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) Bloom() bloom.Bloom {
	return r.bloom
}

func (r *renderer) ColorCorrection() color_correction.ColorCorrection {
	return r.colorCorrection
}

func (r *renderer) Size() (uint32, uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) SurfaceFormat() wgpu.TextureFormat {
	return r.backend.SurfaceFormat()
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.overlay != nil {
		r.overlay.Release()
		r.overlay = nil
	}
	if r.colorCorrection != nil {
		r.colorCorrection.Release()
		r.colorCorrection = nil
	}
	if r.bloom != nil {
		r.bloom.Release()
		r.bloom = nil
	}
	if r.sampler != nil {
		r.sampler.Release()
		r.sampler = nil
	}

	r.cacheMu.Lock()
	for key, p := range r.pipelineCache {
		switch gp := p.Pipeline().(type) {
		case *wgpu.RenderPipeline:
			if gp != nil {
				gp.Release()
			}
		case *wgpu.ComputePipeline:
			if gp != nil {
				gp.Release()
			}
		}
		delete(r.pipelineCache, key)
	}
	r.cacheMu.Unlock()

	if r.backend != nil {
		r.backend.Release()
		r.backend = nil
	}
}
