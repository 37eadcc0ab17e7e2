package renderer

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-planet/common"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrFrameInProgress is returned when a surface texture is acquired while the previous one is still held.
var ErrFrameInProgress = errors.New("renderer: previous frame surface not yet presented")

// intermediateFormat is the color format of the scene and post-process targets.
const intermediateFormat = wgpu.TextureFormatRGBA32Float

// depthFormat is the format of the scene depth target.
const depthFormat = wgpu.TextureFormatDepth32Float

// renderTarget is one texture the backend owns together with its default view.
type renderTarget struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *renderTarget) release() {
	if t == nil {
		return
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	targets map[TargetKind]*renderTarget

	// surface texture acquired for the current frame, nil between frames
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue
	Instance() *wgpu.Instance
	Adapter() *wgpu.Adapter
	Surface() *wgpu.Surface

	// SurfaceFormat returns the texture format the surface was configured with.
	// Valid after the first ConfigureSurface call.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format
	SurfaceFormat() wgpu.TextureFormat

	// ConfigureSurface configures the presentation surface for a new size.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels, at least 1
	//   - height: the new height of the surface in pixels, at least 1
	//
	// Returns:
	//   - error: an error if the surface reports no usable format
	ConfigureSurface(width, height uint32) error

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// Takes effect at the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// RecreateTarget replaces one intermediate render target with a new texture of the given size.
	// The new texture and view are created before the previous ones are released.
	//
	// Parameters:
	//   - kind: the target to recreate
	//   - width, height: the new size in pixels, at least 1
	//
	// Returns:
	//   - error: an error if the texture or view could not be created
	RecreateTarget(kind TargetKind, width, height uint32) error

	// TargetView returns the view of an intermediate render target, or nil before it is created.
	//
	// Parameters:
	//   - kind: the target to look up
	//
	// Returns:
	//   - *wgpu.TextureView: the target view
	TargetView(kind TargetKind) *wgpu.TextureView

	// AcquireSurface acquires the next surface texture and creates its view. It is held until
	// Present or ReleaseSurface.
	//
	// Returns:
	//   - *wgpu.TextureView: the view to render the frame into
	//   - error: ErrFrameInProgress if a surface texture is already held, or an acquisition error
	AcquireSurface() (*wgpu.TextureView, error)

	// ReleaseSurface drops the held surface texture without presenting it.
	ReleaseSurface()

	// Present presents the held surface texture and releases it. Does nothing when none is held.
	Present()

	// CreateCommandEncoder creates a command encoder for one frame.
	//
	// Parameters:
	//   - label: the encoder label
	//
	// Returns:
	//   - *wgpu.CommandEncoder: the encoder
	//   - error: an error if the encoder could not be created
	CreateCommandEncoder(label string) (*wgpu.CommandEncoder, error)

	// Submit finishes encoder and submits the command buffer to the queue. The encoder is released.
	//
	// Parameters:
	//   - encoder: the frame's encoder
	//
	// Returns:
	//   - error: an error if the encoder could not be finished
	Submit(encoder *wgpu.CommandEncoder) error

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data and stores them
	// on the given BindGroupProvider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes
	//   - indexData: the raw index data bytes
	//   - indexCount: the number of indices
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferUsageOverrides: additional buffer usage flags keyed by binding index (nil safe)
	//   - bufferSizeOverrides: custom buffer sizes keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a 2D or 3D GPU texture from staging data, uploads it and stores the
	// view on the given BindGroupProvider at the specified binding index.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture view on
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the texel data, size and format of the texture
	//
	// Returns:
	//   - error: an error if texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a GPU sampler from staging data and stores it on the given BindGroupProvider
	// at the specified binding index.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers queues every staged buffer write.
	//
	// Parameters:
	//   - writes: the buffer writes to queue
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// Release frees the targets, the surface and the device.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (wgpuRendererBackend, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		targets:     make(map[TargetKind]*renderTarget),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	// Bloom samples the RGBA32Float scene and chains with a filtering sampler.
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Main Device",
		RequiredFeatures: []wgpu.FeatureName{wgpu.FeatureNameFloat32Filterable},
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device with float32 filtering: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()
	log.Printf("[Renderer] device created (fallback adapter: %t)", forceFallbackAdapter)
	return b, nil
}

// targetDescriptor describes the texture backing an intermediate render target.
func targetDescriptor(kind TargetKind, width, height uint32) *wgpu.TextureDescriptor {
	desc := &wgpu.TextureDescriptor{
		Label: kind.String() + " Texture",
		Size: wgpu.Extent3D{
			Width:              max(width, 1),
			Height:             max(height, 1),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
	}
	switch kind {
	case TargetDepth:
		desc.Format = depthFormat
		desc.Usage = wgpu.TextureUsageRenderAttachment
	default:
		desc.Format = intermediateFormat
		desc.Usage = wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageStorageBinding
	}
	return desc
}

// choosePresentMode returns want when the surface supports it, otherwise Fifo which every surface supports.
func choosePresentMode(want wgpu.PresentMode, supported []wgpu.PresentMode) wgpu.PresentMode {
	if slices.Contains(supported, want) {
		return want
	}
	return wgpu.PresentModeFifo
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return errors.New("surface reports no supported formats")
	}
	if b.surfaceFormat == wgpu.TextureFormatUndefined {
		b.surfaceFormat = capabilities.Formats[0]
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       max(width, 1),
		Height:      max(height, 1),
		PresentMode: choosePresentMode(b.presentMode, capabilities.PresentModes),
		AlphaMode:   capabilities.AlphaModes[0],
	})
	return nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) RecreateTarget(kind TargetKind, width, height uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(targetDescriptor(kind, width, height))
	if err != nil {
		return fmt.Errorf("failed to create %s texture: %w", kind, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create %s texture view: %w", kind, err)
	}

	old := b.targets[kind]
	b.targets[kind] = &renderTarget{texture: tex, view: view}
	old.release()
	return nil
}

func (b *wgpuRendererBackendImpl) TargetView(kind TargetKind) *wgpu.TextureView {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t := b.targets[kind]; t != nil {
		return t.view
	}
	return nil
}

func (b *wgpuRendererBackendImpl) AcquireSurface() (*wgpu.TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return nil, ErrFrameInProgress
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, fmt.Errorf("failed to create surface view: %w", err)
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	return view, nil
}

func (b *wgpuRendererBackendImpl) ReleaseSurface() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseFrameSurface()
}

func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.releaseFrameSurface()
}

func (b *wgpuRendererBackendImpl) CreateCommandEncoder(label string) (*wgpu.CommandEncoder, error) {
	encoder, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %w", err)
	}
	return encoder, nil
}

func (b *wgpuRendererBackendImpl) Submit(encoder *wgpu.CommandEncoder) error {
	defer encoder.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	return nil
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            provider.Label() + " Vertex Buffer",
			Size:             uint64(len(vertexData)),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(buf, 0, vertexData)
		provider.SetVertexBuffer(buf)
	}

	if len(indexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            provider.Label() + " Index Buffer",
			Size:             uint64(len(indexData)),
			Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(buf, 0, indexData)
		provider.SetIndexBuffer(buf)
	}

	provider.SetIndexCount(indexCount)

	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	bindGroupEntries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		if isTexture {
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("texture binding %d of %s has no texture view, call InitTextureView first", binding, provider.Label())
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding:     entry.Binding,
				TextureView: tv,
			}
		} else if isSampler {
			samp := provider.Sampler(binding)
			if samp == nil {
				return fmt.Errorf("sampler binding %d of %s has no sampler, call InitSampler first", binding, provider.Label())
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Sampler: samp,
			}
		} else {
			var usage wgpu.BufferUsage
			switch entry.Buffer.Type {
			case wgpu.BufferBindingTypeUniform:
				usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
			case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
				usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
			}
			if overrideUsage, ok := bufferUsageOverrides[binding]; ok {
				usage |= overrideUsage
			}

			buf := provider.Buffer(binding)
			if buf == nil {
				bufSize := entry.Buffer.MinBindingSize
				if overrideSize, ok := bufferSizeOverrides[binding]; ok {
					bufSize = overrideSize
				}
				var err error
				buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: provider.Label() + " Buffer",
					Size:  bufSize,
					Usage: usage,
				})
				if err != nil {
					return err
				}
				provider.SetBuffer(binding, buf)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: bindGroupEntries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)

	return nil
}

// textureUpload derives the texture descriptor and copy layout of staged texel data.
func textureUpload(label string, data common.TextureStagingData) (*wgpu.TextureDescriptor, *wgpu.TextureDataLayout, *wgpu.Extent3D) {
	depth := common.Coalesce(data.Depth, 1)
	texelSize := common.Coalesce(data.BytesPerTexel, 4)
	dimension := wgpu.TextureDimension2D
	if depth > 1 {
		dimension = wgpu.TextureDimension3D
	}
	extent := wgpu.Extent3D{
		Width:              data.Width,
		Height:             data.Height,
		DepthOrArrayLayers: depth,
	}
	desc := &wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     dimension,
		Size:          extent,
		Format:        common.Coalesce(data.Format, wgpu.TextureFormatRGBA8UnormSrgb),
		MipLevelCount: 1,
		SampleCount:   1,
	}
	layout := &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  data.Width * texelSize,
		RowsPerImage: data.Height,
	}
	return desc, layout, &extent
}

func (b *wgpuRendererBackendImpl) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	desc, layout, extent := textureUpload(fmt.Sprintf("%s Texture %d", provider.Label(), bindingKey), stagingData)
	tex, err := b.device.CreateTexture(desc)
	if err != nil {
		return err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		layout,
		extent,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTexture(bindingKey, tex)
	provider.SetTextureView(bindingKey, view)

	return nil
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " Sampler",
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(samplerStagingData.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(samplerStagingData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, 1),
		Compare:       samplerStagingData.Compare,
	})
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, samp)

	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Target()
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrameSurface()
	for kind, t := range b.targets {
		t.release()
		delete(b.targets, kind)
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Instance() *wgpu.Instance {
	return b.instance
}

func (b *wgpuRendererBackendImpl) Adapter() *wgpu.Adapter {
	return b.adapter
}

func (b *wgpuRendererBackendImpl) Surface() *wgpu.Surface {
	return b.surface
}
