package bloom

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultLevels is the default mip level count of the bloom chains.
const DefaultLevels = 8

// ErrMissingView is returned when a pass is recorded without one of the views it needs.
var ErrMissingView = errors.New("bloom: missing texture view")

// resources is everything a resize replaces. It is built completely before it is swapped in.
type resources struct {
	width, height uint32
	chains        *mipChains
	groups        *bindGroupSet
	topology      Topology
	schedule      []Dispatch
}

func (r *resources) release() {
	r.groups.release()
	r.chains.release()
}

// bloom is the implementation of the Bloom interface.
type bloom struct {
	mu *sync.Mutex

	device *wgpu.Device
	queue  *wgpu.Queue

	levels        int
	pendingLevels int
	settings      Settings

	sampler          *wgpu.Sampler
	ownsSampler      bool
	layouts          *layouts
	settingsProvider bind_group_provider.BindGroupProvider
	pipelines        map[Stage]pipeline.Pipeline

	res *resources
}

// Bloom is a multi-scale bloom effect driven by compute kernels. It owns three half resolution
// mip chains (downsample, horizontal blur, vertical blur), the bind groups wiring them together
// and the settings uniform.
//
// A frame is recorded in two calls into the caller's command encoder: Render runs the prefilter,
// the downsamples and the blurs; Apply runs the composite into the post-process target. Resize
// replaces every chain and bind group as one unit and must not overlap a frame.
type Bloom interface {
	// Levels returns the mip level count of the chains currently allocated.
	//
	// Returns:
	//   - int: the level count
	Levels() int

	// Extents returns the size of every chain level currently allocated.
	//
	// Returns:
	//   - []Extent: one extent per level
	Extents() []Extent

	// Topology returns the bind group wiring of the chains currently allocated.
	//
	// Returns:
	//   - Topology: the current wiring
	Topology() Topology

	// Schedule returns the dispatches Render and Apply record for the current size.
	//
	// Returns:
	//   - []Dispatch: the ordered dispatches
	Schedule() []Dispatch

	// Settings returns the current bloom settings.
	//
	// Returns:
	//   - Settings: the current settings
	Settings() Settings

	// SetSettings rewrites the settings uniform with a queue write. The buffer is not reallocated.
	//
	// Parameters:
	//   - s: the new settings
	SetSettings(s Settings)

	// SetLevels changes the mip level count. The chains are rebuilt with the new count at the next Resize.
	//
	// Parameters:
	//   - levels: the new level count, at least 1
	//
	// Returns:
	//   - error: ErrInvalidLevels when levels < 1
	SetLevels(levels int) error

	// Render records the prefilter, downsample and blur dispatches into encoder, one compute pass
	// per dispatch in schedule order.
	//
	// Parameters:
	//   - encoder: the frame's command encoder
	//   - sceneView: the full resolution scene color view
	//
	// Returns:
	//   - error: ErrMissingView if a view is nil, or a bind group creation error
	Render(encoder *wgpu.CommandEncoder, sceneView *wgpu.TextureView) error

	// Apply records the composite dispatch, adding the blurred levels onto the scene and writing the
	// result into targetView. Must be recorded after Render in the same encoder.
	//
	// Parameters:
	//   - encoder: the frame's command encoder
	//   - targetView: the full resolution RGBA32Float storage view receiving the result
	//   - sceneView: the full resolution scene color view
	//
	// Returns:
	//   - error: ErrMissingView if a view is nil, or a bind group creation error
	Apply(encoder *wgpu.CommandEncoder, targetView, sceneView *wgpu.TextureView) error

	// Resize rebuilds the chains and bind groups for a new full render resolution. The new
	// resources are complete before they replace the old ones, which are then released.
	// On error the previous resources stay in place.
	//
	// Parameters:
	//   - width, height: the full render resolution, both at least 1
	//
	// Returns:
	//   - error: ErrInvalidExtent, or an allocation error
	Resize(width, height uint32) error

	// Release frees every GPU resource the bloom owns.
	Release()
}

var _ Bloom = &bloom{}

// NewBloom creates the bloom effect for a full render resolution, compiling one compute pipeline
// per stage and allocating the chains.
//
// Parameters:
//   - device: the GPU device
//   - queue: the device queue used for settings uploads
//   - width, height: the full render resolution, both at least 1
//   - options: functional options to configure the bloom
//
// Returns:
//   - Bloom: the bloom effect
//   - error: a precondition or allocation error
func NewBloom(device *wgpu.Device, queue *wgpu.Queue, width, height uint32, options ...BloomBuilderOption) (Bloom, error) {
	b := &bloom{
		mu:        &sync.Mutex{},
		device:    device,
		queue:     queue,
		levels:    DefaultLevels,
		settings:  DefaultSettings(),
		pipelines: make(map[Stage]pipeline.Pipeline, len(Stages)),
	}
	for _, option := range options {
		option(b)
	}
	if b.levels < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLevels, b.levels)
	}
	b.pendingLevels = b.levels

	kernel := shader.NewShaderFromSource("bloom", shader.ShaderTypeCompute, KernelSource)
	if err := checkEntryPoints(kernel); err != nil {
		return nil, err
	}

	var err error
	if b.layouts, err = createLayouts(device); err != nil {
		return nil, err
	}
	if b.sampler == nil {
		if b.sampler, err = createSampler(device); err != nil {
			b.Release()
			return nil, err
		}
		b.ownsSampler = true
	}
	if err = b.initSettings(); err != nil {
		b.Release()
		return nil, err
	}
	if err = b.initPipelines(kernel); err != nil {
		b.Release()
		return nil, err
	}
	if b.res, err = b.buildResources(width, height, b.levels); err != nil {
		b.Release()
		return nil, err
	}
	b.writeSettings()

	log.Printf("[Bloom] created %d levels at %dx%d, %d composite slots", b.levels, b.res.chains.extents[0].Width, b.res.chains.extents[0].Height, b.res.topology.ActiveSlots)
	warnDroppedLevels(b.levels)
	return b, nil
}

// checkEntryPoints verifies that the kernel declares one entry point per stage.
func checkEntryPoints(kernel shader.Shader) error {
	for _, stage := range Stages {
		if !slices.Contains(kernel.EntryPoints(), stage.EntryPoint()) {
			return fmt.Errorf("bloom: kernel %s has no entry point %s", kernel.Key(), stage.EntryPoint())
		}
	}
	return nil
}

func warnDroppedLevels(levels int) {
	if levels > CompositeSlotCount {
		log.Printf("[Bloom] warning: levels %d..%d are blurred but not composited, the composite reads %d slots",
			CompositeSlotCount, levels-1, CompositeSlotCount)
	}
}

func createSampler(device *wgpu.Device) (*wgpu.Sampler, error) {
	s, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Bloom Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bloom sampler: %w", err)
	}
	return s, nil
}

func (b *bloom) initSettings() error {
	size := (&GPUBloomSettings{}).Size()
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Bloom Settings Buffer",
		Size:  uint64(size),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create bloom settings buffer: %w", err)
	}

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Bloom Settings Bind Group",
		Layout: b.layouts.settings,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		buf.Release()
		return fmt.Errorf("failed to create bloom settings bind group: %w", err)
	}

	b.settingsProvider = bind_group_provider.NewBindGroupProvider("bloom_settings",
		bind_group_provider.WithBuffer(0, buf),
		bind_group_provider.WithBindGroup(group),
	)
	return nil
}

func (b *bloom) initPipelines(kernel shader.Shader) error {
	for _, stage := range Stages {
		groups := []*wgpu.BindGroupLayout{b.layouts.settings, b.layouts.pass}
		if stage == StageComposite {
			groups = append(groups, b.layouts.composite)
		}
		p := pipeline.NewPipeline("bloom_"+stage.EntryPoint(), pipeline.PipelineTypeCompute,
			pipeline.WithComputeShader(kernel),
			pipeline.WithEntryPoint(shader.ShaderTypeCompute, stage.EntryPoint()),
			pipeline.WithBindGroupLayouts(groups...),
		)
		if err := pipeline.CreateComputePipeline(b.device, p); err != nil {
			return err
		}
		b.pipelines[stage] = p
	}
	return nil
}

// buildResources allocates a complete chain bundle and its bind groups. Nothing is swapped in here.
func (b *bloom) buildResources(width, height uint32, levels int) (*resources, error) {
	topology, err := PlanTopology(levels)
	if err != nil {
		return nil, err
	}
	schedule, err := Schedule(width, height, levels)
	if err != nil {
		return nil, err
	}
	chains, err := newMipChains(b.device, width, height, levels)
	if err != nil {
		return nil, err
	}
	groups, err := buildBindGroups(b.device, b.layouts, chains, b.sampler, topology)
	if err != nil {
		chains.release()
		return nil, err
	}
	return &resources{
		width:    width,
		height:   height,
		chains:   chains,
		groups:   groups,
		topology: topology,
		schedule: schedule,
	}, nil
}

// writeSettings uploads the settings uniform. Caller must hold the mutex or own b exclusively.
func (b *bloom) writeSettings() {
	gpu := newGPUBloomSettings(b.settings, b.res.topology.ActiveSlots)
	b.queue.WriteBuffer(b.settingsProvider.Buffer(0), 0, gpu.Marshal())
}

func (b *bloom) Levels() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels
}

func (b *bloom) Extents() []Extent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.res.chains.extents)
}

func (b *bloom) Topology() Topology {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.res.topology
}

func (b *bloom) Schedule() []Dispatch {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.res.schedule)
}

func (b *bloom) Settings() Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}

func (b *bloom) SetSettings(s Settings) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings = s
	b.writeSettings()
}

func (b *bloom) SetLevels(levels int) error {
	if levels < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidLevels, levels)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if levels != b.levels {
		log.Printf("[Bloom] level count %d -> %d applies at the next resize", b.levels, levels)
	}
	b.pendingLevels = levels
	return nil
}

func (b *bloom) Render(encoder *wgpu.CommandEncoder, sceneView *wgpu.TextureView) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if encoder == nil || sceneView == nil {
		return fmt.Errorf("%w: render needs an encoder and a scene view", ErrMissingView)
	}

	prefilter, err := createPassBindGroup(b.device, b.layouts.pass, "Prefilter Group 1 Bind Group",
		sceneView, b.res.chains.downsample.view(0))
	if err != nil {
		return err
	}
	defer prefilter.Release()

	for _, d := range b.res.schedule {
		switch d.Stage {
		case StageComposite:
			continue
		case StagePrefilter:
			b.dispatch(encoder, d, prefilter, nil)
		default:
			group := b.res.groups.lookup(d.Stage.Pass(), d.Level)
			if group == nil {
				return fmt.Errorf("%w: no bind group for %s", ErrMissingView, d.Label())
			}
			b.dispatch(encoder, d, group, nil)
		}
	}
	return nil
}

func (b *bloom) Apply(encoder *wgpu.CommandEncoder, targetView, sceneView *wgpu.TextureView) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if encoder == nil || targetView == nil || sceneView == nil {
		return fmt.Errorf("%w: apply needs an encoder, a target view and a scene view", ErrMissingView)
	}

	composite, err := createPassBindGroup(b.device, b.layouts.pass, "Composite Group 1 Bind Group", sceneView, targetView)
	if err != nil {
		return err
	}
	defer composite.Release()

	d := b.res.schedule[len(b.res.schedule)-1]
	b.dispatch(encoder, d, composite, b.res.groups.composite)
	return nil
}

// dispatch records one compute pass. group2 is only bound for the composite.
func (b *bloom) dispatch(encoder *wgpu.CommandEncoder, d Dispatch, group1, group2 *wgpu.BindGroup) {
	pass := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: d.Label()})
	pass.SetPipeline(b.pipelines[d.Stage].Pipeline().(*wgpu.ComputePipeline))
	pass.SetBindGroup(0, b.settingsProvider.BindGroup(), nil)
	pass.SetBindGroup(1, group1, nil)
	if group2 != nil {
		pass.SetBindGroup(2, group2, nil)
	}
	pass.DispatchWorkgroups(d.Workgroups[0], d.Workgroups[1], d.Workgroups[2])
	pass.End()
	pass.Release()
}

func (b *bloom) Resize(width, height uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := b.buildResources(width, height, b.pendingLevels)
	if err != nil {
		return fmt.Errorf("bloom resize to %dx%d: %w", width, height, err)
	}

	old := b.res
	b.res = next
	old.release()

	if b.levels != b.pendingLevels {
		b.levels = b.pendingLevels
		warnDroppedLevels(b.levels)
	}
	b.writeSettings()

	log.Printf("[Bloom] resized to %dx%d, chain level 0 %dx%d", width, height, next.chains.extents[0].Width, next.chains.extents[0].Height)
	return nil
}

func (b *bloom) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.res != nil {
		b.res.release()
		b.res = nil
	}
	for _, p := range b.pipelines {
		if cp, ok := p.Pipeline().(*wgpu.ComputePipeline); ok && cp != nil {
			cp.Release()
		}
	}
	clear(b.pipelines)
	if b.settingsProvider != nil {
		b.settingsProvider.Release()
		b.settingsProvider = nil
	}
	if b.ownsSampler && b.sampler != nil {
		b.sampler.Release()
	}
	b.sampler = nil
	if b.layouts != nil {
		b.layouts.release()
		b.layouts = nil
	}
}
