package bloom

import (
	"fmt"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
)

// CompositeSlotCount is the number of mip texture bindings the composite kernel declares.
const CompositeSlotCount = 8

// ChainID names a set of views a bloom pass reads from or writes to.
type ChainID int

const (
	// ChainScene is the full resolution scene color view supplied per frame.
	ChainScene ChainID = iota

	// ChainDownsample is the bright-passed, progressively halved chain.
	ChainDownsample

	// ChainHorizontal holds the horizontally blurred downsample levels.
	ChainHorizontal

	// ChainVertical holds the fully blurred levels read by the composite.
	ChainVertical

	// ChainTarget is the full resolution post-process view supplied per frame.
	ChainTarget
)

func (c ChainID) String() string {
	switch c {
	case ChainScene:
		return "scene"
	case ChainDownsample:
		return "downsample"
	case ChainHorizontal:
		return "horizontal"
	case ChainVertical:
		return "vertical"
	case ChainTarget:
		return "target"
	default:
		return "chain(" + strconv.Itoa(int(c)) + ")"
	}
}

// ViewRef identifies one level of a chain.
type ViewRef struct {
	Chain ChainID
	Level int
}

func (r ViewRef) String() string {
	return fmt.Sprintf("%s[%d]", r.Chain, r.Level)
}

// PassKind is the kind of bloom kernel a bind group feeds.
type PassKind int

const (
	// PassPrefilter bright-passes the scene into downsample level 0.
	PassPrefilter PassKind = iota

	// PassDownsample halves downsample level i-1 into level i.
	PassDownsample

	// PassHorizontalBlur blurs downsample level i along x.
	PassHorizontalBlur

	// PassVerticalBlur blurs horizontal level i along y.
	PassVerticalBlur

	// PassComposite adds the blurred levels onto the scene.
	PassComposite
)

func (k PassKind) String() string {
	switch k {
	case PassPrefilter:
		return "Prefilter"
	case PassDownsample:
		return "Downsample"
	case PassHorizontalBlur:
		return "Horizontal Blur"
	case PassVerticalBlur:
		return "Vertical Blur"
	case PassComposite:
		return "Composite"
	default:
		return "Pass(" + strconv.Itoa(int(k)) + ")"
	}
}

// PassBinding describes the group 1 bind group of one pass: the view read at binding 0 and the
// storage view written at binding 1.
type PassBinding struct {
	Pass  PassKind
	Level int
	Read  ViewRef
	Write ViewRef
}

// PerFrame reports whether the binding references a view supplied by the caller each frame.
// Such bind groups are built at record time instead of at resize time.
func (b PassBinding) PerFrame() bool {
	return b.Read.Chain == ChainScene || b.Read.Chain == ChainTarget ||
		b.Write.Chain == ChainScene || b.Write.Chain == ChainTarget
}

// Topology is the full bind group wiring of a bloom instance with a given level count.
// It is a pure value: two topologies planned for the same level count are equal.
type Topology struct {
	// Levels is the mip level count of every chain.
	Levels int
	// Bindings lists the group 1 wiring of every pass in record order.
	Bindings []PassBinding
	// CompositeSlots lists the view bound to each of the composite's texture slots.
	CompositeSlots [CompositeSlotCount]ViewRef
	// ActiveSlots is the number of leading composite slots holding a distinct level, min(Levels, 8).
	ActiveSlots int
}

// PlanTopology builds the bind group wiring for a chain of the given level count.
// Levels beyond CompositeSlotCount are blurred but never composited; the unused slots of a
// shorter chain repeat its last vertical level since every declared binding must be bound.
//
// Parameters:
//   - levels: the mip level count, at least 1
//
// Returns:
//   - Topology: the wiring of every pass
//   - error: ErrInvalidLevels when levels < 1
func PlanTopology(levels int) (Topology, error) {
	if levels < 1 {
		return Topology{}, fmt.Errorf("%w: got %d", ErrInvalidLevels, levels)
	}

	t := Topology{
		Levels:      levels,
		ActiveSlots: min(levels, CompositeSlotCount),
		Bindings:    make([]PassBinding, 0, 3*levels+1),
	}

	t.Bindings = append(t.Bindings, PassBinding{
		Pass:  PassPrefilter,
		Read:  ViewRef{Chain: ChainScene},
		Write: ViewRef{Chain: ChainDownsample},
	})
	for i := 1; i < levels; i++ {
		t.Bindings = append(t.Bindings, PassBinding{
			Pass:  PassDownsample,
			Level: i,
			Read:  ViewRef{Chain: ChainDownsample, Level: i - 1},
			Write: ViewRef{Chain: ChainDownsample, Level: i},
		})
	}
	for i := range levels {
		t.Bindings = append(t.Bindings,
			PassBinding{
				Pass:  PassHorizontalBlur,
				Level: i,
				Read:  ViewRef{Chain: ChainDownsample, Level: i},
				Write: ViewRef{Chain: ChainHorizontal, Level: i},
			},
			PassBinding{
				Pass:  PassVerticalBlur,
				Level: i,
				Read:  ViewRef{Chain: ChainHorizontal, Level: i},
				Write: ViewRef{Chain: ChainVertical, Level: i},
			},
		)
	}
	t.Bindings = append(t.Bindings, PassBinding{
		Pass:  PassComposite,
		Read:  ViewRef{Chain: ChainScene},
		Write: ViewRef{Chain: ChainTarget},
	})

	for slot := range t.CompositeSlots {
		t.CompositeSlots[slot] = ViewRef{Chain: ChainVertical, Level: min(slot, t.ActiveSlots-1)}
	}
	return t, nil
}

// Binding returns the wiring of one pass at one level.
//
// Parameters:
//   - pass: the pass kind
//   - level: the mip level, 0 for prefilter and composite
//
// Returns:
//   - PassBinding: the wiring
//   - bool: false if the topology has no such pass
func (t Topology) Binding(pass PassKind, level int) (PassBinding, bool) {
	for _, b := range t.Bindings {
		if b.Pass == pass && b.Level == level {
			return b, true
		}
	}
	return PassBinding{}, false
}

// layouts holds the three bind group layouts shared by every bloom pipeline.
type layouts struct {
	settings  *wgpu.BindGroupLayout
	pass      *wgpu.BindGroupLayout
	composite *wgpu.BindGroupLayout
}

func settingsLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Bloom Settings Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64((&GPUBloomSettings{}).Size()),
				},
			},
		},
	}
}

func passLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Bloom Pass Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				StorageTexture: wgpu.StorageTextureBindingLayout{
					Access:        wgpu.StorageTextureAccessWriteOnly,
					Format:        chainFormat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
		},
	}
}

func compositeLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, CompositeSlotCount+1)
	for slot := range CompositeSlotCount {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(slot),
			Visibility: wgpu.ShaderStageCompute,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		})
	}
	entries = append(entries, wgpu.BindGroupLayoutEntry{
		Binding:    CompositeSlotCount,
		Visibility: wgpu.ShaderStageCompute,
		Sampler: wgpu.SamplerBindingLayout{
			Type: wgpu.SamplerBindingTypeFiltering,
		},
	})
	return wgpu.BindGroupLayoutDescriptor{
		Label:   "Bloom Composite Layout",
		Entries: entries,
	}
}

func createLayouts(device *wgpu.Device) (*layouts, error) {
	l := &layouts{}
	var err error
	if l.settings, err = device.CreateBindGroupLayout(ptr(settingsLayoutDescriptor())); err != nil {
		return nil, fmt.Errorf("failed to create bloom settings layout: %w", err)
	}
	if l.pass, err = device.CreateBindGroupLayout(ptr(passLayoutDescriptor())); err != nil {
		l.release()
		return nil, fmt.Errorf("failed to create bloom pass layout: %w", err)
	}
	if l.composite, err = device.CreateBindGroupLayout(ptr(compositeLayoutDescriptor())); err != nil {
		l.release()
		return nil, fmt.Errorf("failed to create bloom composite layout: %w", err)
	}
	return l, nil
}

func (l *layouts) release() {
	for _, layout := range []*wgpu.BindGroupLayout{l.settings, l.pass, l.composite} {
		if layout != nil {
			layout.Release()
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}

// bindGroupSet holds every bind group whose views belong to the chains, indexed by level.
// downsample[0] is nil because level 0 is written by the per-frame prefilter group.
type bindGroupSet struct {
	downsample []*wgpu.BindGroup
	horizontal []*wgpu.BindGroup
	vertical   []*wgpu.BindGroup
	composite  *wgpu.BindGroup
}

// lookup returns the group 1 bind group for a chain-internal pass.
func (s *bindGroupSet) lookup(pass PassKind, level int) *wgpu.BindGroup {
	var groups []*wgpu.BindGroup
	switch pass {
	case PassDownsample:
		groups = s.downsample
	case PassHorizontalBlur:
		groups = s.horizontal
	case PassVerticalBlur:
		groups = s.vertical
	}
	if level < 0 || level >= len(groups) {
		return nil
	}
	return groups[level]
}

func (s *bindGroupSet) release() {
	for _, groups := range [][]*wgpu.BindGroup{s.downsample, s.horizontal, s.vertical} {
		for _, g := range groups {
			if g != nil {
				g.Release()
			}
		}
	}
	if s.composite != nil {
		s.composite.Release()
	}
}

// buildBindGroups materialises every chain-internal binding of the topology. The returned set
// is complete or, on error, already released.
func buildBindGroups(device *wgpu.Device, l *layouts, chains *mipChains, sampler *wgpu.Sampler, topo Topology) (*bindGroupSet, error) {
	set := &bindGroupSet{
		downsample: make([]*wgpu.BindGroup, topo.Levels),
		horizontal: make([]*wgpu.BindGroup, topo.Levels),
		vertical:   make([]*wgpu.BindGroup, topo.Levels),
	}

	for _, b := range topo.Bindings {
		if b.PerFrame() {
			continue
		}
		group, err := createPassBindGroup(device, l.pass,
			fmt.Sprintf("%s Group 1 Bind Group Mip %d", b.Pass, b.Level),
			chains.view(b.Read), chains.view(b.Write))
		if err != nil {
			set.release()
			return nil, err
		}
		switch b.Pass {
		case PassDownsample:
			set.downsample[b.Level] = group
		case PassHorizontalBlur:
			set.horizontal[b.Level] = group
		case PassVerticalBlur:
			set.vertical[b.Level] = group
		}
	}

	entries := make([]wgpu.BindGroupEntry, 0, CompositeSlotCount+1)
	for slot, ref := range topo.CompositeSlots {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     uint32(slot),
			TextureView: chains.view(ref),
		})
	}
	entries = append(entries, wgpu.BindGroupEntry{
		Binding: CompositeSlotCount,
		Sampler: sampler,
	})
	composite, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Composite Group 2 Bind Group",
		Layout:  l.composite,
		Entries: entries,
	})
	if err != nil {
		set.release()
		return nil, fmt.Errorf("failed to create composite bind group: %w", err)
	}
	set.composite = composite

	return set, nil
}

// createPassBindGroup wires one read view and one storage write view into a group 1 bind group.
func createPassBindGroup(device *wgpu.Device, layout *wgpu.BindGroupLayout, label string, read, write *wgpu.TextureView) (*wgpu.BindGroup, error) {
	if read == nil || write == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingView, label)
	}
	group, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: read},
			{Binding: 1, TextureView: write},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	return group, nil
}
