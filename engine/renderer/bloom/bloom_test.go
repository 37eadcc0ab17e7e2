package bloom

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainExtentsHalveFromHalfResolution(t *testing.T) {
	extents, err := ChainExtents(800, 800, DefaultLevels)
	require.NoError(t, err)

	want := []uint32{400, 200, 100, 50, 25, 12, 6, 3}
	require.Len(t, extents, len(want))
	for i, w := range want {
		assert.Equal(t, Extent{Width: w, Height: w}, extents[i], "level %d", i)
	}
}

func TestChainExtentsNonSquare(t *testing.T) {
	extents, err := ChainExtents(1920, 1081, DefaultLevels)
	require.NoError(t, err)

	assert.Equal(t, Extent{Width: 960, Height: 540}, extents[0])
	assert.Equal(t, Extent{Width: 7, Height: 4}, extents[7])
	for i := range extents {
		assert.Equal(t, MipExtent(HalfExtent(1920, 1081), i), extents[i])
	}
}

func TestChainExtentsClampToOneTexel(t *testing.T) {
	assert.Equal(t, Extent{}, HalfExtent(1, 1))

	extents, err := ChainExtents(1, 1, DefaultLevels)
	require.NoError(t, err)
	for i, e := range extents {
		assert.Equal(t, Extent{Width: 1, Height: 1}, e, "level %d", i)
	}

	extents, err = ChainExtents(3, 200, 4)
	require.NoError(t, err)
	assert.Equal(t, []Extent{{1, 100}, {1, 50}, {1, 25}, {1, 12}}, extents)
}

func TestChainExtentsPreconditions(t *testing.T) {
	_, err := ChainExtents(0, 600, 8)
	assert.ErrorIs(t, err, ErrInvalidExtent)

	_, err = ChainExtents(800, 0, 8)
	assert.ErrorIs(t, err, ErrInvalidExtent)

	_, err = ChainExtents(800, 600, 0)
	assert.ErrorIs(t, err, ErrInvalidLevels)
}

func TestSharesTexture(t *testing.T) {
	extents, _ := ChainExtents(800, 800, 8)
	assert.True(t, sharesTexture(extents))

	extents, _ = ChainExtents(4, 4, 2)
	assert.True(t, sharesTexture(extents))

	extents, _ = ChainExtents(4, 4, 3)
	assert.False(t, sharesTexture(extents))

	extents, _ = ChainExtents(1, 1, 8)
	assert.False(t, sharesTexture(extents))

	assert.False(t, sharesTexture(nil))
}

func TestWorkgroups(t *testing.T) {
	assert.Equal(t, uint32(2), Workgroups(13))
	assert.Equal(t, uint32(1), Workgroups(3))
	assert.Equal(t, uint32(1), Workgroups(8))
	assert.Equal(t, uint32(2), Workgroups(9))
	assert.Equal(t, uint32(50), Workgroups(400))
	assert.Equal(t, uint32(0), Workgroups(0))
}

func TestScheduleDispatchSizes(t *testing.T) {
	dispatches, err := Schedule(800, 800, DefaultLevels)
	require.NoError(t, err)
	require.Len(t, dispatches, 1+7+2*8+1)

	first := dispatches[0]
	assert.Equal(t, StagePrefilter, first.Stage)
	assert.Equal(t, Extent{Width: 400, Height: 400}, first.Extent)
	assert.Equal(t, [3]uint32{50, 50, 1}, first.Workgroups)

	last := dispatches[len(dispatches)-1]
	assert.Equal(t, StageComposite, last.Stage)
	assert.Equal(t, Extent{Width: 800, Height: 800}, last.Extent)
	assert.Equal(t, [3]uint32{100, 100, 1}, last.Workgroups)

	for _, d := range dispatches {
		if d.Level == 7 {
			assert.Equal(t, [3]uint32{1, 1, 1}, d.Workgroups, d.Label())
		}
	}
}

func TestScheduleOrdering(t *testing.T) {
	for _, levels := range []int{1, 2, 8, 11} {
		dispatches, err := Schedule(1280, 720, levels)
		require.NoError(t, err)

		index := map[Stage]map[int]int{}
		for i, d := range dispatches {
			if index[d.Stage] == nil {
				index[d.Stage] = map[int]int{}
			}
			_, dup := index[d.Stage][d.Level]
			require.False(t, dup, "duplicate dispatch %s", d.Label())
			index[d.Stage][d.Level] = i
		}

		require.Len(t, index[StagePrefilter], 1)
		require.Len(t, index[StageDownsample], levels-1)
		require.Len(t, index[StageBlurHorizontal], levels)
		require.Len(t, index[StageBlurVertical], levels)
		require.Len(t, index[StageComposite], 1)

		written := func(level int) int {
			if level == 0 {
				return index[StagePrefilter][0]
			}
			return index[StageDownsample][level]
		}
		for level := 1; level < levels; level++ {
			assert.Greater(t, written(level), written(level-1), "downsample %d", level)
		}
		for level := range levels {
			h := index[StageBlurHorizontal][level]
			v := index[StageBlurVertical][level]
			assert.Greater(t, h, written(level), "horizontal blur %d", level)
			assert.Greater(t, v, h, "vertical blur %d", level)
			assert.Greater(t, index[StageComposite][0], v)
		}
	}
}

func TestSchedulePreconditions(t *testing.T) {
	_, err := Schedule(0, 1, 8)
	assert.ErrorIs(t, err, ErrInvalidExtent)
	_, err = Schedule(1, 1, -1)
	assert.ErrorIs(t, err, ErrInvalidLevels)

	dispatches, err := Schedule(1, 1, 8)
	require.NoError(t, err)
	for _, d := range dispatches {
		assert.Equal(t, [3]uint32{1, 1, 1}, d.Workgroups, d.Label())
	}
}

func TestDispatchLabelsAndEntryPoints(t *testing.T) {
	assert.Equal(t, "Prefilter Compute Pass", Dispatch{Stage: StagePrefilter}.Label())
	assert.Equal(t, "Downsample Compute Pass Mip 3", Dispatch{Stage: StageDownsample, Level: 3}.Label())
	assert.Equal(t, "Horizontal Blur Compute Pass Mip 0", Dispatch{Stage: StageBlurHorizontal}.Label())
	assert.Equal(t, "Vertical Blur Compute Pass Mip 7", Dispatch{Stage: StageBlurVertical, Level: 7}.Label())
	assert.Equal(t, "Composite Compute Pass", Dispatch{Stage: StageComposite}.Label())

	assert.Equal(t, "prefilter_main", StagePrefilter.EntryPoint())
	assert.Equal(t, "downsample_main", StageDownsample.EntryPoint())
	assert.Equal(t, "horizontal_blur_main", StageBlurHorizontal.EntryPoint())
	assert.Equal(t, "vertical_blur_main", StageBlurVertical.EntryPoint())
	assert.Equal(t, "composite_main", StageComposite.EntryPoint())
}

func TestPlanTopologyWiring(t *testing.T) {
	topo, err := PlanTopology(DefaultLevels)
	require.NoError(t, err)

	assert.Equal(t, DefaultLevels, topo.Levels)
	assert.Len(t, topo.Bindings, 3*DefaultLevels+1)

	prefilter, ok := topo.Binding(PassPrefilter, 0)
	require.True(t, ok)
	assert.Equal(t, ViewRef{Chain: ChainScene}, prefilter.Read)
	assert.Equal(t, ViewRef{Chain: ChainDownsample}, prefilter.Write)
	assert.True(t, prefilter.PerFrame())

	_, ok = topo.Binding(PassDownsample, 0)
	assert.False(t, ok)
	for i := 1; i < DefaultLevels; i++ {
		b, ok := topo.Binding(PassDownsample, i)
		require.True(t, ok)
		assert.Equal(t, ViewRef{Chain: ChainDownsample, Level: i - 1}, b.Read)
		assert.Equal(t, ViewRef{Chain: ChainDownsample, Level: i}, b.Write)
		assert.False(t, b.PerFrame())
	}
	for i := range DefaultLevels {
		h, ok := topo.Binding(PassHorizontalBlur, i)
		require.True(t, ok)
		assert.Equal(t, "downsample["+strconv.Itoa(i)+"]", h.Read.String())
		assert.Equal(t, ViewRef{Chain: ChainHorizontal, Level: i}, h.Write)

		v, ok := topo.Binding(PassVerticalBlur, i)
		require.True(t, ok)
		assert.Equal(t, h.Write, v.Read)
		assert.Equal(t, ViewRef{Chain: ChainVertical, Level: i}, v.Write)
	}

	composite, ok := topo.Binding(PassComposite, 0)
	require.True(t, ok)
	assert.Equal(t, ViewRef{Chain: ChainTarget}, composite.Write)
	assert.True(t, composite.PerFrame())
}

func TestPlanTopologyCompositeSlots(t *testing.T) {
	topo, err := PlanTopology(8)
	require.NoError(t, err)
	assert.Equal(t, 8, topo.ActiveSlots)
	for slot, ref := range topo.CompositeSlots {
		assert.Equal(t, ViewRef{Chain: ChainVertical, Level: slot}, ref)
	}

	topo, err = PlanTopology(3)
	require.NoError(t, err)
	assert.Equal(t, 3, topo.ActiveSlots)
	levels := make([]int, 0, CompositeSlotCount)
	for _, ref := range topo.CompositeSlots {
		assert.Equal(t, ChainVertical, ref.Chain)
		levels = append(levels, ref.Level)
	}
	assert.Equal(t, []int{0, 1, 2, 2, 2, 2, 2, 2}, levels)

	topo, err = PlanTopology(12)
	require.NoError(t, err)
	assert.Equal(t, 8, topo.ActiveSlots)
	assert.Equal(t, ViewRef{Chain: ChainVertical, Level: 7}, topo.CompositeSlots[7])
	_, ok := topo.Binding(PassVerticalBlur, 11)
	assert.True(t, ok, "levels past the composite slots are still blurred")

	_, err = PlanTopology(0)
	assert.ErrorIs(t, err, ErrInvalidLevels)
}

func TestRepeatedPlansAreIdentical(t *testing.T) {
	first, err := PlanTopology(8)
	require.NoError(t, err)
	second, err := PlanTopology(8)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	s1, err := Schedule(1024, 768, 8)
	require.NoError(t, err)
	s2, err := Schedule(1024, 768, 8)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestDeclaredLayoutsMatchKernel(t *testing.T) {
	kernel := shader.NewShaderFromSource("bloom", shader.ShaderTypeCompute, KernelSource)
	require.NoError(t, checkEntryPoints(kernel))
	assert.Equal(t, [3]uint32{TileSize, TileSize, 1}, kernel.WorkgroupSize())

	assert.Equal(t, settingsLayoutDescriptor().Entries, kernel.BindGroupLayoutDescriptor(0).Entries)
	assert.Equal(t, passLayoutDescriptor().Entries, kernel.BindGroupLayoutDescriptor(1).Entries)
	assert.Equal(t, compositeLayoutDescriptor().Entries, kernel.BindGroupLayoutDescriptor(2).Entries)
	assert.Len(t, compositeLayoutDescriptor().Entries, CompositeSlotCount+1)
}

func TestCheckEntryPointsReportsMissingKernel(t *testing.T) {
	source := strings.Replace(KernelSource, "fn composite_main", "fn composite_unused", 1)
	kernel := shader.NewShaderFromSource("bloom_partial", shader.ShaderTypeCompute, source)

	err := checkEntryPoints(kernel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "composite_main")
}

func TestGPUBloomSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, Settings{MinBrightness: 0.9, MaxBrightness: 1, BlurRadius: 1, BlurType: BlurGaussian}, s)

	s.BlurType = BlurBox
	gpu := newGPUBloomSettings(s, 5)
	require.Equal(t, 32, gpu.Size())

	buf := gpu.Marshal()
	require.Len(t, buf, 32)
	assert.Equal(t, float32(0.9), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[12:]))
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(buf[16:]))
	assert.Equal(t, make([]byte, 12), buf[20:])
}

func TestBindGroupSetLookup(t *testing.T) {
	set := &bindGroupSet{}
	assert.Nil(t, set.lookup(PassDownsample, 0))
	assert.Nil(t, set.lookup(PassHorizontalBlur, -1))
	assert.Nil(t, set.lookup(PassComposite, 0))
}
