package bloom

import (
	"fmt"
	"strconv"
)

// TileSize is the edge of the square workgroup every bloom kernel is compiled with.
const TileSize = 8

// Stage is one state of the bloom pass state machine. A frame walks
// Prefilter, Downsample(1..L-1), then HorizontalBlur/VerticalBlur per level, then Composite.
type Stage int

const (
	// StagePrefilter bright-passes the scene into downsample level 0 at half resolution.
	StagePrefilter Stage = iota

	// StageDownsample halves level i-1 into level i.
	StageDownsample

	// StageBlurHorizontal blurs one downsample level along x.
	StageBlurHorizontal

	// StageBlurVertical blurs one horizontal level along y.
	StageBlurVertical

	// StageComposite adds the blurred levels onto the scene at full resolution.
	StageComposite
)

// Stages lists every stage in state machine order.
var Stages = []Stage{StagePrefilter, StageDownsample, StageBlurHorizontal, StageBlurVertical, StageComposite}

func (s Stage) String() string {
	if s >= StagePrefilter && s <= StageComposite {
		return s.Pass().String()
	}
	return "Stage(" + strconv.Itoa(int(s)) + ")"
}

// Pass returns the pass kind whose bind group the stage dispatches with.
//
// Returns:
//   - PassKind: the pass kind of the stage
func (s Stage) Pass() PassKind {
	switch s {
	case StagePrefilter:
		return PassPrefilter
	case StageDownsample:
		return PassDownsample
	case StageBlurHorizontal:
		return PassHorizontalBlur
	case StageBlurVertical:
		return PassVerticalBlur
	default:
		return PassComposite
	}
}

// EntryPoint returns the name of the kernel the stage runs.
//
// Returns:
//   - string: the WGSL entry point name
func (s Stage) EntryPoint() string {
	switch s {
	case StagePrefilter:
		return "prefilter_main"
	case StageDownsample:
		return "downsample_main"
	case StageBlurHorizontal:
		return "horizontal_blur_main"
	case StageBlurVertical:
		return "vertical_blur_main"
	default:
		return "composite_main"
	}
}

// Workgroups returns the number of TileSize workgroups needed to cover dim texels.
//
// Parameters:
//   - dim: the texel count along one axis
//
// Returns:
//   - uint32: ceil(dim / TileSize)
func Workgroups(dim uint32) uint32 {
	return (dim + TileSize - 1) / TileSize
}

// Dispatch is one compute dispatch of a bloom frame.
type Dispatch struct {
	Stage      Stage
	Level      int
	Extent     Extent
	Workgroups [3]uint32
}

// Label returns the compute pass label of the dispatch.
//
// Returns:
//   - string: a label such as "Downsample Compute Pass Mip 3"
func (d Dispatch) Label() string {
	switch d.Stage {
	case StagePrefilter, StageComposite:
		return d.Stage.String() + " Compute Pass"
	default:
		return fmt.Sprintf("%s Compute Pass Mip %d", d.Stage, d.Level)
	}
}

func newDispatch(stage Stage, level int, extent Extent) Dispatch {
	return Dispatch{
		Stage:      stage,
		Level:      level,
		Extent:     extent,
		Workgroups: [3]uint32{Workgroups(extent.Width), Workgroups(extent.Height), 1},
	}
}

// Schedule returns every dispatch of one bloom frame in record order: the prefilter over
// level 0, the downsamples for levels 1..L-1, a horizontal then vertical blur for each level,
// and the composite over the full resolution. Passes recorded in this order into one command
// stream need no further synchronization.
//
// Parameters:
//   - width, height: the full render resolution, both at least 1
//   - levels: the mip level count, at least 1
//
// Returns:
//   - []Dispatch: the ordered dispatches
//   - error: ErrInvalidExtent or ErrInvalidLevels when a precondition does not hold
func Schedule(width, height uint32, levels int) ([]Dispatch, error) {
	extents, err := ChainExtents(width, height, levels)
	if err != nil {
		return nil, err
	}

	dispatches := make([]Dispatch, 0, 3*levels+1)
	dispatches = append(dispatches, newDispatch(StagePrefilter, 0, extents[0]))
	for i := 1; i < levels; i++ {
		dispatches = append(dispatches, newDispatch(StageDownsample, i, extents[i]))
	}
	for i := range levels {
		dispatches = append(dispatches,
			newDispatch(StageBlurHorizontal, i, extents[i]),
			newDispatch(StageBlurVertical, i, extents[i]),
		)
	}
	dispatches = append(dispatches, newDispatch(StageComposite, 0, Extent{Width: width, Height: height}))
	return dispatches, nil
}
