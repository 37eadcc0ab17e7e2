package overlay

import (
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/color_correction"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/terrain"
)

// HUD metrics in pixels, anchored to the top left corner of the surface.
const (
	margin      = 12
	padding     = 8
	cellSize    = 18
	cellGap     = 4
	swatchWidth = 36
)

var (
	panelColor    = [4]float32{0, 0, 0, 0.45}
	cellLitColor  = [4]float32{0.95, 0.75, 0.2, 0.9}
	cellDarkColor = [4]float32{0.25, 0.25, 0.25, 0.6}
)

// SwatchGrays are the input grays of the tone preview swatches, dark to light.
var SwatchGrays = [3]float32{0.2, 0.5, 0.8}

// State is what the HUD displays for one frame.
type State struct {
	VoxelLevel int32
	Correction color_correction.Uniform
}

// Rect is an axis aligned rectangle in normalized device coordinates, with X0 <= X1 and Y0 <= Y1.
type Rect struct {
	X0, Y0, X1, Y1 float32
	Color          [4]float32
}

// pixelRect converts a rectangle given in top-left origin pixels into NDC.
func pixelRect(x, y, w, h float32, width, height uint32, color [4]float32) Rect {
	fw, fh := float32(width), float32(height)
	return Rect{
		X0:    x/fw*2 - 1,
		X1:    (x+w)/fw*2 - 1,
		Y0:    1 - (y+h)/fh*2,
		Y1:    1 - y/fh*2,
		Color: color,
	}
}

// Layout places the HUD for a surface of the given size: a translucent panel, one voxel level cell
// per level up to terrain.MaxVoxelLevel with cells at or below the current level lit, and a row of
// tone swatches showing SwatchGrays after color correction.
//
// Parameters:
//   - state: the values to display
//   - width, height: the surface size in pixels, clamped to at least 1
//
// Returns:
//   - []Rect: the rectangles in draw order, panel first
func Layout(state State, width, height uint32) []Rect {
	width, height = max(width, 1), max(height, 1)

	cells := float32(terrain.MaxVoxelLevel)
	barWidth := cells*cellSize + (cells-1)*cellGap
	panelWidth := barWidth + 2*padding
	panelHeight := float32(2*cellSize + cellGap + 2*padding)

	rects := make([]Rect, 0, 1+terrain.MaxVoxelLevel+len(SwatchGrays))
	rects = append(rects, pixelRect(margin, margin, panelWidth, panelHeight, width, height, panelColor))

	x0, y := float32(margin+padding), float32(margin+padding)
	for level := int32(1); level <= terrain.MaxVoxelLevel; level++ {
		color := cellDarkColor
		if level <= state.VoxelLevel {
			color = cellLitColor
		}
		x := x0 + float32(level-1)*(cellSize+cellGap)
		rects = append(rects, pixelRect(x, y, cellSize, cellSize, width, height, color))
	}

	y += cellSize + cellGap
	for i, gray := range SwatchGrays {
		rgb := color_correction.Reference([3]float32{gray, gray, gray}, state.Correction)
		color := [4]float32{clamp01(rgb[0]), clamp01(rgb[1]), clamp01(rgb[2]), 1}
		x := x0 + float32(i)*(swatchWidth+cellGap)
		rects = append(rects, pixelRect(x, y, swatchWidth, cellSize, width, height, color))
	}
	return rects
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
