package overlay

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/color_correction"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/terrain"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func litCells(rects []Rect) int {
	lit := 0
	for _, r := range rects[1 : 1+terrain.MaxVoxelLevel] {
		if r.Color == cellLitColor {
			lit++
		}
	}
	return lit
}

func TestLayoutCounts(t *testing.T) {
	rects := Layout(State{VoxelLevel: 3, Correction: color_correction.DefaultUniform()}, 800, 800)
	require.Len(t, rects, 1+terrain.MaxVoxelLevel+len(SwatchGrays))
	assert.Equal(t, panelColor, rects[0].Color)
	assert.Equal(t, 3, litCells(rects))
}

func TestLayoutLitCellsFollowLevel(t *testing.T) {
	for level := int32(terrain.MinVoxelLevel); level <= terrain.MaxVoxelLevel; level++ {
		rects := Layout(State{VoxelLevel: level, Correction: color_correction.DefaultUniform()}, 1280, 720)
		assert.Equal(t, int(level), litCells(rects), "level %d", level)
	}
}

func TestLayoutStaysInsideNDC(t *testing.T) {
	for _, size := range [][2]uint32{{800, 800}, {1920, 1080}, {200, 200}} {
		for _, r := range Layout(State{VoxelLevel: 7, Correction: color_correction.DefaultUniform()}, size[0], size[1]) {
			assert.LessOrEqual(t, r.X0, r.X1)
			assert.LessOrEqual(t, r.Y0, r.Y1)
			assert.GreaterOrEqual(t, r.X0, float32(-1))
			assert.LessOrEqual(t, r.Y1, float32(1))
		}
	}
}

func TestLayoutPanelAnchorsTopLeft(t *testing.T) {
	rects := Layout(State{VoxelLevel: 1, Correction: color_correction.DefaultUniform()}, 1000, 500)
	panel := rects[0]
	assert.InDelta(t, -1+2*float32(margin)/1000, panel.X0, 1e-6)
	assert.InDelta(t, 1-2*float32(margin)/500, panel.Y1, 1e-6)
}

func TestLayoutPanelEnclosesBarAndSwatches(t *testing.T) {
	rects := Layout(State{VoxelLevel: 4, Correction: color_correction.DefaultUniform()}, 1000, 500)
	panel := rects[0]

	wantHeight := float32(2*cellSize+cellGap+2*padding) / 500 * 2
	assert.InDelta(t, wantHeight, panel.Y1-panel.Y0, 1e-6)

	for _, r := range rects[1:] {
		assert.GreaterOrEqual(t, r.X0, panel.X0)
		assert.LessOrEqual(t, r.X1, panel.X1+1e-6)
		assert.GreaterOrEqual(t, r.Y0, panel.Y0-1e-6)
		assert.LessOrEqual(t, r.Y1, panel.Y1)
	}
}

func TestLayoutClampsZeroSize(t *testing.T) {
	rects := Layout(State{VoxelLevel: 2}, 0, 0)
	for _, r := range rects {
		assert.False(t, math.IsNaN(float64(r.X0)) || math.IsInf(float64(r.X0), 0))
		assert.False(t, math.IsNaN(float64(r.Y0)) || math.IsInf(float64(r.Y0), 0))
	}
}

func TestLayoutSwatchesUseColorCorrection(t *testing.T) {
	identity := Layout(State{VoxelLevel: 3, Correction: color_correction.DefaultUniform()}, 800, 800)
	swatches := identity[1+terrain.MaxVoxelLevel:]
	for i, gray := range SwatchGrays {
		assert.InDelta(t, gray, swatches[i].Color[0], 1e-6)
		assert.Equal(t, float32(1), swatches[i].Color[3])
	}

	bright := Layout(State{VoxelLevel: 3, Correction: color_correction.Uniform{Brightness: 6, Contrast: 1, Saturation: 1}}, 800, 800)
	for _, s := range bright[1+terrain.MaxVoxelLevel:] {
		assert.Equal(t, float32(1), s.Color[0], "corrected swatches are clamped")
	}
}

func TestRectVertices(t *testing.T) {
	r := Rect{X0: -1, Y0: -1, X1: 0, Y1: 0.5, Color: [4]float32{1, 0, 0, 1}}
	vertices := RectVertices([]Rect{r})
	require.Len(t, vertices, verticesPerRect)

	assert.Equal(t, [2]float32{-1, -1}, vertices[0].Position)
	assert.Equal(t, [2]float32{0, -1}, vertices[1].Position)
	assert.Equal(t, [2]float32{0, 0.5}, vertices[2].Position)
	assert.Equal(t, [2]float32{-1, 0.5}, vertices[5].Position)
	for _, v := range vertices {
		assert.Equal(t, r.Color, v.Color)
	}
}

func TestMarshalVertices(t *testing.T) {
	v := GPUOverlayVertex{Position: [2]float32{0.25, -0.5}, Color: [4]float32{0.1, 0.2, 0.3, 0.4}}
	assert.Equal(t, 24, v.Size())

	buf := MarshalVertices([]GPUOverlayVertex{v, v})
	require.Len(t, buf, 48)
	assert.Equal(t, float32(-0.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, float32(0.4), math.Float32frombits(binary.LittleEndian.Uint32(buf[44:])))
}

func TestVertexLayoutMatchesGPUVertex(t *testing.T) {
	p := NewPipeline(wgpu.TextureFormatBGRA8Unorm)
	layout := p.Shader(shader.ShaderTypeVertex).VertexLayout(0)
	require.Len(t, layout, 1)
	assert.Equal(t, uint64((&GPUOverlayVertex{}).Size()), layout[0].ArrayStride)
	require.Len(t, layout[0].Attributes, 2)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layout[0].Attributes[0].Format)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, layout[0].Attributes[1].Format)
	assert.Equal(t, uint64(8), layout[0].Attributes[1].Offset)
}

func TestPipelineBlendsWithoutDepth(t *testing.T) {
	p := NewPipeline(wgpu.TextureFormatBGRA8Unorm)
	assert.True(t, p.BlendEnabled())
	assert.Equal(t, wgpu.TextureFormatUndefined, p.DepthFormat())
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, p.ColorFormat())
}

func TestOverlayAttachmentLoads(t *testing.T) {
	a := loadAttachment(nil)
	assert.Equal(t, wgpu.LoadOpLoad, a.LoadOp)
	assert.Equal(t, wgpu.StoreOpStore, a.StoreOp)
}

func TestLayoutFitsVertexBuffer(t *testing.T) {
	assert.LessOrEqual(t, len(Layout(State{}, 800, 800)), maxRects)
}
