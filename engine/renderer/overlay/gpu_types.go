package overlay

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// KernelSource is the WGSL source of the overlay: solid colored triangles in NDC.
//
//go:embed assets/overlay.wgsl
var KernelSource string

// verticesPerRect is the vertex count of one rectangle drawn as two triangles.
const verticesPerRect = 6

// GPUOverlayVertex matches the OverlayVertex input struct of KernelSource.
// Size: 24 bytes.
type GPUOverlayVertex struct {
	Position [2]float32 // offset 0
	Color    [4]float32 // offset 8
}

// Size returns the size of the GPUOverlayVertex struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (24)
func (g *GPUOverlayVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// RectVertices expands rectangles into a triangle list, two counter-clockwise triangles per rectangle.
//
// Parameters:
//   - rects: the rectangles to expand
//
// Returns:
//   - []GPUOverlayVertex: verticesPerRect vertices per rectangle
func RectVertices(rects []Rect) []GPUOverlayVertex {
	out := make([]GPUOverlayVertex, 0, len(rects)*verticesPerRect)
	for _, r := range rects {
		bl := GPUOverlayVertex{Position: [2]float32{r.X0, r.Y0}, Color: r.Color}
		br := GPUOverlayVertex{Position: [2]float32{r.X1, r.Y0}, Color: r.Color}
		tr := GPUOverlayVertex{Position: [2]float32{r.X1, r.Y1}, Color: r.Color}
		tl := GPUOverlayVertex{Position: [2]float32{r.X0, r.Y1}, Color: r.Color}
		out = append(out, bl, br, tr, bl, tr, tl)
	}
	return out
}

// MarshalVertices serializes overlay vertices into a byte buffer for a vertex buffer upload.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: the vertices as a little endian byte slice
func MarshalVertices(vertices []GPUOverlayVertex) []byte {
	stride := (&GPUOverlayVertex{}).Size()
	buf := make([]byte, len(vertices)*stride)
	for i, v := range vertices {
		off := i * stride
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Position[1]))
		for c := range v.Color {
			binary.LittleEndian.PutUint32(buf[off+8+c*4:], math.Float32bits(v.Color[c]))
		}
	}
	return buf
}
