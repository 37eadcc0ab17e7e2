package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	data := encodePNG(t, 4, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	staging, err := DecodeImage(bytes.NewReader(data), 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), staging.Width)
	assert.Equal(t, uint32(2), staging.Height)
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, staging.Format)
	require.Len(t, staging.Pixels, 4*2*4)
	assert.Equal(t, []byte{10, 20, 30, 255}, staging.Pixels[:4])
}

func TestDecodeImageDownscales(t *testing.T) {
	data := encodePNG(t, 64, 16, color.RGBA{R: 200, G: 200, B: 200, A: 255})

	staging, err := DecodeImage(bytes.NewReader(data), 32)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), staging.Width)
	assert.Equal(t, uint32(8), staging.Height)
	assert.Len(t, staging.Pixels, 32*8*4)
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage(bytes.NewReader([]byte("not an image")), 0)
	assert.Error(t, err)
}

func TestAtLeastOne(t *testing.T) {
	assert.Equal(t, uint32(1), AtLeastOne(0))
	assert.Equal(t, uint32(1), AtLeastOne(-5))
	assert.Equal(t, uint32(800), AtLeastOne(800))
	assert.Equal(t, 3, Coalesce(0, 3, 4))
}
