package terrain

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func noiseVolumeBytes(texels int) []byte {
	data := make([]byte, noiseVolumeHeaderSize+texels)
	for i := range texels {
		data[noiseVolumeHeaderSize+i] = byte(i)
	}
	return data
}

func TestParseNoiseVolume(t *testing.T) {
	tex, err := ParseNoiseVolume(bytes.NewReader(noiseVolumeBytes(32*32*32 + 5)))
	require.NoError(t, err)

	assert.Equal(t, uint32(32), tex.Width)
	assert.Equal(t, uint32(32), tex.Height)
	assert.Equal(t, uint32(32), tex.Depth)
	assert.Equal(t, wgpu.TextureFormatR8Unorm, tex.Format)
	assert.Equal(t, uint32(1), tex.BytesPerTexel)
	require.Len(t, tex.Pixels, 32768)
	assert.Equal(t, byte(0), tex.Pixels[0])
	assert.Equal(t, byte(33), tex.Pixels[33])
}

func TestParseNoiseVolumeTruncated(t *testing.T) {
	_, err := ParseNoiseVolume(bytes.NewReader(noiseVolumeBytes(1000)))
	assert.ErrorIs(t, err, ErrShortNoiseVolume)

	_, err = ParseNoiseVolume(bytes.NewReader(make([]byte, 10)))
	assert.ErrorIs(t, err, ErrShortNoiseVolume)
}

func TestLoadTexturesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	files := DefaultTextureFiles()
	writePNG(t, filepath.Join(dir, files.Noise0), 16, 16)
	writePNG(t, filepath.Join(dir, files.Grain), 64, 32)
	writePNG(t, filepath.Join(dir, files.Dirt), 8, 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, files.Noise1), noiseVolumeBytes(32*32*32), 0o644))

	textures, err := LoadTextures(LoadOptions{Dir: dir, Files: files, MaxTextureSize: 32, Workers: 2})
	require.NoError(t, err)
	require.Len(t, textures, 4)

	assert.Equal(t, uint32(16), textures[TextureRoleNoise0].Width)
	assert.Equal(t, uint32(32), textures[TextureRoleGrain].Width)
	assert.Equal(t, uint32(16), textures[TextureRoleGrain].Height)
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, textures[TextureRoleDirt].Format)
	assert.Equal(t, uint32(32), textures[TextureRoleNoise1].Depth)
}

func TestLoadTexturesFallsBackWhenMissing(t *testing.T) {
	textures, err := LoadTextures(LoadOptions{Dir: t.TempDir(), Files: DefaultTextureFiles()})
	require.NoError(t, err)
	require.Len(t, textures, 4)

	noise := textures[TextureRoleNoise1]
	assert.Equal(t, wgpu.TextureFormatR8Unorm, noise.Format)
	assert.Len(t, noise.Pixels, 32768)

	grain := textures[TextureRoleGrain]
	assert.Equal(t, uint32(proceduralTextureSize), grain.Width)
	assert.Len(t, grain.Pixels, proceduralTextureSize*proceduralTextureSize*4)
}

func TestLoadTexturesReportsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	files := DefaultTextureFiles()
	require.NoError(t, os.WriteFile(filepath.Join(dir, files.Dirt), []byte("not an image"), 0o644))

	_, err := LoadTextures(LoadOptions{Dir: dir, Files: files})
	require.Error(t, err)
	assert.Contains(t, err.Error(), files.Dirt)
}

func TestProceduralTextureIsDeterministicAndTiles(t *testing.T) {
	a := ProceduralTexture(TextureRoleGrain)
	b := ProceduralTexture(TextureRoleGrain)
	assert.Equal(t, a.Pixels, b.Pixels)
	assert.NotEqual(t, a.Pixels, ProceduralTexture(TextureRoleDirt).Pixels)

	// the lattice wraps, so the first column continues from the last cell
	assert.Equal(t, float32(valueNoise(1, 0, 0, 16, 16)), valueNoise(1, 256, 0, 16, 16))
}
