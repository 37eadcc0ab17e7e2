package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	assert.Equal(t, 8, s.Bloom.Levels)
	assert.Equal(t, BloomSettings{Levels: 8, MinBrightness: 0.9, MaxBrightness: 1, BlurRadius: 1, BlurType: 0}, s.Bloom)
	assert.Equal(t, ColorCorrectionSettings{Brightness: 1, Contrast: 1, Saturation: 1}, s.ColorCorrection)
	assert.Equal(t, "Voxel Renderer", s.Window.Title)
}

func TestDecodeTOMLOverlaysDefaults(t *testing.T) {
	src := `
[bloom]
levels = 5
blur_type = 1

[color_correction]
saturation = 0.5

[camera]
start_position = [1.0, 2.0, 3.0]
`
	s, err := Decode(strings.NewReader(src), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, 5, s.Bloom.Levels)
	assert.Equal(t, 1, s.Bloom.BlurType)
	assert.Equal(t, float32(0.9), s.Bloom.MinBrightness, "untouched keys keep defaults")
	assert.Equal(t, float32(0.5), s.ColorCorrection.Saturation)
	assert.Equal(t, float32(1), s.ColorCorrection.Brightness)
	assert.Equal(t, [3]float32{1, 2, 3}, s.Camera.StartPosition)
	assert.Equal(t, 800, s.Window.Width)
}

func TestDecodeYAML(t *testing.T) {
	src := `
window:
  title: planet
  width: 1024
voxel:
  voxel_level: 6
  show_normals: true
`
	s, err := Decode(strings.NewReader(src), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "planet", s.Window.Title)
	assert.Equal(t, 1024, s.Window.Width)
	assert.Equal(t, 800, s.Window.Height)
	assert.Equal(t, 6, s.Voxel.VoxelLevel)
	assert.True(t, s.Voxel.ShowNormals)
}

func TestDecodeEmptyYAMLYieldsDefaults(t *testing.T) {
	s, err := Decode(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestDecodeRejectsUnknownTOMLKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("[bloom]\nlevles = 3\n"), FormatTOML)
	assert.Error(t, err)
}

func TestValidateNamesField(t *testing.T) {
	cases := map[string]func(*Settings){
		"bloom.levels":          func(s *Settings) { s.Bloom.Levels = 0 },
		"bloom.blur_type":       func(s *Settings) { s.Bloom.BlurType = 2 },
		"voxel.voxel_level":     func(s *Settings) { s.Voxel.VoxelLevel = 8 },
		"window.min_width":      func(s *Settings) { s.Window.MinWidth = 900 },
		"window.height":         func(s *Settings) { s.Window.Height = 0 },
		"renderer.present_mode": func(s *Settings) { s.Renderer.PresentMode = "mailbox" },
		"camera.near":           func(s *Settings) { s.Camera.Far = s.Camera.Near },
		"camera.move_speed":     func(s *Settings) { s.Camera.MoveSpeed = -1 },
		"profiler.interval":     func(s *Settings) { s.Profiler.Interval = 0 },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			s := Default()
			mutate(&s)
			err := s.Validate()
			require.ErrorIs(t, err, ErrInvalidSettings)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestEncodeTOML(t *testing.T) {
	s := Default()
	s.Bloom.Levels = 6
	s.Voxel.ShowSteps = true

	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf, FormatTOML))

	out := buf.String()
	assert.Contains(t, out, "[bloom]")
	assert.Contains(t, out, "levels = 6")
	assert.Contains(t, out, "show_steps = true")
	assert.Contains(t, out, "[color_correction]")
}

func TestEncodeDecodeYAML(t *testing.T) {
	s := Default()
	s.ColorCorrection.Contrast = 1.25
	s.Window.Title = "round trip"

	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf, FormatYAML))

	got, err := Decode(&buf, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, float32(1.25), got.ColorCorrection.Contrast)
	assert.Equal(t, "round trip", got.Window.Title)
	assert.Equal(t, s.Bloom, got.Bloom)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("bloom:\n  levels: 4\n"), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Bloom.Levels)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[bloom]\nlevels = 0\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestLoadDefaultPathMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestWatcherReloadsAndIgnoresInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oxy-planet.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bloom]\nlevels = 8\n"), 0o644))

	changes := make(chan Settings, 8)
	w, err := NewWatcher(path, 20*time.Millisecond, func(s Settings) { changes <- s })
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, path, w.Path())

	require.NoError(t, os.WriteFile(path, []byte("[bloom]\nlevels = 0\n"), 0o644))
	select {
	case s := <-changes:
		t.Fatalf("invalid settings delivered: %+v", s.Bloom)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("[bloom]\nmin_brightness = 0.5\n"), 0o644))
	select {
	case s := <-changes:
		assert.Equal(t, float32(0.5), s.Bloom.MinBrightness)
	case <-time.After(5 * time.Second):
		t.Fatal("reload not delivered")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oxy-planet.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	changes := make(chan Settings, 1)
	w, err := NewWatcher(path, 10*time.Millisecond, func(s Settings) { changes <- s })
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1"), 0o644))
	select {
	case <-changes:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(150 * time.Millisecond):
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
