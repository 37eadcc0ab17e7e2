package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the settings file name looked up when no path is given.
const DefaultFile = "oxy-planet.toml"

// ErrInvalidSettings is returned when decoded settings fail validation.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds every tunable of the application. Zero-valued sections in a settings file keep
// the values from Default, since files are decoded on top of the defaults.
type Settings struct {
	Window          WindowSettings          `toml:"window" yaml:"window"`
	Renderer        RendererSettings        `toml:"renderer" yaml:"renderer"`
	Bloom           BloomSettings           `toml:"bloom" yaml:"bloom"`
	ColorCorrection ColorCorrectionSettings `toml:"color_correction" yaml:"color_correction"`
	Voxel           VoxelSettings           `toml:"voxel" yaml:"voxel"`
	Camera          CameraSettings          `toml:"camera" yaml:"camera"`
	Assets          AssetSettings           `toml:"assets" yaml:"assets"`
	Profiler        ProfilerSettings        `toml:"profiler" yaml:"profiler"`
}

type WindowSettings struct {
	Title     string `toml:"title" yaml:"title"`
	Width     int    `toml:"width" yaml:"width"`
	Height    int    `toml:"height" yaml:"height"`
	MinWidth  int    `toml:"min_width" yaml:"min_width"`
	MinHeight int    `toml:"min_height" yaml:"min_height"`
}

type RendererSettings struct {
	// PresentMode is "vsync" (FIFO) or "uncapped" (immediate).
	PresentMode   string `toml:"present_mode" yaml:"present_mode"`
	FrameLimit    int    `toml:"frame_limit" yaml:"frame_limit"`
	ForceSoftware bool   `toml:"force_software" yaml:"force_software"`
}

// BloomSettings mirrors the bloom uniform plus the mip level count.
type BloomSettings struct {
	Levels        int     `toml:"levels" yaml:"levels"`
	MinBrightness float32 `toml:"min_brightness" yaml:"min_brightness"`
	MaxBrightness float32 `toml:"max_brightness" yaml:"max_brightness"`
	BlurRadius    float32 `toml:"blur_radius" yaml:"blur_radius"`
	// BlurType selects the separable kernel: 0 Gaussian, 1 box.
	BlurType int `toml:"blur_type" yaml:"blur_type"`
}

type ColorCorrectionSettings struct {
	Brightness float32 `toml:"brightness" yaml:"brightness"`
	Contrast   float32 `toml:"contrast" yaml:"contrast"`
	Saturation float32 `toml:"saturation" yaml:"saturation"`
}

type VoxelSettings struct {
	VoxelLevel             int     `toml:"voxel_level" yaml:"voxel_level"`
	Steps                  int     `toml:"steps" yaml:"steps"`
	MaxDist                float32 `toml:"max_dist" yaml:"max_dist"`
	MinDist                float32 `toml:"min_dist" yaml:"min_dist"`
	Eps                    float32 `toml:"eps" yaml:"eps"`
	WaterHeight            float32 `toml:"water_height" yaml:"water_height"`
	SurfaceFactor          float32 `toml:"surface_factor" yaml:"surface_factor"`
	ShowNormals            bool    `toml:"show_normals" yaml:"show_normals"`
	ShowSteps              bool    `toml:"show_steps" yaml:"show_steps"`
	VisualizeDistanceField bool    `toml:"visualize_distance_field" yaml:"visualize_distance_field"`
}

type CameraSettings struct {
	FovDegrees    float32    `toml:"fov_degrees" yaml:"fov_degrees"`
	Near          float32    `toml:"near" yaml:"near"`
	Far           float32    `toml:"far" yaml:"far"`
	MoveSpeed     float32    `toml:"move_speed" yaml:"move_speed"`
	LookSpeed     float32    `toml:"look_speed" yaml:"look_speed"`
	StartPosition [3]float32 `toml:"start_position" yaml:"start_position"`
}

type AssetSettings struct {
	Directory      string `toml:"directory" yaml:"directory"`
	Noise0         string `toml:"noise0" yaml:"noise0"`
	Noise1         string `toml:"noise1" yaml:"noise1"`
	Grain          string `toml:"grain" yaml:"grain"`
	Dirt           string `toml:"dirt" yaml:"dirt"`
	MaxTextureSize int    `toml:"max_texture_size" yaml:"max_texture_size"`
	LoaderWorkers  int    `toml:"loader_workers" yaml:"loader_workers"`
}

type ProfilerSettings struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
	// Interval is the logging period in seconds.
	Interval float64 `toml:"interval" yaml:"interval"`
}

// Default returns the built-in settings: an 800x800 window, 8 bloom levels with thresholds
// {0.9, 1.0, 1.0, Gaussian}, identity color correction and the original planet parameters.
//
// Returns:
//   - Settings: the default settings
func Default() Settings {
	return Settings{
		Window: WindowSettings{
			Title:     "Voxel Renderer",
			Width:     800,
			Height:    800,
			MinWidth:  200,
			MinHeight: 200,
		},
		Renderer: RendererSettings{
			PresentMode: "vsync",
		},
		Bloom: BloomSettings{
			Levels:        8,
			MinBrightness: 0.9,
			MaxBrightness: 1.0,
			BlurRadius:    1.0,
			BlurType:      0,
		},
		ColorCorrection: ColorCorrectionSettings{
			Brightness: 1,
			Contrast:   1,
			Saturation: 1,
		},
		Voxel: VoxelSettings{
			VoxelLevel:    3,
			Steps:         2048,
			MaxDist:       600000.0,
			MinDist:       0.0001,
			Eps:           1e-5,
			WaterHeight:   -2.2,
			SurfaceFactor: 0.42,
		},
		Camera: CameraSettings{
			FovDegrees:    45,
			Near:          0.1,
			Far:           100,
			MoveSpeed:     5,
			LookSpeed:     0.003,
			StartPosition: [3]float32{0, 1, 3},
		},
		Assets: AssetSettings{
			Directory:     "assets",
			Noise0:        "rgbnoise.png",
			Noise1:        "graynoise_32x32x32_cube.bin",
			Grain:         "stone.png",
			Dirt:          "mud.png",
			LoaderWorkers: 0,
		},
		Profiler: ProfilerSettings{
			Enabled:  true,
			Interval: 1,
		},
	}
}

// Load reads a settings file on top of Default and validates the result. The decoder is chosen
// by extension: .yaml and .yml use YAML, everything else TOML. A missing file at the default
// path yields the defaults; a missing file at an explicit path is an error.
//
// Parameters:
//   - path: the settings file, or "" for DefaultFile in the working directory
//
// Returns:
//   - Settings: the loaded settings
//   - error: error if the file cannot be read, decoded or validated
func Load(path string) (Settings, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	s, err := Decode(bytes.NewReader(data), formatOf(path))
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings %s: %w", path, err)
	}
	return s, nil
}

// Format names a settings file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Decode reads settings in the given format on top of Default and validates the result.
//
// Parameters:
//   - r: the encoded settings
//   - format: FormatTOML or FormatYAML
//
// Returns:
//   - Settings: the decoded settings
//   - error: error if decoding or validation fails
func Decode(r io.Reader, format Format) (Settings, error) {
	s := Default()
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return Settings{}, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&s); err != nil {
			return Settings{}, fmt.Errorf("failed to decode toml: %w", err)
		}
	default:
		return Settings{}, fmt.Errorf("unknown settings format %q", format)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Encode writes settings in the given format.
//
// Parameters:
//   - w: the destination
//   - format: FormatTOML or FormatYAML
//
// Returns:
//   - error: error if encoding fails
func (s Settings) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(s)
	case FormatTOML:
		return toml.NewEncoder(w).Encode(s)
	default:
		return fmt.Errorf("unknown settings format %q", format)
	}
}

// Validate checks the ranges every consumer relies on.
//
// Returns:
//   - error: ErrInvalidSettings wrapped with the offending field, or nil
func (s Settings) Validate() error {
	invalid := func(field string, v any) error {
		return fmt.Errorf("%w: %s = %v", ErrInvalidSettings, field, v)
	}

	switch {
	case s.Window.Width < 1:
		return invalid("window.width", s.Window.Width)
	case s.Window.Height < 1:
		return invalid("window.height", s.Window.Height)
	case s.Window.MinWidth < 1 || s.Window.MinWidth > s.Window.Width:
		return invalid("window.min_width", s.Window.MinWidth)
	case s.Window.MinHeight < 1 || s.Window.MinHeight > s.Window.Height:
		return invalid("window.min_height", s.Window.MinHeight)
	case s.Renderer.PresentMode != "vsync" && s.Renderer.PresentMode != "uncapped":
		return invalid("renderer.present_mode", s.Renderer.PresentMode)
	case s.Renderer.FrameLimit < 0:
		return invalid("renderer.frame_limit", s.Renderer.FrameLimit)
	case s.Bloom.Levels < 1:
		return invalid("bloom.levels", s.Bloom.Levels)
	case s.Bloom.BlurType != 0 && s.Bloom.BlurType != 1:
		return invalid("bloom.blur_type", s.Bloom.BlurType)
	case s.Voxel.VoxelLevel < 1 || s.Voxel.VoxelLevel > 7:
		return invalid("voxel.voxel_level", s.Voxel.VoxelLevel)
	case s.Voxel.Steps < 1:
		return invalid("voxel.steps", s.Voxel.Steps)
	case s.Camera.FovDegrees <= 0 || s.Camera.FovDegrees >= 180:
		return invalid("camera.fov_degrees", s.Camera.FovDegrees)
	case s.Camera.Near <= 0 || s.Camera.Far <= s.Camera.Near:
		return invalid("camera.near", s.Camera.Near)
	case s.Camera.MoveSpeed <= 0:
		return invalid("camera.move_speed", s.Camera.MoveSpeed)
	case s.Camera.LookSpeed <= 0:
		return invalid("camera.look_speed", s.Camera.LookSpeed)
	case s.Assets.MaxTextureSize < 0:
		return invalid("assets.max_texture_size", s.Assets.MaxTextureSize)
	case s.Profiler.Enabled && s.Profiler.Interval <= 0:
		return invalid("profiler.interval", s.Profiler.Interval)
	}
	return nil
}
