package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-planet/engine/config"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer/bloom"
)

// BloomSettingsFrom converts the [bloom] settings section into the bloom uniform settings.
//
// Parameters:
//   - s: the bloom settings section
//
// Returns:
//   - bloom.Settings: the thresholds, radius and kernel to write to the bloom settings buffer
func BloomSettingsFrom(s config.BloomSettings) bloom.Settings {
	return bloom.Settings{
		MinBrightness: s.MinBrightness,
		MaxBrightness: s.MaxBrightness,
		BlurRadius:    s.BlurRadius,
		BlurType:      bloom.BlurType(s.BlurType),
	}
}

// PresentModeFrom maps the present_mode setting onto a renderer present mode.
// Anything other than "uncapped" selects vsync.
//
// Parameters:
//   - mode: "vsync" or "uncapped"
//
// Returns:
//   - renderer.PresentMode: the matching present mode
func PresentModeFrom(mode string) renderer.PresentMode {
	if mode == "uncapped" {
		return renderer.PresentModeUncapped
	}
	return renderer.PresentModeVSync
}

// frameDuration converts a rate in frames per second to a period. Rates <= 0 return 0.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

// aspectRatio returns width/height, or false when the height is zero (a minimized window).
func aspectRatio(width, height int) (float32, bool) {
	if height <= 0 || width <= 0 {
		return 0, false
	}
	return float32(width) / float32(height), true
}

func profilerInterval(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
