package window

import "github.com/Carmen-Shannon/oxy-planet/engine/config"

// WindowBuilderOption is a functional option for configuring an engineWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the title bar text.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial client area size. The first resize pass builds the scene, post and bloom
// targets at this size. Values below one pixel are raised to one.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width, w.height = max(width, 1), max(height, 1)
	}
}

// WithMinSize sets the smallest client area the user can drag the window to. A minimized window still
// reports 0x0 and the renderer clamps that separately.
//
// Parameters:
//   - width: minimum width in pixels
//   - height: minimum height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = max(width, 1), max(height, 1)
	}
}

// WithSettings applies the [window] section of the settings file.
//
// Parameters:
//   - s: the decoded window settings
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSettings(s config.WindowSettings) WindowBuilderOption {
	return func(w *engineWindow) {
		if s.Title != "" {
			WithTitle(s.Title)(w)
		}
		WithSize(s.Width, s.Height)(w)
		WithMinSize(s.MinWidth, s.MinHeight)(w)
	}
}
