package profiler

import (
	"runtime"
	"time"
)

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets the logging period. Values <= 0 keep the 1 second default.
//
// Parameters:
//   - interval: the period between logged windows
//
// Returns:
//   - ProfilerOption: option function to apply
func WithInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithClock replaces the time source.
//
// Parameters:
//   - now: returns the current time
//
// Returns:
//   - ProfilerOption: option function to apply
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithMemStats replaces the memory statistics source.
//
// Parameters:
//   - read: fills the given MemStats
//
// Returns:
//   - ProfilerOption: option function to apply
func WithMemStats(read func(*runtime.MemStats)) ProfilerOption {
	return func(p *Profiler) {
		p.readMem = read
	}
}

// WithLogging enables or disables writing each window to the log. Stats are kept either way.
//
// Parameters:
//   - enabled: false to keep stats silent
//
// Returns:
//   - ProfilerOption: option function to apply
func WithLogging(enabled bool) ProfilerOption {
	return func(p *Profiler) {
		p.logStats = enabled
	}
}
