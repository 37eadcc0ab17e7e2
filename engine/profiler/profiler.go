package profiler

import (
	"log"
	"runtime"
	"time"
)

// Stats is one logging window of the profiler.
type Stats struct {
	Frames    int
	FPS       float64
	FrameTime time.Duration // mean frame time over the window
	MaxFrame  time.Duration // longest frame in the window
	HeapMB    float64
	AllocRate float64 // MB/s allocated over the window
	NumGC     uint32
	SysMB     float64
}

// Profiler tracks frame rate, frame time and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	lastFrame      time.Time
	maxFrame       time.Duration
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats

	now      func() time.Time
	readMem  func(*runtime.MemStats)
	logStats bool
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
		now:            time.Now,
		readMem:        runtime.ReadMemStats,
		logStats:       true,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	p.lastFrame = p.lastTime
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, mean and worst frame time, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	p.maxFrame = max(p.maxFrame, currentTime.Sub(p.lastFrame))
	p.lastFrame = currentTime
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	p.readMem(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	// Calculate GC pause stats (last pause and max recent pause)
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.last = Stats{
		Frames:    p.frameCount,
		FPS:       float64(p.frameCount) / elapsed.Seconds(),
		FrameTime: elapsed / time.Duration(p.frameCount),
		MaxFrame:  p.maxFrame,
		HeapMB:    float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRate: float64(allocDelta) / 1024 / 1024 / elapsed.Seconds(),
		NumGC:     gcCount,
		SysMB:     float64(p.memStats.Sys) / 1024 / 1024,
	}

	if p.logStats {
		log.Printf("[Profiler] FPS: %.2f | Frame: %.2f ms (max %.2f ms) | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			p.last.FPS, ms(p.last.FrameTime), ms(p.last.MaxFrame), p.last.HeapMB, p.last.AllocRate, gcCount, lastPauseUs, maxPauseUs, p.last.SysMB)
	}

	p.frameCount = 0
	p.maxFrame = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Stats returns the statistics of the most recently completed window.
//
// Returns:
//   - Stats: the last window, zero before the first one completes
func (p *Profiler) Stats() Stats {
	return p.last
}

// SetInterval changes the logging period. Values <= 0 are ignored.
//
// Parameters:
//   - interval: the new period
func (p *Profiler) SetInterval(interval time.Duration) {
	if interval > 0 {
		p.updateInterval = interval
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
