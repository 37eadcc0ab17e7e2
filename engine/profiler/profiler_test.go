package profiler

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestProfiler(clock *fakeClock, mem *runtime.MemStats) *Profiler {
	return NewProfiler(
		WithClock(clock.now),
		WithMemStats(func(m *runtime.MemStats) { *m = *mem }),
		WithLogging(false),
	)
}

func TestTickWaitsForInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := newTestProfiler(clock, &runtime.MemStats{})

	for range 9 {
		clock.advance(100 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	assert.Zero(t, p.Stats().Frames)

	clock.advance(100 * time.Millisecond)
	require.True(t, p.Tick())

	s := p.Stats()
	assert.Equal(t, 10, s.Frames)
	assert.InDelta(t, 10.0, s.FPS, 1e-9)
	assert.Equal(t, 100*time.Millisecond, s.FrameTime)
	assert.Equal(t, 100*time.Millisecond, s.MaxFrame)
}

func TestTickTracksWorstFrame(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := newTestProfiler(clock, &runtime.MemStats{})
	p.SetInterval(500 * time.Millisecond)

	clock.advance(50 * time.Millisecond)
	p.Tick()
	clock.advance(400 * time.Millisecond)
	p.Tick()
	clock.advance(50 * time.Millisecond)
	require.True(t, p.Tick())
	assert.Equal(t, 400*time.Millisecond, p.Stats().MaxFrame)

	clock.advance(500 * time.Millisecond)
	require.True(t, p.Tick())
	assert.Equal(t, 500*time.Millisecond, p.Stats().MaxFrame, "the worst frame resets per window")
}

func TestTickMemoryRates(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	mem := &runtime.MemStats{Alloc: 2 << 20, Sys: 8 << 20, TotalAlloc: 4 << 20, NumGC: 3}
	p := newTestProfiler(clock, mem)

	clock.advance(2 * time.Second)
	require.True(t, p.Tick())
	s := p.Stats()
	assert.InDelta(t, 2.0, s.HeapMB, 1e-9)
	assert.InDelta(t, 8.0, s.SysMB, 1e-9)
	assert.InDelta(t, 2.0, s.AllocRate, 1e-9)
	assert.Equal(t, uint32(3), s.NumGC)

	mem.TotalAlloc += 1 << 20
	clock.advance(time.Second)
	require.True(t, p.Tick())
	assert.InDelta(t, 1.0, p.Stats().AllocRate, 1e-9)
}

func TestIntervalOptionIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithLogging(false))
	assert.Equal(t, time.Second, p.updateInterval)

	p.SetInterval(-1)
	assert.Equal(t, time.Second, p.updateInterval)
}
