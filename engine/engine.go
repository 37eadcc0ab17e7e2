package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-planet/engine/config"
	"github.com/Carmen-Shannon/oxy-planet/engine/input"
	"github.com/Carmen-Shannon/oxy-planet/engine/profiler"
	"github.com/Carmen-Shannon/oxy-planet/engine/renderer"
	"github.com/Carmen-Shannon/oxy-planet/engine/scene"
	"github.com/Carmen-Shannon/oxy-planet/engine/window"
)

// settingsDebounce is the quiet period the settings watcher waits for after the last file event.
const settingsDebounce = 100 * time.Millisecond

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	mu *sync.Mutex // guards the settings-driven fields read by the render goroutine

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer
	scene    scene.Scene
	input    input.State

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	watcher config.Watcher
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer that draws and presents each frame.
	//
	// Returns:
	//   - renderer.Renderer: the renderer, or nil if none was configured
	Renderer() renderer.Renderer

	// Scene returns the scene drawn each frame.
	//
	// Returns:
	//   - scene.Scene: the scene, or nil if none was configured
	Scene() scene.Scene

	// Input returns the keyboard and mouse state fed by the window callbacks.
	//
	// Returns:
	//   - input.State: the input state
	Input() input.State

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each frame is presented.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// ApplySettings applies settings at runtime: voxel, camera and color correction settings go to
	// the scene, bloom thresholds are written to the bloom settings buffer, a changed bloom level
	// count rebuilds the chains through a resize at the current size, and the frame limit, present
	// mode and profiler follow the [renderer] and [profiler] sections.
	//
	// Parameters:
	//   - s: the settings to apply
	//
	// Returns:
	//   - error: error if the bloom level count is rejected or the rebuild fails, which stops the engine
	ApplySettings(s config.Settings) error

	// WatchSettings reloads the settings file whenever it changes on disk and applies each
	// successfully decoded version with ApplySettings. Replaces any previous watch.
	//
	// Parameters:
	//   - path: the settings file to watch
	//
	// Returns:
	//   - error: error if the watch cannot be installed
	WatchSettings(path string) error

	// Run starts the engine and render goroutines and pumps window messages. Blocks until the
	// window closes, then stops the goroutines and the settings watcher.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// When a window is configured its callbacks are connected to the input state, and its resize
// callback runs the renderer resize protocol before updating the camera aspect.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, scene, profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:               &sync.Mutex{},
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		running:          false,
		wg:               sync.WaitGroup{},
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}
	if e.input == nil {
		if e.scene != nil {
			e.input = e.scene.Input()
		} else {
			e.input = input.NewState()
		}
	}

	if e.window != nil {
		e.connectWindow()
	}

	return e
}

// connectWindow routes window events into the input state and the resize protocol.
func (e *engine) connectWindow() {
	in := e.input
	e.window.SetKeyDownCallback(in.KeyDown)
	e.window.SetKeyUpCallback(in.KeyUp)
	e.window.SetMouseButtonDownCallback(in.MouseButtonDown)
	e.window.SetMouseButtonUpCallback(in.MouseButtonUp)
	e.window.SetMouseMoveCallback(in.CursorMoved)
	e.window.SetScrollCallback(in.Scrolled)
	e.window.SetResizeCallback(e.onResize)
}

// onResize handles a window resize. A failed resize leaves the render targets partly rebuilt,
// so it shuts the engine down.
func (e *engine) onResize(width, height int) {
	if err := e.resize(width, height); err != nil {
		log.Printf("[Engine] fatal: %v", err)
		e.signalQuit()
	}
}

// resize runs the renderer resize protocol, then updates the camera aspect. The aspect is left
// unchanged for a zero-sized (minimized) window.
func (e *engine) resize(width, height int) error {
	if e.renderer != nil {
		if err := e.renderer.Resize(width, height); err != nil {
			return err
		}
	}
	if e.scene == nil {
		return nil
	}
	if aspect, ok := aspectRatio(width, height); ok {
		e.scene.Camera().SetAspect(aspect)
	}
	return nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Input() input.State {
	return e.input
}

func (e *engine) Run() {
	if e.window == nil {
		panic("engine has no window")
	}
	if aspect, ok := aspectRatio(e.window.Width(), e.window.Height()); ok && e.scene != nil {
		e.scene.Camera().SetAspect(aspect)
	}
	// The window may only be closed from the thread pumping its messages.
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			if e.window.IsRunning() {
				if err := e.window.Close(); err != nil {
					log.Printf("[Engine] failed to close window: %v", err)
				}
			}
		default:
		}
	})

	e.running = true
	e.handle()
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.closeWatcher()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Each iteration updates the scene and draws one frame through the renderer, which records the
// scene pass, bloom, color correction and overlay into a single submission and presents it.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.renderFrame(dt)

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			e.mu.Lock()
			profiling := e.profilingEnabled
			limit := e.renderFrameLimit
			e.mu.Unlock()

			if profiling {
				e.profiler.Tick()
			}

			// Frame rate limiting
			if limit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := limit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame advances the scene by dt and draws it. A failed frame is logged and skipped.
func (e *engine) renderFrame(dt float32) {
	if e.scene == nil {
		return
	}
	e.scene.Update(dt)
	frame := e.scene.Frame()
	if e.renderer == nil {
		return
	}
	if err := e.renderer.Draw(frame); err != nil {
		if errors.Is(err, renderer.ErrResizeIncomplete) {
			log.Printf("[Engine] fatal: %v", err)
			e.signalQuit()
			return
		}
		log.Printf("[Engine] %v", err)
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := frameDuration(fps)

	if e.running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) ApplySettings(s config.Settings) error {
	if e.scene != nil {
		e.scene.ApplySettings(s)
	}

	if e.renderer != nil {
		e.renderer.SetPresentMode(PresentModeFrom(s.Renderer.PresentMode))
		b := e.renderer.Bloom()
		b.SetSettings(BloomSettingsFrom(s.Bloom))
		levelsChanged := s.Bloom.Levels != b.Levels()
		if err := b.SetLevels(s.Bloom.Levels); err != nil {
			return fmt.Errorf("failed to apply bloom levels: %w", err)
		}
		// The chains are rebuilt by the resize protocol, rerun at the current size.
		if levelsChanged {
			w, h := e.renderer.Size()
			if err := e.renderer.Resize(int(w), int(h)); err != nil {
				e.signalQuit()
				return fmt.Errorf("failed to rebuild bloom with %d levels: %w", s.Bloom.Levels, err)
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameDuration(float64(s.Renderer.FrameLimit))
	e.profilingEnabled = s.Profiler.Enabled
	e.profiler.SetInterval(profilerInterval(s.Profiler.Interval))
	return nil
}

func (e *engine) WatchSettings(path string) error {
	w, err := config.NewWatcher(path, settingsDebounce, func(s config.Settings) {
		if err := e.ApplySettings(s); err != nil {
			log.Printf("[Config] reload of %s not applied: %v", path, err)
			return
		}
		log.Printf("[Config] applied %s", path)
	})
	if err != nil {
		return fmt.Errorf("failed to watch settings: %w", err)
	}

	e.closeWatcher()
	e.mu.Lock()
	e.watcher = w
	e.mu.Unlock()
	return nil
}

func (e *engine) closeWatcher() {
	e.mu.Lock()
	w := e.watcher
	e.watcher = nil
	e.mu.Unlock()
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		log.Printf("[Config] failed to close watcher: %v", err)
	}
}
