package input

import "sync"

// State tracks keyboard and mouse state between frames. Window callbacks write into it from the
// event thread while the render goroutine reads it. Edge queries compare the current frame's
// state with the snapshot taken by the last Update.
type State interface {
	// KeyDown records a key press.
	//
	// Parameters:
	//   - key: the GLFW key code
	KeyDown(key int)

	// KeyUp records a key release.
	//
	// Parameters:
	//   - key: the GLFW key code
	KeyUp(key int)

	// MouseButtonDown records a mouse button press.
	//
	// Parameters:
	//   - button: the GLFW mouse button code
	MouseButtonDown(button int)

	// MouseButtonUp records a mouse button release.
	//
	// Parameters:
	//   - button: the GLFW mouse button code
	MouseButtonUp(button int)

	// CursorMoved records a new cursor position and accumulates the movement since the previous
	// position. The first position after construction sets the origin without producing a delta.
	//
	// Parameters:
	//   - x, y: cursor position in window pixels
	CursorMoved(x, y float64)

	// Scrolled accumulates vertical scroll.
	//
	// Parameters:
	//   - dy: the scroll offset, positive away from the user
	Scrolled(dy float64)

	// IsKeyDown reports whether a key is currently held.
	//
	// Parameters:
	//   - key: the GLFW key code
	//
	// Returns:
	//   - bool: true while the key is held
	IsKeyDown(key int) bool

	// IsKeyPressed reports whether a key went down since the last Update.
	//
	// Parameters:
	//   - key: the GLFW key code
	//
	// Returns:
	//   - bool: true for the frame in which the key was pressed
	IsKeyPressed(key int) bool

	// IsKeyReleased reports whether a key went up since the last Update.
	//
	// Parameters:
	//   - key: the GLFW key code
	//
	// Returns:
	//   - bool: true for the frame in which the key was released
	IsKeyReleased(key int) bool

	// IsMouseButtonDown reports whether a mouse button is currently held.
	//
	// Parameters:
	//   - button: the GLFW mouse button code
	//
	// Returns:
	//   - bool: true while the button is held
	IsMouseButtonDown(button int) bool

	// IsMouseButtonPressed reports whether a mouse button went down since the last Update.
	//
	// Parameters:
	//   - button: the GLFW mouse button code
	//
	// Returns:
	//   - bool: true for the frame in which the button was pressed
	IsMouseButtonPressed(button int) bool

	// IsMouseButtonReleased reports whether a mouse button went up since the last Update.
	//
	// Parameters:
	//   - button: the GLFW mouse button code
	//
	// Returns:
	//   - bool: true for the frame in which the button was released
	IsMouseButtonReleased(button int) bool

	// CursorPosition returns the last recorded cursor position.
	//
	// Returns:
	//   - x, y: cursor position in window pixels
	CursorPosition() (x, y float64)

	// MouseDelta returns the cursor movement accumulated since the last Update.
	//
	// Returns:
	//   - dx, dy: movement in pixels
	MouseDelta() (dx, dy float64)

	// ScrollDelta returns the scroll accumulated since the last Update.
	//
	// Returns:
	//   - float64: the accumulated vertical scroll
	ScrollDelta() float64

	// Update ends the frame: the current key and button state becomes the previous state and the
	// accumulated mouse delta and scroll are reset. Call once at the end of every frame.
	Update()
}

type state struct {
	mu *sync.Mutex

	keys        map[int]bool
	prevKeys    map[int]bool
	buttons     map[int]bool
	prevButtons map[int]bool

	cursor    [2]float64
	hasCursor bool
	delta     [2]float64
	scroll    float64
}

var _ State = &state{}

// NewState creates an empty input state with no keys or buttons held.
//
// Returns:
//   - State: the new input state
func NewState() State {
	return &state{
		mu:          &sync.Mutex{},
		keys:        make(map[int]bool),
		prevKeys:    make(map[int]bool),
		buttons:     make(map[int]bool),
		prevButtons: make(map[int]bool),
	}
}

func (s *state) KeyDown(key int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = true
}

func (s *state) KeyUp(key int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

func (s *state) MouseButtonDown(button int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons[button] = true
}

func (s *state) MouseButtonUp(button int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buttons, button)
}

func (s *state) CursorMoved(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasCursor {
		s.delta[0] += x - s.cursor[0]
		s.delta[1] += y - s.cursor[1]
	}
	s.cursor = [2]float64{x, y}
	s.hasCursor = true
}

func (s *state) Scrolled(dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scroll += dy
}

func (s *state) IsKeyDown(key int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key]
}

func (s *state) IsKeyPressed(key int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key] && !s.prevKeys[key]
}

func (s *state) IsKeyReleased(key int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.keys[key] && s.prevKeys[key]
}

func (s *state) IsMouseButtonDown(button int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons[button]
}

func (s *state) IsMouseButtonPressed(button int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons[button] && !s.prevButtons[button]
}

func (s *state) IsMouseButtonReleased(button int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.buttons[button] && s.prevButtons[button]
}

func (s *state) CursorPosition() (x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor[0], s.cursor[1]
}

func (s *state) MouseDelta() (dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delta[0], s.delta[1]
}

func (s *state) ScrollDelta() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scroll
}

func (s *state) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.prevKeys)
	for k := range s.keys {
		s.prevKeys[k] = true
	}
	clear(s.prevButtons)
	for b := range s.buttons {
		s.prevButtons[b] = true
	}
	s.delta = [2]float64{}
	s.scroll = 0
}
