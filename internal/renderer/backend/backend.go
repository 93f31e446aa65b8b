// Package backend abstracts the terminal the editor host draws on.
package backend

import "github.com/lucasb-eyer/go-colorful"

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
	EventPaste
	EventInterrupt
)

// Event is a terminal event.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune
	Mod  ModMask

	// Mouse event fields
	MouseX, MouseY int
	MouseButton    MouseButton

	// Resize event fields
	Width, Height int

	// PasteStart is true at the start of a bracketed paste, false at the end.
	PasteStart bool
}

// Key is a keyboard key.
type Key int

// Keys the editor host reacts to. Everything else maps to KeyNone.
const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlY
	KeyCtrlZ
)

// ModMask is the modifier key state.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
)

// Has returns true if the mask contains mod.
func (m ModMask) Has(mod ModMask) bool {
	return m&mod != 0
}

// MouseButton is the mouse button state.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// Style is a cell style. A nil color uses the terminal default.
type Style struct {
	Foreground *colorful.Color
	Background *colorful.Color
	Bold       bool
	Dim        bool
	Reverse    bool
}

// WithForeground returns s with foreground c.
func (s Style) WithForeground(c colorful.Color) Style {
	s.Foreground = &c
	return s
}

// WithBackground returns s with background c.
func (s Style) WithBackground(c colorful.Color) Style {
	s.Background = &c
	return s
}

// Backend is a drawing surface with an event source.
type Backend interface {
	// Init prepares the terminal. Must be called before any other method.
	Init() error

	// Shutdown restores the terminal.
	Shutdown()

	// Size returns the current dimensions.
	Size() (width, height int)

	// SetContent sets the cell at x, y. Positions outside the surface are
	// ignored.
	SetContent(x, y int, r rune, style Style)

	// Clear clears the surface with the default style.
	Clear()

	// Show flushes pending changes to the display.
	Show()

	// ShowCursor positions and displays the cursor.
	ShowCursor(x, y int)

	// HideCursor hides the cursor.
	HideCursor()

	// PollEvent blocks for the next event. It returns EventNone after
	// Shutdown.
	PollEvent() Event

	// Interrupt wakes PollEvent with an EventInterrupt. Safe from any
	// goroutine.
	Interrupt()
}

// Cell is one recorded cell of a NullBackend.
type Cell struct {
	Rune  rune
	Style Style
}

// NullBackend records drawing in memory. It is used by tests.
type NullBackend struct {
	width, height int
	cells         [][]Cell
	cursorX       int
	cursorY       int
	cursorVisible bool
	events        chan Event
}

// NewNullBackend creates a null backend with the given dimensions.
func NewNullBackend(width, height int) *NullBackend {
	return &NullBackend{
		width:  width,
		height: height,
		events: make(chan Event, 100),
	}
}

func (b *NullBackend) Init() error {
	b.Resize(b.width, b.height)
	return nil
}

func (b *NullBackend) Shutdown() {}

func (b *NullBackend) Size() (int, int) {
	return b.width, b.height
}

func (b *NullBackend) SetContent(x, y int, r rune, style Style) {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.cells[y][x] = Cell{Rune: r, Style: style}
	}
}

func (b *NullBackend) Clear() {
	for y := range b.cells {
		for x := range b.cells[y] {
			b.cells[y][x] = Cell{Rune: ' '}
		}
	}
}

func (b *NullBackend) Show() {}

func (b *NullBackend) ShowCursor(x, y int) {
	b.cursorX = x
	b.cursorY = y
	b.cursorVisible = true
}

func (b *NullBackend) HideCursor() {
	b.cursorVisible = false
}

func (b *NullBackend) PollEvent() Event {
	return <-b.events
}

func (b *NullBackend) Interrupt() {
	b.Post(Event{Type: EventInterrupt})
}

// Post queues a synthetic event. Events are dropped when the queue is full.
func (b *NullBackend) Post(ev Event) {
	select {
	case b.events <- ev:
	default:
	}
}

// Cell returns the cell at x, y.
func (b *NullBackend) Cell(x, y int) Cell {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		return b.cells[y][x]
	}
	return Cell{}
}

// Row returns the runes of row y as a string, trailing spaces included.
func (b *NullBackend) Row(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	rs := make([]rune, 0, b.width)
	for _, c := range b.cells[y] {
		if c.Rune == 0 {
			continue
		}
		rs = append(rs, c.Rune)
	}
	return string(rs)
}

// CursorPosition returns the cursor position.
func (b *NullBackend) CursorPosition() (x, y int, visible bool) {
	return b.cursorX, b.cursorY, b.cursorVisible
}

// Resize changes the dimensions and clears the surface.
func (b *NullBackend) Resize(width, height int) {
	b.width = width
	b.height = height
	b.cells = make([][]Cell, height)
	for i := range b.cells {
		b.cells[i] = make([]Cell, width)
	}
	b.Clear()
}
