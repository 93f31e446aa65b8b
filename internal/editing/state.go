// Package editing holds the per-session editing state shared by the
// observer, the input interceptor and the configuration setters.
package editing

import "github.com/dshills/marksync/internal/engine/cursor"

// State is the editing state of one session.
//
// It is owned by the App and mutated only from the event loop, by the
// change observer and the composition handler.
type State struct {
	// IsIdle is true until the session sees its first user input or loads
	// a non-empty document.
	IsIdle bool

	// HasSelection mirrors whether any range of the most recent
	// transaction's selection is non-empty.
	HasSelection bool

	// CompositionEnded is false while an IME composition is in progress.
	CompositionEnded bool
}

// New returns the initial state: idle, no selection, no composition.
func New() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset restores the initial state.
func (s *State) Reset() {
	*s = State{IsIdle: true, CompositionEnded: true}
}

// MarkActive leaves the idle state. It reports whether the state changed.
func (s *State) MarkActive() bool {
	if !s.IsIdle {
		return false
	}
	s.IsIdle = false
	return true
}

// Composing reports whether an IME composition is in progress.
func (s *State) Composing() bool {
	return !s.CompositionEnded
}

// Tracker derives has-selection from selection sets and records it in the
// editing state.
type Tracker struct {
	state *State
}

// NewTracker creates a tracker writing to state.
func NewTracker(state *State) *Tracker {
	return &Tracker{state: state}
}

// HasSelection reports whether any range of sel is non-empty.
func HasSelection(sel cursor.Set) bool {
	return sel.HasSelection()
}

// Track records the has-selection value of sel. It returns the new value
// and whether it differs from the previously recorded one.
func (t *Tracker) Track(sel cursor.Set) (hasSelection, changed bool) {
	hasSelection = HasSelection(sel)
	changed = hasSelection != t.state.HasSelection
	t.state.HasSelection = hasSelection
	return hasSelection, changed
}
