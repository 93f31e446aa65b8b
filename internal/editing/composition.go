package editing

// CompositionListener is called when an IME composition ends.
type CompositionListener func()

// Composition handles IME composition start and end events.
type Composition struct {
	state     *State
	listeners []CompositionListener
}

// NewComposition creates a composition handler for state.
func NewComposition(state *State) *Composition {
	return &Composition{state: state}
}

// OnEnd registers a listener run after each composition end.
func (c *Composition) OnEnd(fn CompositionListener) {
	c.listeners = append(c.listeners, fn)
}

// Start marks a composition as in progress.
func (c *Composition) Start() {
	c.state.CompositionEnded = false
}

// End marks the composition as finished and runs the end listeners. Ending
// when no composition is in progress does nothing.
func (c *Composition) End() {
	if c.state.CompositionEnded {
		return
	}
	c.state.CompositionEnded = true
	for _, fn := range c.listeners {
		fn()
	}
}
