package viewport

import "github.com/dshills/marksync/internal/engine"

// StateSource provides the current editor state.
type StateSource interface {
	State() *engine.State
}

// Follower scrolls a viewport to the main selection head.
type Follower struct {
	vp  *Viewport
	src StateSource
}

// NewFollower creates a follower for vp reading selections from src.
func NewFollower(vp *Viewport, src StateSource) *Follower {
	return &Follower{vp: vp, src: src}
}

// Viewport returns the followed viewport.
func (f *Follower) Viewport() *Viewport {
	return f.vp
}

// CenterSelection centers the viewport on the main caret line.
func (f *Follower) CenterSelection() {
	f.vp.CenterOn(f.caretLine())
}

// RevealSelection scrolls the main caret line into view.
func (f *Follower) RevealSelection() {
	f.vp.RevealCaret(f.caretLine())
}

func (f *Follower) caretLine() uint32 {
	state := f.src.State()
	doc := state.Doc()
	f.vp.SetDocument(doc)
	return doc.LineAt(state.Selection().Main().Head)
}
