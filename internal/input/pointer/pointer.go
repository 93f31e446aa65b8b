// Package pointer turns pointer-downs and drags into selection changes.
//
// A single click places the caret unless the tokenizer overrides the
// pointer style for the clicked text; in that case the selection is left
// as it was and the token is selected by the double click that follows.
// Double clicks without an override select the plain word, and triple
// clicks select the whole line.
package pointer

import (
	"time"

	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
	"github.com/dshills/marksync/internal/input/tokenizer"
)

// Editor is the surface pointer selections are dispatched to.
type Editor interface {
	State() *engine.State
	Select(sel cursor.Set, userEvent string) (*engine.Transaction, error)
}

// Handler maps pointer events to selections.
type Handler struct {
	editor    Editor
	tokenizer *tokenizer.Tokenizer
	clicks    *ClickTracker

	// style is the active pointer style between down and up.
	style  *tokenizer.Style
	anchor buffer.ByteOffset
	down   bool
}

// NewHandler creates a handler. tok may be nil to disable token
// selection.
func NewHandler(editor Editor, tok *tokenizer.Tokenizer, clicks *ClickTracker) *Handler {
	if clicks == nil {
		clicks = NewClickTracker(DefaultClickTime, DefaultClickDistance)
	}
	return &Handler{editor: editor, tokenizer: tok, clicks: clicks}
}

// Down handles a pointer-down at a document offset and screen position.
func (h *Handler) Down(offset buffer.ByteOffset, pos Position, at time.Time) (ClickType, *engine.Transaction, error) {
	state := h.editor.State()
	offset = state.Doc().Clamp(offset)
	click := h.clicks.Record(pos, at)

	h.down = true
	h.anchor = offset
	h.style = nil

	var sel cursor.Set
	switch click {
	case ClickDouble:
		sel = h.selectWord(state, offset)
	case ClickTriple:
		sel = selectLine(state.Doc(), offset)
	default:
		if h.tokenizer != nil {
			if style, ok := h.tokenizer.MouseSelectionStyle(state, offset); ok {
				h.style = &style
				sel = style.Get()
				break
			}
		}
		sel = cursor.Caret(offset)
	}

	tr, err := h.editor.Select(sel, engine.UserEventPointer)
	return click, tr, err
}

// Drag extends the selection from the pointer-down anchor to offset. It
// does nothing while a token style is active or no pointer is down.
func (h *Handler) Drag(offset buffer.ByteOffset) (*engine.Transaction, error) {
	if !h.down || h.style != nil {
		return nil, nil
	}
	state := h.editor.State()
	offset = state.Doc().Clamp(offset)
	return h.editor.Select(cursor.Single(h.anchor, offset), engine.UserEventPointer)
}

// Up ends the pointer gesture.
func (h *Handler) Up() {
	h.down = false
	h.style = nil
}

// StyleActive reports whether a token style overrides the current gesture.
func (h *Handler) StyleActive() bool {
	return h.style != nil
}

func (h *Handler) selectWord(state *engine.State, offset buffer.ByteOffset) cursor.Set {
	if h.tokenizer != nil {
		if sel, ok := h.tokenizer.SelectTokenAt(state, offset); ok {
			return sel
		}
	}
	if tok, ok := tokenizer.WordAt(state.Doc(), offset); ok {
		return cursor.Single(tok.From, tok.To)
	}
	return cursor.Caret(offset)
}

func selectLine(doc *buffer.Buffer, offset buffer.ByteOffset) cursor.Set {
	line := doc.LineAt(offset)
	start := doc.LineStartOffset(line)
	end := doc.LineEndOffset(line)
	if line+1 < doc.LineCount() {
		end = doc.LineStartOffset(line + 1)
	}
	return cursor.Single(start, end)
}
