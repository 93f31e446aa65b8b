package history

import (
	"errors"

	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxEntries bounds the undo stack.
const DefaultMaxEntries = 1000

// DirtyChecker reports whether the document has unsaved changes.
type DirtyChecker interface {
	IsContentDirty() bool
}

type entry struct {
	seq    uint64
	before *buffer.Buffer
	after  *buffer.Buffer
	selB   cursor.Set
	selA   cursor.Set
}

// History manages undo/redo stacks and the saved position.
// It is owned by the event loop and is not safe for concurrent use.
type History struct {
	undoStack []entry
	redoStack []entry

	nextSeq  uint64
	position uint64
	saved    uint64
	// floor is the position reached after undoing every retained entry.
	floor uint64

	maxEntries int
}

// New creates a history bounded to maxEntries undo entries.
func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{maxEntries: maxEntries}
}

// Record pushes a document-changing transaction. Transactions without
// document changes and undo/redo transactions are ignored.
func (h *History) Record(tr *engine.Transaction) {
	if !tr.DocChanged() || tr.IsUserEvent(engine.UserEventUndo) {
		return
	}
	h.nextSeq++
	h.undoStack = append(h.undoStack, entry{
		seq:    h.nextSeq,
		before: tr.StartState.Doc(),
		after:  tr.State.Doc(),
		selB:   tr.StartState.Selection(),
		selA:   tr.State.Selection(),
	})
	h.redoStack = nil
	h.position = h.nextSeq

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.floor = h.undoStack[excess-1].seq
		h.undoStack = h.undoStack[excess:]
	}
}

// Undo returns a spec restoring the document before the last recorded
// transaction.
func (h *History) Undo(current *engine.State) (engine.TransactionSpec, error) {
	if len(h.undoStack) == 0 {
		return engine.TransactionSpec{}, ErrNothingToUndo
	}
	e := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, e)

	h.position = h.floor
	if n := len(h.undoStack); n > 0 {
		h.position = h.undoStack[n-1].seq
	}
	return restore(current, e.before, e.selB), nil
}

// Redo returns a spec re-applying the last undone transaction.
func (h *History) Redo(current *engine.State) (engine.TransactionSpec, error) {
	if len(h.redoStack) == 0 {
		return engine.TransactionSpec{}, ErrNothingToRedo
	}
	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, e)
	h.position = e.seq
	return restore(current, e.after, e.selA), nil
}

func restore(current *engine.State, doc *buffer.Buffer, sel cursor.Set) engine.TransactionSpec {
	return engine.TransactionSpec{
		Changes:   []buffer.Edit{buffer.NewEdit(buffer.Range{Start: 0, End: current.Doc().Len()}, doc.Text())},
		Selection: engine.SelectionSpec(sel),
		UserEvent: engine.UserEventUndo,
	}
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	return len(h.redoStack) > 0
}

// MarkSaved records the current position as saved.
func (h *History) MarkSaved() {
	h.saved = h.position
}

// IsContentDirty reports whether the document differs from the last save.
func (h *History) IsContentDirty() bool {
	return h.position != h.saved
}

// Clear drops all entries and marks the document clean.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
	h.position = 0
	h.saved = 0
	h.floor = 0
}
