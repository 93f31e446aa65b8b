// Package history records document snapshots for undo/redo and answers
// whether the content has unsaved changes.
//
// Buffers are immutable, so an undo entry is simply the state before and
// after a transaction. Each entry carries a sequence number; the document is
// dirty when the current position in the history differs from the position
// recorded at the last save. Undoing back to the saved position makes the
// document clean again without comparing text.
//
//	h := history.New(1000)
//	h.Record(tr)            // after every document-changing transaction
//	h.IsContentDirty()      // true
//	h.MarkSaved()
//	spec, _ := h.Undo(view.State())
//	view.Dispatch(spec)     // history ignores UserEventUndo transactions
package history
