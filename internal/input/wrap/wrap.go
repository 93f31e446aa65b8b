// Package wrap turns a typed mark character over a selection into a
// wrapping edit: "*" over "Hello" gives "*Hello*" with "Hello" still
// selected.
package wrap

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
)

// DefaultMarks are the characters that wrap a selection.
const DefaultMarks = "`*_~$"

// Wrapper wraps selections in typed marks.
type Wrapper struct {
	marks string
}

// New creates a wrapper for the given mark characters. An empty string
// uses DefaultMarks.
func New(marks string) *Wrapper {
	if marks == "" {
		marks = DefaultMarks
	}
	return &Wrapper{marks: marks}
}

// Marks returns the wrap characters.
func (w *Wrapper) Marks() string {
	return w.marks
}

// IsMark reports whether insert is exactly one wrap character.
func (w *Wrapper) IsMark(insert string) bool {
	r, size := utf8.DecodeRuneInString(insert)
	if size == 0 || size != len(insert) || r == utf8.RuneError {
		return false
	}
	return strings.ContainsRune(w.marks, r)
}

// Wrap returns the transaction replacing the default insertion of insert.
// It reports false, meaning "insert normally", when insert is not a mark
// or the main selection is empty.
//
// Every non-empty range is wrapped and keeps its inner text selected with
// the same direction. Empty ranges are left as carets.
func (w *Wrapper) Wrap(state *engine.State, insert string) (engine.TransactionSpec, bool) {
	sel := state.Selection()
	if !w.IsMark(insert) || sel.Main().IsEmpty() {
		return engine.TransactionSpec{}, false
	}

	n := buffer.ByteOffset(len(insert))
	ranges := sel.Ranges()
	edits := make([]buffer.Edit, 0, 2*len(ranges))
	next := make([]cursor.Selection, len(ranges))

	var shift buffer.ByteOffset
	for i, r := range ranges {
		if r.IsEmpty() {
			next[i] = cursor.NewCursorSelection(r.Head + shift)
			continue
		}
		// Adjacent ranges share a boundary; their marks become one insert.
		if last := len(edits) - 1; last >= 0 && edits[last].Range.Start == r.Start() {
			edits[last].NewText += insert
		} else {
			edits = append(edits, buffer.NewInsert(r.Start(), insert))
		}
		edits = append(edits, buffer.NewInsert(r.End(), insert))
		next[i] = r.WithRange(r.Start()+shift+n, r.End()+shift+n)
		shift += 2 * n
	}

	return engine.TransactionSpec{
		Changes:   edits,
		Selection: engine.SelectionSpec(cursor.NewSet(sel.MainIndex(), next...)),
		UserEvent: engine.UserEventWrap,
	}, true
}
