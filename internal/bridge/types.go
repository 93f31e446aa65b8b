package bridge

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/marksync/internal/engine"
)

// LineColumn is a 1-based caret position. Column counts grapheme
// clusters from the line start.
type LineColumn struct {
	Line   int
	Column int
}

// ViewUpdate is the notification sent to the host after a transaction.
type ViewUpdate struct {
	ContentEdited      bool
	CompositionEnded   bool
	IsDirty            bool
	SelectedLineColumn LineColumn
	// SelectionLength is the main range length in grapheme clusters.
	SelectionLength int
}

// SelectedLineColumn returns the main caret position and the length of
// the main selection range.
func SelectedLineColumn(state *engine.State) (LineColumn, int) {
	doc := state.Doc()
	main := state.Selection().Main()

	line := doc.LineAt(main.Head)
	prefix := doc.TextRange(doc.LineStartOffset(line), main.Head)
	pos := LineColumn{
		Line:   int(line) + 1,
		Column: uniseg.GraphemeClusterCount(prefix) + 1,
	}

	length := 0
	if !main.IsEmpty() {
		length = uniseg.GraphemeClusterCount(doc.TextRange(main.Start(), main.End()))
	}
	return pos, length
}

// Host receives notifications from the editor.
type Host interface {
	NotifyViewDidUpdate(update ViewUpdate)
}

// HostFunc adapts a function to Host.
type HostFunc func(ViewUpdate)

// NotifyViewDidUpdate calls f.
func (f HostFunc) NotifyViewDidUpdate(update ViewUpdate) {
	f(update)
}
