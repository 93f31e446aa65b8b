// Package cursor provides selection values for the editing core.
//
// Selection Model:
//
// Selections use an anchor/head model where:
//   - Anchor: The position where the selection started
//   - Head: The current cursor position (where typing would occur)
//
// When Anchor == Head, the selection is empty and represents a caret. A
// selection may extend forward (head > anchor) or backward (head < anchor);
// the direction is preserved through edits.
//
// A Set is an ordered, immutable list of selections with one main range.
// Overlapping ranges are merged on construction. Sets are mapped through a
// buffer.ChangeSet after every document change so selections follow the
// text they cover.
//
//	sel := cursor.Single(0, 5)       // "Hello" selected
//	sel.HasSelection()               // true
//	sel = sel.Map(changes)           // follow an edit
//
// Selection and Set are value types and safe for concurrent use.
package cursor
