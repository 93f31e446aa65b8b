package cursor

import (
	"fmt"

	"github.com/dshills/marksync/internal/engine/buffer"
)

// ByteOffset is an alias for buffer.ByteOffset for convenience.
type ByteOffset = buffer.ByteOffset

// Range is an alias for buffer.Range for convenience.
type Range = buffer.Range

// Selection represents a range of selected text.
// Anchor is where the selection started; Head is the current cursor position.
// Selection is an immutable value type.
type Selection struct {
	Anchor ByteOffset
	Head   ByteOffset
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head ByteOffset) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// NewCursorSelection creates a selection representing just a cursor.
func NewCursorSelection(offset ByteOffset) Selection {
	return Selection{Anchor: offset, Head: offset}
}

// IsEmpty returns true if the selection has no extent.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Len returns the length of the selection in bytes.
func (s Selection) Len() ByteOffset {
	return s.End() - s.Start()
}

// Range returns the selection as a range (always Start <= End).
func (s Selection) Range() Range {
	return Range{Start: s.Start(), End: s.End()}
}

// Start returns the lower bound of the selection.
func (s Selection) Start() ByteOffset {
	return min(s.Anchor, s.Head)
}

// End returns the upper bound of the selection.
func (s Selection) End() ByteOffset {
	return max(s.Anchor, s.Head)
}

// IsBackward returns true if the selection extends backward.
func (s Selection) IsBackward() bool {
	return s.Head < s.Anchor
}

// WithRange returns a selection covering [start, end] that keeps the
// direction of s.
func (s Selection) WithRange(start, end ByteOffset) Selection {
	if s.IsBackward() {
		return Selection{Anchor: end, Head: start}
	}
	return Selection{Anchor: start, Head: end}
}

// Map moves the selection through a change set. An empty selection follows
// insertions at its position; a range keeps its bounds outside text inserted
// at either edge.
func (s Selection) Map(changes buffer.ChangeSet) Selection {
	if s.IsEmpty() {
		return NewCursorSelection(changes.MapOffset(s.Head, buffer.AssocAfter))
	}
	start := changes.MapOffset(s.Start(), buffer.AssocAfter)
	end := changes.MapOffset(s.End(), buffer.AssocBefore)
	if end < start {
		end = start
	}
	return s.WithRange(start, end)
}

// Clamp returns a selection clamped to [0, maxOffset].
func (s Selection) Clamp(maxOffset ByteOffset) Selection {
	clamp := func(o ByteOffset) ByteOffset {
		return max(0, min(o, maxOffset))
	}
	return Selection{Anchor: clamp(s.Anchor), Head: clamp(s.Head)}
}

// String returns a string representation of the selection.
func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("Cursor(%d)", s.Head)
	}
	dir := "→"
	if s.IsBackward() {
		dir = "←"
	}
	return fmt.Sprintf("Selection(%d%s%d)", s.Anchor, dir, s.Head)
}
