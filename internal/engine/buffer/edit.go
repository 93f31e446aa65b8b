package buffer

import (
	"fmt"
	"sort"
	"strings"
)

// Edit represents a single replacement: the text in Range is replaced with
// NewText. Offsets refer to the document before any edit of the same change
// set is applied.
type Edit struct {
	Range   Range
	NewText string
}

// NewEdit creates an edit replacing r with newText.
func NewEdit(r Range, newText string) Edit {
	return Edit{Range: r, NewText: newText}
}

// NewInsert creates an edit inserting text at offset.
func NewInsert(offset ByteOffset, text string) Edit {
	return Edit{Range: Range{Start: offset, End: offset}, NewText: text}
}

// NewDelete creates an edit removing [start, end).
func NewDelete(start, end ByteOffset) Edit {
	return Edit{Range: Range{Start: start, End: end}}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	return fmt.Sprintf("Edit{%v -> %q}", e.Range, e.NewText)
}

// IsNoOp reports whether the edit changes nothing.
func (e Edit) IsNoOp() bool {
	return e.Range.IsEmpty() && e.NewText == ""
}

// Delta returns the change in document length caused by the edit.
func (e Edit) Delta() ByteOffset {
	return ByteOffset(len(e.NewText)) - e.Range.Len()
}

// Assoc selects which side of an insertion a mapped offset sticks to.
type Assoc int

const (
	// AssocBefore keeps an offset before text inserted at it.
	AssocBefore Assoc = -1
	// AssocAfter moves an offset past text inserted at it.
	AssocAfter Assoc = 1
)

// ChangeSet is an ordered set of non-overlapping edits against a document
// of a known length.
type ChangeSet struct {
	edits  []Edit
	docLen ByteOffset
}

// NewChangeSet validates edits against a document of length docLen and
// returns them sorted by position. No-op edits are dropped.
func NewChangeSet(docLen ByteOffset, edits ...Edit) (ChangeSet, error) {
	sorted := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if !e.Range.IsValid() {
			return ChangeSet{}, fmt.Errorf("%v: %w", e.Range, ErrRangeInvalid)
		}
		if e.Range.Start < 0 || e.Range.End > docLen {
			return ChangeSet{}, fmt.Errorf("%v: %w", e.Range, ErrOffsetOutOfRange)
		}
		e.NewText = NormalizeLineEndings(e.NewText)
		if e.IsNoOp() {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start < sorted[j].Range.Start
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1].Range, sorted[i].Range
		// Two inserts at the same point, or any shared interior, is ambiguous.
		if cur.Start < prev.End || (cur.Start == prev.Start && prev.IsEmpty() && cur.IsEmpty()) {
			return ChangeSet{}, fmt.Errorf("%v and %v: %w", prev, cur, ErrEditsOverlap)
		}
	}
	return ChangeSet{edits: sorted, docLen: docLen}, nil
}

// Edits returns a copy of the edits in document order.
func (c ChangeSet) Edits() []Edit {
	out := make([]Edit, len(c.edits))
	copy(out, c.edits)
	return out
}

// IsEmpty reports whether the change set modifies nothing.
func (c ChangeSet) IsEmpty() bool {
	return len(c.edits) == 0
}

// NewLength returns the document length after applying the changes.
func (c ChangeSet) NewLength() ByteOffset {
	n := c.docLen
	for _, e := range c.edits {
		n += e.Delta()
	}
	return n
}

// Apply returns a new buffer with the changes applied. An empty change set
// returns b unchanged.
func (c ChangeSet) Apply(b *Buffer) (*Buffer, error) {
	if b.Len() != c.docLen {
		return nil, fmt.Errorf("change set for length %d applied to length %d: %w",
			c.docLen, b.Len(), ErrOffsetOutOfRange)
	}
	if c.IsEmpty() {
		return b, nil
	}

	var sb strings.Builder
	sb.Grow(int(c.NewLength()))
	pos := ByteOffset(0)
	for _, e := range c.edits {
		sb.WriteString(b.text[pos:e.Range.Start])
		sb.WriteString(e.NewText)
		pos = e.Range.End
	}
	sb.WriteString(b.text[pos:])
	return New(sb.String()), nil
}

// MapOffset maps an offset in the old document to the new document.
// Offsets inside a replaced range move to the end of the replacement
// (AssocAfter) or its start (AssocBefore).
func (c ChangeSet) MapOffset(offset ByteOffset, assoc Assoc) ByteOffset {
	delta := ByteOffset(0)
	for _, e := range c.edits {
		r := e.Range
		if offset < r.Start || (offset == r.Start && r.IsEmpty() && assoc == AssocBefore) {
			break
		}
		if offset == r.Start && !r.IsEmpty() && assoc == AssocBefore {
			break
		}
		if offset < r.End || (offset == r.End && r.IsEmpty()) {
			// Inside the replaced range, or at an insertion point.
			if assoc == AssocBefore {
				return r.Start + delta
			}
			return r.Start + delta + ByteOffset(len(e.NewText))
		}
		delta += e.Delta()
	}
	return offset + delta
}

// TouchesRange reports whether any edit overlaps or abuts [start, end].
func (c ChangeSet) TouchesRange(start, end ByteOffset) bool {
	for _, e := range c.edits {
		if e.Range.Start <= end && e.Range.End >= start {
			return true
		}
	}
	return false
}
