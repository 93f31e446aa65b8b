package cursor

import (
	"sort"
	"strings"

	"github.com/dshills/marksync/internal/engine/buffer"
)

// Set is an immutable, ordered list of selections with a main range.
// Ranges are sorted by position and never overlap.
type Set struct {
	ranges []Selection
	main   int
}

// Single creates a set holding one selection.
func Single(anchor, head ByteOffset) Set {
	return Set{ranges: []Selection{NewSelection(anchor, head)}}
}

// Caret creates a set holding one empty selection at offset.
func Caret(offset ByteOffset) Set {
	return Single(offset, offset)
}

// NewSet creates a set from ranges. main indexes the main range in the
// given slice. Overlapping ranges are merged; a merged range keeps the
// direction of the range that started first.
func NewSet(main int, ranges ...Selection) Set {
	if len(ranges) == 0 {
		return Caret(0)
	}
	if main < 0 || main >= len(ranges) {
		main = 0
	}
	mainSel := ranges[main]

	sorted := make([]Selection, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start() < sorted[j].Start()
	})

	merged := sorted[:1]
	mainIdx := 0
	for _, sel := range sorted[1:] {
		last := &merged[len(merged)-1]
		// A caret touching a range joins it; two ranges must share interior.
		overlaps := sel.Start() < last.End()
		if sel.IsEmpty() {
			overlaps = sel.Start() <= last.End()
		}
		if overlaps {
			*last = last.WithRange(last.Start(), max(last.End(), sel.End()))
			continue
		}
		merged = append(merged, sel)
	}
	for i, sel := range merged {
		if sel.Start() <= mainSel.Start() && mainSel.End() <= sel.End() {
			mainIdx = i
			break
		}
	}
	return Set{ranges: merged, main: mainIdx}
}

// Ranges returns a copy of the selections in document order.
func (s Set) Ranges() []Selection {
	if len(s.ranges) == 0 {
		return []Selection{NewCursorSelection(0)}
	}
	out := make([]Selection, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// Main returns the main selection.
func (s Set) Main() Selection {
	if len(s.ranges) == 0 {
		return NewCursorSelection(0)
	}
	return s.ranges[s.main]
}

// MainIndex returns the index of the main selection.
func (s Set) MainIndex() int {
	return s.main
}

// Count returns the number of ranges.
func (s Set) Count() int {
	return max(1, len(s.ranges))
}

// HasSelection reports whether any range is non-empty.
func (s Set) HasSelection() bool {
	for _, r := range s.ranges {
		if !r.IsEmpty() {
			return true
		}
	}
	return false
}

// Map moves every range through a change set.
func (s Set) Map(changes buffer.ChangeSet) Set {
	if changes.IsEmpty() || len(s.ranges) == 0 {
		return s
	}
	mapped := make([]Selection, len(s.ranges))
	for i, r := range s.ranges {
		mapped[i] = r.Map(changes)
	}
	return NewSet(s.main, mapped...)
}

// Clamp limits every range to [0, maxOffset].
func (s Set) Clamp(maxOffset ByteOffset) Set {
	clamped := make([]Selection, len(s.ranges))
	for i, r := range s.ranges {
		clamped[i] = r.Clamp(maxOffset)
	}
	return NewSet(s.main, clamped...)
}

// Equals reports whether both sets hold the same ranges and main index.
func (s Set) Equals(other Set) bool {
	a, b := s.Ranges(), other.Ranges()
	if len(a) != len(b) || s.main != other.main {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String returns a string representation of the set.
func (s Set) String() string {
	parts := make([]string, 0, len(s.ranges))
	for _, r := range s.Ranges() {
		parts = append(parts, r.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
