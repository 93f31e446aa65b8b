package buffer

import (
	"errors"
	"sort"
	"strings"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap")
)

// Buffer is an immutable text snapshot with a line index.
// It is safe for concurrent reads.
type Buffer struct {
	text       string
	lineStarts []ByteOffset
	revisionID RevisionID
}

// New creates a buffer holding text. CRLF and CR line endings are
// normalized to LF.
func New(text string) *Buffer {
	text = NormalizeLineEndings(text)
	return &Buffer{
		text:       text,
		lineStarts: indexLines(text),
		revisionID: NewRevisionID(),
	}
}

// NormalizeLineEndings converts CRLF and CR to LF.
func NormalizeLineEndings(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func indexLines(text string) []ByteOffset {
	starts := make([]ByteOffset, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, ByteOffset(i+1))
		}
	}
	return starts
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	return b.text
}

// Len returns the byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	return ByteOffset(len(b.text))
}

// IsEmpty reports whether the buffer holds no text.
func (b *Buffer) IsEmpty() bool {
	return len(b.text) == 0
}

// RevisionID returns the revision this snapshot represents.
func (b *Buffer) RevisionID() RevisionID {
	return b.revisionID
}

// LineCount returns the number of lines. An empty buffer has one line.
func (b *Buffer) LineCount() uint32 {
	return uint32(len(b.lineStarts))
}

// LineStartOffset returns the offset of the first byte of line.
// Lines past the end clamp to the buffer length.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	if int(line) >= len(b.lineStarts) {
		return b.Len()
	}
	return b.lineStarts[line]
}

// LineEndOffset returns the offset just before the line's newline.
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	if int(line)+1 >= len(b.lineStarts) {
		return b.Len()
	}
	return b.lineStarts[line+1] - 1
}

// LineText returns the text of line without its newline.
func (b *Buffer) LineText(line uint32) string {
	if int(line) >= len(b.lineStarts) {
		return ""
	}
	return b.text[b.LineStartOffset(line):b.LineEndOffset(line)]
}

// LineAt returns the line containing offset. Offsets are clamped.
func (b *Buffer) LineAt(offset ByteOffset) uint32 {
	offset = b.Clamp(offset)
	// First line start strictly greater than offset, minus one.
	i := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	})
	return uint32(i - 1)
}

// OffsetToPoint converts a byte offset to a line/column point.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	offset = b.Clamp(offset)
	line := b.LineAt(offset)
	return Point{Line: line, Column: uint32(offset - b.lineStarts[line])}
}

// PointToOffset converts a point to a byte offset, clamping the column to
// the line length.
func (b *Buffer) PointToOffset(p Point) ByteOffset {
	if int(p.Line) >= len(b.lineStarts) {
		return b.Len()
	}
	start := b.lineStarts[p.Line]
	end := b.LineEndOffset(p.Line)
	off := start + ByteOffset(p.Column)
	if off > end {
		off = end
	}
	return off
}

// TextRange returns the text in [start, end). Offsets are clamped.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	start, end = b.Clamp(start), b.Clamp(end)
	if start >= end {
		return ""
	}
	return b.text[start:end]
}

// Clamp limits offset to [0, Len()].
func (b *Buffer) Clamp(offset ByteOffset) ByteOffset {
	if offset < 0 {
		return 0
	}
	if offset > b.Len() {
		return b.Len()
	}
	return offset
}
