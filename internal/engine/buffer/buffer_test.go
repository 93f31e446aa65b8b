package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNew_Empty(t *testing.T) {
	b := New("")

	require.True(t, b.IsEmpty())
	require.Equal(t, ByteOffset(0), b.Len())
	require.Equal(t, uint32(1), b.LineCount(), "empty buffer still has one line")
	require.Equal(t, "", b.LineText(0))
}

func TestNew_NormalizesLineEndings(t *testing.T) {
	b := New("a\r\nb\rc\n")

	require.Equal(t, "a\nb\nc\n", b.Text())
	require.Equal(t, uint32(4), b.LineCount())
}

func TestBuffer_Lines(t *testing.T) {
	b := New("line1\nline2\nline3")

	require.Equal(t, uint32(3), b.LineCount())
	assert.Equal(t, "line1", b.LineText(0))
	assert.Equal(t, "line2", b.LineText(1))
	assert.Equal(t, "line3", b.LineText(2))
	assert.Equal(t, "", b.LineText(7))

	assert.Equal(t, ByteOffset(6), b.LineStartOffset(1))
	assert.Equal(t, ByteOffset(11), b.LineEndOffset(1))
	assert.Equal(t, b.Len(), b.LineEndOffset(2))
}

func TestBuffer_OffsetToPoint(t *testing.T) {
	b := New("ab\ncd\n")

	tests := []struct {
		offset ByteOffset
		want   Point
	}{
		{0, Point{0, 0}},
		{2, Point{0, 2}},
		{3, Point{1, 0}},
		{5, Point{1, 2}},
		{6, Point{2, 0}},
		{99, Point{2, 0}},
		{-4, Point{0, 0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.OffsetToPoint(tt.offset), "offset %d", tt.offset)
	}
}

func TestBuffer_PointToOffsetClampsColumn(t *testing.T) {
	b := New("ab\ncd")

	require.Equal(t, ByteOffset(2), b.PointToOffset(Point{Line: 0, Column: 10}))
	require.Equal(t, ByteOffset(4), b.PointToOffset(Point{Line: 1, Column: 1}))
	require.Equal(t, b.Len(), b.PointToOffset(Point{Line: 5}))
}

func TestChangeSet_Apply(t *testing.T) {
	b := New("Hello, World!")

	cs, err := NewChangeSet(b.Len(), NewInsert(7, "Beautiful "))
	require.NoError(t, err)

	next, err := cs.Apply(b)
	require.NoError(t, err)
	require.Equal(t, "Hello, Beautiful World!", next.Text())
	require.Equal(t, "Hello, World!", b.Text(), "original buffer must not change")
	require.NotEqual(t, b.RevisionID(), next.RevisionID())
}

func TestChangeSet_ApplyMultipleEditsUseOriginalOffsets(t *testing.T) {
	b := New("Hello")

	cs, err := NewChangeSet(b.Len(), NewInsert(5, "*"), NewInsert(0, "*"))
	require.NoError(t, err)

	next, err := cs.Apply(b)
	require.NoError(t, err)
	require.Equal(t, "*Hello*", next.Text())
}

func TestChangeSet_Errors(t *testing.T) {
	tests := []struct {
		name  string
		edits []Edit
		want  error
	}{
		{"out of range", []Edit{NewDelete(2, 20)}, ErrOffsetOutOfRange},
		{"negative", []Edit{NewInsert(-1, "x")}, ErrOffsetOutOfRange},
		{"inverted", []Edit{NewEdit(Range{Start: 4, End: 2}, "")}, ErrRangeInvalid},
		{"overlap", []Edit{NewDelete(0, 3), NewDelete(2, 4)}, ErrEditsOverlap},
		{"same insert point", []Edit{NewInsert(1, "a"), NewInsert(1, "b")}, ErrEditsOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChangeSet(5, tt.edits...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChangeSet_ApplyWrongLength(t *testing.T) {
	cs, err := NewChangeSet(3, NewInsert(0, "x"))
	require.NoError(t, err)

	_, err = cs.Apply(New("toolong"))
	require.ErrorIs(t, err, ErrOffsetOutOfRange)
}

func TestChangeSet_MapOffset(t *testing.T) {
	// "Hello World" -> replace "World" (6..11) with "Go"
	cs, err := NewChangeSet(11, NewEdit(Range{Start: 6, End: 11}, "Go"))
	require.NoError(t, err)

	assert.Equal(t, ByteOffset(3), cs.MapOffset(3, AssocAfter), "before edit is unchanged")
	assert.Equal(t, ByteOffset(6), cs.MapOffset(6, AssocBefore))
	assert.Equal(t, ByteOffset(8), cs.MapOffset(6, AssocAfter))
	assert.Equal(t, ByteOffset(6), cs.MapOffset(8, AssocBefore), "inside collapses to start")
	assert.Equal(t, ByteOffset(8), cs.MapOffset(8, AssocAfter), "inside collapses to end")
	assert.Equal(t, ByteOffset(8), cs.MapOffset(11, AssocBefore), "end of range maps to end of replacement")
}

func TestChangeSet_MapOffsetInsertion(t *testing.T) {
	cs, err := NewChangeSet(5, NewInsert(2, "abc"))
	require.NoError(t, err)

	assert.Equal(t, ByteOffset(2), cs.MapOffset(2, AssocBefore))
	assert.Equal(t, ByteOffset(5), cs.MapOffset(2, AssocAfter))
	assert.Equal(t, ByteOffset(7), cs.MapOffset(4, AssocBefore))
}

func TestChangeSet_NoOpDropped(t *testing.T) {
	cs, err := NewChangeSet(5, NewInsert(3, ""))
	require.NoError(t, err)
	require.True(t, cs.IsEmpty())
}

func TestChangeSet_NewLengthMatchesApply(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-z\n]{0,40}`).Draw(t, "text")
		b := New(text)
		start := rapid.Int64Range(0, b.Len()).Draw(t, "start")
		end := rapid.Int64Range(start, b.Len()).Draw(t, "end")
		insert := rapid.StringMatching(`[A-Z]{0,5}`).Draw(t, "insert")

		cs, err := NewChangeSet(b.Len(), NewEdit(Range{Start: start, End: end}, insert))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		next, err := cs.Apply(b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next.Len() != cs.NewLength() {
			t.Fatalf("length %d, want %d", next.Len(), cs.NewLength())
		}
		if got := next.OffsetToPoint(next.Len()).Line + 1; got != next.LineCount() {
			t.Fatalf("last offset on line %d, have %d lines", got, next.LineCount())
		}
	})
}
