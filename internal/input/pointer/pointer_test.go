package pointer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
	"github.com/dshills/marksync/internal/input/tokenizer"
)

func at(doc, sub string) buffer.ByteOffset {
	return buffer.ByteOffset(strings.Index(doc, sub))
}

func newTestHandler(doc string, sel cursor.Set) (*Handler, *engine.View) {
	view := engine.NewView(engine.NewState(engine.WithDoc(doc), engine.WithSelection(sel)))
	return NewHandler(view, tokenizer.New("en"), nil), view
}

func TestClickTracker_Sequence(t *testing.T) {
	tr := NewClickTracker(DefaultClickTime, DefaultClickDistance)
	t0 := time.Unix(100, 0)
	p := Position{X: 3, Y: 1}

	assert.Equal(t, ClickSingle, tr.Record(p, t0))
	assert.Equal(t, ClickDouble, tr.Record(p, t0.Add(100*time.Millisecond)))
	assert.Equal(t, ClickTriple, tr.Record(p, t0.Add(200*time.Millisecond)))
	assert.Equal(t, ClickSingle, tr.Record(p, t0.Add(300*time.Millisecond)), "wraps after triple")
}

func TestClickTracker_Breaks(t *testing.T) {
	t0 := time.Unix(100, 0)
	tests := []struct {
		name string
		pos  Position
		at   time.Time
	}{
		{"too slow", Position{X: 3}, t0.Add(time.Second)},
		{"too far", Position{X: 9}, t0.Add(10 * time.Millisecond)},
		{"clock skew", Position{X: 3}, t0.Add(-time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewClickTracker(DefaultClickTime, DefaultClickDistance)
			tr.Record(Position{X: 3}, t0)
			assert.Equal(t, ClickSingle, tr.Record(tt.pos, tt.at))
		})
	}
}

func TestClickTracker_Reset(t *testing.T) {
	tr := NewClickTracker(DefaultClickTime, DefaultClickDistance)
	t0 := time.Unix(100, 0)
	tr.Record(Position{}, t0)
	tr.Reset()
	assert.Equal(t, ClickSingle, tr.Record(Position{}, t0.Add(time.Millisecond)))
}

func TestHandler_SingleClickPlacesCaret(t *testing.T) {
	h, view := newTestHandler("Hello world", cursor.Single(0, 5))

	click, tr, err := h.Down(7, Position{X: 7}, time.Unix(1, 0))
	require.NoError(t, err)
	assert.Equal(t, ClickSingle, click)
	assert.Equal(t, engine.UserEventPointer, tr.UserEvent)
	assert.Equal(t, cursor.Caret(7), view.State().Selection())
	assert.False(t, h.StyleActive())
}

func TestHandler_TokenStyleKeepsSelectionThenDoubleClickSelectsToken(t *testing.T) {
	doc := "今日は良い天気"
	sel := cursor.Single(0, 3)
	h, view := newTestHandler(doc, sel)
	t0 := time.Unix(1, 0)

	_, _, err := h.Down(at(doc, "気"), Position{X: 6}, t0)
	require.NoError(t, err)
	assert.True(t, h.StyleActive())
	assert.Equal(t, sel, view.State().Selection(), "pointer-down leaves the selection alone")

	_, err = h.Drag(0)
	require.NoError(t, err)
	assert.Equal(t, sel, view.State().Selection(), "drag is ignored under a token style")

	h.Up()
	click, _, err := h.Down(at(doc, "気"), Position{X: 6}, t0.Add(50*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, ClickDouble, click)
	assert.Equal(t, cursor.NewSelection(at(doc, "天"), buffer.ByteOffset(len(doc))), view.State().Selection().Main())
}

func TestHandler_DoubleClickFallsBackToWord(t *testing.T) {
	h, view := newTestHandler("Hello world", cursor.Caret(0))
	t0 := time.Unix(1, 0)

	h.Down(8, Position{X: 8}, t0)
	h.Up()
	_, _, err := h.Down(8, Position{X: 8}, t0.Add(10*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, cursor.NewSelection(6, 11), view.State().Selection().Main())
}

func TestHandler_TripleClickSelectsLine(t *testing.T) {
	h, view := newTestHandler("one\ntwo\nthree", cursor.Caret(0))
	t0 := time.Unix(1, 0)

	for i := 0; i < 3; i++ {
		_, _, err := h.Down(5, Position{X: 1, Y: 1}, t0.Add(time.Duration(i)*10*time.Millisecond))
		require.NoError(t, err)
		h.Up()
	}
	assert.Equal(t, cursor.NewSelection(4, 8), view.State().Selection().Main())
}

func TestHandler_DragExtendsSelection(t *testing.T) {
	h, view := newTestHandler("Hello world", cursor.Caret(0))

	h.Down(2, Position{X: 2}, time.Unix(1, 0))
	_, err := h.Drag(8)
	require.NoError(t, err)
	assert.Equal(t, cursor.NewSelection(2, 8), view.State().Selection().Main())

	h.Up()
	tr, err := h.Drag(1)
	require.NoError(t, err)
	assert.Nil(t, tr)
}
