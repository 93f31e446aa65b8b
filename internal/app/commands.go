package app

import (
	"errors"
	"time"

	"github.com/rivo/uniseg"
	"go.uber.org/zap"

	"github.com/dshills/marksync/internal/config"
	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
	"github.com/dshills/marksync/internal/engine/history"
	"github.com/dshills/marksync/internal/input/pointer"
)

// The methods below must run on the loop goroutine, either posted through
// Post or called directly when the loop is not running.

// Insert handles typed text at the selection.
func (a *App) Insert(text string) (*engine.Transaction, error) {
	a.editing.MarkActive()
	return a.input.Insert(text)
}

// InsertNewline inserts a line break. The document always stores "\n";
// the configured line break applies when saving.
func (a *App) InsertNewline() (*engine.Transaction, error) {
	return a.Insert("\n")
}

// InsertTab inserts the text for the Tab key under the configured tab
// behavior and indent unit.
func (a *App) InsertTab() (*engine.Transaction, error) {
	cfg := a.session.Config()
	return a.Insert(cfg.TabKeyBehavior.Text(a.view.State().Facets().IndentUnit))
}

// Delete removes the selection, or one grapheme cluster before (backward)
// or after the caret.
func (a *App) Delete(backward bool) (*engine.Transaction, error) {
	a.editing.MarkActive()
	state := a.view.State()
	if !state.Facets().Editable {
		return nil, engine.ErrReadOnly
	}

	ranges := state.Selection().Ranges()
	edits := make([]buffer.Edit, 0, len(ranges))
	for _, r := range ranges {
		start, end := r.Start(), r.End()
		if r.IsEmpty() {
			if backward {
				start = graphemeBefore(state.Doc(), start)
			} else {
				end = graphemeAfter(state.Doc(), end)
			}
		}
		if start == end {
			continue
		}
		edits = append(edits, buffer.NewDelete(start, end))
	}
	if len(edits) == 0 {
		return nil, nil
	}
	return a.view.Input(engine.TransactionSpec{Changes: edits, UserEvent: engine.UserEventDelete})
}

// graphemeBefore returns the start of the grapheme cluster ending at
// offset. At a line start it steps over the line break.
func graphemeBefore(doc *buffer.Buffer, offset buffer.ByteOffset) buffer.ByteOffset {
	if offset <= 0 {
		return 0
	}
	lineStart := doc.LineStartOffset(doc.LineAt(offset))
	if offset == lineStart {
		return offset - 1
	}
	text := doc.TextRange(lineStart, offset)
	last := lineStart
	state := -1
	pos := lineStart
	for len(text) > 0 {
		var cluster string
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		last = pos
		pos += buffer.ByteOffset(len(cluster))
	}
	return last
}

// graphemeAfter returns the end of the grapheme cluster starting at
// offset. At a line end it steps over the line break.
func graphemeAfter(doc *buffer.Buffer, offset buffer.ByteOffset) buffer.ByteOffset {
	if offset >= doc.Len() {
		return doc.Len()
	}
	lineEnd := doc.LineEndOffset(doc.LineAt(offset))
	if offset >= lineEnd {
		return offset + 1
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(doc.TextRange(offset, lineEnd), -1)
	return offset + buffer.ByteOffset(len(cluster))
}

// MoveCaret moves the main caret one grapheme cluster. With extend the
// anchor stays put; otherwise a non-empty selection collapses to its edge.
func (a *App) MoveCaret(backward, extend bool) (*engine.Transaction, error) {
	state := a.view.State()
	main := state.Selection().Main()
	head := main.Head
	switch {
	case !extend && !main.IsEmpty() && backward:
		head = main.Start()
	case !extend && !main.IsEmpty():
		head = main.End()
	case backward:
		head = graphemeBefore(state.Doc(), head)
	default:
		head = graphemeAfter(state.Doc(), head)
	}
	return a.moveTo(main, head, extend)
}

// MoveLines moves the main caret delta lines down (negative is up),
// keeping its grapheme column where the target line is long enough.
func (a *App) MoveLines(delta int, extend bool) (*engine.Transaction, error) {
	state := a.view.State()
	doc := state.Doc()
	main := state.Selection().Main()

	line := doc.LineAt(main.Head)
	col := uniseg.GraphemeClusterCount(doc.TextRange(doc.LineStartOffset(line), main.Head))
	target := int64(line) + int64(delta)
	target = max(0, min(target, int64(doc.LineCount())-1))

	start := doc.LineStartOffset(uint32(target))
	text := doc.TextRange(start, doc.LineEndOffset(uint32(target)))
	head := start
	gr := uniseg.NewGraphemes(text)
	for i := 0; i < col && gr.Next(); i++ {
		_, to := gr.Positions()
		head = start + buffer.ByteOffset(to)
	}
	return a.moveTo(main, head, extend)
}

// MoveLineEdge moves the main caret to the start or end of its line.
func (a *App) MoveLineEdge(end, extend bool) (*engine.Transaction, error) {
	state := a.view.State()
	doc := state.Doc()
	main := state.Selection().Main()
	line := doc.LineAt(main.Head)
	head := doc.LineStartOffset(line)
	if end {
		head = doc.LineEndOffset(line)
	}
	return a.moveTo(main, head, extend)
}

func (a *App) moveTo(main cursor.Selection, head buffer.ByteOffset, extend bool) (*engine.Transaction, error) {
	anchor := head
	if extend {
		anchor = main.Anchor
	}
	return a.Select(cursor.Single(anchor, head))
}

// Select sets the selection from a host or keyboard command.
func (a *App) Select(sel cursor.Set) (*engine.Transaction, error) {
	a.editing.MarkActive()
	return a.view.Select(sel.Clamp(a.view.State().Doc().Len()), engine.UserEventSelect)
}

// SelectRange selects anchor..head.
func (a *App) SelectRange(anchor, head buffer.ByteOffset) (*engine.Transaction, error) {
	return a.Select(cursor.Single(anchor, head))
}

// PointerDown handles a primary button press at offset.
func (a *App) PointerDown(offset buffer.ByteOffset, pos pointer.Position, at time.Time) (pointer.ClickType, *engine.Transaction, error) {
	a.editing.MarkActive()
	return a.pointer.Down(offset, pos, at)
}

// PointerDrag extends the pointer selection to offset.
func (a *App) PointerDrag(offset buffer.ByteOffset) (*engine.Transaction, error) {
	return a.pointer.Drag(offset)
}

// PointerUp ends a pointer gesture.
func (a *App) PointerUp() {
	a.pointer.Up()
}

// CompositionStart marks an IME composition in progress.
func (a *App) CompositionStart() {
	a.editing.MarkActive()
	a.composition.Start()
}

// CompositionEnd ends the IME composition.
func (a *App) CompositionEnd() {
	a.composition.End()
}

// CancelCompletion drops any pending completion request. Safe from any
// goroutine while the loop runs.
func (a *App) CancelCompletion() error {
	if !a.running.Load() {
		a.scheduler.Cancel()
		return nil
	}
	return a.Post(a.scheduler.Cancel)
}

// Undo reverts the last edit.
func (a *App) Undo() (*engine.Transaction, error) {
	return a.replay("undo", a.history.Undo)
}

// Redo re-applies the last undone edit.
func (a *App) Redo() (*engine.Transaction, error) {
	return a.replay("redo", a.history.Redo)
}

func (a *App) replay(op string, step func(*engine.State) (engine.TransactionSpec, error)) (*engine.Transaction, error) {
	a.editing.MarkActive()
	state := a.view.State()
	if !state.Facets().Editable {
		return nil, &OperationError{Op: op, Err: engine.ErrReadOnly}
	}
	spec, err := step(state)
	if err != nil {
		if errors.Is(err, history.ErrNothingToUndo) || errors.Is(err, history.ErrNothingToRedo) {
			return nil, err
		}
		return nil, &OperationError{Op: op, Err: err}
	}
	tr, err := a.view.Dispatch(spec)
	if err != nil {
		return nil, &OperationError{Op: op, Err: err}
	}
	return tr, nil
}

// IsDirty reports whether the document differs from the last save.
func (a *App) IsDirty() bool {
	return a.history.IsContentDirty()
}

// MarkSaved records the current document as saved.
func (a *App) MarkSaved() {
	a.history.MarkSaved()
}

// ApplyConfig routes nested or dotted setting values through the session
// setters.
func (a *App) ApplyConfig(values map[string]any, source string) error {
	err := a.session.Apply(values, source)
	if err != nil {
		a.logger.Warn("settings rejected", zap.String("source", source), zap.Error(err))
	}
	return err
}

// Set applies one setting.
func (a *App) Set(path string, value any) error {
	return a.ApplyConfig(map[string]any{path: value}, config.SourceAPI)
}

// ToggleReadOnly flips read-only mode.
func (a *App) ToggleReadOnly() {
	a.session.SetReadOnlyMode(!a.session.Config().ReadOnlyMode)
}

// ToggleTypewriter flips typewriter mode.
func (a *App) ToggleTypewriter() {
	a.session.SetTypewriterMode(!a.session.Config().TypewriterMode)
}
