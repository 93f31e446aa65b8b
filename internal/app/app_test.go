package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/marksync/internal/bridge"
	"github.com/dshills/marksync/internal/completion"
	"github.com/dshills/marksync/internal/completion/timer"
	"github.com/dshills/marksync/internal/config"
	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/cursor"
	"github.com/dshills/marksync/internal/engine/history"
	"github.com/dshills/marksync/internal/input/pointer"
)

type fakePanel struct {
	visible  bool
	requests []completion.Request
	cancels  int
}

func (p *fakePanel) StartCompletion(req completion.Request) {
	p.visible = true
	p.requests = append(p.requests, req)
}

func (p *fakePanel) IsPanelVisible() bool { return p.visible }

func (p *fakePanel) CancelCompletion() {
	p.visible = false
	p.cancels++
}

type recordingHost struct {
	mu      sync.Mutex
	updates []bridge.ViewUpdate
}

func (h *recordingHost) NotifyViewDidUpdate(u bridge.ViewUpdate) {
	h.mu.Lock()
	h.updates = append(h.updates, u)
	h.mu.Unlock()
}

func (h *recordingHost) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.updates)
}

type harness struct {
	app     *App
	timers  *timer.Manual
	panel   *fakePanel
	updates []bridge.ViewUpdate
}

func newHarness(t *testing.T, text string, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{timers: timer.NewManual(), panel: &fakePanel{}}
	opts := Options{
		Text:         text,
		Timers:       h.timers,
		Panel:        h.panel,
		Capabilities: bridge.NewCapabilities(bridge.CapInlineCompletion),
	}
	for _, m := range mutate {
		m(&opts)
	}
	a, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	a.OnViewUpdate(func(u bridge.ViewUpdate) { h.updates = append(h.updates, u) })
	h.app = a
	return h
}

func (h *harness) last(t *testing.T) bridge.ViewUpdate {
	t.Helper()
	require.NotEmpty(t, h.updates)
	return h.updates[len(h.updates)-1]
}

func TestNew_Defaults(t *testing.T) {
	h := newHarness(t, "")
	a := h.app

	assert.NotEqual(t, uuid.Nil, a.ID())
	assert.True(t, a.Editing().IsIdle, "empty document starts idle")
	assert.Equal(t, config.Defaults(), a.Session().Config())
	assert.Nil(t, a.Bridge(), "no host means no bridge")
	assert.True(t, a.Presentation().ActiveLineIndicator)
	assert.True(t, a.Viewport().LineWrapping())
	assert.False(t, a.IsDirty())
}

func TestUndoRedo_LeaveIdle(t *testing.T) {
	for _, step := range []func(*App) (*engine.Transaction, error){(*App).Undo, (*App).Redo} {
		h := newHarness(t, "")
		require.True(t, h.app.Editing().IsIdle)

		_, err := step(h.app)
		require.Error(t, err)
		assert.False(t, h.app.Editing().IsIdle)
	}
}

func TestNew_NonEmptyDocumentLeavesIdle(t *testing.T) {
	h := newHarness(t, "# Title")
	assert.False(t, h.app.Editing().IsIdle)
}

func TestInsert_NotifiesOncePerTransaction(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.app.Insert("a")
	require.NoError(t, err)
	require.Len(t, h.updates, 1)

	u := h.last(t)
	assert.True(t, u.ContentEdited)
	assert.True(t, u.IsDirty)
	assert.True(t, u.CompositionEnded)
	assert.Equal(t, bridge.LineColumn{Line: 1, Column: 2}, u.SelectedLineColumn)
	assert.Equal(t, "a", h.app.State().Doc().Text())
}

func TestSelect_NotifiesWithoutContentEdit(t *testing.T) {
	h := newHarness(t, "hello world")

	_, err := h.app.SelectRange(0, 5)
	require.NoError(t, err)

	u := h.last(t)
	assert.False(t, u.ContentEdited)
	assert.False(t, u.IsDirty)
	assert.Equal(t, 5, u.SelectionLength)
	assert.True(t, h.app.Editing().HasSelection)
	assert.False(t, h.app.Presentation().ActiveLineIndicator, "indicator hides while selecting")

	_, err = h.app.Select(cursor.Caret(3))
	require.NoError(t, err)
	assert.False(t, h.app.Editing().HasSelection)
	assert.True(t, h.app.Presentation().ActiveLineIndicator)
}

func TestInsert_MarkWrapsSelectionAndSkipsCompletion(t *testing.T) {
	h := newHarness(t, "hello world")
	require.NoError(t, h.app.Set(config.PathSuggestWhileTyping, true))

	_, err := h.app.SelectRange(0, 5)
	require.NoError(t, err)
	_, err = h.app.Insert("*")
	require.NoError(t, err)

	assert.Equal(t, "*hello* world", h.app.State().Doc().Text())
	assert.Equal(t, completion.Idle, h.app.Scheduler().State())
	assert.Zero(t, h.timers.Pending())
	assert.Equal(t, uint64(1), h.app.Input().Metrics().Snapshot().Wraps)
}

func TestInsert_ReplacingSelectionClearsHasSelection(t *testing.T) {
	h := newHarness(t, "hello world")
	_, err := h.app.SelectRange(0, 5)
	require.NoError(t, err)
	require.True(t, h.app.Editing().HasSelection)

	_, err = h.app.Insert("x")
	require.NoError(t, err)

	assert.Equal(t, "x world", h.app.State().Doc().Text())
	assert.False(t, h.app.Editing().HasSelection)
	assert.Equal(t, 0, h.last(t).SelectionLength)
}

func TestCompletion_DebouncedRequest(t *testing.T) {
	h := newHarness(t, "hello helium ")
	require.NoError(t, h.app.Set(config.PathSuggestWhileTyping, true))
	_, err := h.app.Select(cursor.Caret(h.app.State().Doc().Len()))
	require.NoError(t, err)

	_, err = h.app.Insert("h")
	require.NoError(t, err)
	h.timers.Advance(100 * time.Millisecond)
	_, err = h.app.Insert("e")
	require.NoError(t, err)
	h.timers.Advance(299 * time.Millisecond)
	require.Empty(t, h.panel.requests, "second keystroke restarts the delay")

	h.timers.Advance(time.Millisecond)
	require.Len(t, h.panel.requests, 1)
	req := h.panel.requests[0]
	assert.Equal(t, "he", req.Prefix)
	assert.ElementsMatch(t, []string{"hello", "helium"}, req.Candidates)
	assert.Equal(t, completion.Idle, h.app.Scheduler().State())
}

func TestCompletion_EditsRefreshCandidates(t *testing.T) {
	h := newHarness(t, "foo ")
	require.NoError(t, h.app.Set(config.PathSuggestWhileTyping, true))
	_, err := h.app.Select(cursor.Caret(4))
	require.NoError(t, err)

	_, err = h.app.Insert("f")
	require.NoError(t, err)
	h.timers.Advance(completion.DefaultDelay)
	require.Len(t, h.panel.requests, 1)
	assert.Equal(t, []string{"foo"}, h.panel.requests[0].Candidates)

	for _, text := range []string{"izz", " ", "f"} {
		_, err = h.app.Insert(text)
		require.NoError(t, err)
	}
	require.Equal(t, "foo fizz f", h.app.State().Doc().Text())
	h.timers.Advance(completion.DefaultDelay)

	require.Len(t, h.panel.requests, 2)
	req := h.panel.requests[1]
	assert.Equal(t, "f", req.Prefix)
	assert.ElementsMatch(t, []string{"fizz", "foo"}, req.Candidates, "words typed since the last request are offered")
	assert.False(t, req.Cached)
}

func TestCompletion_RepeatedRequestUsesCache(t *testing.T) {
	h := newHarness(t, "foo f")
	require.NoError(t, h.app.Set(config.PathSuggestWhileTyping, true))
	_, err := h.app.Select(cursor.Caret(5))
	require.NoError(t, err)

	_, err = h.app.Insert("o")
	require.NoError(t, err)
	h.timers.Advance(completion.DefaultDelay)
	_, err = h.app.Select(cursor.Caret(6))
	require.NoError(t, err)
	h.app.scheduler.OnInsert("o")
	h.timers.Advance(completion.DefaultDelay)

	require.Len(t, h.panel.requests, 2)
	assert.False(t, h.panel.requests[0].Cached)
	assert.True(t, h.panel.requests[1].Cached, "selection changes keep the cache")
}

func TestCompletion_RequiresInlineCompletionCapability(t *testing.T) {
	h := newHarness(t, "hello ", func(o *Options) {
		o.Capabilities = bridge.NewCapabilities(bridge.CapDeveloperExtras)
	})
	require.NoError(t, h.app.Set(config.PathSuggestWhileTyping, true))
	assert.False(t, h.app.Capabilities().Has(bridge.CapInlineCompletion))

	_, err := h.app.Insert("h")
	require.NoError(t, err)
	assert.Equal(t, completion.Idle, h.app.Scheduler().State())
	assert.Zero(t, h.timers.Pending())

	h.timers.Advance(time.Second)
	assert.Empty(t, h.panel.requests)

	h.panel.visible = true
	_, err = h.app.Insert(" ")
	require.NoError(t, err)
	assert.Zero(t, h.panel.cancels, "the panel is never driven")
}

func TestCompletion_DisabledDoesNotSchedule(t *testing.T) {
	h := newHarness(t, "hello ")

	_, err := h.app.Insert("h")
	require.NoError(t, err)

	assert.Zero(t, h.timers.Pending())
	h.timers.Advance(time.Second)
	assert.Empty(t, h.panel.requests)
}

func TestCompletion_WhitespaceClosesVisiblePanel(t *testing.T) {
	h := newHarness(t, "")
	h.panel.visible = true

	_, err := h.app.Insert(" ")
	require.NoError(t, err)

	assert.False(t, h.panel.visible)
	assert.Equal(t, 1, h.panel.cancels)
}

func TestCancelCompletion_DropsPendingRequest(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.app.Set(config.PathSuggestWhileTyping, true))

	_, err := h.app.Insert("w")
	require.NoError(t, err)
	require.Equal(t, completion.Pending, h.app.Scheduler().State())

	require.NoError(t, h.app.CancelCompletion())
	require.NoError(t, h.app.CancelCompletion())

	h.timers.Advance(time.Second)
	assert.Empty(t, h.panel.requests)
	assert.Zero(t, h.panel.cancels, "host-initiated cancel does not call back")
}

func TestReadOnly_RejectsInput(t *testing.T) {
	h := newHarness(t, "abc")
	h.app.ToggleReadOnly()

	_, err := h.app.Insert("x")
	require.ErrorIs(t, err, engine.ErrReadOnly)
	_, err = h.app.Delete(true)
	require.ErrorIs(t, err, engine.ErrReadOnly)
	assert.Equal(t, "abc", h.app.State().Doc().Text())

	_, err = h.app.SelectRange(0, 2)
	require.NoError(t, err, "selection works while read-only")

	h.app.ToggleReadOnly()
	_, err = h.app.Insert("x")
	require.NoError(t, err)
}

func TestTypewriterMode_CentersOnEdit(t *testing.T) {
	var lines string
	for i := 0; i < 100; i++ {
		lines += "line\n"
	}
	h := newHarness(t, lines)
	h.app.ToggleTypewriter()

	_, err := h.app.Select(cursor.Caret(h.app.State().Doc().LineStartOffset(60)))
	require.NoError(t, err)
	_, err = h.app.Insert("x")
	require.NoError(t, err)

	vp := h.app.Viewport()
	assert.True(t, vp.IsLineVisible(60))
	assert.InDelta(t, 60-float64(vp.Height())/2, vp.Top(), 1)
}

func TestComposition_DefersActiveLine(t *testing.T) {
	h := newHarness(t, "hello")

	h.app.CompositionStart()
	_, err := h.app.SelectRange(0, 3)
	require.NoError(t, err)

	assert.False(t, h.last(t).CompositionEnded)
	assert.True(t, h.app.Presentation().ActiveLineIndicator, "no indicator update mid-composition")

	h.app.CompositionEnd()
	assert.False(t, h.app.Presentation().ActiveLineIndicator, "caught up when composition ends")
}

func TestDelete_Graphemes(t *testing.T) {
	h := newHarness(t, "ae\u0301\nb")

	_, err := h.app.Select(cursor.Caret(4))
	require.NoError(t, err)
	_, err = h.app.Delete(true)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", h.app.State().Doc().Text(), "combining mark removed with its base")

	_, err = h.app.Delete(true)
	require.NoError(t, err)
	assert.Equal(t, "\nb", h.app.State().Doc().Text())

	_, err = h.app.Delete(false)
	require.NoError(t, err)
	assert.Equal(t, "b", h.app.State().Doc().Text(), "forward delete joins lines")

	tr, err := h.app.Select(cursor.Caret(0))
	require.NoError(t, err)
	require.NotNil(t, tr)
	tr, err = h.app.Delete(true)
	require.NoError(t, err)
	assert.Nil(t, tr, "nothing before the start")
}

func TestMoveCaret(t *testing.T) {
	h := newHarness(t, "ae\u0301b\nxy")
	a := h.app
	main := func() cursor.Selection { return a.State().Selection().Main() }

	_, err := a.Select(cursor.Caret(1))
	require.NoError(t, err)
	_, err = a.MoveCaret(false, false)
	require.NoError(t, err)
	assert.Equal(t, cursor.NewCursorSelection(4), main(), "steps over the combining mark")

	_, err = a.MoveCaret(true, true)
	require.NoError(t, err)
	assert.Equal(t, cursor.NewSelection(4, 1), main())

	_, err = a.MoveCaret(false, false)
	require.NoError(t, err)
	assert.Equal(t, cursor.NewCursorSelection(4), main(), "collapses to the selection end")

	_, err = a.MoveLineEdge(true, false)
	require.NoError(t, err)
	assert.Equal(t, cursor.NewCursorSelection(5), main())

	_, err = a.MoveLines(1, false)
	require.NoError(t, err)
	assert.Equal(t, cursor.NewCursorSelection(8), main(), "column clamps to the shorter line")

	_, err = a.MoveLines(-5, true)
	require.NoError(t, err)
	assert.Equal(t, cursor.NewSelection(8, 4), main(), "keeps the grapheme column")

	_, err = a.MoveLineEdge(false, false)
	require.NoError(t, err)
	assert.Equal(t, cursor.NewCursorSelection(0), main())
}

func TestUndoRedo_TracksDirty(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.app.Insert("a")
	require.NoError(t, err)
	assert.True(t, h.app.IsDirty())

	_, err = h.app.Undo()
	require.NoError(t, err)
	assert.Equal(t, "", h.app.State().Doc().Text())
	assert.False(t, h.app.IsDirty())
	assert.False(t, h.last(t).IsDirty)

	_, err = h.app.Redo()
	require.NoError(t, err)
	assert.Equal(t, "a", h.app.State().Doc().Text())
	assert.True(t, h.app.IsDirty())

	h.app.MarkSaved()
	assert.False(t, h.app.IsDirty())

	_, err = h.app.Redo()
	require.ErrorIs(t, err, history.ErrNothingToRedo)
}

func TestPointerDown_DoubleClickSelectsWord(t *testing.T) {
	h := newHarness(t, "hello world")
	at := time.Now()

	click, _, err := h.app.PointerDown(7, pointer.Position{X: 7, Y: 0}, at)
	require.NoError(t, err)
	assert.Equal(t, pointer.ClickSingle, click)
	h.app.PointerUp()

	click, _, err = h.app.PointerDown(7, pointer.Position{X: 7, Y: 0}, at.Add(100*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, pointer.ClickDouble, click)
	assert.Equal(t, cursor.NewSelection(6, 11), h.app.State().Selection().Main())
}

func TestApplyConfig_JoinsErrors(t *testing.T) {
	h := newHarness(t, "")

	err := h.app.ApplyConfig(map[string]any{
		"editor": map[string]any{
			"typewriterMode": true,
			"indentUnit":     "nope",
		},
		"bogus": 1,
	}, config.SourceFile)

	require.ErrorIs(t, err, config.ErrUnknownSetting)
	require.ErrorIs(t, err, config.ErrInvalidValue)
	assert.True(t, h.app.Session().Config().TypewriterMode, "valid keys still apply")
}

func TestLocaleChangeReachesTokenizer(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.app.Set(config.PathLocale, "zh-Hans"))
	assert.True(t, h.app.tokenizer.LocaleGate())

	require.NoError(t, h.app.Set(config.PathLocale, "en"))
	assert.False(t, h.app.tokenizer.LocaleGate())
}

func TestScript_HooksParticipate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hooks.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
marksync.on_input(function(text)
  if text == "!" then return "?" end
end)
marksync.on_update(function(u)
  if u.content_edited then marksync.set("editor.typewriterMode", true) end
end)
`), 0o600))

	h := newHarness(t, "", func(o *Options) { o.ScriptPath = path })

	_, err := h.app.Insert("!")
	require.NoError(t, err)
	assert.Equal(t, "?", h.app.State().Doc().Text())
	assert.True(t, h.app.Session().Config().TypewriterMode)
}

func TestScript_SettingsFromUpdateApplyAfterObserver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
marksync.on_update(function(u)
  if u.content_edited then
    marksync.set("appearance.fontSize", 0)
    marksync.set("editor.readOnlyMode", true)
  end
end)
`), 0o600))

	h := newHarness(t, "", func(o *Options) { o.ScriptPath = path })

	_, err := h.app.Insert("a")
	require.NoError(t, err, "a rejected script setting does not fail the insert")
	assert.Len(t, h.updates, 1)
	assert.True(t, h.app.Session().Config().ReadOnlyMode)
	assert.Equal(t, config.Defaults().FontSize, h.app.Session().Config().FontSize)
	assert.Empty(t, h.app.deferred)

	_, err = h.app.Insert("b")
	require.ErrorIs(t, err, engine.ErrReadOnly)
	assert.Equal(t, "a", h.app.State().Doc().Text())
}

func TestNew_BadScriptFails(t *testing.T) {
	_, err := New(Options{ScriptPath: filepath.Join(t.TempDir(), "missing.lua"), Timers: timer.NewManual()})
	var ce *ComponentError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "script", ce.Component)
}

func TestRun_DeliversThroughBridge(t *testing.T) {
	host := &recordingHost{}
	a, err := New(Options{Host: host, Timers: timer.NewManual()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, a.Running, time.Second, time.Millisecond)
	require.NoError(t, a.Post(func() {
		_, _ = a.Insert("x")
	}))
	require.Eventually(t, func() bool { return host.count() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, a.Running())
	assert.ErrorIs(t, a.Post(func() {}), ErrClosed)
	assert.GreaterOrEqual(t, a.Metrics().Snapshot().EventCount, uint64(1))
}

func TestRun_RecoversPanics(t *testing.T) {
	a, err := New(Options{Timers: timer.NewManual()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.Run(ctx) }()

	require.NoError(t, a.Post(func() { panic("boom") }))
	ran := make(chan struct{})
	require.NoError(t, a.Post(func() { close(ran) }))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("loop stopped after panic")
	}
	assert.Equal(t, uint64(1), a.Metrics().Snapshot().Panics)
}

func TestRun_Twice(t *testing.T) {
	a, err := New(Options{Timers: timer.NewManual()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.Run(ctx) }()
	require.Eventually(t, a.Running, time.Second, time.Millisecond)

	require.ErrorIs(t, a.Run(ctx), ErrAlreadyRunning)
}
