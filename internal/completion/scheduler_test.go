package completion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/marksync/internal/completion/timer"
)

type fakePanel struct {
	visible  bool
	started  []Request
	canceled int
}

func (p *fakePanel) StartCompletion(req Request) { p.started = append(p.started, req) }
func (p *fakePanel) IsPanelVisible() bool        { return p.visible }
func (p *fakePanel) CancelCompletion()           { p.canceled++ }

func newTestScheduler(suggest bool) (*Scheduler, *timer.Manual, *fakePanel) {
	clock := timer.NewManual()
	panel := &fakePanel{}
	s := NewScheduler(clock, panel,
		WithSuggestWhileTyping(func() bool { return suggest }),
		WithRequest(func() Request { return Request{Prefix: "wor"} }),
	)
	return s, clock, panel
}

func TestScheduler_FiresAfterDelay(t *testing.T) {
	s, clock, panel := newTestScheduler(true)

	s.OnInsert("a")
	require.Equal(t, Pending, s.State())

	clock.Advance(DefaultDelay - time.Millisecond)
	require.Empty(t, panel.started)

	clock.Advance(time.Millisecond)
	require.Len(t, panel.started, 1)
	assert.Equal(t, "wor", panel.started[0].Prefix)
	assert.Equal(t, Idle, s.State())
}

func TestScheduler_KeystrokesSupersede(t *testing.T) {
	s, clock, panel := newTestScheduler(true)

	s.OnInsert("a")
	clock.Advance(100 * time.Millisecond)
	s.OnInsert("b")

	clock.Advance(250 * time.Millisecond)
	require.Empty(t, panel.started, "first request was superseded")

	clock.Advance(50 * time.Millisecond)
	require.Len(t, panel.started, 1)

	clock.Advance(time.Second)
	require.Len(t, panel.started, 1, "only one request fires")
	require.Zero(t, clock.Pending())
}

func TestScheduler_DisabledAndHidden(t *testing.T) {
	s, clock, panel := newTestScheduler(false)

	s.OnInsert("a")
	require.Equal(t, Idle, s.State())
	clock.Advance(time.Second)
	require.Empty(t, panel.started)
}

func TestScheduler_VisiblePanelSchedulesWithoutSuggest(t *testing.T) {
	s, clock, panel := newTestScheduler(false)
	panel.visible = true

	s.OnInsert("x")
	require.Equal(t, Pending, s.State())
	clock.Advance(DefaultDelay)
	require.Len(t, panel.started, 1)
}

func TestScheduler_WhitespaceCancelsVisiblePanel(t *testing.T) {
	s, clock, panel := newTestScheduler(true)
	panel.visible = true

	s.OnInsert("a")
	s.OnInsert(" ")

	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 1, panel.canceled)
	clock.Advance(time.Second)
	assert.Empty(t, panel.started)
}

func TestScheduler_WhitespaceWithHiddenPanelKeepsPending(t *testing.T) {
	s, clock, panel := newTestScheduler(true)

	s.OnInsert("a")
	s.OnInsert("\n")

	assert.Equal(t, Pending, s.State())
	assert.Zero(t, panel.canceled)
	clock.Advance(DefaultDelay)
	assert.Len(t, panel.started, 1)
}

func TestScheduler_CancelIsIdempotent(t *testing.T) {
	s, clock, panel := newTestScheduler(true)

	s.Cancel()
	require.Equal(t, Idle, s.State())

	s.OnInsert("a")
	s.Cancel()
	s.Cancel()
	require.Equal(t, Idle, s.State())

	clock.Advance(time.Second)
	require.Empty(t, panel.started)
	require.Zero(t, panel.canceled, "cancel does not call back into the host")
}

func TestScheduler_WithDelay(t *testing.T) {
	clock := timer.NewManual()
	panel := &fakePanel{}
	s := NewScheduler(clock, panel,
		WithDelay(50*time.Millisecond),
		WithSuggestWhileTyping(func() bool { return true }),
	)
	require.Equal(t, 50*time.Millisecond, s.Delay())

	s.OnInsert("q")
	clock.Advance(50 * time.Millisecond)
	require.Len(t, panel.started, 1)
}

func TestScheduler_NoPanelNeverSchedules(t *testing.T) {
	clock := timer.NewManual()
	s := NewScheduler(clock, nil, WithSuggestWhileTyping(func() bool { return true }))

	s.OnInsert("a")
	s.OnInsert(" ")
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, clock.Pending())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "unknown", State(9).String())
}
