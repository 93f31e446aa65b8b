package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHost struct {
	mu      sync.Mutex
	updates []ViewUpdate
	block   chan struct{}
}

func (h *recordingHost) NotifyViewDidUpdate(u ViewUpdate) {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, u)
}

func (h *recordingHost) seen() []ViewUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ViewUpdate(nil), h.updates...)
}

func TestBridge_NilIsNoop(t *testing.T) {
	var b *Bridge

	require.NoError(t, b.Start())
	b.NotifyViewDidUpdate(ViewUpdate{ContentEdited: true})
	require.NoError(t, b.Stop(context.Background()))
	assert.False(t, b.Has(CapInlineCompletion))
	assert.Equal(t, Stats{}, b.Stats())
}

func TestBridge_DeliversInOrder(t *testing.T) {
	host := &recordingHost{}
	b := New(host)
	require.NoError(t, b.Start())

	for i := 1; i <= 3; i++ {
		b.NotifyViewDidUpdate(ViewUpdate{SelectedLineColumn: LineColumn{Line: i, Column: 1}})
	}
	require.NoError(t, b.Stop(context.Background()))

	got := host.seen()
	require.Len(t, got, 3)
	for i, u := range got {
		assert.Equal(t, i+1, u.SelectedLineColumn.Line)
	}
	assert.Equal(t, Stats{Sent: 3, Delivered: 3}, b.Stats())
}

func TestBridge_FullQueueDropsOldest(t *testing.T) {
	host := &recordingHost{block: make(chan struct{})}
	b := New(host, WithQueueSize(2))
	require.NoError(t, b.Start())

	// The worker takes the first update and blocks in the host.
	b.NotifyViewDidUpdate(ViewUpdate{SelectedLineColumn: LineColumn{Line: 1}})
	require.Eventually(t, func() bool { return len(b.queue) == 0 }, time.Second, time.Millisecond)

	for i := 2; i <= 5; i++ {
		b.NotifyViewDidUpdate(ViewUpdate{SelectedLineColumn: LineColumn{Line: i}})
	}
	close(host.block)
	require.NoError(t, b.Stop(context.Background()))

	var lines []int
	for _, u := range host.seen() {
		lines = append(lines, u.SelectedLineColumn.Line)
	}
	assert.Equal(t, []int{1, 4, 5}, lines)
	assert.Equal(t, uint64(2), b.Stats().Dropped)
}

func TestBridge_StartStopErrors(t *testing.T) {
	b := New(&recordingHost{})
	require.ErrorIs(t, b.Stop(context.Background()), ErrNotRunning)
	require.NoError(t, b.Start())
	require.ErrorIs(t, b.Start(), ErrAlreadyRunning)
	require.NoError(t, b.Stop(context.Background()))

	b.NotifyViewDidUpdate(ViewUpdate{})
	assert.Equal(t, uint64(1), b.Stats().Dropped, "updates after stop are discarded")
}

func TestBridge_HostPanicIsContained(t *testing.T) {
	calls := 0
	b := New(HostFunc(func(u ViewUpdate) {
		calls++
		if u.IsDirty {
			panic("boom")
		}
	}))
	require.NoError(t, b.Start())
	b.NotifyViewDidUpdate(ViewUpdate{IsDirty: true})
	b.NotifyViewDidUpdate(ViewUpdate{})
	require.NoError(t, b.Stop(context.Background()))

	assert.Equal(t, 2, calls)
	assert.Equal(t, uint64(1), b.Stats().Panicked)
	assert.Equal(t, uint64(1), b.Stats().Delivered)
}

func TestCapabilities(t *testing.T) {
	caps := NewCapabilities(CapInlineCompletion, CapDeveloperExtras)
	assert.True(t, caps.Has(CapInlineCompletion))
	assert.False(t, caps.Has(CapCancelCorrection))
	assert.Equal(t, "inlineCompletion,developerExtras", caps.String())

	parsed, err := ParseCapabilities([]string{"InlineCompletion", " developerExtras", ""})
	require.NoError(t, err)
	assert.Equal(t, caps, parsed)

	_, err = ParseCapabilities([]string{"telepathy"})
	require.ErrorIs(t, err, ErrUnknownCapability)

	b := New(nil, WithCapabilities(caps))
	assert.True(t, b.Has(CapDeveloperExtras))
	assert.Equal(t, "transparentBackground", CapTransparentBackground.String())
}
