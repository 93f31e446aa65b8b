// Package timer provides cancelable one-shot timers.
//
// A Scheduler hands out a Handle per scheduled callback. Canceling a
// handle guarantees its callback does not run, even if the underlying
// timer already expired and the callback is waiting to be delivered.
package timer

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies a scheduled callback. The zero Handle is never
// issued.
type Handle uint64

// Scheduler schedules and cancels callbacks.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
	Cancel(h Handle)
}

// PostFunc runs fn on the owner's goroutine.
type PostFunc func(fn func())

// Real schedules callbacks with time.AfterFunc and delivers them through
// a PostFunc, usually the event loop's Post.
type Real struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
	post   PostFunc
}

// NewReal creates a scheduler that delivers callbacks via post. A nil
// post runs callbacks on the timer goroutine.
func NewReal(post PostFunc) *Real {
	if post == nil {
		post = func(fn func()) { fn() }
	}
	return &Real{
		timers: make(map[Handle]*time.Timer),
		post:   post,
	}
}

// Schedule runs fn after delay unless h is canceled first.
func (r *Real) Schedule(delay time.Duration, fn func()) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	r.timers[h] = time.AfterFunc(delay, func() {
		r.post(func() {
			if r.take(h) {
				fn()
			}
		})
	})
	return h
}

// Cancel stops h. Canceling an unknown or finished handle does nothing.
func (r *Real) Cancel(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[h]; ok {
		t.Stop()
		delete(r.timers, h)
	}
}

// Live returns the number of scheduled, undelivered callbacks.
func (r *Real) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// take removes h and reports whether it was still live.
func (r *Real) take(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.timers[h]; !ok {
		return false
	}
	delete(r.timers, h)
	return true
}

// Manual is a virtual-clock scheduler for tests. Callbacks run inside
// Advance, in due order.
type Manual struct {
	now     time.Duration
	next    Handle
	pending []manualTimer
}

type manualTimer struct {
	handle Handle
	due    time.Duration
	fn     func()
}

// NewManual creates a manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Schedule registers fn to run once the clock reaches now+delay.
func (m *Manual) Schedule(delay time.Duration, fn func()) Handle {
	m.next++
	m.pending = append(m.pending, manualTimer{handle: m.next, due: m.now + delay, fn: fn})
	sort.SliceStable(m.pending, func(i, j int) bool {
		return m.pending[i].due < m.pending[j].due
	})
	return m.next
}

// Cancel removes h.
func (m *Manual) Cancel(h Handle) {
	for i, t := range m.pending {
		if t.handle == h {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward by d and runs every callback that
// becomes due, including ones scheduled by earlier callbacks.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for len(m.pending) > 0 && m.pending[0].due <= target {
		t := m.pending[0]
		m.pending = m.pending[1:]
		m.now = t.due
		t.fn()
	}
	m.now = target
}

// Now returns the virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of scheduled callbacks.
func (m *Manual) Pending() int {
	return len(m.pending)
}
