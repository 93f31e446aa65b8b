package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks event loop timing. It is safe for concurrent use.
type Metrics struct {
	eventCount   atomic.Uint64
	eventTotalNs atomic.Int64
	eventMaxNs   atomic.Int64
	panics       atomic.Uint64
	transactions atomic.Uint64
	notifies     atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordEvent records the processing time of one loop event.
func (m *Metrics) RecordEvent(duration time.Duration) {
	ns := duration.Nanoseconds()
	m.eventCount.Add(1)
	m.eventTotalNs.Add(ns)

	for {
		old := m.eventMaxNs.Load()
		if ns <= old {
			break
		}
		if m.eventMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordPanic counts a recovered panic.
func (m *Metrics) RecordPanic() {
	m.panics.Add(1)
}

// RecordTransaction counts a transaction seen by the observer, and
// whether it produced a host notification.
func (m *Metrics) RecordTransaction(notified bool) {
	m.transactions.Add(1)
	if notified {
		m.notifies.Add(1)
	}
}

// MetricsSnapshot is a point-in-time copy of the metrics.
type MetricsSnapshot struct {
	EventCount    uint64
	EventAvg      time.Duration
	EventMax      time.Duration
	Panics        uint64
	Transactions  uint64
	Notifications uint64
	Uptime        time.Duration
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		EventCount:    m.eventCount.Load(),
		EventMax:      time.Duration(m.eventMaxNs.Load()),
		Panics:        m.panics.Load(),
		Transactions:  m.transactions.Load(),
		Notifications: m.notifies.Load(),
		Uptime:        time.Since(m.startTime),
	}
	if s.EventCount > 0 {
		s.EventAvg = time.Duration(m.eventTotalNs.Load() / int64(s.EventCount))
	}
	return s
}

// Reset clears every counter.
func (m *Metrics) Reset() {
	m.eventCount.Store(0)
	m.eventTotalNs.Store(0)
	m.eventMaxNs.Store(0)
	m.panics.Store(0)
	m.transactions.Store(0)
	m.notifies.Store(0)
}

// SuppressionRate is the share of transactions that did not notify the
// host.
func (s MetricsSnapshot) SuppressionRate() float64 {
	if s.Transactions == 0 {
		return 0
	}
	return 1 - float64(s.Notifications)/float64(s.Transactions)
}
