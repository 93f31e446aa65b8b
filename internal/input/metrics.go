package input

import (
	"sync/atomic"
	"time"
)

// Metrics counts handled inserts.
type Metrics struct {
	inserts  atomic.Uint64
	wraps    atomic.Uint64
	consumed atomic.Uint64
	rejected atomic.Uint64

	peakLatency atomic.Int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordInsert records one handled insert and its processing time.
func (m *Metrics) RecordInsert(latency time.Duration) {
	m.inserts.Add(1)

	ns := latency.Nanoseconds()
	for {
		current := m.peakLatency.Load()
		if ns <= current || m.peakLatency.CompareAndSwap(current, ns) {
			break
		}
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Inserts     uint64
	Wraps       uint64
	Consumed    uint64
	Rejected    uint64
	PeakLatency time.Duration
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Inserts:     m.inserts.Load(),
		Wraps:       m.wraps.Load(),
		Consumed:    m.consumed.Load(),
		Rejected:    m.rejected.Load(),
		PeakLatency: time.Duration(m.peakLatency.Load()),
	}
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.inserts.Store(0)
	m.wraps.Store(0)
	m.consumed.Store(0)
	m.rejected.Store(0)
	m.peakLatency.Store(0)
}
