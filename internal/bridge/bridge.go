package bridge

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultQueueSize is the number of pending updates kept for the host.
const DefaultQueueSize = 64

// Bridge delivers notifications to a Host without blocking the caller.
type Bridge struct {
	host      Host
	caps      Capabilities
	queueSize int
	logger    *zap.Logger

	mu      sync.Mutex
	queue   chan ViewUpdate
	running atomic.Bool
	wg      sync.WaitGroup

	sent      atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	panicked  atomic.Uint64
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithCapabilities sets the host capabilities.
func WithCapabilities(caps Capabilities) Option {
	return func(b *Bridge) {
		b.caps = caps
	}
}

// WithQueueSize sets the pending update limit.
func WithQueueSize(size int) Option {
	return func(b *Bridge) {
		if size > 0 {
			b.queueSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a bridge to host. Call Start before sending.
func New(host Host, opts ...Option) *Bridge {
	b := &Bridge{
		host:      host,
		queueSize: DefaultQueueSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Capabilities returns the host capabilities. A nil bridge has none.
func (b *Bridge) Capabilities() Capabilities {
	if b == nil {
		return 0
	}
	return b.caps
}

// Has reports whether the host declared c.
func (b *Bridge) Has(c Capability) bool {
	return b.Capabilities().Has(c)
}

// Start starts the delivery worker.
func (b *Bridge) Start() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running.Load() {
		return ErrAlreadyRunning
	}
	b.queue = make(chan ViewUpdate, b.queueSize)
	b.running.Store(true)

	b.wg.Add(1)
	go b.worker(b.queue)
	return nil
}

// Stop stops accepting updates and waits for queued ones to be delivered
// or for ctx to be done.
func (b *Bridge) Stop(ctx context.Context) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	if !b.running.Load() {
		b.mu.Unlock()
		return ErrNotRunning
	}
	b.running.Store(false)
	close(b.queue)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NotifyViewDidUpdate queues update for the host. It never blocks; when
// the queue is full the oldest pending update is dropped.
func (b *Bridge) NotifyViewDidUpdate(update ViewUpdate) {
	if b == nil || b.host == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running.Load() {
		b.dropped.Add(1)
		return
	}
	b.sent.Add(1)
	for {
		select {
		case b.queue <- update:
			return
		default:
		}
		select {
		case <-b.queue:
			b.dropped.Add(1)
		default:
		}
	}
}

func (b *Bridge) worker(queue <-chan ViewUpdate) {
	defer b.wg.Done()
	for update := range queue {
		b.deliver(update)
	}
}

func (b *Bridge) deliver(update ViewUpdate) {
	defer func() {
		if r := recover(); r != nil {
			b.panicked.Add(1)
			b.logger.Error("host panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	b.host.NotifyViewDidUpdate(update)
	b.delivered.Add(1)
}

// Stats are delivery counters.
type Stats struct {
	Sent      uint64
	Delivered uint64
	Dropped   uint64
	Panicked  uint64
}

// Stats returns the delivery counters.
func (b *Bridge) Stats() Stats {
	if b == nil {
		return Stats{}
	}
	return Stats{
		Sent:      b.sent.Load(),
		Delivered: b.delivered.Load(),
		Dropped:   b.dropped.Load(),
		Panicked:  b.panicked.Load(),
	}
}
