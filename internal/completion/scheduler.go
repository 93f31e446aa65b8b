// Package completion decides when to ask the host for completion
// suggestions.
//
// The Scheduler is a two-state machine. A qualifying keystroke moves it
// to Pending with a fresh timer, replacing any earlier one; when the timer
// fires the panel is asked to show suggestions and the scheduler returns
// to Idle. Whitespace typed while the panel is visible closes the panel.
package completion

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/marksync/internal/completion/timer"
)

// DefaultDelay is the pause after a keystroke before suggestions are
// requested.
const DefaultDelay = 300 * time.Millisecond

// State is the scheduler state.
type State uint8

// States.
const (
	Idle State = iota
	Pending
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Panel is the host completion panel.
type Panel interface {
	StartCompletion(req Request)
	IsPanelVisible() bool
	CancelCompletion()
}

// Scheduler schedules completion requests. It owns at most one live timer
// handle. Methods must be called from the event loop goroutine.
type Scheduler struct {
	timers  timer.Scheduler
	panel   Panel
	delay   time.Duration
	suggest func() bool
	request func() Request
	logger  *zap.Logger

	state  State
	handle timer.Handle
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		s.delay = d
	}
}

// WithSuggestWhileTyping sets the function reporting whether suggestions
// are enabled while typing.
func WithSuggestWhileTyping(fn func() bool) Option {
	return func(s *Scheduler) {
		s.suggest = fn
	}
}

// WithRequest sets the function building the request at fire time.
func WithRequest(fn func() Request) Option {
	return func(s *Scheduler) {
		s.request = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// NewScheduler creates a scheduler over timers and panel.
func NewScheduler(timers timer.Scheduler, panel Panel, opts ...Option) *Scheduler {
	s := &Scheduler{
		timers:  timers,
		panel:   panel,
		delay:   DefaultDelay,
		suggest: func() bool { return false },
		request: func() Request { return Request{} },
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Scheduler) State() State {
	return s.state
}

// Delay returns the debounce delay.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// OnInsert reacts to inserted text. A scheduler without a panel never
// schedules.
func (s *Scheduler) OnInsert(text string) {
	if s.panel == nil {
		return
	}
	visible := s.panel.IsPanelVisible()
	blank := strings.TrimSpace(text) == ""

	switch {
	case !blank && (s.suggest() || visible):
		s.stop()
		s.handle = s.timers.Schedule(s.delay, s.fire)
		s.state = Pending
		s.logger.Debug("completion scheduled", zap.Duration("delay", s.delay))
	case visible:
		s.stop()
		s.state = Idle
		s.panel.CancelCompletion()
		s.logger.Debug("completion canceled by whitespace")
	}
}

// Cancel drops any pending request. It is safe to call at any time.
func (s *Scheduler) Cancel() {
	s.stop()
	s.state = Idle
}

func (s *Scheduler) stop() {
	if s.handle != 0 {
		s.timers.Cancel(s.handle)
		s.handle = 0
	}
}

func (s *Scheduler) fire() {
	s.handle = 0
	s.state = Idle
	if s.panel == nil {
		return
	}
	req := s.request()
	s.logger.Debug("completion fired", zap.String("prefix", req.Prefix), zap.Int("candidates", len(req.Candidates)))
	s.panel.StartCompletion(req)
}
