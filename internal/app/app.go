// Package app owns one editing session and runs its event loop.
//
// The App wires the document view, the session configuration, the input
// funnel, the completion scheduler, the change observer and the host
// bridge together. Every mutation happens on the loop goroutine: host
// commands, terminal events and timer callbacks are posted with Post and
// executed one at a time by Run. Tests and the replay host may instead
// call the command methods directly from a single goroutine.
package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/marksync/internal/bridge"
	"github.com/dshills/marksync/internal/completion"
	"github.com/dshills/marksync/internal/completion/timer"
	"github.com/dshills/marksync/internal/config"
	"github.com/dshills/marksync/internal/config/notify"
	"github.com/dshills/marksync/internal/editing"
	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/history"
	"github.com/dshills/marksync/internal/input"
	"github.com/dshills/marksync/internal/input/pointer"
	"github.com/dshills/marksync/internal/input/tokenizer"
	"github.com/dshills/marksync/internal/log"
	"github.com/dshills/marksync/internal/observer"
	"github.com/dshills/marksync/internal/renderer/viewport"
	"github.com/dshills/marksync/internal/script"
	"github.com/dshills/marksync/internal/styling"
)

// Defaults for Options.
const (
	DefaultEventQueueSize  = 256
	DefaultHistorySize     = 1000
	DefaultShutdownTimeout = 2 * time.Second
	DefaultViewportWidth   = 80
	DefaultViewportHeight  = 24
)

// Options configures an App.
type Options struct {
	// Config is the startup configuration. Zero value means config.Defaults().
	Config *config.Config

	// Styler receives presentation updates. Nil uses an in-process
	// styling.Styles, available through Presentation.
	Styler styling.Styler

	// Host receives view updates through the bridge. Nil disables
	// notifications.
	Host bridge.Host

	// Capabilities are the features the host declared.
	Capabilities bridge.Capabilities

	// Panel shows completion suggestions. It is used only when
	// Capabilities has CapInlineCompletion. May be nil.
	Panel completion.Panel

	// Provider computes completion candidates. Nil uses a WordProvider.
	Provider completion.Provider

	// Timers schedules completion requests. Nil uses real timers posted
	// to the event loop.
	Timers timer.Scheduler

	// Viewport is the scroll surface. Nil creates an 80x24 viewport.
	Viewport *viewport.Viewport

	// ScriptPath is an optional Lua script loaded at startup.
	ScriptPath string

	// Text is the initial document.
	Text string

	// Notifier receives setting changes. Nil creates a private one.
	Notifier *notify.Notifier

	// Logger is the root logger. Nil disables logging.
	Logger *zap.Logger

	// QueueSize bounds the event queue and the bridge queue.
	QueueSize int

	// HistorySize bounds the undo history.
	HistorySize int
}

// App is one editing session.
type App struct {
	id     uuid.UUID
	logger *zap.Logger

	editing     *editing.State
	composition *editing.Composition
	session     *config.Session
	notifier    *notify.Notifier
	styles      *styling.Styles
	view        *engine.View
	history     *history.History

	tokenizer *tokenizer.Tokenizer
	input     *input.Handler
	pointer   *pointer.Handler

	timers    timer.Scheduler
	cache     *completion.Cache
	scheduler *completion.Scheduler

	observer *observer.Observer
	bridge   *bridge.Bridge
	follower *viewport.Follower
	script   *script.Engine
	caps     bridge.Capabilities

	// Settings changed by scripts while a transaction is observed are
	// applied once the observer returns.
	observing bool
	deferred  []scriptSetting

	doc document

	events   chan func()
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	metrics  *Metrics
}

// New creates an App. The returned App is ready for direct calls; start
// the event loop with Run to accept posted events and deliver host
// notifications.
func New(opts Options) (*App, error) {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultEventQueueSize
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}

	a := &App{
		id:      uuid.New(),
		editing: editing.New(),
		events:  make(chan func(), opts.QueueSize),
		done:    make(chan struct{}),
		metrics: NewMetrics(),
	}
	root := opts.Logger
	if root == nil {
		root = log.Nop()
	}
	a.logger = root.With(zap.String("session", a.id.String()))
	a.composition = editing.NewComposition(a.editing)

	vp := opts.Viewport
	if vp == nil {
		vp = viewport.NewViewport(DefaultViewportWidth, DefaultViewportHeight)
	}
	a.follower = viewport.NewFollower(vp, a)

	styler := opts.Styler
	if styler == nil {
		a.styles = styling.New(
			styling.WithChangeHook(a.presentationChanged),
			styling.WithLogger(log.Component(a.logger, "styling")),
		)
		styler = a.styles
	}

	a.notifier = opts.Notifier
	if a.notifier == nil {
		a.notifier = notify.New()
	}
	a.cache = completion.NewCache(completion.DefaultCacheExpiration, completion.DefaultCacheCleanup)

	cfg := config.Defaults()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	a.session = config.NewSession(
		config.WithConfig(cfg),
		config.WithStyler(styler),
		config.WithEditingState(a.editing),
		config.WithScroller(a.follower),
		config.WithCompletionCache(a.cache),
		config.WithNotifier(a.notifier),
		config.WithLogger(log.Component(a.logger, "config")),
	)

	a.view = engine.NewView(engine.NewState(append(a.session.StateOptions(), engine.WithDoc(opts.Text))...))
	a.session.AttachEditor(a.view)
	if err := a.session.Sync(); err != nil {
		return nil, &ComponentError{Component: "config", Err: err}
	}
	vp.SetLineWrapping(cfg.LineWrapping)
	vp.SetDocument(a.view.State().Doc())

	a.history = history.New(opts.HistorySize)
	if opts.Text != "" {
		a.editing.MarkActive()
	}

	a.tokenizer = tokenizer.New(cfg.Locale)
	a.notifier.SubscribePath(config.PathLocale, func(c notify.Change) {
		if tag, ok := c.NewValue.(string); ok {
			a.tokenizer.SetLocale(tag)
		}
	})
	a.pointer = pointer.NewHandler(a.view, a.tokenizer,
		pointer.NewClickTracker(pointer.DefaultClickTime, pointer.DefaultClickDistance))

	a.timers = opts.Timers
	if a.timers == nil {
		a.timers = timer.NewReal(a.post)
	}
	provider := opts.Provider
	if provider == nil {
		provider = completion.WordProvider{}
	}
	builder := completion.RequestBuilder{Cache: a.cache, Provider: provider}
	a.caps = opts.Capabilities
	panel := opts.Panel
	if panel != nil && !a.caps.Has(bridge.CapInlineCompletion) {
		a.logger.Info("host has no inline completion, suggestions disabled")
		panel = nil
	}
	a.scheduler = completion.NewScheduler(a.timers, panel,
		completion.WithSuggestWhileTyping(func() bool { return a.session.Config().SuggestWhileTyping }),
		completion.WithRequest(func() completion.Request { return builder.Build(a.view.State()) }),
		completion.WithLogger(log.Component(a.logger, "completion")),
	)

	a.input = input.NewHandler(input.DefaultConfig(), a.view, a.scheduler, log.Component(a.logger, "input"))
	a.input.Hooks().RegisterWithOptions(
		&input.LoggingHook{Logger: log.Component(a.logger, "input")}, "logging", input.HookPriorityLowest)

	if opts.Host != nil {
		a.bridge = bridge.New(opts.Host,
			bridge.WithCapabilities(opts.Capabilities),
			bridge.WithQueueSize(opts.QueueSize),
			bridge.WithLogger(log.Component(a.logger, "bridge")),
		)
	}

	obsOpts := []observer.Option{
		observer.WithSettings(observer.SettingsFunc(func() bool { return a.session.Config().TypewriterMode })),
		observer.WithScroller(a.follower),
		observer.WithActiveLine(a.session),
		observer.WithDirtyChecker(a.history),
		observer.WithLogger(log.Component(a.logger, "observer")),
	}
	if a.bridge != nil {
		obsOpts = append(obsOpts, observer.WithHost(a.bridge))
	}
	a.observer = observer.New(a.editing, a.composition, obsOpts...)

	a.view.SetUpdateListener(a.transactionApplied)

	if opts.ScriptPath != "" {
		if err := a.loadScript(opts.ScriptPath); err != nil {
			return nil, err
		}
	}

	a.logger.Debug("session created",
		zap.Bool("host", a.bridge != nil),
		zap.Stringer("capabilities", opts.Capabilities),
	)
	return a, nil
}

func (a *App) loadScript(path string) error {
	eng := script.New(
		script.WithSetter(a.setFromScript),
		script.WithLogger(log.Component(a.logger, "script")),
	)
	if err := eng.LoadFile(path); err != nil {
		eng.Close()
		return &ComponentError{Component: "script", Err: err}
	}
	a.script = eng
	a.input.Hooks().RegisterWithOptions(eng, "script", input.HookPriorityHigh)
	a.observer.OnNotify(eng.OnUpdate)
	return nil
}

type scriptSetting struct {
	path  string
	value any
}

// setFromScript applies a setting from a script. Inside an on_update
// callback the observer is still running, so the setting is queued and
// its error is logged instead of returned.
func (a *App) setFromScript(path string, value any) error {
	if a.observing {
		a.deferred = append(a.deferred, scriptSetting{path: path, value: value})
		return nil
	}
	return a.session.Apply(map[string]any{path: value}, config.SourceAPI)
}

func (a *App) applyDeferred() {
	for len(a.deferred) > 0 {
		s := a.deferred[0]
		a.deferred = a.deferred[1:]
		if err := a.session.Apply(map[string]any{s.path: s.value}, config.SourceAPI); err != nil {
			a.logger.Warn("script setting rejected", zap.String("path", s.path), zap.Error(err))
		}
	}
}

// transactionApplied runs after every dispatched transaction. Loads and
// reconfigurations are not undoable. Any edit makes cached completion
// candidates stale.
func (a *App) transactionApplied(tr *engine.Transaction) {
	if !tr.IsUserEvent(engine.UserEventReconfigure) {
		a.history.Record(tr)
	}
	if tr.DocChanged() {
		a.cache.InvalidateCache()
	}
	d := a.observe(tr)
	a.metrics.RecordTransaction(d.Notify != nil)
	a.applyDeferred()
}

func (a *App) observe(tr *engine.Transaction) observer.Decision {
	a.observing = true
	defer func() { a.observing = false }()
	return a.observer.Observe(tr)
}

func (a *App) presentationChanged(p styling.Presentation) {
	a.follower.Viewport().SetLineWrapping(p.LineWrapping)
}

// ID returns the session id.
func (a *App) ID() uuid.UUID {
	return a.id
}

// State returns the current editor state.
func (a *App) State() *engine.State {
	return a.view.State()
}

// View returns the editor view.
func (a *App) View() *engine.View {
	return a.view
}

// Session returns the session configuration.
func (a *App) Session() *config.Session {
	return a.session
}

// Editing returns the editing state.
func (a *App) Editing() *editing.State {
	return a.editing
}

// Viewport returns the scroll surface.
func (a *App) Viewport() *viewport.Viewport {
	return a.follower.Viewport()
}

// Capabilities returns the features the host declared.
func (a *App) Capabilities() bridge.Capabilities {
	return a.caps
}

// Scheduler returns the completion scheduler.
func (a *App) Scheduler() *completion.Scheduler {
	return a.scheduler
}

// Bridge returns the host bridge, nil without a host.
func (a *App) Bridge() *bridge.Bridge {
	return a.bridge
}

// Input returns the typed-text handler.
func (a *App) Input() *input.Handler {
	return a.input
}

// Metrics returns the loop metrics.
func (a *App) Metrics() *Metrics {
	return a.metrics
}

// Presentation returns the applied presentation. It is the zero value
// when a custom Styler was given.
func (a *App) Presentation() styling.Presentation {
	if a.styles == nil {
		return styling.Presentation{}
	}
	return a.styles.Current()
}

// OnViewUpdate registers fn to receive every view update synchronously on
// the loop goroutine, in addition to the host.
func (a *App) OnViewUpdate(fn func(bridge.ViewUpdate)) {
	a.observer.OnNotify(fn)
}

// Post queues fn for the event loop. It blocks while the queue is full
// and returns ErrClosed once the app has stopped.
func (a *App) Post(fn func()) error {
	select {
	case <-a.done:
		return ErrClosed
	default:
	}
	select {
	case a.events <- fn:
		return nil
	case <-a.done:
		return ErrClosed
	}
}

// post is the timer delivery path; late posts after shutdown are dropped.
func (a *App) post(fn func()) {
	_ = a.Post(fn)
}

// Run starts the bridge and processes posted events until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if err := a.bridge.Start(); err != nil {
		a.running.Store(false)
		return &ComponentError{Component: "bridge", Err: err}
	}
	a.logger.Info("event loop started")

	for {
		select {
		case <-ctx.Done():
			return a.shutdown()
		case fn := <-a.events:
			a.runEvent(fn)
		}
	}
}

// Running reports whether Run is active.
func (a *App) Running() bool {
	return a.running.Load()
}

func (a *App) runEvent(fn func()) {
	start := time.Now()
	defer func() {
		a.metrics.RecordEvent(time.Since(start))
		if r := recover(); r != nil {
			a.metrics.RecordPanic()
			err := &RecoveredPanicError{Value: r, Stack: string(debug.Stack())}
			a.logger.Error("event panicked", zap.Error(err))
		}
	}()
	fn()
}

// shutdown stops accepting events, flushes the bridge and releases the
// script engine.
func (a *App) shutdown() error {
	a.stopOnce.Do(func() { close(a.done) })
	a.scheduler.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	var err error
	if stopErr := a.bridge.Stop(ctx); stopErr != nil {
		err = &ComponentError{Component: "bridge", Err: fmt.Errorf("stop: %w", stopErr)}
	}
	a.Close()
	a.running.Store(false)
	a.logger.Info("event loop stopped", zap.Uint64("events", a.metrics.Snapshot().EventCount))
	return err
}

// Close releases resources held outside the loop. It is called by Run on
// shutdown; direct users call it when done.
func (a *App) Close() {
	a.stopOnce.Do(func() { close(a.done) })
	if a.script != nil {
		a.script.Close()
	}
}
