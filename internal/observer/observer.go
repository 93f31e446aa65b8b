// Package observer reacts to every editor transaction.
//
// Reconcile is a pure function from a transaction and the current editing
// environment to a Decision. The Observer runs it, records the new
// selection state and executes the decision in order: scroll, active
// line indicator, host notification.
package observer

import (
	"go.uber.org/zap"

	"github.com/dshills/marksync/internal/bridge"
	"github.com/dshills/marksync/internal/editing"
	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/history"
)

// ScrollAction is how the viewport follows the caret.
type ScrollAction uint8

// Scroll actions.
const (
	ScrollNone ScrollAction = iota
	ScrollReveal
	ScrollCenter
)

// String returns the action name.
func (a ScrollAction) String() string {
	switch a {
	case ScrollReveal:
		return "reveal"
	case ScrollCenter:
		return "center"
	default:
		return "none"
	}
}

// Env is the state Reconcile reads besides the transaction.
type Env struct {
	Editing    editing.State
	Typewriter bool
	Dirty      bool
}

// Decision is what to do in response to a transaction.
type Decision struct {
	Skip   bool
	Scroll ScrollAction
	// HasSelection is the selection state to record, nil when the
	// transaction touched neither document nor selection.
	HasSelection *bool
	// ActiveLine is the has-selection value to push to the active line
	// indicator, nil for no update.
	ActiveLine *bool
	Notify     *bridge.ViewUpdate
}

// Reconcile decides how to react to tr.
func Reconcile(tr *engine.Transaction, env Env) Decision {
	state := tr.State
	if env.Editing.IsIdle && state.Doc().IsEmpty() {
		return Decision{Skip: true}
	}

	var d Decision
	if tr.DocChanged() {
		if env.Typewriter {
			d.Scroll = ScrollCenter
		} else {
			d.Scroll = ScrollReveal
		}
	}

	// Replacing or cutting a selection does not set the selection
	// explicitly, so document changes count too.
	if !tr.SelectionSet() && !tr.DocChanged() {
		return d
	}

	has := editing.HasSelection(state.Selection())
	d.HasSelection = &has
	if env.Editing.CompositionEnded && has != env.Editing.HasSelection {
		d.ActiveLine = &has
	}

	pos, length := bridge.SelectedLineColumn(state)
	d.Notify = &bridge.ViewUpdate{
		ContentEdited:      tr.DocChanged(),
		CompositionEnded:   env.Editing.CompositionEnded,
		IsDirty:            env.Dirty,
		SelectedLineColumn: pos,
		SelectionLength:    length,
	}
	return d
}

// Settings reports the typewriter mode.
type Settings interface {
	TypewriterMode() bool
}

// SettingsFunc adapts a function to Settings.
type SettingsFunc func() bool

// TypewriterMode calls f.
func (f SettingsFunc) TypewriterMode() bool { return f() }

// Scroller moves the viewport to the main caret.
type Scroller interface {
	CenterSelection()
	RevealSelection()
}

// ActiveLine re-pushes the active line indicator for the recorded
// selection state.
type ActiveLine interface {
	RefreshActiveLineIndicator()
}

// Host receives view updates.
type Host interface {
	NotifyViewDidUpdate(update bridge.ViewUpdate)
}

// Observer executes decisions for each transaction. It must be used from
// the event loop goroutine.
type Observer struct {
	editing    *editing.State
	tracker    *editing.Tracker
	settings   Settings
	scroller   Scroller
	activeLine ActiveLine
	dirty      history.DirtyChecker
	host       Host
	listeners  []func(bridge.ViewUpdate)
	logger     *zap.Logger

	// stale is set when the selection state changed during a composition
	// and the active line indicator still shows the old one.
	stale bool
}

// Option configures an Observer.
type Option func(*Observer)

// WithSettings sets the typewriter mode source.
func WithSettings(s Settings) Option {
	return func(o *Observer) { o.settings = s }
}

// WithScroller sets the scroll target.
func WithScroller(s Scroller) Option {
	return func(o *Observer) { o.scroller = s }
}

// WithActiveLine sets the active line indicator.
func WithActiveLine(a ActiveLine) Option {
	return func(o *Observer) { o.activeLine = a }
}

// WithDirtyChecker sets the dirty state source.
func WithDirtyChecker(d history.DirtyChecker) Option {
	return func(o *Observer) { o.dirty = d }
}

// WithHost sets the notification target.
func WithHost(h Host) Option {
	return func(o *Observer) { o.host = h }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Observer) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an observer over the session editing state. If comp is not
// nil the observer catches up on active line updates deferred during a
// composition.
func New(state *editing.State, comp *editing.Composition, opts ...Option) *Observer {
	o := &Observer{
		editing: state,
		tracker: editing.NewTracker(state),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if comp != nil {
		comp.OnEnd(o.compositionEnded)
	}
	return o
}

// OnNotify registers fn to see every view update sent to the host.
func (o *Observer) OnNotify(fn func(bridge.ViewUpdate)) {
	o.listeners = append(o.listeners, fn)
}

// Observe reacts to tr and returns the executed decision.
func (o *Observer) Observe(tr *engine.Transaction) Decision {
	env := Env{Editing: *o.editing}
	if o.settings != nil {
		env.Typewriter = o.settings.TypewriterMode()
	}
	if o.dirty != nil {
		env.Dirty = o.dirty.IsContentDirty()
	}

	d := Reconcile(tr, env)
	if d.Skip {
		return d
	}

	if d.HasSelection != nil {
		_, changed := o.tracker.Track(tr.State.Selection())
		// Two flips during one composition cancel out.
		if changed && !env.Editing.CompositionEnded {
			o.stale = !o.stale
		}
	}

	switch d.Scroll {
	case ScrollCenter:
		if o.scroller != nil {
			o.scroller.CenterSelection()
		}
	case ScrollReveal:
		if o.scroller != nil {
			o.scroller.RevealSelection()
		}
	}

	if d.ActiveLine != nil {
		o.pushActiveLine()
	}

	if d.Notify != nil {
		if o.host != nil {
			o.host.NotifyViewDidUpdate(*d.Notify)
		}
		for _, fn := range o.listeners {
			fn(*d.Notify)
		}
	}

	o.logger.Debug("transaction observed",
		zap.String("userEvent", tr.UserEvent),
		zap.Bool("docChanged", tr.DocChanged()),
		zap.Stringer("scroll", d.Scroll),
		zap.Bool("activeLine", d.ActiveLine != nil),
	)
	return d
}

// Stale reports whether an active line update is waiting for the current
// composition to end.
func (o *Observer) Stale() bool {
	return o.stale
}

func (o *Observer) compositionEnded() {
	if !o.stale {
		return
	}
	o.logger.Debug("active line catch-up after composition")
	o.pushActiveLine()
}

func (o *Observer) pushActiveLine() {
	o.stale = false
	if o.activeLine != nil {
		o.activeLine.RefreshActiveLineIndicator()
	}
}
