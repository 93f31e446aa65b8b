package config

import (
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/dshills/marksync/internal/config/notify"
	"github.com/dshills/marksync/internal/editing"
	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/styling"
)

// Change sources.
const (
	SourceAPI  = "api"
	SourceFile = "file"
	SourceEnv  = "env"
	SourceCLI  = "cli"
)

// Editor is the editing surface the session reconfigures.
// *engine.View implements it.
type Editor interface {
	State() *engine.State
	Dispatch(spec engine.TransactionSpec) (*engine.Transaction, error)
	Focus()
	Blur()
	RefreshEditFocus()
}

// Scroller centers the viewport on the main selection.
type Scroller interface {
	CenterSelection()
}

// CacheInvalidator drops cached completion results.
type CacheInvalidator interface {
	InvalidateCache()
}

// Session owns the configuration of one editing session.
// Setters must be called from the event loop goroutine.
type Session struct {
	cfg Config

	styler   styling.Styler
	editing  *editing.State
	editor   Editor
	scroller Scroller
	cache    CacheInvalidator
	notifier *notify.Notifier
	logger   *zap.Logger

	readOnly   *engine.Compartment
	indentUnit *engine.Compartment

	source string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithConfig sets the initial values. They are not validated and no side
// effects run; call Sync to push them to the collaborators.
func WithConfig(cfg Config) SessionOption {
	return func(s *Session) {
		s.cfg = cfg
	}
}

// WithStyler sets the presentation collaborator.
func WithStyler(st styling.Styler) SessionOption {
	return func(s *Session) {
		s.styler = st
	}
}

// WithEditingState sets the editing state read by selection-aware setters.
func WithEditingState(st *editing.State) SessionOption {
	return func(s *Session) {
		s.editing = st
	}
}

// WithScroller sets the viewport collaborator.
func WithScroller(sc Scroller) SessionOption {
	return func(s *Session) {
		s.scroller = sc
	}
}

// WithCompletionCache sets the completion cache to invalidate.
func WithCompletionCache(c CacheInvalidator) SessionOption {
	return func(s *Session) {
		s.cache = c
	}
}

// WithNotifier sets the change notifier.
func WithNotifier(n *notify.Notifier) SessionOption {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession creates a session with Defaults unless WithConfig is given.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		cfg:        Defaults(),
		editing:    editing.New(),
		logger:     zap.NewNop(),
		readOnly:   engine.NewCompartment("readOnly"),
		indentUnit: engine.NewCompartment("indentUnit"),
		source:     SourceAPI,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns a copy of the current values.
func (s *Session) Config() Config {
	return s.cfg
}

// AttachEditor connects the editing surface. Before an editor is
// attached, editor side effects are skipped.
func (s *Session) AttachEditor(e Editor) {
	s.editor = e
}

// StateOptions returns the compartments holding the read-only and indent
// settings, for building the initial editor state.
func (s *Session) StateOptions() []engine.Option {
	return []engine.Option{
		engine.WithCompartment(s.readOnly, engine.ReadOnly(s.cfg.ReadOnlyMode)),
		engine.WithCompartment(s.indentUnit, engine.IndentUnit(s.cfg.IndentUnit)),
	}
}

// Sync pushes every presentation value to the styler. It is used once at
// startup after WithConfig.
func (s *Session) Sync() error {
	if s.styler == nil {
		return nil
	}
	if err := s.styler.SetTheme(s.cfg.Theme); err != nil {
		return fromStyling(PathTheme, s.cfg.Theme, err)
	}
	if err := s.styler.SetFontFace(s.cfg.FontFace); err != nil {
		return fromStyling(PathFontFace, s.cfg.FontFace, err)
	}
	if err := s.styler.SetFontSize(s.cfg.FontSize); err != nil {
		return fromStyling(PathFontSize, s.cfg.FontSize, err)
	}
	if err := s.styler.SetLineHeight(s.cfg.LineHeight); err != nil {
		return fromStyling(PathLineHeight, s.cfg.LineHeight, err)
	}
	if err := s.styler.SetInvisiblesBehavior(s.cfg.InvisiblesBehavior); err != nil {
		return fromStyling(PathInvisiblesBehavior, s.cfg.InvisiblesBehavior, err)
	}
	s.styler.SetShowLineNumbers(s.cfg.ShowLineNumbers)
	s.styler.SetLineWrapping(s.cfg.LineWrapping)
	s.styler.SetFocusMode(s.cfg.FocusMode)
	s.pushActiveLineIndicator()
	return nil
}

func (s *Session) publish(path string, oldValue, newValue any) {
	s.logger.Debug("setting changed",
		zap.String("path", path),
		zap.Any("old", oldValue),
		zap.Any("new", newValue),
		zap.String("source", s.source))
	if s.notifier != nil {
		s.notifier.NotifySet(path, oldValue, newValue, s.source)
	}
}

func (s *Session) hasSelection() bool {
	return s.editing != nil && s.editing.HasSelection
}

func (s *Session) pushActiveLineIndicator() {
	if s.styler != nil {
		s.styler.SetShowActiveLineIndicator(s.cfg.ShowActiveLineIndicator && !s.hasSelection())
	}
}

// RefreshActiveLineIndicator re-pushes the active line indicator for the
// current selection state.
func (s *Session) RefreshActiveLineIndicator() {
	s.pushActiveLineIndicator()
}

// SetTheme applies a theme by name.
func (s *Session) SetTheme(name string) error {
	if s.styler != nil {
		if err := s.styler.SetTheme(name); err != nil {
			return fromStyling(PathTheme, name, err)
		}
	}
	old := s.cfg.Theme
	s.cfg.Theme = name
	s.publish(PathTheme, old, name)
	return nil
}

// SetFontFace applies the editor font.
func (s *Session) SetFontFace(face FontFace) error {
	if face.Family == "" {
		return invalid(PathFontFace, face)
	}
	if s.styler != nil {
		if err := s.styler.SetFontFace(face); err != nil {
			return fromStyling(PathFontFace, face, err)
		}
	}
	old := s.cfg.FontFace
	s.cfg.FontFace = face
	s.publish(PathFontFace, old, face)
	return nil
}

// SetFontSize applies the font size in points.
func (s *Session) SetFontSize(size float64) error {
	if size <= 0 {
		return invalid(PathFontSize, size)
	}
	if s.styler != nil {
		if err := s.styler.SetFontSize(size); err != nil {
			return fromStyling(PathFontSize, size, err)
		}
	}
	old := s.cfg.FontSize
	s.cfg.FontSize = size
	s.publish(PathFontSize, old, size)
	return nil
}

// SetLineHeight applies the line height multiplier.
func (s *Session) SetLineHeight(height float64) error {
	if height <= 0 {
		return invalid(PathLineHeight, height)
	}
	if s.styler != nil {
		if err := s.styler.SetLineHeight(height); err != nil {
			return fromStyling(PathLineHeight, height, err)
		}
	}
	old := s.cfg.LineHeight
	s.cfg.LineHeight = height
	s.publish(PathLineHeight, old, height)
	return nil
}

// SetShowLineNumbers toggles the gutter.
func (s *Session) SetShowLineNumbers(enabled bool) {
	old := s.cfg.ShowLineNumbers
	s.cfg.ShowLineNumbers = enabled
	if s.styler != nil {
		s.styler.SetShowLineNumbers(enabled)
	}
	s.publish(PathShowLineNumbers, old, enabled)
}

// SetShowActiveLineIndicator toggles the active line highlight. The
// highlight stays hidden while text is selected.
func (s *Session) SetShowActiveLineIndicator(enabled bool) {
	old := s.cfg.ShowActiveLineIndicator
	s.cfg.ShowActiveLineIndicator = enabled
	s.pushActiveLineIndicator()
	s.publish(PathShowActiveLineIndicator, old, enabled)
}

// SetInvisiblesBehavior applies the whitespace rendering mode. When
// refreshSelection is set and the mode is InvisiblesSelection, the current
// selection is dispatched again so its whitespace is redrawn.
func (s *Session) SetInvisiblesBehavior(behavior InvisiblesBehavior, refreshSelection bool) error {
	if !behavior.Valid() {
		return unsupported(PathInvisiblesBehavior, behavior)
	}
	if s.styler != nil {
		if err := s.styler.SetInvisiblesBehavior(behavior); err != nil {
			return fromStyling(PathInvisiblesBehavior, behavior, err)
		}
	}
	old := s.cfg.InvisiblesBehavior
	s.cfg.InvisiblesBehavior = behavior

	if refreshSelection && behavior == InvisiblesSelection && s.editor != nil {
		sel := s.editor.State().Selection()
		if _, err := s.editor.Dispatch(engine.TransactionSpec{
			Selection: engine.SelectionSpec(sel),
			UserEvent: engine.UserEventSelect,
		}); err != nil {
			s.logger.Warn("refresh selection failed", zap.Error(err))
		}
	}
	s.publish(PathInvisiblesBehavior, old, behavior)
	return nil
}

// SetReadOnlyMode toggles editability. Enabling it removes focus from the
// editing surface; disabling it gives focus back.
func (s *Session) SetReadOnlyMode(enabled bool) {
	old := s.cfg.ReadOnlyMode
	s.cfg.ReadOnlyMode = enabled

	if s.editor != nil {
		if _, err := s.editor.Dispatch(engine.TransactionSpec{
			Effects:   []engine.Effect{s.readOnly.Reconfigure(engine.ReadOnly(enabled))},
			UserEvent: engine.UserEventReconfigure,
		}); err != nil {
			s.logger.Warn("reconfigure read-only failed", zap.Error(err))
		}
		s.editor.RefreshEditFocus()
		if enabled {
			s.editor.Blur()
		} else {
			s.editor.Focus()
		}
	}
	s.publish(PathReadOnlyMode, old, enabled)
}

// SetTypewriterMode toggles typewriter scrolling. Enabling it centers the
// selection immediately.
func (s *Session) SetTypewriterMode(enabled bool) {
	old := s.cfg.TypewriterMode
	s.cfg.TypewriterMode = enabled
	if enabled && s.scroller != nil {
		s.scroller.CenterSelection()
	}
	s.publish(PathTypewriterMode, old, enabled)
}

// SetFocusMode toggles dimming of inactive lines.
func (s *Session) SetFocusMode(enabled bool) {
	old := s.cfg.FocusMode
	s.cfg.FocusMode = enabled
	if s.styler != nil {
		s.styler.SetFocusMode(enabled)
	}
	s.publish(PathFocusMode, old, enabled)
}

// SetLineWrapping toggles soft wrapping.
func (s *Session) SetLineWrapping(enabled bool) {
	old := s.cfg.LineWrapping
	s.cfg.LineWrapping = enabled
	if s.styler != nil {
		s.styler.SetLineWrapping(enabled)
	}
	s.publish(PathLineWrapping, old, enabled)
}

// SetDefaultLineBreak sets the terminator used for new lines.
func (s *Session) SetDefaultLineBreak(lb LineBreak) error {
	// Names like "crlf" are stored as the terminator itself.
	parsed, ok := ParseLineBreak(string(lb))
	if !ok {
		return unsupported(PathDefaultLineBreak, lb)
	}
	old := s.cfg.DefaultLineBreak
	s.cfg.DefaultLineBreak = parsed
	s.publish(PathDefaultLineBreak, old, parsed)
	return nil
}

// SetIndentUnit sets the indentation text. The indent compartment is
// reconfigured only when an editor is attached.
func (s *Session) SetIndentUnit(unit string) error {
	if !ValidIndentUnit(unit) {
		return invalid(PathIndentUnit, unit)
	}
	old := s.cfg.IndentUnit
	s.cfg.IndentUnit = unit

	if s.editor != nil {
		if _, err := s.editor.Dispatch(engine.TransactionSpec{
			Effects:   []engine.Effect{s.indentUnit.Reconfigure(engine.IndentUnit(unit))},
			UserEvent: engine.UserEventReconfigure,
		}); err != nil {
			s.logger.Warn("reconfigure indent unit failed", zap.Error(err))
		}
	}
	s.publish(PathIndentUnit, old, unit)
	return nil
}

// SetTabKeyBehavior sets what the Tab key inserts.
func (s *Session) SetTabKeyBehavior(b TabKeyBehavior) error {
	if !b.Valid() {
		return unsupported(PathTabKeyBehavior, b)
	}
	old := s.cfg.TabKeyBehavior
	s.cfg.TabKeyBehavior = b
	s.publish(PathTabKeyBehavior, old, b)
	return nil
}

// SetSuggestWhileTyping toggles completion while typing. Cached completion
// results are dropped; pending requests are left alone.
func (s *Session) SetSuggestWhileTyping(enabled bool) {
	old := s.cfg.SuggestWhileTyping
	s.cfg.SuggestWhileTyping = enabled
	if s.cache != nil {
		s.cache.InvalidateCache()
	}
	s.publish(PathSuggestWhileTyping, old, enabled)
}

// SetLocale sets the BCP 47 locale used for word tokenization.
func (s *Session) SetLocale(tag string) error {
	t, err := language.Parse(tag)
	if err != nil {
		return &Error{Path: PathLocale, Value: tag, Err: ErrInvalidValue, Cause: err}
	}
	old := s.cfg.Locale
	s.cfg.Locale = t.String()
	s.publish(PathLocale, old, s.cfg.Locale)
	return nil
}
