// Package styling implements the presentation collaborator driven by the
// session configuration setters.
//
// Styles validates every value it receives and rejects unsupported ones
// with a *Error; nothing is applied on failure.
package styling

import (
	"go.uber.org/zap"
)

// Styler receives presentation updates.
type Styler interface {
	SetTheme(name string) error
	SetFontFace(face FontFace) error
	SetFontSize(size float64) error
	SetShowLineNumbers(enabled bool)
	SetLineWrapping(enabled bool)
	SetLineHeight(height float64) error
	SetFocusMode(enabled bool)
	SetInvisiblesBehavior(behavior InvisiblesBehavior) error
	SetShowActiveLineIndicator(enabled bool)
}

// Presentation is the applied presentation state.
type Presentation struct {
	Theme               Theme
	FontFace            FontFace
	FontSize            float64
	LineHeight          float64
	ShowLineNumbers     bool
	LineWrapping        bool
	FocusMode           bool
	Invisibles          InvisiblesBehavior
	ActiveLineIndicator bool
}

// Limits for numeric values.
const (
	MinFontSize   = 6
	MaxFontSize   = 96
	MinLineHeight = 1.0
	MaxLineHeight = 3.0
)

// ChangeHook is called after a presentation value has been applied.
type ChangeHook func(p Presentation)

// Styles is the in-process Styler used by the terminal host and tests.
// It is not safe for concurrent use.
type Styles struct {
	themes  *Registry
	current Presentation
	hook    ChangeHook
	logger  *zap.Logger
}

// Option configures Styles.
type Option func(*Styles)

// WithRegistry sets the theme registry.
func WithRegistry(r *Registry) Option {
	return func(s *Styles) {
		s.themes = r
	}
}

// WithChangeHook sets a hook run after each applied change.
func WithChangeHook(fn ChangeHook) Option {
	return func(s *Styles) {
		s.hook = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Styles) {
		s.logger = l
	}
}

// New creates Styles with the default presentation.
func New(opts ...Option) *Styles {
	s := &Styles{
		themes: NewRegistry(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	light, _ := s.themes.Lookup("github-light")
	s.current = Presentation{
		Theme:      light,
		FontFace:   DefaultFontFace,
		FontSize:   14,
		LineHeight: 1.4,
		Invisibles: InvisiblesNever,
	}
	return s
}

// Current returns the applied presentation.
func (s *Styles) Current() Presentation {
	return s.current
}

// Themes returns the theme registry.
func (s *Styles) Themes() *Registry {
	return s.themes
}

func (s *Styles) changed(op string, field zap.Field) {
	s.logger.Debug("styling applied", zap.String("op", op), field)
	if s.hook != nil {
		s.hook(s.current)
	}
}

// SetTheme applies a registered theme.
func (s *Styles) SetTheme(name string) error {
	t, ok := s.themes.Lookup(name)
	if !ok {
		return newError("SetTheme", name, ErrUnknownTheme)
	}
	s.current.Theme = t
	s.changed("SetTheme", zap.String("theme", name))
	return nil
}

// SetFontFace applies a font face. The family must be non-empty.
func (s *Styles) SetFontFace(face FontFace) error {
	if face.Family == "" {
		return newError("SetFontFace", face, ErrInvalidValue)
	}
	s.current.FontFace = face
	s.changed("SetFontFace", zap.Stringer("face", face))
	return nil
}

// SetFontSize applies a font size in points.
func (s *Styles) SetFontSize(size float64) error {
	if size < MinFontSize || size > MaxFontSize {
		return newError("SetFontSize", size, ErrInvalidValue)
	}
	s.current.FontSize = size
	s.changed("SetFontSize", zap.Float64("size", size))
	return nil
}

// SetShowLineNumbers toggles the gutter.
func (s *Styles) SetShowLineNumbers(enabled bool) {
	s.current.ShowLineNumbers = enabled
	s.changed("SetShowLineNumbers", zap.Bool("enabled", enabled))
}

// SetLineWrapping toggles soft wrapping.
func (s *Styles) SetLineWrapping(enabled bool) {
	s.current.LineWrapping = enabled
	s.changed("SetLineWrapping", zap.Bool("enabled", enabled))
}

// SetLineHeight applies a line height multiplier.
func (s *Styles) SetLineHeight(height float64) error {
	if height < MinLineHeight || height > MaxLineHeight {
		return newError("SetLineHeight", height, ErrInvalidValue)
	}
	s.current.LineHeight = height
	s.changed("SetLineHeight", zap.Float64("height", height))
	return nil
}

// SetFocusMode toggles dimming of inactive lines.
func (s *Styles) SetFocusMode(enabled bool) {
	s.current.FocusMode = enabled
	s.changed("SetFocusMode", zap.Bool("enabled", enabled))
}

// SetInvisiblesBehavior applies the whitespace rendering mode.
func (s *Styles) SetInvisiblesBehavior(behavior InvisiblesBehavior) error {
	if !behavior.Valid() {
		return newError("SetInvisiblesBehavior", behavior, ErrUnsupported)
	}
	s.current.Invisibles = behavior
	s.changed("SetInvisiblesBehavior", zap.String("behavior", string(behavior)))
	return nil
}

// SetShowActiveLineIndicator toggles the active line highlight.
func (s *Styles) SetShowActiveLineIndicator(enabled bool) {
	s.current.ActiveLineIndicator = enabled
	s.changed("SetShowActiveLineIndicator", zap.Bool("enabled", enabled))
}
