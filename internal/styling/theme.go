package styling

import (
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Theme is a named color palette.
type Theme struct {
	Name       string
	Background colorful.Color
	Foreground colorful.Color
	Accent     colorful.Color
}

// ActiveLine returns the background of the active line: the background
// nudged toward the foreground.
func (t Theme) ActiveLine() colorful.Color {
	return t.Background.BlendLab(t.Foreground, 0.08).Clamped()
}

// Selection returns the selection background.
func (t Theme) Selection() colorful.Color {
	return t.Background.BlendLab(t.Accent, 0.35).Clamped()
}

// IsDark reports whether the theme has a dark background.
func (t Theme) IsDark() bool {
	l, _, _ := t.Background.Lab()
	return l < 0.5
}

// ParseTheme builds a theme from hex colors.
func ParseTheme(name, background, foreground, accent string) (Theme, error) {
	bg, err := colorful.Hex(background)
	if err != nil {
		return Theme{}, fmt.Errorf("theme %s background: %w", name, err)
	}
	fg, err := colorful.Hex(foreground)
	if err != nil {
		return Theme{}, fmt.Errorf("theme %s foreground: %w", name, err)
	}
	ac, err := colorful.Hex(accent)
	if err != nil {
		return Theme{}, fmt.Errorf("theme %s accent: %w", name, err)
	}
	return Theme{Name: name, Background: bg, Foreground: fg, Accent: ac}, nil
}

func mustTheme(name, background, foreground, accent string) Theme {
	t, err := ParseTheme(name, background, foreground, accent)
	if err != nil {
		panic(err)
	}
	return t
}

// Registry holds the known themes.
type Registry struct {
	themes map[string]Theme
}

// NewRegistry creates a registry seeded with the built-in themes.
func NewRegistry() *Registry {
	r := &Registry{themes: make(map[string]Theme)}
	for _, t := range builtinThemes() {
		r.themes[t.Name] = t
	}
	return r
}

func builtinThemes() []Theme {
	return []Theme{
		mustTheme("github-light", "#ffffff", "#24292f", "#0969da"),
		mustTheme("github-dark", "#0d1117", "#c9d1d9", "#58a6ff"),
		mustTheme("solarized-light", "#fdf6e3", "#657b83", "#268bd2"),
		mustTheme("solarized-dark", "#002b36", "#839496", "#268bd2"),
		mustTheme("xcode-light", "#ffffff", "#000000", "#0e0eff"),
		mustTheme("xcode-dark", "#1f1f24", "#ffffff", "#4eb0cc"),
	}
}

// Register adds or replaces a theme.
func (r *Registry) Register(t Theme) {
	r.themes[t.Name] = t
}

// Lookup returns the theme with name.
func (r *Registry) Lookup(name string) (Theme, bool) {
	t, ok := r.themes[name]
	return t, ok
}

// Names returns the registered theme names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.themes))
	for name := range r.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
