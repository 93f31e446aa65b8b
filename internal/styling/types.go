package styling

import "strings"

// InvisiblesBehavior controls when whitespace characters are drawn.
type InvisiblesBehavior string

// Invisibles behaviors.
const (
	InvisiblesNever     InvisiblesBehavior = "never"
	InvisiblesSelection InvisiblesBehavior = "selection"
	InvisiblesTrailing  InvisiblesBehavior = "trailing"
	InvisiblesAlways    InvisiblesBehavior = "always"
)

// Valid reports whether b is a known behavior.
func (b InvisiblesBehavior) Valid() bool {
	switch b {
	case InvisiblesNever, InvisiblesSelection, InvisiblesTrailing, InvisiblesAlways:
		return true
	}
	return false
}

// FontFace describes the editor font.
type FontFace struct {
	Family string `toml:"family" yaml:"family" json:"family"`
	Weight string `toml:"weight,omitempty" yaml:"weight,omitempty" json:"weight,omitempty"`
	Style  string `toml:"style,omitempty" yaml:"style,omitempty" json:"style,omitempty"`
}

// String returns the CSS-like shorthand of the face.
func (f FontFace) String() string {
	parts := make([]string, 0, 3)
	if f.Style != "" {
		parts = append(parts, f.Style)
	}
	if f.Weight != "" {
		parts = append(parts, f.Weight)
	}
	parts = append(parts, f.Family)
	return strings.Join(parts, " ")
}

// DefaultFontFace is the monospace system font.
var DefaultFontFace = FontFace{Family: "monospace"}
