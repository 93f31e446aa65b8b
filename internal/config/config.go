package config

import (
	"strings"

	"github.com/dshills/marksync/internal/styling"
)

// Setting paths.
const (
	PathTheme                   = "appearance.theme"
	PathFontFace                = "appearance.fontFace"
	PathFontSize                = "appearance.fontSize"
	PathLineHeight              = "appearance.lineHeight"
	PathShowLineNumbers         = "appearance.showLineNumbers"
	PathShowActiveLineIndicator = "appearance.showActiveLineIndicator"
	PathInvisiblesBehavior      = "editor.invisiblesBehavior"
	PathReadOnlyMode            = "editor.readOnlyMode"
	PathTypewriterMode          = "editor.typewriterMode"
	PathFocusMode               = "editor.focusMode"
	PathLineWrapping            = "editor.lineWrapping"
	PathDefaultLineBreak        = "editor.defaultLineBreak"
	PathIndentUnit              = "editor.indentUnit"
	PathTabKeyBehavior          = "editor.tabKeyBehavior"
	PathSuggestWhileTyping      = "editor.suggestWhileTyping"
	PathLocale                  = "editor.locale"
)

// InvisiblesBehavior controls when whitespace characters are drawn.
type InvisiblesBehavior = styling.InvisiblesBehavior

// Invisibles behaviors.
const (
	InvisiblesNever     = styling.InvisiblesNever
	InvisiblesSelection = styling.InvisiblesSelection
	InvisiblesTrailing  = styling.InvisiblesTrailing
	InvisiblesAlways    = styling.InvisiblesAlways
)

// FontFace describes the editor font.
type FontFace = styling.FontFace

// TabKeyBehavior controls what the Tab key inserts.
type TabKeyBehavior string

// Tab key behaviors.
const (
	TabInsertIndent     TabKeyBehavior = "insertIndent"
	TabInsertTab        TabKeyBehavior = "insertTab"
	TabInsertTwoSpaces  TabKeyBehavior = "insertTwoSpaces"
	TabInsertFourSpaces TabKeyBehavior = "insertFourSpaces"
)

// Valid reports whether b is a known behavior.
func (b TabKeyBehavior) Valid() bool {
	switch b {
	case TabInsertIndent, TabInsertTab, TabInsertTwoSpaces, TabInsertFourSpaces:
		return true
	}
	return false
}

// Text returns the text inserted by the Tab key given the indent unit.
func (b TabKeyBehavior) Text(indentUnit string) string {
	switch b {
	case TabInsertTab:
		return "\t"
	case TabInsertTwoSpaces:
		return "  "
	case TabInsertFourSpaces:
		return "    "
	default:
		return indentUnit
	}
}

// LineBreak is the line terminator used for new lines. The empty value
// means "detect from the document".
type LineBreak string

// Line breaks.
const (
	LineBreakAuto LineBreak = ""
	LineBreakLF   LineBreak = "\n"
	LineBreakCRLF LineBreak = "\r\n"
	LineBreakCR   LineBreak = "\r"
)

// ParseLineBreak accepts a terminator or one of its names (lf, crlf, cr).
func ParseLineBreak(s string) (LineBreak, bool) {
	switch strings.ToLower(s) {
	case "", "auto":
		return LineBreakAuto, true
	case "\n", "lf":
		return LineBreakLF, true
	case "\r\n", "crlf":
		return LineBreakCRLF, true
	case "\r", "cr":
		return LineBreakCR, true
	}
	return "", false
}

// Name returns the short name of the line break.
func (lb LineBreak) Name() string {
	switch lb {
	case LineBreakLF:
		return "lf"
	case LineBreakCRLF:
		return "crlf"
	case LineBreakCR:
		return "cr"
	default:
		return "auto"
	}
}

// Config holds the session configuration values.
type Config struct {
	Theme                   string
	FontFace                FontFace
	FontSize                float64
	LineHeight              float64
	ShowLineNumbers         bool
	ShowActiveLineIndicator bool
	InvisiblesBehavior      InvisiblesBehavior
	ReadOnlyMode            bool
	TypewriterMode          bool
	FocusMode               bool
	LineWrapping            bool
	DefaultLineBreak        LineBreak
	IndentUnit              string
	TabKeyBehavior          TabKeyBehavior
	SuggestWhileTyping      bool
	Locale                  string
}

// Defaults returns the startup configuration.
func Defaults() Config {
	return Config{
		Theme:                   "github-light",
		FontFace:                styling.DefaultFontFace,
		FontSize:                14,
		LineHeight:              1.4,
		ShowLineNumbers:         true,
		ShowActiveLineIndicator: true,
		InvisiblesBehavior:      InvisiblesNever,
		LineWrapping:            true,
		DefaultLineBreak:        LineBreakAuto,
		IndentUnit:              "  ",
		TabKeyBehavior:          TabInsertIndent,
		SuggestWhileTyping:      false,
		Locale:                  "en",
	}
}

// ValidIndentUnit reports whether unit is one to eight spaces or a single
// tab.
func ValidIndentUnit(unit string) bool {
	if unit == "\t" {
		return true
	}
	if unit == "" || len(unit) > 8 {
		return false
	}
	return strings.Trim(unit, " ") == ""
}
