// Package tokenizer resolves word tokens at pointer positions for scripts
// that do not separate words with spaces.
//
// A pointer-down on such text does not change the selection
// synchronously: MouseSelectionStyle returns a style that keeps the
// current selection, and the token is selected later by SelectTokenAt
// when the double-click arrives. Text with natural word boundaries gets
// no override and keeps the default pointer behavior.
package tokenizer

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/language"

	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
)

// Script classifies a token's writing system.
type Script uint8

// Scripts.
const (
	ScriptNone Script = iota
	ScriptHan
	ScriptHiragana
	ScriptKatakana
	ScriptThai
	ScriptLao
	ScriptKhmer
	ScriptMyanmar
	// ScriptCommon covers letters shared across scripts, such as the
	// prolonged sound mark. It only counts under a tokenizing locale.
	ScriptCommon
)

var scriptNames = [...]string{"none", "han", "hiragana", "katakana", "thai", "lao", "khmer", "myanmar", "common"}

// String returns the script name.
func (s Script) String() string {
	if int(s) < len(scriptNames) {
		return scriptNames[s]
	}
	return "unknown"
}

var scriptTables = []struct {
	script Script
	table  *unicode.RangeTable
}{
	{ScriptHan, unicode.Han},
	{ScriptHiragana, unicode.Hiragana},
	{ScriptKatakana, unicode.Katakana},
	{ScriptThai, unicode.Thai},
	{ScriptLao, unicode.Lao},
	{ScriptKhmer, unicode.Khmer},
	{ScriptMyanmar, unicode.Myanmar},
}

// tokenizingLocales are the languages written without spaces between
// words.
var tokenizingLocales = map[string]bool{
	"zh": true,
	"ja": true,
	"th": true,
	"lo": true,
	"km": true,
	"my": true,
}

// ScriptOf returns the script class of r.
func ScriptOf(r rune) Script {
	for _, st := range scriptTables {
		if unicode.Is(st.table, r) {
			return st.script
		}
	}
	if r > unicode.MaxLatin1 && unicode.Is(unicode.Common, r) && (unicode.IsLetter(r) || unicode.IsNumber(r)) {
		return ScriptCommon
	}
	return ScriptNone
}

// Token is a resolved token in document coordinates.
type Token struct {
	From   buffer.ByteOffset
	To     buffer.ByteOffset
	Text   string
	Script Script
}

// Tokenizer resolves tokens at document offsets.
type Tokenizer struct {
	localeGate bool
}

// New creates a tokenizer for a BCP 47 locale tag.
func New(locale string) *Tokenizer {
	t := &Tokenizer{}
	t.SetLocale(locale)
	return t
}

// SetLocale updates the locale. Unparseable tags disable the locale gate.
func (t *Tokenizer) SetLocale(locale string) {
	t.localeGate = false
	tag, err := language.Parse(locale)
	if err != nil {
		return
	}
	base, _ := tag.Base()
	t.localeGate = tokenizingLocales[base.String()]
}

// LocaleGate reports whether the locale itself enables tokenization.
func (t *Tokenizer) LocaleGate() bool {
	return t.localeGate
}

func (t *Tokenizer) eligible(s Script) bool {
	switch s {
	case ScriptNone:
		return false
	case ScriptCommon:
		return t.localeGate
	default:
		return true
	}
}

type segment struct {
	from, to int
	script   Script
}

// TokenizePosition returns the token containing offset. It reports false
// when the text at offset has natural word boundaries, is whitespace or
// punctuation, or offset is outside the document.
func (t *Tokenizer) TokenizePosition(doc *buffer.Buffer, offset buffer.ByteOffset) (Token, bool) {
	if offset < 0 || offset > doc.Len() || doc.IsEmpty() {
		return Token{}, false
	}

	line := doc.LineAt(offset)
	lineStart := doc.LineStartOffset(line)
	text := doc.LineText(line)
	col := int(offset - lineStart)

	// A click past the last character of a line points at that character.
	if col >= len(text) {
		if len(text) == 0 {
			return Token{}, false
		}
		_, size := utf8.DecodeLastRuneInString(text)
		col = len(text) - size
	}

	segs := t.segments(text)
	idx := -1
	for i, s := range segs {
		if col >= s.from && col < s.to {
			idx = i
			break
		}
	}
	if idx < 0 || !t.eligible(segs[idx].script) {
		return Token{}, false
	}

	from, to := segs[idx].from, segs[idx].to
	for i := idx - 1; i >= 0 && segs[i].script == segs[idx].script; i-- {
		from = segs[i].from
	}
	for i := idx + 1; i < len(segs) && segs[i].script == segs[idx].script; i++ {
		to = segs[i].to
	}

	return Token{
		From:   lineStart + buffer.ByteOffset(from),
		To:     lineStart + buffer.ByteOffset(to),
		Text:   text[from:to],
		Script: segs[idx].script,
	}, true
}

// segments splits text at word boundaries and classifies each piece by
// the script of its first classified rune.
func (t *Tokenizer) segments(text string) []segment {
	var segs []segment
	state := -1
	pos := 0
	rest := text
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		segs = append(segs, segment{from: pos, to: pos + len(word), script: classify(word)})
		pos += len(word)
	}
	return segs
}

func classify(word string) Script {
	for _, r := range word {
		if s := ScriptOf(r); s != ScriptNone {
			return s
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return ScriptNone
		}
	}
	return ScriptNone
}

// WordAt returns the word-like segment containing offset using plain
// word boundaries. It is the double-click fallback for text without a
// token override.
func WordAt(doc *buffer.Buffer, offset buffer.ByteOffset) (Token, bool) {
	if offset < 0 || offset > doc.Len() || doc.IsEmpty() {
		return Token{}, false
	}
	line := doc.LineAt(offset)
	lineStart := doc.LineStartOffset(line)
	text := doc.LineText(line)
	col := int(offset - lineStart)
	if col >= len(text) {
		if len(text) == 0 {
			return Token{}, false
		}
		_, size := utf8.DecodeLastRuneInString(text)
		col = len(text) - size
	}

	state := -1
	pos := 0
	rest := text
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if col >= pos && col < pos+len(word) {
			r, _ := utf8.DecodeRuneInString(word)
			if !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_' {
				return Token{}, false
			}
			return Token{
				From: lineStart + buffer.ByteOffset(pos),
				To:   lineStart + buffer.ByteOffset(pos+len(word)),
				Text: word,
			}, true
		}
		pos += len(word)
	}
	return Token{}, false
}

// Style is a pointer selection style. Get returns the selection to show
// while the pointer is down; Update reports whether the style changed.
type Style struct {
	selection cursor.Set
}

// Get returns the selection to display. It is always the selection that
// was current when the pointer went down.
func (s Style) Get() cursor.Set {
	return s.selection
}

// Update is a no-op: the style never changes while the pointer is down.
func (s Style) Update(*engine.Transaction) bool {
	return false
}

// MouseSelectionStyle returns the pointer selection override for a
// pointer-down at offset. It reports false when no token applies and
// the default pointer behavior should run.
func (t *Tokenizer) MouseSelectionStyle(state *engine.State, offset buffer.ByteOffset) (Style, bool) {
	if _, ok := t.TokenizePosition(state.Doc(), offset); !ok {
		return Style{}, false
	}
	return Style{selection: state.Selection()}, true
}

// SelectTokenAt returns a selection covering the token at offset, for the
// double-click that completes an overridden pointer-down.
func (t *Tokenizer) SelectTokenAt(state *engine.State, offset buffer.ByteOffset) (cursor.Set, bool) {
	tok, ok := t.TokenizePosition(state.Doc(), offset)
	if !ok {
		return cursor.Set{}, false
	}
	return cursor.Single(tok.From, tok.To), true
}
