// Package renderer paints the editor state onto a terminal backend.
//
// A Renderer draws one Frame at a time: the visible document lines with
// the selection, active line and invisibles, an optional line-number
// gutter, the completion panel and a status line. It remembers the layout
// of the last frame so pointer positions can be mapped back to document
// offsets.
package renderer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
	"github.com/dshills/marksync/internal/renderer/backend"
	"github.com/dshills/marksync/internal/renderer/viewport"
	"github.com/dshills/marksync/internal/styling"
)

// Frame is everything drawn in one pass.
type Frame struct {
	State        *engine.State
	Presentation styling.Presentation
	Viewport     *viewport.Viewport
	Status       string
	// Panel lists completion candidates; nil hides the panel.
	Panel *Panel
}

// Panel is the completion panel contents.
type Panel struct {
	Items    []string
	Selected int
}

// MaxPanelItems caps the rows drawn for the completion panel.
const MaxPanelItems = 8

// row is one painted screen row of document text.
type row struct {
	line  uint32
	start buffer.ByteOffset // offset of the first byte drawn
	end   buffer.ByteOffset
}

// Renderer draws frames on a backend. It is not safe for concurrent use.
type Renderer struct {
	backend backend.Backend
	rows    []row
	gutter  int
	caretX  int
	caretY  int
}

// New creates a renderer drawing on b.
func New(b backend.Backend) *Renderer {
	return &Renderer{backend: b}
}

// TextArea returns the width and height available for document text on a
// screen of the given size.
func TextArea(width, height int, lineCount uint32, showLineNumbers bool) (int, int) {
	w := width - gutterWidth(lineCount, showLineNumbers)
	return max(w, 1), max(height-1, 1)
}

func gutterWidth(lineCount uint32, show bool) int {
	if !show {
		return 0
	}
	return len(fmt.Sprint(lineCount)) + 1
}

// Render draws f and positions the cursor on the main caret.
func (r *Renderer) Render(f Frame) {
	b := r.backend
	width, height := b.Size()
	b.Clear()

	state := f.State
	doc := state.Doc()
	p := f.Presentation
	theme := p.Theme

	base := backend.Style{}.WithForeground(theme.Foreground).WithBackground(theme.Background)
	r.gutter = gutterWidth(doc.LineCount(), p.ShowLineNumbers)
	textWidth, textHeight := TextArea(width, height, doc.LineCount(), p.ShowLineNumbers)

	main := state.Selection().Main()
	caretLine := doc.LineAt(main.Head)
	ranges := state.Selection().Ranges()

	r.rows = r.rows[:0]
	r.caretX, r.caretY = -1, -1

	y := 0
	for line := f.Viewport.TopLine(); line < doc.LineCount() && y < textHeight; line++ {
		lineStyle := base
		if line == caretLine && p.ActiveLineIndicator {
			lineStyle = lineStyle.WithBackground(theme.ActiveLine())
		}
		if p.FocusMode && line != caretLine {
			lineStyle.Dim = true
		}
		if viewport.HeadingLevel(doc.LineText(line)) > 0 {
			lineStyle.Bold = true
		}

		text := doc.LineText(line)
		lineStart := doc.LineStartOffset(line)
		trailing := len(strings.TrimRight(text, " \t"))
		first := true
		offset := 0

		for first || offset < len(text) {
			if y >= textHeight {
				break
			}
			first = false
			if p.ShowLineNumbers {
				r.drawGutter(y, line, offset == 0, base)
			}

			x := 0
			rowStart := offset
			for offset < len(text) {
				ch, size := utf8.DecodeRuneInString(text[offset:])
				w := runewidth.RuneWidth(ch)
				if ch == '\t' {
					w = 1
				}
				if x+w > textWidth && x > 0 {
					if !p.LineWrapping {
						offset = len(text)
					}
					break
				}
				abs := lineStart + buffer.ByteOffset(offset)
				selected := inSelection(ranges, abs)
				style := lineStyle
				if selected {
					style = style.WithBackground(theme.Selection())
				}
				if abs == main.Head {
					r.caretX, r.caretY = r.gutter+x, y
				}
				b.SetContent(r.gutter+x, y, visible(ch, p.Invisibles, selected, offset >= trailing), style)
				x += w
				offset += size
			}
			for fill := x; fill < textWidth; fill++ {
				b.SetContent(r.gutter+fill, y, ' ', lineStyle)
			}
			rowEnd := lineStart + buffer.ByteOffset(offset)
			r.rows = append(r.rows, row{line: line, start: lineStart + buffer.ByteOffset(rowStart), end: rowEnd})
			if main.Head == rowEnd && offset >= len(text) && r.caretY < 0 {
				r.caretX, r.caretY = r.gutter+min(x, textWidth-1), y
			}
			y++
		}
	}

	if f.Panel != nil && r.caretY >= 0 {
		r.drawPanel(f.Panel, base.WithBackground(theme.Selection()), width, textHeight)
	}
	r.drawStatus(f.Status, width, height-1, base)

	if r.caretY >= 0 {
		b.ShowCursor(r.caretX, r.caretY)
	} else {
		b.HideCursor()
	}
	b.Show()
}

func (r *Renderer) drawGutter(y int, line uint32, firstRow bool, style backend.Style) {
	style.Dim = true
	label := ""
	if firstRow {
		label = fmt.Sprint(line + 1)
	}
	label = fmt.Sprintf("%*s ", r.gutter-1, label)
	for i, ch := range label {
		r.backend.SetContent(i, y, ch, style)
	}
}

func (r *Renderer) drawPanel(p *Panel, style backend.Style, width, textHeight int) {
	items := p.Items
	if len(items) > MaxPanelItems {
		items = items[:MaxPanelItems]
	}
	if len(items) == 0 {
		return
	}
	boxWidth := 0
	for _, it := range items {
		boxWidth = max(boxWidth, runewidth.StringWidth(it)+2)
	}

	top := r.caretY + 1
	if top+len(items) > textHeight {
		top = r.caretY - len(items)
	}
	left := min(r.caretX, max(width-boxWidth, 0))

	for i, it := range items {
		s := style
		if i == p.Selected {
			s.Reverse = true
		}
		label := " " + runewidth.FillRight(it, boxWidth-2) + " "
		x := left
		for _, ch := range label {
			r.backend.SetContent(x, top+i, ch, s)
			x += runewidth.RuneWidth(ch)
		}
	}
}

func (r *Renderer) drawStatus(status string, width, y int, style backend.Style) {
	style.Reverse = true
	status = runewidth.Truncate(status, width, "…")
	x := 0
	for _, ch := range status {
		r.backend.SetContent(x, y, ch, style)
		x += runewidth.RuneWidth(ch)
	}
	for ; x < width; x++ {
		r.backend.SetContent(x, y, ' ', style)
	}
}

// Caret returns the screen position of the main caret in the last frame,
// or -1, -1 when it was off screen.
func (r *Renderer) Caret() (x, y int) {
	return r.caretX, r.caretY
}

// OffsetAt maps a screen position of the last frame to a document
// offset. Positions past the end of a row map to the row end.
func (r *Renderer) OffsetAt(doc *buffer.Buffer, x, y int) (buffer.ByteOffset, bool) {
	if y < 0 || y >= len(r.rows) {
		return 0, false
	}
	rw := r.rows[y]
	text := doc.TextRange(rw.start, rw.end)
	col := 0
	target := x - r.gutter
	for i, ch := range text {
		w := runewidth.RuneWidth(ch)
		if ch == '\t' {
			w = 1
		}
		if col+w > target {
			return rw.start + buffer.ByteOffset(i), true
		}
		col += w
	}
	return rw.end, true
}

func inSelection(ranges []cursor.Selection, offset buffer.ByteOffset) bool {
	for _, r := range ranges {
		if !r.IsEmpty() && offset >= r.Start() && offset < r.End() {
			return true
		}
	}
	return false
}

// visible returns the glyph drawn for ch under the invisibles behavior.
func visible(ch rune, b styling.InvisiblesBehavior, selected, trailing bool) rune {
	show := b == styling.InvisiblesAlways ||
		(b == styling.InvisiblesSelection && selected) ||
		(b == styling.InvisiblesTrailing && trailing)
	switch {
	case ch == ' ' && show:
		return '·'
	case ch == '\t' && show:
		return '→'
	case ch == '\t':
		return ' '
	}
	return ch
}
