// Package viewport tracks the visible window over the document and
// scrolls it to follow the caret.
//
// Positions are measured in rows of the base line height. Markdown
// heading lines are taller than body lines, and when line wrapping is on
// a long line occupies several rows, measured by display width.
package viewport

import (
	"math"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

// Document is the line source the viewport measures.
type Document interface {
	LineCount() uint32
	LineText(line uint32) string
}

// headingFactors are the line-height factors of heading levels 1 to 6.
var headingFactors = [...]float64{1.5, 1.4, 1.3, 1.2, 1.1, 1.0}

// Viewport represents the visible portion of the document.
type Viewport struct {
	mu sync.RWMutex

	// First visible row offset.
	top float64

	// Size in screen cells.
	width  int
	height int

	// Scroll margins in rows.
	marginTop    int
	marginBottom int

	wrap bool
	doc  Document
}

// NewViewport creates a viewport with the given size.
// Width and height are clamped to a minimum of 1.
func NewViewport(width, height int) *Viewport {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	m := DefaultMargins()
	return &Viewport{
		width:        width,
		height:       height,
		marginTop:    m.Top,
		marginBottom: m.Bottom,
		wrap:         true,
	}
}

// Width returns the viewport width.
func (v *Viewport) Width() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width
}

// Height returns the viewport height.
func (v *Viewport) Height() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.height
}

// Resize updates the viewport size.
func (v *Viewport) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	v.width = width
	v.height = height
	v.top = v.clampTop(v.top)
}

// SetDocument sets the document being measured.
func (v *Viewport) SetDocument(doc Document) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.doc = doc
	v.top = v.clampTop(v.top)
}

// SetLineWrapping sets whether long lines wrap onto extra rows.
func (v *Viewport) SetLineWrapping(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.wrap = enabled
	v.top = v.clampTop(v.top)
}

// LineWrapping reports whether line wrapping is on.
func (v *Viewport) LineWrapping() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.wrap
}

// Top returns the row offset of the top edge.
func (v *Viewport) Top() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.top
}

// TopLine returns the first line at least partly visible.
func (v *Viewport) TopLine() uint32 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lineAtRow(v.top)
}

// IsLineVisible reports whether line is entirely inside the viewport.
func (v *Viewport) IsLineVisible(line uint32) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	top := v.lineTop(line)
	return top >= v.top && top+v.lineRows(line) <= v.top+float64(v.height)
}

// ScrollTo puts the top edge at row, clamped to the document.
func (v *Viewport) ScrollTo(row float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.setTop(row)
}

// HeadingLevel returns the markdown ATX heading level of text, or 0.
func HeadingLevel(text string) int {
	level := 0
	for level < len(text) && text[level] == '#' {
		level++
	}
	if level == 0 || level > len(headingFactors) {
		return 0
	}
	if level < len(text) && text[level] != ' ' && text[level] != '\t' {
		return 0
	}
	return level
}

// LineHeight returns the height factor of a line of text.
func LineHeight(text string) float64 {
	if level := HeadingLevel(strings.TrimLeft(text, " ")); level > 0 {
		return headingFactors[level-1]
	}
	return 1
}

// LineRows returns the number of rows line occupies.
func (v *Viewport) LineRows(line uint32) float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lineRows(line)
}

// LineTop returns the row offset where line starts.
func (v *Viewport) LineTop(line uint32) float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lineTop(line)
}

// CenterOn scrolls so line sits in the vertical middle. It returns true
// if the viewport moved.
func (v *Viewport) CenterOn(line uint32) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	mid := v.lineTop(line) + v.lineRows(line)/2
	return v.setTop(mid - float64(v.height)/2)
}

// RevealCaret scrolls minimally so line is visible with the scroll
// margins around it. It returns true if the viewport moved.
func (v *Viewport) RevealCaret(line uint32) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	m := v.effectiveMargins()
	top := v.lineTop(line)
	bottom := top + v.lineRows(line)

	switch {
	case top < v.top+float64(m.Top):
		return v.setTop(top - float64(m.Top))
	case bottom > v.top+float64(v.height-m.Bottom):
		return v.setTop(bottom - float64(v.height-m.Bottom))
	}
	return false
}

func (v *Viewport) setTop(row float64) bool {
	row = v.clampTop(row)
	if row == v.top {
		return false
	}
	v.top = row
	return true
}

func (v *Viewport) clampTop(row float64) float64 {
	maxTop := v.totalRows() - float64(v.height)
	if row > maxTop {
		row = maxTop
	}
	if row < 0 {
		row = 0
	}
	return row
}

func (v *Viewport) lineRows(line uint32) float64 {
	if v.doc == nil || line >= v.doc.LineCount() {
		return 1
	}
	text := v.doc.LineText(line)
	rows := 1.0
	if v.wrap {
		if w := runewidth.StringWidth(text); w > v.width {
			rows = math.Ceil(float64(w) / float64(v.width))
		}
	}
	return rows * LineHeight(text)
}

func (v *Viewport) lineTop(line uint32) float64 {
	var top float64
	for l := uint32(0); l < line && v.doc != nil && l < v.doc.LineCount(); l++ {
		top += v.lineRows(l)
	}
	return top
}

func (v *Viewport) totalRows() float64 {
	if v.doc == nil {
		return 0
	}
	return v.lineTop(v.doc.LineCount())
}

func (v *Viewport) lineAtRow(row float64) uint32 {
	if v.doc == nil {
		return 0
	}
	var top float64
	n := v.doc.LineCount()
	for l := uint32(0); l < n; l++ {
		top += v.lineRows(l)
		if top > row {
			return l
		}
	}
	if n == 0 {
		return 0
	}
	return n - 1
}
