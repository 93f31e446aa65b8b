package pointer

import "time"

// Position is a screen cell.
type Position struct {
	X int
	Y int
}

// Distance returns the Manhattan distance between two positions.
func (p Position) Distance(other Position) int {
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// ClickType is the click count of a pointer-down.
type ClickType uint8

const (
	// ClickSingle is a single click.
	ClickSingle ClickType = 1
	// ClickDouble is a double click.
	ClickDouble ClickType = 2
	// ClickTriple is a triple click.
	ClickTriple ClickType = 3
)

// String returns a string representation of the click type.
func (c ClickType) String() string {
	switch c {
	case ClickSingle:
		return "single"
	case ClickDouble:
		return "double"
	case ClickTriple:
		return "triple"
	default:
		return "unknown"
	}
}

// Click thresholds.
const (
	DefaultClickTime     = 400 * time.Millisecond
	DefaultClickDistance = 1
)

// ClickTracker groups pointer-downs into single, double and triple clicks.
type ClickTracker struct {
	maxTime     time.Duration
	maxDistance int

	lastPos   Position
	lastTime  time.Time
	lastCount ClickType
}

// NewClickTracker creates a tracker. Clicks further apart than maxTime or
// maxDistance start a new sequence.
func NewClickTracker(maxTime time.Duration, maxDistance int) *ClickTracker {
	return &ClickTracker{maxTime: maxTime, maxDistance: maxDistance}
}

// Record registers a pointer-down and returns its click type. The count
// wraps back to single after a triple click. A zero timestamp means now.
func (t *ClickTracker) Record(pos Position, at time.Time) ClickType {
	if at.IsZero() {
		at = time.Now()
	}

	if t.continues(pos, at) {
		t.lastCount++
		if t.lastCount > ClickTriple {
			t.lastCount = ClickSingle
		}
	} else {
		t.lastCount = ClickSingle
	}
	t.lastPos = pos
	t.lastTime = at
	return t.lastCount
}

func (t *ClickTracker) continues(pos Position, at time.Time) bool {
	if t.lastCount == 0 {
		return false
	}
	// Clock skew starts a new sequence.
	elapsed := at.Sub(t.lastTime)
	if elapsed < 0 || elapsed > t.maxTime {
		return false
	}
	return pos.Distance(t.lastPos) <= t.maxDistance
}

// Reset forgets the current sequence.
func (t *ClickTracker) Reset() {
	*t = ClickTracker{maxTime: t.maxTime, maxDistance: t.maxDistance}
}
