package backend

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

func TestNullBackendInit(t *testing.T) {
	b := NewNullBackend(80, 24)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	w, h := b.Size()
	if w != 80 || h != 24 {
		t.Errorf("expected size (80, 24), got (%d, %d)", w, h)
	}
}

func TestNullBackendSetContent(t *testing.T) {
	b := NewNullBackend(10, 2)
	b.Init()

	red := colorful.Color{R: 1}
	b.SetContent(3, 1, 'X', Style{}.WithForeground(red))

	got := b.Cell(3, 1)
	if got.Rune != 'X' || got.Style.Foreground == nil || *got.Style.Foreground != red {
		t.Errorf("unexpected cell %+v", got)
	}

	// Out of bounds is ignored.
	b.SetContent(-1, 0, 'Y', Style{})
	b.SetContent(10, 0, 'Y', Style{})
	if b.Row(0) != "          " {
		t.Errorf("row 0 = %q", b.Row(0))
	}
	if b.Row(1) != "   X      " {
		t.Errorf("row 1 = %q", b.Row(1))
	}
}

func TestNullBackendCursor(t *testing.T) {
	b := NewNullBackend(10, 2)
	b.Init()

	b.ShowCursor(4, 1)
	x, y, visible := b.CursorPosition()
	if x != 4 || y != 1 || !visible {
		t.Errorf("cursor = (%d, %d, %v)", x, y, visible)
	}

	b.HideCursor()
	if _, _, visible := b.CursorPosition(); visible {
		t.Error("cursor should be hidden")
	}
}

func TestNullBackendInterrupt(t *testing.T) {
	b := NewNullBackend(10, 2)
	b.Interrupt()

	if ev := b.PollEvent(); ev.Type != EventInterrupt {
		t.Errorf("expected interrupt, got %v", ev.Type)
	}
}

func TestModMaskHas(t *testing.T) {
	m := ModShift | ModCtrl
	if !m.Has(ModShift) || !m.Has(ModCtrl) {
		t.Error("mask should contain shift and ctrl")
	}
	if m.Has(ModAlt) {
		t.Error("mask should not contain alt")
	}
}

func newSimTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	term := NewTerminalWithScreen(screen)
	if err := term.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(term.Shutdown)
	screen.SetSize(20, 4)
	return term, screen
}

func TestTerminalDrawsThroughScreen(t *testing.T) {
	term, screen := newSimTerminal(t)

	term.SetContent(2, 1, 'Z', Style{Bold: true})
	term.Show()

	cells, w, _ := screen.GetContents()
	cell := cells[1*w+2]
	if len(cell.Runes) == 0 || cell.Runes[0] != 'Z' {
		t.Errorf("expected Z, got %q", cell.Runes)
	}
	_, _, attrs := cell.Style.Decompose()
	if attrs&tcell.AttrBold == 0 {
		t.Error("expected bold attribute")
	}
}

func TestTerminalConvertsEvents(t *testing.T) {
	term, screen := newSimTerminal(t)

	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	screen.InjectKey(tcell.KeyCtrlS, 0, tcell.ModCtrl)
	screen.InjectMouse(3, 2, tcell.Button1, tcell.ModNone)

	tests := []Event{
		{Type: EventKey, Key: KeyRune, Rune: 'a'},
		{Type: EventKey, Key: KeyCtrlS, Mod: ModCtrl},
		{Type: EventMouse, MouseX: 3, MouseY: 2, MouseButton: MouseLeft},
	}
	for i, want := range tests {
		ev := term.PollEvent()
		for ev.Type == EventResize {
			ev = term.PollEvent()
		}
		if ev.Type != want.Type || ev.Key != want.Key || ev.Rune != want.Rune ||
			ev.Mod != want.Mod || ev.MouseX != want.MouseX || ev.MouseY != want.MouseY ||
			ev.MouseButton != want.MouseButton {
			t.Errorf("event %d: got %+v, want %+v", i, ev, want)
		}
	}
}

func TestConvertColor(t *testing.T) {
	c, err := colorful.Hex("#0969da")
	if err != nil {
		t.Fatal(err)
	}
	got := convertColor(c)
	r, g, b := got.RGB()
	if r != 0x09 || g != 0x69 || b != 0xda {
		t.Errorf("got (%d, %d, %d)", r, g, b)
	}
}
