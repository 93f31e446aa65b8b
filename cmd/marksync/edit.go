package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/marksync/internal/app"
	"github.com/dshills/marksync/internal/bridge"
	"github.com/dshills/marksync/internal/completion"
	"github.com/dshills/marksync/internal/config/watcher"
	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/input/pointer"
	"github.com/dshills/marksync/internal/renderer"
	"github.com/dshills/marksync/internal/renderer/backend"
	"github.com/dshills/marksync/internal/renderer/viewport"
)

// wheelRows is how far one wheel notch scrolls.
const wheelRows = 3

func (c *cli) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a markdown file in the terminal",
		Long: `Edit opens an interactive terminal host. Typing inserts text, the
arrows move the caret (Shift extends the selection) and the mouse places
the caret, with double and triple clicks selecting words and lines.

  Esc     close the completion panel
  Ctrl+R  toggle read-only mode
  Ctrl+T  toggle typewriter mode
  Ctrl+S  save
  Ctrl+Z  undo, Ctrl+Y redo
  Ctrl+Q  quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			term, err := backend.NewTerminal()
			if err != nil {
				return fmt.Errorf("create terminal: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.edit(ctx, term, path)
		},
	}
}

// edit runs an interactive session on b until ctx is done or the user
// quits.
func (c *cli) edit(ctx context.Context, b backend.Backend, path string) error {
	// The terminal owns stderr; logs go to --log-file or nowhere.
	logger, closeLog, err := c.logger(nil)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := b.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer b.Shutdown()

	width, height := b.Size()
	panel := &editPanel{}
	status := &statusHost{wake: b.Interrupt}
	a, err := c.newApp(app.Options{
		Host:         status,
		Capabilities: bridge.NewCapabilities(bridge.CapInlineCompletion),
		Panel:        panel,
		Viewport:     viewport.NewViewport(width, height-1),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	e := &editor{
		app:      a,
		backend:  b,
		renderer: renderer.New(b),
		panel:    panel,
		status:   status,
		path:     path,
		logger:   logger,
	}
	if path != "" {
		switch err := a.Load(path); {
		case errors.Is(err, fs.ErrNotExist):
			e.message = "new file"
		case err != nil:
			a.Close()
			return err
		}
	}

	if cfgPath := c.v.GetString(flagConfig); cfgPath != "" {
		w, err := watcher.New(func(string) {
			_ = a.Post(func() { e.reloadSettings(c, cfgPath) })
		}, watcher.WithLogger(logger))
		if err != nil {
			a.Close()
			return err
		}
		defer func() { _ = w.Close() }()
		if err := w.Watch(cfgPath); err != nil {
			logger.Warn("settings file not watched", zap.String("path", cfgPath), zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.quit = cancel

	_ = a.Post(e.draw)
	go e.poll()
	return a.Run(ctx)
}

// editPanel is the terminal completion panel. It is used on the loop
// goroutine only.
type editPanel struct {
	items    []string
	selected int
	visible  bool
}

func (p *editPanel) StartCompletion(req completion.Request) {
	if len(req.Candidates) == 0 {
		p.CancelCompletion()
		return
	}
	p.items = req.Candidates
	p.selected = 0
	p.visible = true
}

func (p *editPanel) IsPanelVisible() bool {
	return p.visible
}

func (p *editPanel) CancelCompletion() {
	p.items = nil
	p.visible = false
}

func (p *editPanel) move(delta int) {
	n := min(len(p.items), renderer.MaxPanelItems)
	if n == 0 {
		return
	}
	p.selected = (p.selected + delta + n) % n
}

func (p *editPanel) frame() *renderer.Panel {
	if !p.visible {
		return nil
	}
	return &renderer.Panel{Items: p.items, Selected: p.selected}
}

// statusHost receives view updates from the bridge worker and wakes the
// terminal so the status line is repainted.
type statusHost struct {
	mu   sync.Mutex
	last bridge.ViewUpdate
	seen bool
	wake func()
}

func (h *statusHost) NotifyViewDidUpdate(u bridge.ViewUpdate) {
	h.mu.Lock()
	h.last = u
	h.seen = true
	h.mu.Unlock()
	h.wake()
}

func (h *statusHost) update() (bridge.ViewUpdate, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.seen
}

// editor maps terminal events to session commands. Everything but poll
// runs on the loop goroutine.
type editor struct {
	app      *app.App
	backend  backend.Backend
	renderer *renderer.Renderer
	panel    *editPanel
	status   *statusHost
	path     string
	message  string
	dragging bool
	quit     func()
	logger   *zap.Logger
}

func (e *editor) poll() {
	for {
		ev := e.backend.PollEvent()
		if ev.Type == backend.EventNone {
			return
		}
		if err := e.app.Post(func() { e.handle(ev) }); err != nil {
			return
		}
	}
}

func (e *editor) handle(ev backend.Event) {
	switch ev.Type {
	case backend.EventKey:
		e.message = ""
		e.key(ev)
	case backend.EventMouse:
		e.mouse(ev)
	case backend.EventResize, backend.EventInterrupt:
	}
	e.draw()
}

func (e *editor) key(ev backend.Event) {
	a := e.app
	extend := ev.Mod.Has(backend.ModShift)
	var err error

	switch ev.Key {
	case backend.KeyRune:
		_, err = a.Insert(string(ev.Rune))
	case backend.KeyEnter:
		if e.panel.visible {
			err = e.accept()
			break
		}
		_, err = a.InsertNewline()
	case backend.KeyTab:
		_, err = a.InsertTab()
	case backend.KeyBackspace:
		_, err = a.Delete(true)
	case backend.KeyDelete:
		_, err = a.Delete(false)
	case backend.KeyLeft:
		_, err = a.MoveCaret(true, extend)
	case backend.KeyRight:
		_, err = a.MoveCaret(false, extend)
	case backend.KeyUp:
		if e.panel.visible {
			e.panel.move(-1)
			break
		}
		_, err = a.MoveLines(-1, extend)
	case backend.KeyDown:
		if e.panel.visible {
			e.panel.move(1)
			break
		}
		_, err = a.MoveLines(1, extend)
	case backend.KeyPageUp:
		_, err = a.MoveLines(-a.Viewport().Height(), extend)
	case backend.KeyPageDown:
		_, err = a.MoveLines(a.Viewport().Height(), extend)
	case backend.KeyHome:
		_, err = a.MoveLineEdge(false, extend)
	case backend.KeyEnd:
		_, err = a.MoveLineEdge(true, extend)
	case backend.KeyEscape:
		e.closePanel()
	case backend.KeyCtrlR:
		a.ToggleReadOnly()
	case backend.KeyCtrlT:
		a.ToggleTypewriter()
	case backend.KeyCtrlS:
		err = e.save()
	case backend.KeyCtrlZ:
		_, err = a.Undo()
	case backend.KeyCtrlY:
		_, err = a.Redo()
	case backend.KeyCtrlQ:
		e.quit()
	}
	e.report(err)
}

// accept replaces the word prefix with the selected candidate.
func (e *editor) accept() error {
	items := e.panel.items
	if e.panel.selected >= len(items) {
		e.closePanel()
		return nil
	}
	choice := items[e.panel.selected]
	state := e.app.State()
	prefix := completion.PrefixAt(state.Doc(), state.Selection().Main().Head)
	e.closePanel()
	if !strings.HasPrefix(choice, prefix) || len(choice) == len(prefix) {
		return nil
	}
	if _, err := e.app.Insert(choice[len(prefix):]); err != nil {
		return err
	}
	e.app.Scheduler().Cancel()
	return nil
}

func (e *editor) closePanel() {
	e.panel.CancelCompletion()
	e.app.Scheduler().Cancel()
}

func (e *editor) save() error {
	if e.path == "" {
		e.app.MarkSaved()
		e.message = "marked saved"
		return nil
	}
	if err := e.app.Save(e.path); err != nil {
		return err
	}
	e.message = "saved " + filepath.Base(e.path)
	return nil
}

func (e *editor) report(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, engine.ErrReadOnly) {
		e.message = "read-only"
		return
	}
	e.message = err.Error()
	e.logger.Debug("command failed", zap.Error(err))
}

func (e *editor) mouse(ev backend.Event) {
	a := e.app
	vp := a.Viewport()
	switch ev.MouseButton {
	case backend.MouseWheelUp:
		vp.ScrollTo(vp.Top() - wheelRows)
		return
	case backend.MouseWheelDown:
		vp.ScrollTo(vp.Top() + wheelRows)
		return
	case backend.MouseNone:
		if e.dragging {
			a.PointerUp()
			e.dragging = false
		}
		return
	case backend.MouseLeft:
	default:
		return
	}

	offset, ok := e.renderer.OffsetAt(a.State().Doc(), ev.MouseX, ev.MouseY)
	if !ok {
		return
	}
	var err error
	if e.dragging {
		_, err = a.PointerDrag(offset)
	} else {
		e.dragging = true
		_, _, err = a.PointerDown(offset, pointer.Position{X: ev.MouseX, Y: ev.MouseY}, time.Now())
	}
	e.report(err)
}

func (e *editor) draw() {
	a := e.app
	state := a.State()
	p := a.Presentation()
	width, height := e.backend.Size()
	a.Viewport().Resize(renderer.TextArea(width, height, state.Doc().LineCount(), p.ShowLineNumbers))

	e.renderer.Render(renderer.Frame{
		State:        state,
		Presentation: p,
		Viewport:     a.Viewport(),
		Status:       e.statusLine(),
		Panel:        e.panel.frame(),
	})
}

func (e *editor) statusLine() string {
	parts := []string{"[untitled]"}
	if e.path != "" {
		parts[0] = filepath.Base(e.path)
	}
	if u, ok := e.status.update(); ok {
		pos := fmt.Sprintf("Ln %d, Col %d", u.SelectedLineColumn.Line, u.SelectedLineColumn.Column)
		if u.SelectionLength > 0 {
			pos += fmt.Sprintf(" (%d selected)", u.SelectionLength)
		}
		parts = append(parts, pos)
		if u.IsDirty {
			parts = append(parts, "modified")
		}
	}
	cfg := e.app.Session().Config()
	if cfg.ReadOnlyMode {
		parts = append(parts, "read-only")
	}
	if cfg.TypewriterMode {
		parts = append(parts, "typewriter")
	}
	if e.message != "" {
		parts = append(parts, e.message)
	}
	return " " + strings.Join(parts, " | ")
}

// reloadSettings reapplies the settings file after it changed on disk.
func (e *editor) reloadSettings(c *cli, path string) {
	if err := c.applyFile(e.app, path); err != nil {
		e.message = "settings: " + err.Error()
		e.logger.Warn("settings reload failed", zap.String("path", path), zap.Error(err))
	} else {
		e.message = "settings reloaded"
	}
	e.draw()
}
