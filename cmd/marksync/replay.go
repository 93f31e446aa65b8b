package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dshills/marksync/internal/app"
	"github.com/dshills/marksync/internal/bridge"
	"github.com/dshills/marksync/internal/completion"
	"github.com/dshills/marksync/internal/completion/timer"
	"github.com/dshills/marksync/internal/config"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/input/pointer"
)

// Replay event types.
const (
	eventInsert           = "insert"
	eventNewline          = "newline"
	eventTab              = "tab"
	eventDelete           = "delete"
	eventSelect           = "select"
	eventPointerDown      = "pointerDown"
	eventPointerDrag      = "pointerDrag"
	eventPointerUp        = "pointerUp"
	eventCompositionStart = "compositionStart"
	eventCompositionEnd   = "compositionEnd"
	eventConfig           = "config"
	eventWait             = "wait"
	eventCancelCompletion = "cancelCompletion"
	eventClosePanel       = "closePanel"
	eventUndo             = "undo"
	eventRedo             = "redo"
	eventLoad             = "load"
	eventSave             = "save"
)

// typeError is written for events the session rejected.
const typeError = "error"

// maxReplayLine bounds one event line.
const maxReplayLine = 1 << 20

func (c *cli) replayCommand() *cobra.Command {
	var (
		text    string
		compact bool
		caps    []string
	)
	cmd := &cobra.Command{
		Use:   "replay [script.jsonl]",
		Short: "Replay a JSON-lines event script and print host notifications",
		Long: `Replay reads one JSON event per line from the file, or from stdin when
no file is given, and writes every view update and completion command as
JSON lines to stdout. Timers run on a virtual clock advanced by wait events.
Completion commands are written only while the host declares the
inlineCompletion capability.`,
		Example: `  echo '{"type":"insert","text":"# Title"}' | marksync replay
  marksync replay --text "hello world" session.jsonl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			declared, err := bridge.ParseCapabilities(caps)
			if err != nil {
				return err
			}
			in := c.stdin
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0]) //nolint:gosec // user-chosen script
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			out := c.stdout
			if !compact && isTerminal(c.stdout) {
				out = &prettyWriter{w: c.stdout, color: true}
			}
			return c.replay(in, out, text, declared)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "initial document text")
	cmd.Flags().BoolVar(&compact, "compact", false, "always write compact JSON lines")
	cmd.Flags().StringSliceVar(&caps, "capabilities", []string{bridge.CapInlineCompletion.String()},
		"capabilities declared by the replay host")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// prettyWriter indents each JSON line written to it.
type prettyWriter struct {
	w     io.Writer
	color bool
}

func (p *prettyWriter) Write(b []byte) (int, error) {
	out := pretty.Pretty(b)
	if p.color {
		out = pretty.Color(out, nil)
	}
	if _, err := p.w.Write(out); err != nil {
		return 0, err
	}
	return len(b), nil
}

// replayPanel is the completion panel of the replay host. It reports
// panel commands on the output.
type replayPanel struct {
	host    *bridge.WriterHost
	visible bool
}

func (p *replayPanel) StartCompletion(req completion.Request) {
	p.visible = true
	candidates := req.Candidates
	if candidates == nil {
		candidates = []string{}
	}
	p.host.WriteCommand(bridge.TypeStartCompletion, map[string]any{
		"prefix":     req.Prefix,
		"position":   req.Position,
		"candidates": candidates,
		"cached":     req.Cached,
	})
}

func (p *replayPanel) IsPanelVisible() bool {
	return p.visible
}

func (p *replayPanel) CancelCompletion() {
	p.visible = false
	p.host.WriteCommand(bridge.TypeCancelCompletion, nil)
}

// replayer applies events to a session driven on the calling goroutine.
type replayer struct {
	app    *app.App
	timers *timer.Manual
	panel  *replayPanel
	host   *bridge.WriterHost
	logger *zap.Logger
}

func (c *cli) replay(in io.Reader, out io.Writer, text string, caps bridge.Capabilities) error {
	logger, closeLog, err := c.logger(c.stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	host := bridge.NewWriterHost(out)
	r := &replayer{
		timers: timer.NewManual(),
		panel:  &replayPanel{host: host},
		host:   host,
		logger: logger,
	}
	a, err := c.newApp(app.Options{
		Text:         text,
		Timers:       r.timers,
		Panel:        r.panel,
		Capabilities: caps,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer a.Close()
	a.OnViewUpdate(host.NotifyViewDidUpdate)
	r.app = a

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplayLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if !gjson.Valid(line) {
			return fmt.Errorf("line %d: invalid json", lineNo)
		}
		ev := gjson.Parse(line)
		if err := r.apply(ev); err != nil {
			if errors.Is(err, errUnknownEvent) {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			host.WriteCommand(typeError, map[string]any{
				"line":    lineNo,
				"event":   ev.Get("type").String(),
				"message": err.Error(),
			})
		}
		if err := host.Err(); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	logger.Debug("replay finished", zap.Int("lines", lineNo), zap.Bool("dirty", a.IsDirty()))
	return nil
}

var errUnknownEvent = errors.New("unknown event type")

// apply runs one event. Errors other than errUnknownEvent are session
// rejections and do not stop the replay.
func (r *replayer) apply(ev gjson.Result) error {
	a := r.app
	var err error
	switch typ := ev.Get("type").String(); typ {
	case eventInsert:
		_, err = a.Insert(ev.Get("text").String())
	case eventNewline:
		_, err = a.InsertNewline()
	case eventTab:
		_, err = a.InsertTab()
	case eventDelete:
		backward := true
		if b := ev.Get("backward"); b.Exists() {
			backward = b.Bool()
		}
		_, err = a.Delete(backward)
	case eventSelect:
		anchor := ev.Get("anchor").Int()
		head := anchor
		if h := ev.Get("head"); h.Exists() {
			head = h.Int()
		}
		_, err = a.SelectRange(buffer.ByteOffset(anchor), buffer.ByteOffset(head))
	case eventPointerDown:
		pos := pointer.Position{X: int(ev.Get("x").Int()), Y: int(ev.Get("y").Int())}
		var click pointer.ClickType
		click, _, err = a.PointerDown(buffer.ByteOffset(ev.Get("offset").Int()), pos, r.now())
		if err == nil {
			r.logger.Debug("pointer down", zap.Stringer("click", click))
		}
	case eventPointerDrag:
		_, err = a.PointerDrag(buffer.ByteOffset(ev.Get("offset").Int()))
	case eventPointerUp:
		a.PointerUp()
	case eventCompositionStart:
		a.CompositionStart()
	case eventCompositionEnd:
		a.CompositionEnd()
	case eventConfig:
		err = a.ApplyConfig(map[string]any{settingPath(ev.Get("key").String()): ev.Get("value").Value()}, config.SourceAPI)
	case eventWait:
		r.timers.Advance(time.Duration(ev.Get("ms").Int()) * time.Millisecond)
	case eventCancelCompletion:
		err = a.CancelCompletion()
	case eventClosePanel:
		if r.panel.IsPanelVisible() {
			r.panel.CancelCompletion()
		}
	case eventUndo:
		_, err = a.Undo()
	case eventRedo:
		_, err = a.Redo()
	case eventLoad:
		err = a.Load(ev.Get("path").String())
	case eventSave:
		err = a.Save(ev.Get("path").String())
	default:
		return fmt.Errorf("%w %q", errUnknownEvent, typ)
	}
	return err
}

// now maps the virtual clock to wall time for click grouping.
func (r *replayer) now() time.Time {
	return time.Unix(0, 0).Add(r.timers.Now())
}

// settingPath resolves a short key such as "typewriterMode" to its full
// path. Full paths and unknown keys are returned unchanged.
func settingPath(key string) string {
	if strings.Contains(key, ".") {
		return key
	}
	for _, p := range config.Paths() {
		if strings.HasSuffix(p, "."+key) {
			return p
		}
	}
	return key
}
