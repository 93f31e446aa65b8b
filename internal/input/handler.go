package input

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/input/wrap"
)

// Config configures the input handler.
type Config struct {
	// Marks are the characters that wrap a selection (default: wrap.DefaultMarks).
	Marks string

	// EnableWrap enables mark wrapping (default: true).
	EnableWrap bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Marks:      wrap.DefaultMarks,
		EnableWrap: true,
	}
}

// Editor is the document surface the handler writes to.
type Editor interface {
	State() *engine.State
	Input(spec engine.TransactionSpec) (*engine.Transaction, error)
}

// Completer reacts to typed text by scheduling or canceling completion.
type Completer interface {
	OnInsert(text string)
}

// Handler is the entry point for typed text.
// Methods must be called from the event loop goroutine.
type Handler struct {
	config    Config
	editor    Editor
	wrapper   *wrap.Wrapper
	completer Completer
	hooks     *HookManager
	metrics   *Metrics
	logger    *zap.Logger
}

// NewHandler creates a handler writing to editor. completer may be nil.
func NewHandler(config Config, editor Editor, completer Completer, logger *zap.Logger) *Handler {
	if config.Marks == "" {
		config.Marks = wrap.DefaultMarks
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		config:    config,
		editor:    editor,
		wrapper:   wrap.New(config.Marks),
		completer: completer,
		hooks:     NewHookManager(),
		metrics:   NewMetrics(),
		logger:    logger,
	}
}

// Hooks returns the hook manager.
func (h *Handler) Hooks() *HookManager {
	return h.hooks
}

// Metrics returns the insert counters.
func (h *Handler) Metrics() *Metrics {
	return h.metrics
}

// Insert handles text typed at the current selection. It returns the
// resulting transaction, or nil when a hook consumed the insert.
func (h *Handler) Insert(text string) (*engine.Transaction, error) {
	start := time.Now()
	defer func() { h.metrics.RecordInsert(time.Since(start)) }()

	state := h.editor.State()
	if !state.Facets().Editable {
		h.metrics.rejected.Add(1)
		return nil, engine.ErrReadOnly
	}

	ev := &InsertEvent{Text: text, State: state}
	if h.hooks.RunPreInsert(ev) {
		h.metrics.consumed.Add(1)
		h.logger.Debug("insert consumed by hook", zap.String("text", text))
		return nil, nil
	}

	var spec engine.TransactionSpec
	if h.config.EnableWrap && h.wrapper.IsMark(ev.Text) {
		wrapped, ok := h.wrapper.Wrap(state, ev.Text)
		if ok {
			h.metrics.wraps.Add(1)
			spec = wrapped
		} else {
			spec = state.ReplaceSelection(ev.Text)
		}
	} else {
		if h.completer != nil {
			h.completer.OnInsert(ev.Text)
		}
		spec = state.ReplaceSelection(ev.Text)
	}

	tr, err := h.editor.Input(spec)
	if err != nil {
		return nil, fmt.Errorf("insert %q: %w", ev.Text, err)
	}
	h.hooks.RunPostInsert(ev, tr)
	return tr, nil
}
