package bridge

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Wire message types.
const (
	TypeViewDidUpdate    = "viewDidUpdate"
	TypeStartCompletion  = "startCompletion"
	TypeCancelCompletion = "cancelCompletion"
)

// MarshalViewUpdate encodes update as a JSON object.
func MarshalViewUpdate(update ViewUpdate) ([]byte, error) {
	return setAll([]byte(`{}`), []field{
		{"type", TypeViewDidUpdate},
		{"contentEdited", update.ContentEdited},
		{"compositionEnded", update.CompositionEnded},
		{"isDirty", update.IsDirty},
		{"selectedLineColumn.line", update.SelectedLineColumn.Line},
		{"selectedLineColumn.column", update.SelectedLineColumn.Column},
		{"selectedLineColumn.length", update.SelectionLength},
	})
}

// UnmarshalViewUpdate decodes a viewDidUpdate message.
func UnmarshalViewUpdate(data []byte) (ViewUpdate, error) {
	if !gjson.ValidBytes(data) {
		return ViewUpdate{}, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	msg := gjson.ParseBytes(data)
	if t := msg.Get("type").String(); t != TypeViewDidUpdate {
		return ViewUpdate{}, fmt.Errorf("%w: type %q", ErrMalformed, t)
	}
	pos := msg.Get("selectedLineColumn")
	return ViewUpdate{
		ContentEdited:    msg.Get("contentEdited").Bool(),
		CompositionEnded: msg.Get("compositionEnded").Bool(),
		IsDirty:          msg.Get("isDirty").Bool(),
		SelectedLineColumn: LineColumn{
			Line:   int(pos.Get("line").Int()),
			Column: int(pos.Get("column").Int()),
		},
		SelectionLength: int(pos.Get("length").Int()),
	}, nil
}

// MessageType returns the type field of a wire message.
func MessageType(data []byte) string {
	return gjson.GetBytes(data, "type").String()
}

// MarshalCommand encodes a host command with extra fields, written in
// key order.
func MarshalCommand(typ string, fields map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	all := []field{{"type", typ}}
	for _, k := range keys {
		all = append(all, field{k, fields[k]})
	}
	return setAll([]byte(`{}`), all)
}

type field struct {
	path  string
	value any
}

func setAll(doc []byte, fields []field) ([]byte, error) {
	var err error
	for _, f := range fields {
		doc, err = sjson.SetBytes(doc, f.path, f.value)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", f.path, err)
		}
	}
	return doc, nil
}

// WriterHost is a Host that writes JSON lines to an io.Writer.
type WriterHost struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewWriterHost creates a host writing to w.
func NewWriterHost(w io.Writer) *WriterHost {
	return &WriterHost{w: w}
}

// NotifyViewDidUpdate writes update as one line.
func (h *WriterHost) NotifyViewDidUpdate(update ViewUpdate) {
	data, err := MarshalViewUpdate(update)
	h.write(data, err)
}

// WriteCommand writes a host command as one line.
func (h *WriterHost) WriteCommand(typ string, fields map[string]any) {
	data, err := MarshalCommand(typ, fields)
	h.write(data, err)
}

func (h *WriterHost) write(data []byte, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return
	}
	if err != nil {
		h.err = err
		return
	}
	if _, err := h.w.Write(append(data, '\n')); err != nil {
		h.err = err
	}
}

// Err returns the first encoding or write error.
func (h *WriterHost) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
