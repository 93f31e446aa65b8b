package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/marksync/internal/config"
	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
)

// document tracks the file backing the session.
type document struct {
	path string
	// detected is the line break found in the loaded file.
	detected config.LineBreak
}

// DetectLineBreak returns the first line terminator used in text, or
// LineBreakAuto when text has none.
func DetectLineBreak(text string) config.LineBreak {
	i := strings.IndexAny(text, "\r\n")
	switch {
	case i < 0:
		return config.LineBreakAuto
	case text[i] == '\n':
		return config.LineBreakLF
	case i+1 < len(text) && text[i+1] == '\n':
		return config.LineBreakCRLF
	default:
		return config.LineBreakCR
	}
}

// Path returns the document file path, empty for an unsaved document.
func (a *App) Path() string {
	return a.doc.path
}

// LineBreak returns the terminator written on save: the configured
// default, else the one detected on load, else "\n".
func (a *App) LineBreak() config.LineBreak {
	if lb := a.session.Config().DefaultLineBreak; lb != config.LineBreakAuto {
		return lb
	}
	if a.doc.detected != config.LineBreakAuto {
		return a.doc.detected
	}
	return config.LineBreakLF
}

// Load replaces the document with the contents of path. The load is not
// undoable and leaves the document clean.
func (a *App) Load(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // user-chosen document
	if err != nil {
		return &OperationError{Op: "load", Target: path, Err: err}
	}
	text := string(data)
	if text != "" {
		a.editing.MarkActive()
	}

	a.history.Clear()
	state := a.view.State()
	spec := engine.TransactionSpec{
		Changes:   []buffer.Edit{buffer.NewEdit(buffer.Range{Start: 0, End: state.Doc().Len()}, buffer.NormalizeLineEndings(text))},
		Selection: engine.SelectionSpec(cursor.Caret(0)),
		UserEvent: engine.UserEventReconfigure,
	}
	if _, err := a.view.Dispatch(spec); err != nil {
		return &OperationError{Op: "load", Target: path, Err: err}
	}

	a.doc = document{path: path, detected: DetectLineBreak(text)}
	a.logger.Info("document loaded",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.String("lineBreak", a.doc.detected.Name()),
	)
	return nil
}

// Save writes the document to path, or to the loaded path when path is
// empty. Line breaks are converted to LineBreak.
func (a *App) Save(path string) error {
	if path == "" {
		path = a.doc.path
	}
	if path == "" {
		return &OperationError{Op: "save", Err: ErrNoDocumentPath}
	}

	text := a.view.State().Doc().Text()
	if lb := a.LineBreak(); lb != config.LineBreakLF {
		text = strings.ReplaceAll(text, "\n", string(lb))
	}
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return &OperationError{Op: "save", Target: path, Err: err}
	}

	a.doc.path = path
	a.history.MarkSaved()
	a.logger.Info("document saved", zap.String("path", path), zap.Int("bytes", len(text)))
	return nil
}

// writeFileAtomic writes through a temporary file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
