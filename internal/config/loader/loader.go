// Package loader reads configuration sources into nested key maps.
//
// TOML and YAML files are selected by extension; environment variables
// with a prefix map to dotted paths. The maps are fed to
// config.Session.Apply, which validates every key.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat indicates a file extension no loader handles.
var ErrUnknownFormat = errors.New("unknown config format")

// Loader reads a configuration source.
type Loader interface {
	// Load returns the configuration map. A missing source yields nil, nil.
	Load() (map[string]any, error)
}

// ParseError describes a file that could not be parsed.
type ParseError struct {
	Path    string
	Format  string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s config %s: %s", e.Format, e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FileLoader loads one file, choosing the decoder by extension.
type FileLoader struct {
	fsys fs.FS
	path string
}

// NewFileLoader creates a loader for a path on the OS file system.
// Relative paths resolve against the working directory.
func NewFileLoader(path string) *FileLoader {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &FileLoader{fsys: os.DirFS("/"), path: path}
}

// NewFileLoaderFS creates a loader reading path from fsys.
func NewFileLoaderFS(fsys fs.FS, path string) *FileLoader {
	return &FileLoader{fsys: fsys, path: path}
}

// Path returns the configured path.
func (l *FileLoader) Path() string {
	return l.path
}

// Load reads and decodes the file.
func (l *FileLoader) Load() (map[string]any, error) {
	decode, format, err := decoderFor(l.path)
	if err != nil {
		return nil, err
	}

	name := l.path
	if filepath.IsAbs(name) {
		name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}

	values, err := decode(data)
	if err != nil {
		return nil, &ParseError{Path: l.path, Format: format, Message: err.Error(), Err: err}
	}
	return values, nil
}

func decoderFor(path string) (func([]byte) (map[string]any, error), string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return decodeTOML, "toml", nil
	case ".yaml", ".yml":
		return decodeYAML, "yaml", nil
	}
	return nil, "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}

// LoadAll loads every loader in order and merges the results; later
// sources override earlier ones.
func LoadAll(loaders ...Loader) (map[string]any, error) {
	merged := make(map[string]any)
	for _, l := range loaders {
		values, err := l.Load()
		if err != nil {
			return nil, err
		}
		merged = DeepMerge(merged, values)
	}
	return merged, nil
}

// DeepMerge merges src into dst. Nested maps merge recursively; other
// values in src replace those in dst.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = srcVal
	}
	return dst
}
