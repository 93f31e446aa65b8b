package loader

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoader_TOML(t *testing.T) {
	fsys := fstest.MapFS{
		"conf/marksync.toml": {Data: []byte(`
[editor]
typewriterMode = true
indentUnit = 4

[appearance]
theme = "github-dark"
fontSize = 15.5
fontFace = { family = "Menlo", weight = "bold" }
`)},
	}

	values, err := NewFileLoaderFS(fsys, "conf/marksync.toml").Load()
	require.NoError(t, err)

	editor := values["editor"].(map[string]any)
	assert.Equal(t, true, editor["typewriterMode"])
	assert.Equal(t, int64(4), editor["indentUnit"])

	appearance := values["appearance"].(map[string]any)
	assert.Equal(t, "github-dark", appearance["theme"])
	assert.Equal(t, 15.5, appearance["fontSize"])
	assert.Equal(t, map[string]any{"family": "Menlo", "weight": "bold"}, appearance["fontFace"])
}

func TestFileLoader_YAML(t *testing.T) {
	fsys := fstest.MapFS{
		"marksync.yaml": {Data: []byte("editor:\n  suggestWhileTyping: true\n  locale: ja\n")},
	}

	values, err := NewFileLoaderFS(fsys, "marksync.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"suggestWhileTyping": true, "locale": "ja"}, values["editor"])
}

func TestFileLoader_EmptyYAML(t *testing.T) {
	fsys := fstest.MapFS{"empty.yml": {Data: []byte("")}}

	values, err := NewFileLoaderFS(fsys, "empty.yml").Load()
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestFileLoader_MissingFile(t *testing.T) {
	values, err := NewFileLoaderFS(fstest.MapFS{}, "nope.toml").Load()
	require.NoError(t, err)
	require.Nil(t, values)
}

func TestFileLoader_Errors(t *testing.T) {
	fsys := fstest.MapFS{"bad.toml": {Data: []byte("editor = [")}}

	_, err := NewFileLoaderFS(fsys, "bad.toml").Load()
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "toml", perr.Format)

	_, err = NewFileLoaderFS(fsys, "conf.ini").Load()
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestEnvLoader(t *testing.T) {
	l := &EnvLoader{
		prefix: "MARKSYNC_",
		environ: func() []string {
			return []string{
				"MARKSYNC_EDITOR_TYPEWRITER_MODE=true",
				"MARKSYNC_APPEARANCE_FONT_SIZE=16",
				"MARKSYNC_APPEARANCE_LINE_HEIGHT=1.6",
				"MARKSYNC_EDITOR_LOCALE=zh-Hans",
				"MARKSYNC_LOGLEVEL=debug",
				"HOME=/root",
			}
		},
	}

	values, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"editor": map[string]any{
			"typewriterMode": true,
			"locale":         "zh-Hans",
		},
		"appearance": map[string]any{
			"fontSize":   int64(16),
			"lineHeight": 1.6,
		},
	}, values)
}

func TestLoadAll_LaterOverrides(t *testing.T) {
	fsys := fstest.MapFS{
		"a.toml": {Data: []byte("[editor]\nfocusMode = true\nlocale = \"en\"\n")},
		"b.yaml": {Data: []byte("editor:\n  locale: th\n")},
	}

	values, err := LoadAll(NewFileLoaderFS(fsys, "a.toml"), NewFileLoaderFS(fsys, "b.yaml"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"focusMode": true, "locale": "th"}, values["editor"])
}
