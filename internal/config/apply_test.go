package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_RoutesThroughSetters(t *testing.T) {
	f := newFixture(t, "text")

	err := f.session.Apply(map[string]any{
		"editor": map[string]any{
			"typewriterMode":     true,
			"readOnlyMode":       true,
			"indentUnit":         int64(4),
			"suggestWhileTyping": true,
			"defaultLineBreak":   "lf",
		},
		"appearance": map[string]any{
			"theme":    "github-dark",
			"fontSize": int64(16),
			"fontFace": map[string]any{"family": "Menlo", "style": "italic"},
		},
	}, SourceFile)
	require.NoError(t, err)

	cfg := f.session.Config()
	assert.True(t, cfg.TypewriterMode)
	assert.True(t, cfg.ReadOnlyMode)
	assert.Equal(t, "    ", cfg.IndentUnit)
	assert.Equal(t, LineBreakLF, cfg.DefaultLineBreak)
	assert.Equal(t, FontFace{Family: "Menlo", Style: "italic"}, cfg.FontFace)
	assert.Equal(t, 16.0, cfg.FontSize)

	assert.Equal(t, 1, f.scroller.centered)
	assert.Equal(t, 1, f.cache.invalidated)
	assert.True(t, f.view.State().Facets().ReadOnly)
	assert.Equal(t, "github-dark", f.styler.Current().Theme.Name)

	for _, c := range f.changes {
		assert.Equal(t, SourceFile, c.Source)
	}

	f.session.SetFocusMode(true)
	assert.Equal(t, SourceAPI, f.changes[len(f.changes)-1].Source, "source is restored after Apply")
}

func TestApply_CollectsErrors(t *testing.T) {
	f := newFixture(t, "")

	err := f.session.Apply(map[string]any{
		"editor.focusMode":          "yes please",
		"editor.invisiblesBehavior": "sometimes",
		"editor.lineWrapping":       false,
		"nonsense":                  1,
	}, SourceEnv)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.ErrorIs(t, err, ErrUnsupported)
	require.ErrorIs(t, err, ErrUnknownSetting)

	assert.False(t, f.session.Config().LineWrapping, "valid keys still apply")
	assert.False(t, f.session.Config().FocusMode)
}

func TestApply_IndentUnitNumber(t *testing.T) {
	s := NewSession()

	require.ErrorIs(t, s.Apply(map[string]any{PathIndentUnit: 2.5}, SourceFile), ErrInvalidValue)
	require.ErrorIs(t, s.Apply(map[string]any{PathIndentUnit: 0}, SourceFile), ErrInvalidValue)
	require.NoError(t, s.Apply(map[string]any{PathIndentUnit: 3}, SourceFile))
	assert.Equal(t, "   ", s.Config().IndentUnit)
}

func TestFlatten(t *testing.T) {
	got := Flatten(map[string]any{
		"editor":     map[string]any{"focusMode": true},
		"appearance": map[string]any{"fontFace": map[string]any{"family": "Menlo"}},
	})
	assert.Equal(t, map[string]any{
		"editor.focusMode":    true,
		"appearance.fontFace": map[string]any{"family": "Menlo"},
	}, got)
}

func TestPaths(t *testing.T) {
	paths := Paths()
	assert.Contains(t, paths, PathReadOnlyMode)
	assert.Contains(t, paths, PathLocale)
	assert.IsIncreasing(t, paths)
}
