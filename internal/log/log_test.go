package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.True(t, ValidLevel("warn"))
	assert.False(t, ValidLevel("trace"))
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Output: &buf, JSON: true, Name: "test"})

	Component(logger, "observer").Debug("notify", zap.Bool("contentEdited", true))

	line := buf.String()
	require.True(t, gjson.Valid(line), line)
	assert.Equal(t, "notify", gjson.Get(line, "msg").String())
	assert.Equal(t, "observer", gjson.Get(line, "component").String())
	assert.True(t, gjson.Get(line, "contentEdited").Bool())
	assert.Equal(t, "test", gjson.Get(line, "logger").String())
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})

	logger.Info("hidden")
	require.Empty(t, buf.String())

	logger.Warn("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestComponent_NilParent(t *testing.T) {
	require.NotPanics(t, func() {
		Component(nil, "x").Info("ignored")
	})
}
