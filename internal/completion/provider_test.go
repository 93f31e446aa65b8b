package completion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
)

func TestPrefixAt(t *testing.T) {
	doc := buffer.New("hello wor\nfoo bar.")

	tests := []struct {
		name   string
		offset buffer.ByteOffset
		want   string
	}{
		{"end of word", 9, "wor"},
		{"mid word", 3, "hel"},
		{"after space", 6, ""},
		{"start of doc", 0, ""},
		{"after punctuation", 18, ""},
		{"second line", 13, "foo"},
		{"out of range", 99, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrefixAt(doc, tt.offset))
		})
	}
}

func TestWordProvider_Complete(t *testing.T) {
	doc := buffer.New("world words world wonder wo w")

	got := WordProvider{}.Complete(doc, "wo")
	assert.Equal(t, []string{"world", "wonder", "words"}, got)

	assert.Nil(t, WordProvider{}.Complete(doc, ""))
	assert.Equal(t, []string{"world"}, WordProvider{Limit: 1}.Complete(doc, "wo"))
}

func TestRequestBuilder_UsesCache(t *testing.T) {
	cache := NewCache(time.Minute, time.Minute)
	b := RequestBuilder{Cache: cache, Provider: WordProvider{}}
	state := engine.NewState(engine.WithDoc("wonder wo"), engine.WithSelection(cursor.Caret(9)))

	req := b.Build(state)
	require.Equal(t, "wo", req.Prefix)
	require.Equal(t, buffer.ByteOffset(9), req.Position)
	require.Equal(t, []string{"wonder"}, req.Candidates)
	require.False(t, req.Cached)

	req = b.Build(state)
	require.True(t, req.Cached)
	require.Equal(t, []string{"wonder"}, req.Candidates)

	cache.InvalidateCache()
	require.Zero(t, cache.Len())
	require.False(t, b.Build(state).Cached)
}

func TestRequestBuilder_NoPrefix(t *testing.T) {
	b := RequestBuilder{Cache: NewCache(time.Minute, time.Minute), Provider: WordProvider{}}
	state := engine.NewState(engine.WithDoc("word "), engine.WithSelection(cursor.Caret(5)))

	req := b.Build(state)
	assert.Empty(t, req.Prefix)
	assert.Nil(t, req.Candidates)
}

func TestCache_GetSet(t *testing.T) {
	c := NewCache(DefaultCacheExpiration, DefaultCacheCleanup)

	_, ok := c.Get("x")
	require.False(t, ok)

	c.Set("x", []string{"xyz"})
	got, ok := c.Get("x")
	require.True(t, ok)
	require.Equal(t, []string{"xyz"}, got)
	require.Equal(t, 1, c.Len())
}
