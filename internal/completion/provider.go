package completion

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
)

// Provider produces candidates for a prefix.
type Provider interface {
	Complete(doc *buffer.Buffer, prefix string) []string
}

// WordProvider suggests words already present in the document.
type WordProvider struct {
	// Limit caps the number of candidates. Zero means 20.
	Limit int
	// MinLength is the shortest word suggested. Zero means 3.
	MinLength int
}

// Complete returns distinct document words that start with prefix and
// are longer than it, sorted by frequency then alphabetically.
func (p WordProvider) Complete(doc *buffer.Buffer, prefix string) []string {
	if prefix == "" {
		return nil
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = 3
	}

	counts := make(map[string]int)
	state := -1
	rest := doc.Text()
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if !isWord(word) || word == prefix || !strings.HasPrefix(word, prefix) {
			continue
		}
		if utf8.RuneCountInString(word) < minLen {
			continue
		}
		counts[word]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}

func isWord(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// PrefixAt returns the word fragment that ends at offset, found with word
// boundaries. It is empty when offset is not at the end of a word.
func PrefixAt(doc *buffer.Buffer, offset buffer.ByteOffset) string {
	if offset <= 0 || offset > doc.Len() {
		return ""
	}
	line := doc.LineAt(offset)
	lineStart := doc.LineStartOffset(line)
	text := doc.TextRange(lineStart, offset)

	var last string
	state := -1
	rest := text
	for len(rest) > 0 {
		last, rest, state = uniseg.FirstWordInString(rest, state)
	}
	if !isWord(last) {
		return ""
	}
	return last
}

// Request is what the panel receives when a pending completion fires.
type Request struct {
	// Prefix is the word fragment before the main caret.
	Prefix string
	// Position is the main caret offset.
	Position buffer.ByteOffset
	// Candidates are cached or freshly computed suggestions.
	Candidates []string
	// Cached reports whether Candidates came from the cache.
	Cached bool
}

// RequestBuilder builds completion requests from the editor state,
// consulting the cache before the provider.
type RequestBuilder struct {
	Cache    *Cache
	Provider Provider
}

// Build returns the request for state.
func (b RequestBuilder) Build(state *engine.State) Request {
	pos := state.Selection().Main().Head
	req := Request{Prefix: PrefixAt(state.Doc(), pos), Position: pos}
	if req.Prefix == "" {
		return req
	}
	if b.Cache != nil {
		if c, ok := b.Cache.Get(req.Prefix); ok {
			req.Candidates = c
			req.Cached = true
			return req
		}
	}
	if b.Provider != nil {
		req.Candidates = b.Provider.Complete(state.Doc(), req.Prefix)
		if b.Cache != nil {
			b.Cache.Set(req.Prefix, req.Candidates)
		}
	}
	return req
}
