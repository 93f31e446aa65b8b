package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
)

func at(doc, sub string) buffer.ByteOffset {
	return buffer.ByteOffset(strings.Index(doc, sub))
}

func TestTokenizePosition_Japanese(t *testing.T) {
	doc := "今日は良い天気"
	tk := New("en")

	tok, ok := tk.TokenizePosition(buffer.New(doc), at(doc, "気"))
	require.True(t, ok)
	assert.Equal(t, "天気", tok.Text)
	assert.Equal(t, ScriptHan, tok.Script)
	assert.Equal(t, at(doc, "天"), tok.From)
	assert.Equal(t, buffer.ByteOffset(len(doc)), tok.To)

	tok, ok = tk.TokenizePosition(buffer.New(doc), at(doc, "は"))
	require.True(t, ok)
	assert.Equal(t, "は", tok.Text)
	assert.Equal(t, ScriptHiragana, tok.Script)
}

func TestTokenizePosition_KatakanaRun(t *testing.T) {
	doc := "新しいコンピューターです"
	tok, ok := New("en").TokenizePosition(buffer.New(doc), at(doc, "ピ"))
	require.True(t, ok)
	assert.Equal(t, "コンピューター", tok.Text)
	assert.Equal(t, ScriptKatakana, tok.Script)
}

func TestTokenizePosition_Thai(t *testing.T) {
	doc := "สวัสดีครับ"
	tok, ok := New("th").TokenizePosition(buffer.New(doc), 0)
	require.True(t, ok)
	assert.Equal(t, doc, tok.Text)
	assert.Equal(t, ScriptThai, tok.Script)
}

func TestTokenizePosition_NoOverride(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		offset buffer.ByteOffset
	}{
		{"latin word", "Hello world", 2},
		{"space", "Hello world", 5},
		{"fullwidth punctuation", "你好，世界", at("你好，世界", "，")},
		{"ascii digits", "abc 123", 5},
		{"negative", "你好", -1},
		{"past end", "你好", 99},
		{"empty doc", "", 0},
		{"empty line", "你好\n\n世界", at("你好\n\n世界", "\n\n") + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := New("zh").TokenizePosition(buffer.New(tt.doc), tt.offset)
			require.False(t, ok)
		})
	}
}

func TestTokenizePosition_EndOfLinePointsAtLastCharacter(t *testing.T) {
	doc := "abc 東京\nnext"
	tok, ok := New("en").TokenizePosition(buffer.New(doc), at(doc, "\n"))
	require.True(t, ok)
	assert.Equal(t, "東京", tok.Text)
}

func TestTokenizePosition_SecondLine(t *testing.T) {
	doc := "first line\n東京タワー"
	tok, ok := New("en").TokenizePosition(buffer.New(doc), at(doc, "タ"))
	require.True(t, ok)
	assert.Equal(t, "タワー", tok.Text)
	assert.Equal(t, at(doc, "タ"), tok.From)
}

func TestTokenizePosition_LocaleGate(t *testing.T) {
	doc := "ーー"

	_, ok := New("en-US").TokenizePosition(buffer.New(doc), 0)
	assert.False(t, ok)

	tk := New("ja-JP")
	require.True(t, tk.LocaleGate())
	tok, ok := tk.TokenizePosition(buffer.New(doc), 0)
	require.True(t, ok)
	assert.Equal(t, ScriptCommon, tok.Script)

	tk.SetLocale("!!")
	assert.False(t, tk.LocaleGate(), "bad tags disable the gate")
}

func TestMouseSelectionStyle_KeepsSelection(t *testing.T) {
	doc := "漢字です"
	sel := cursor.Single(0, 3)
	state := engine.NewState(engine.WithDoc(doc), engine.WithSelection(sel))
	tk := New("ja")

	style, ok := tk.MouseSelectionStyle(state, at(doc, "字"))
	require.True(t, ok)
	assert.Equal(t, sel, style.Get(), "selection is unchanged at pointer-down")
	assert.False(t, style.Update(nil))
	assert.Equal(t, sel, style.Get())

	got, ok := tk.SelectTokenAt(state, at(doc, "字"))
	require.True(t, ok)
	assert.Equal(t, cursor.Single(0, at(doc, "で")), got)
}

func TestMouseSelectionStyle_LatinHasNoOverride(t *testing.T) {
	state := engine.NewState(engine.WithDoc("plain text"))
	_, ok := New("ja").MouseSelectionStyle(state, 3)
	require.False(t, ok)

	_, ok = New("ja").SelectTokenAt(state, 3)
	require.False(t, ok)
}

func TestWordAt(t *testing.T) {
	doc := buffer.New("hello, world_1")

	tok, ok := WordAt(doc, 9)
	require.True(t, ok)
	assert.Equal(t, "world_1", tok.Text)

	_, ok = WordAt(doc, 5)
	assert.False(t, ok)

	tok, ok = WordAt(doc, doc.Len())
	require.True(t, ok)
	assert.Equal(t, "world_1", tok.Text)
}

func TestScriptOf(t *testing.T) {
	assert.Equal(t, ScriptHan, ScriptOf('漢'))
	assert.Equal(t, ScriptHiragana, ScriptOf('の'))
	assert.Equal(t, ScriptKatakana, ScriptOf('カ'))
	assert.Equal(t, ScriptKhmer, ScriptOf('ក'))
	assert.Equal(t, ScriptMyanmar, ScriptOf('က'))
	assert.Equal(t, ScriptLao, ScriptOf('ກ'))
	assert.Equal(t, ScriptNone, ScriptOf('a'))
	assert.Equal(t, ScriptNone, ScriptOf('7'))
	assert.Equal(t, "katakana", ScriptKatakana.String())
}

func TestTokenizePosition_NeverPanicsAndStaysInBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc := rapid.StringOfN(rapid.SampledFrom([]rune("ab 漢字かなカナ。\nー1")), 0, 20, -1).Draw(t, "doc")
		b := buffer.New(doc)
		offset := rapid.Int64Range(-2, b.Len()+2).Draw(t, "offset")

		tok, ok := New("ja").TokenizePosition(b, offset)
		if !ok {
			return
		}
		if tok.From < 0 || tok.To > b.Len() || tok.From >= tok.To {
			t.Fatalf("token %+v out of bounds for %q", tok, doc)
		}
		if b.TextRange(tok.From, tok.To) != tok.Text {
			t.Fatalf("token text mismatch")
		}
		if strings.ContainsAny(tok.Text, " \n。") {
			t.Fatalf("token %q crosses a boundary", tok.Text)
		}
	})
}
