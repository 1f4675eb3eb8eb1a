package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	t.Run("strips json fence", func(t *testing.T) {
		assert.Equal(t, `{"a": 1}`, CleanJSON("```json\n{\"a\": 1}\n```"))
	})

	t.Run("passes through raw JSON", func(t *testing.T) {
		assert.Equal(t, `{"a": 1}`, CleanJSON(`{"a": 1}`))
	})
}

func TestFencedBlock(t *testing.T) {
	t.Run("extracts first fenced block", func(t *testing.T) {
		block, ok := FencedBlock("before\n```json\n[1, 2]\n```\nafter")
		require.True(t, ok)
		assert.Equal(t, "[1, 2]", block)
	})

	t.Run("untagged fence works too", func(t *testing.T) {
		block, ok := FencedBlock("```\nhello\n```")
		require.True(t, ok)
		assert.Equal(t, "hello", block)
	})

	t.Run("no fence", func(t *testing.T) {
		_, ok := FencedBlock("plain text")
		assert.False(t, ok)
	})
}

func TestLimitStr(t *testing.T) {
	assert.Equal(t, "short", LimitStr("short", 10))
	assert.Equal(t, "ab...", LimitStr("abcdef", 2))
	// rune-aware, never splits a multibyte character
	assert.Equal(t, "こん...", LimitStr("こんにちは", 2))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c_d", SanitizeFilename("a/b\\c:d"))
	assert.Equal(t, "plain.png", SanitizeFilename("  plain.png  "))
}

func TestTokenizeWords(t *testing.T) {
	t.Run("alternates words and whitespace", func(t *testing.T) {
		assert.Equal(t, []string{"the", " ", "quick", "  ", "fox"}, TokenizeWords("the quick  fox"))
	})

	t.Run("rejoining reproduces the input", func(t *testing.T) {
		in := "  leading and\ttrailing  "
		assert.Equal(t, in, strings.Join(TokenizeWords(in), ""))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, TokenizeWords(""))
	})
}

func TestChunkText(t *testing.T) {
	t.Run("short text is a single chunk", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, ChunkText("hello", 100))
	})

	t.Run("splits at paragraph boundaries", func(t *testing.T) {
		text := strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40) + "\n\n" + strings.Repeat("c", 40)
		chunks := ChunkText(text, 90)
		require.Len(t, chunks, 2)
		assert.Contains(t, chunks[0], "aaa")
		assert.Contains(t, chunks[1], "ccc")
	})

	t.Run("every chunk respects the rune limit", func(t *testing.T) {
		text := strings.Repeat("word ", 1000)
		for _, chunk := range ChunkText(text, 120) {
			assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 120)
		}
	})

	t.Run("oversized single block is hard cut", func(t *testing.T) {
		chunks := ChunkText(strings.Repeat("x", 25), 10)
		require.Len(t, chunks, 3)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, ChunkText("   ", 10))
	})
}

func TestErrJSON(t *testing.T) {
	out := ErrJSON("nope")
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "nope", out["error"])
}
