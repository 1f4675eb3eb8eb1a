package vault

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	s := Open(path)

	kept, err := s.Replace([]Item{
		{Title: "Hero", Content: "A brave little fox named Pip."},
		{Title: "Blank", Content: "   "},
		{Type: TypeImage, Title: "Style ref", Content: "https://example.com/style.png"},
	})
	require.NoError(t, err)
	require.Len(t, kept, 2, "blank content is dropped")

	for _, it := range kept {
		assert.NotEmpty(t, it.ID)
		assert.NotEmpty(t, it.CreatedAt)
	}
	assert.Equal(t, TypeText, kept[0].Type, "missing type defaults to text")

	// reopening reads back what Replace persisted
	reopened := Open(path)
	assert.Equal(t, kept, reopened.Items())
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "absent.json"))
	assert.Empty(t, s.Items())
}

func TestBuildContext(t *testing.T) {
	t.Run("sections in fixed order with tags", func(t *testing.T) {
		got := BuildContext([]Item{
			{Type: TypeImage, Title: "Palette", Content: "https://example.com/p.png"},
			{Type: TypeText, Title: "Pip", Content: "A fox kit.", Tags: []string{"character", "protagonist"}},
		})
		textIdx := strings.Index(got, "Text Snippets:")
		imageIdx := strings.Index(got, "Image References:")
		require.GreaterOrEqual(t, textIdx, 0)
		require.Greater(t, imageIdx, textIdx, "text section always comes first")
		assert.Contains(t, got, "- Pip [tags: character, protagonist]: A fox kit.")
		assert.Contains(t, got, "- Palette: https://example.com/p.png")
	})

	t.Run("no items is an empty block", func(t *testing.T) {
		assert.Empty(t, BuildContext(nil))
	})

	t.Run("long content is truncated", func(t *testing.T) {
		long := strings.Repeat("x", 2*maxContentRunes)
		got := BuildContext([]Item{{Title: "Long", Content: long}})
		assert.Contains(t, got, "...")
		assert.Less(t, len(got), len(long))
	})

	t.Run("sections are capped", func(t *testing.T) {
		items := make([]Item, maxItemsPerSection+5)
		for i := range items {
			items[i] = Item{Title: "T", Content: "c"}
		}
		got := BuildContext(items)
		assert.Equal(t, maxItemsPerSection, strings.Count(got, "- T"))
	})

	t.Run("untitled and empty image url placeholders", func(t *testing.T) {
		got := BuildContext([]Item{{Type: TypeImage, Content: "x"}})
		assert.Contains(t, got, "- Untitled: x")
	})
}
