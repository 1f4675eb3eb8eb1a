package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	t.Run("candidate parts win over everything", func(t *testing.T) {
		resp := &Response{
			Candidates: []Candidate{{Content: Content{Parts: []Part{TextPart("from candidate")}}}},
			Contents:   []TextContent{{Text: "from contents"}},
			OutputText: "from output",
		}
		assert.Equal(t, "from candidate", ExtractText(resp))
	})

	t.Run("skips empty parts within the first candidate", func(t *testing.T) {
		resp := &Response{
			Candidates: []Candidate{{Content: Content{Parts: []Part{
				InlinePart("image/png", []byte("pic")),
				TextPart("found it"),
			}}}},
		}
		assert.Equal(t, "found it", ExtractText(resp))
	})

	t.Run("contents shape is the second strategy", func(t *testing.T) {
		resp := &Response{
			Contents:   []TextContent{{Text: "from contents"}},
			OutputText: "from output",
		}
		assert.Equal(t, "from contents", ExtractText(resp))
	})

	t.Run("output text is the last resort", func(t *testing.T) {
		assert.Equal(t, "from output", ExtractText(&Response{OutputText: "from output"}))
	})

	t.Run("nothing extractable is empty, not an error", func(t *testing.T) {
		assert.Empty(t, ExtractText(&Response{}))
		assert.Empty(t, ExtractText(nil))
	})
}

func TestExtractImages(t *testing.T) {
	t.Run("collects inline parts in order", func(t *testing.T) {
		resp := &Response{
			Candidates: []Candidate{{Content: Content{Parts: []Part{
				TextPart("caption"),
				InlinePart("image/webp", []byte("one")),
				InlinePart("image/png", []byte("two")),
			}}}},
		}
		images := ExtractImages(resp)
		require.Len(t, images, 2)
		assert.Equal(t, "image/webp", images[0].MimeType)
		data, err := images[1].Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), data)
	})

	t.Run("blank mime type defaults to png", func(t *testing.T) {
		resp := &Response{
			Candidates: []Candidate{{Content: Content{Parts: []Part{
				InlinePart("", []byte("raw")),
			}}}},
		}
		images := ExtractImages(resp)
		require.Len(t, images, 1)
		assert.Equal(t, "image/png", images[0].MimeType)
	})

	t.Run("empty inline payloads are skipped", func(t *testing.T) {
		resp := &Response{
			Candidates: []Candidate{{Content: Content{Parts: []Part{
				InlinePart("image/png", nil),
			}}}},
		}
		assert.Empty(t, ExtractImages(resp))
	})

	t.Run("no candidates means no images", func(t *testing.T) {
		assert.Nil(t, ExtractImages(&Response{OutputText: "text only"}))
		assert.Nil(t, ExtractImages(nil))
	})
}
