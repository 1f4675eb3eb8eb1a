package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fable/pkg/gateway"
	"fable/pkg/schema"
	"fable/pkg/story"
	"fable/pkg/vault"
)

// mockGateway delegates to its invoke field, counting calls.
type mockGateway struct {
	invoke func(ctx context.Context, modality gateway.Modality, parts []gateway.Part) (*gateway.Response, error)
	calls  atomic.Int32
}

func (m *mockGateway) Invoke(ctx context.Context, modality gateway.Modality, parts []gateway.Part) (*gateway.Response, error) {
	m.calls.Add(1)
	return m.invoke(ctx, modality, parts)
}

func textResponse(text string) *gateway.Response {
	return &gateway.Response{
		Candidates: []gateway.Candidate{{
			Content: gateway.Content{Parts: []gateway.Part{gateway.TextPart(text)}},
		}},
	}
}

func newTestServer(t *testing.T, gw gateway.Gateway) *Server {
	t.Helper()
	dir := t.TempDir()
	srv := NewServer(context.Background(), story.NewGenerator(gw, story.Options{}), vault.Open(filepath.Join(dir, "vault.json")))
	srv.Images = NewImageStore(filepath.Join(dir, "images"))
	srv.UploadsDir = filepath.Join(dir, "uploads")
	return srv
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	gw := &mockGateway{invoke: func(context.Context, gateway.Modality, []gateway.Part) (*gateway.Response, error) {
		return textResponse("{}"), nil
	}}
	srv := newTestServer(t, gw)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out schema.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.OK)
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t, &mockGateway{invoke: func(context.Context, gateway.Modality, []gateway.Part) (*gateway.Response, error) {
		return textResponse("{}"), nil
	}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestPageGenerate(t *testing.T) {
	t.Run("missing pageContent is a 400 before any model call", func(t *testing.T) {
		gw := &mockGateway{invoke: func(context.Context, gateway.Modality, []gateway.Part) (*gateway.Response, error) {
			return textResponse("{}"), nil
		}}
		srv := newTestServer(t, gw)

		body, contentType := multipartBody(t, map[string]string{"storyContext": "setup"})
		req := httptest.NewRequest(http.MethodPost, "/page-generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "pageContent")
		assert.Equal(t, int32(0), gw.calls.Load())
	})

	t.Run("successful page carries the word diff", func(t *testing.T) {
		gw := &mockGateway{invoke: func(_ context.Context, modality gateway.Modality, _ []gateway.Part) (*gateway.Response, error) {
			if modality == gateway.ModalityText {
				return textResponse(`{"enhancedContent": "The fox ran fast.", "imagePrompt": "a fox", "suggestions": ["a", "b", "c"]}`), nil
			}
			return &gateway.Response{}, nil // no image parts
		}}
		srv := newTestServer(t, gw)

		body, contentType := multipartBody(t, map[string]string{
			"pageContent": "The fox ran.",
			"pageNumber":  "2",
			"totalPages":  "5",
		})
		req := httptest.NewRequest(http.MethodPost, "/page-generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var out schema.PageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.True(t, out.Success)
		assert.Equal(t, "The fox ran fast.", out.EnhancedContent)
		assert.Equal(t, 2, out.PageNumber)
		assert.Equal(t, 5, out.TotalPages)
		assert.Len(t, out.Suggestions, 3)
		assert.NotEmpty(t, out.Changes, "enhancement should produce a diff")
		assert.Nil(t, out.Image)
	})
}

func TestWholeStoryGenerate(t *testing.T) {
	t.Run("missing script and scenes is a 400", func(t *testing.T) {
		gw := &mockGateway{invoke: func(context.Context, gateway.Modality, []gateway.Part) (*gateway.Response, error) {
			return textResponse("{}"), nil
		}}
		srv := newTestServer(t, gw)

		body, contentType := multipartBody(t, map[string]string{"metadata": `{"title": "T"}`})
		req := httptest.NewRequest(http.MethodPost, "/whole-story-generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "fullScript or scenes")
		assert.Equal(t, int32(0), gw.calls.Load())
	})

	t.Run("scenes skip the division call entirely", func(t *testing.T) {
		gw := &mockGateway{invoke: func(_ context.Context, modality gateway.Modality, _ []gateway.Part) (*gateway.Response, error) {
			if modality == gateway.ModalityText {
				return textResponse(`{"enhancedContent": "text", "imagePrompt": "pic", "coverTitle": "T"}`), nil
			}
			return &gateway.Response{}, nil
		}}
		srv := newTestServer(t, gw)

		body, contentType := multipartBody(t, map[string]string{
			"metadata": `{"title": "T"}`,
			"scenes":   `["scene one", "scene two"]`,
		})
		req := httptest.NewRequest(http.MethodPost, "/whole-story-generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var out schema.StoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.True(t, out.Success)
		assert.Equal(t, 2, out.TotalPages)
		require.Len(t, out.Pages, 2)
		assert.Equal(t, 1, out.Pages[0].PageNumber)
		require.NotNil(t, out.Cover)
		assert.Equal(t, "T", out.Cover.Title)
	})

	t.Run("rich scene objects are flattened", func(t *testing.T) {
		gw := &mockGateway{invoke: func(_ context.Context, modality gateway.Modality, _ []gateway.Part) (*gateway.Response, error) {
			if modality == gateway.ModalityText {
				return textResponse(`{"enhancedContent": "text", "imagePrompt": "pic"}`), nil
			}
			return &gateway.Response{}, nil
		}}
		srv := newTestServer(t, gw)

		body, contentType := multipartBody(t, map[string]string{
			"scenes": `[{"title": "One", "content": "The fox wakes."}, {"title": "Two", "content": "The fox sleeps."}]`,
		})
		req := httptest.NewRequest(http.MethodPost, "/whole-story-generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var out schema.StoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, 2, out.TotalPages)
	})
}

func TestCoverGenerate(t *testing.T) {
	t.Run("unparseable plan still returns a metadata cover", func(t *testing.T) {
		gw := &mockGateway{invoke: func(_ context.Context, modality gateway.Modality, _ []gateway.Part) (*gateway.Response, error) {
			if modality == gateway.ModalityText {
				return textResponse("I refuse to emit JSON."), nil
			}
			return &gateway.Response{}, nil
		}}
		srv := newTestServer(t, gw)

		body, contentType := multipartBody(t, map[string]string{"metadata": `{"title": "Moon Song"}`})
		req := httptest.NewRequest(http.MethodPost, "/cover-generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var out schema.CoverResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.True(t, out.Success)
		require.NotNil(t, out.Cover)
		assert.Equal(t, "Moon Song", out.Cover.Title)
		assert.Nil(t, out.Cover.Image)
	})
}

func TestContextEndpoints(t *testing.T) {
	srv := newTestServer(t, &mockGateway{invoke: func(context.Context, gateway.Modality, []gateway.Part) (*gateway.Response, error) {
		return textResponse("{}"), nil
	}})

	putBody, err := json.Marshal(map[string]any{"items": []vault.Item{
		{Title: "Pip", Content: "A brave fox kit."},
	}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/context", bytes.NewReader(putBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/context", nil)
	rec = httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Items   []vault.Item `json:"items"`
		Context string       `json:"context"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Items, 1)
	assert.NotEmpty(t, out.Items[0].ID)
	assert.Contains(t, out.Context, "A brave fox kit.")
}

func TestGetImage(t *testing.T) {
	srv := newTestServer(t, &mockGateway{invoke: func(context.Context, gateway.Modality, []gateway.Part) (*gateway.Response, error) {
		return textResponse("{}"), nil
	}})

	t.Run("unknown image is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/images/nope.webp", nil)
		rec := httptest.NewRecorder()
		srv.Echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("stored bytes come back as webp", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(srv.Images.dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(srv.Images.dir, "run-cover.webp"), []byte("webp-bytes"), 0644))

		req := httptest.NewRequest(http.MethodGet, "/images/run-cover.webp", nil)
		rec := httptest.NewRecorder()
		srv.Echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
		assert.Equal(t, "webp-bytes", rec.Body.String())
	})
}
