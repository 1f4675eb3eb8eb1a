// Package client is a Go consumer of the storybook API, used by scripts and
// integration tooling that drive generation runs from outside the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"fable/pkg/schema"
	"fable/pkg/vault"
)

const defaultTimeout = 5 * time.Minute

// Client talks to one storybook server. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client

	// Attempts bounds the retry loop per request. Retries cover network
	// errors and retryable statuses (408, 429, 5xx); everything else
	// returns immediately.
	Attempts uint
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		Attempts: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithAttempts(n uint) Option           { return func(c *Client) { c.Attempts = n } }

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var out schema.HealthResponse
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("server reported unhealthy")
	}
	return nil
}

// GenerateStory runs the whole-story pipeline server-side.
func (c *Client) GenerateStory(ctx context.Context, req schema.StoryRequest) (*schema.StoryResponse, error) {
	form, err := storyForm(req)
	if err != nil {
		return nil, err
	}
	var out schema.StoryResponse
	if err := c.postForm(ctx, "/whole-story-generate", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeneratePage enhances and illustrates a single page.
func (c *Client) GeneratePage(ctx context.Context, req schema.PageRequest) (*schema.PageResponse, error) {
	form, err := pageForm(req)
	if err != nil {
		return nil, err
	}
	var out schema.PageResponse
	if err := c.postForm(ctx, "/page-generate", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateCover produces a front cover for the given metadata.
func (c *Client) GenerateCover(ctx context.Context, req schema.CoverRequest) (*schema.CoverResponse, error) {
	form, err := coverForm(req)
	if err != nil {
		return nil, err
	}
	var out schema.CoverResponse
	if err := c.postForm(ctx, "/cover-generate", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Context fetches the server's stored context items and the built block.
func (c *Client) Context(ctx context.Context) ([]vault.Item, string, error) {
	var out struct {
		Success bool         `json:"success"`
		Items   []vault.Item `json:"items"`
		Context string       `json:"context"`
	}
	if err := c.getJSON(ctx, "/api/context", &out); err != nil {
		return nil, "", err
	}
	return out.Items, out.Context, nil
}

// ReplaceContext swaps the server's stored context items.
func (c *Client) ReplaceContext(ctx context.Context, items []vault.Item) ([]vault.Item, error) {
	body, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return nil, err
	}
	var out struct {
		Success bool         `json:"success"`
		Items   []vault.Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/context", "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// StatusError is returned for non-2xx replies, carrying the server's safe
// error message when one was decoded.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

func retryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= 500:
			return true
		}
		return false
	}
	// Network-level failures have no status and are always worth retrying.
	return true
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) postForm(ctx context.Context, path string, form *encodedForm, out any) error {
	// Multipart bodies are not replayable, so each attempt re-sends the
	// buffered encoding.
	return c.do(ctx, http.MethodPost, path, form.contentType, bytes.NewReader(form.body), out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.ReadSeeker, out any) error {
	return retry.Do(
		func() error {
			if body != nil {
				if _, err := body.Seek(0, io.SeekStart); err != nil {
					return retry.Unrecoverable(err)
				}
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				statusErr := &StatusError{StatusCode: resp.StatusCode}
				var fail struct {
					Error string `json:"error"`
				}
				if json.Unmarshal(data, &fail) == nil {
					statusErr.Message = fail.Error
				}
				return statusErr
			}

			if out == nil {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.Attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxJitter(250*time.Millisecond),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
	)
}

// encodedForm is a fully buffered multipart body, replayable across retries.
type encodedForm struct {
	body        []byte
	contentType string
}

type formBuilder struct {
	buf *bytes.Buffer
	w   *multipart.Writer
	err error
}

func newFormBuilder() *formBuilder {
	buf := new(bytes.Buffer)
	return &formBuilder{buf: buf, w: multipart.NewWriter(buf)}
}

func (b *formBuilder) field(name, value string) {
	if b.err != nil || value == "" {
		return
	}
	b.err = b.w.WriteField(name, value)
}

func (b *formBuilder) jsonField(name string, v any) {
	if b.err != nil || v == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		b.err = err
		return
	}
	b.field(name, string(data))
}

func (b *formBuilder) imageField(name string, img *schema.GeneratedImage) {
	if b.err != nil || img == nil {
		return
	}
	b.field(name, img.DataURL())
}

func (b *formBuilder) file(name, filename string, img *schema.GeneratedImage) {
	if b.err != nil || img == nil {
		return
	}
	data, err := img.Bytes()
	if err != nil {
		b.err = err
		return
	}
	part, err := b.w.CreateFormFile(name, filename)
	if err != nil {
		b.err = err
		return
	}
	_, b.err = part.Write(data)
}

func (b *formBuilder) encode() (*encodedForm, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.w.Close(); err != nil {
		return nil, err
	}
	return &encodedForm{body: b.buf.Bytes(), contentType: b.w.FormDataContentType()}, nil
}

func storyForm(req schema.StoryRequest) (*encodedForm, error) {
	b := newFormBuilder()
	b.jsonField("metadata", req.Metadata)
	b.field("fullScript", req.FullScript)
	if len(req.Scenes) > 0 {
		b.jsonField("scenes", req.Scenes)
	}
	b.field("globalContext", req.GlobalContext)
	b.file("userImage", "reference.png", req.ReferenceImage)
	return b.encode()
}

func pageForm(req schema.PageRequest) (*encodedForm, error) {
	b := newFormBuilder()
	b.field("pageContent", req.PageContent)
	b.field("imagePrompt", req.ImagePrompt)
	b.field("storyContext", req.StoryContext)
	if req.PageNumber > 0 {
		b.field("pageNumber", strconv.Itoa(req.PageNumber))
	}
	if req.TotalPages > 0 {
		b.field("totalPages", strconv.Itoa(req.TotalPages))
	}
	b.field("globalContext", req.GlobalContext)
	b.imageField("prevImage", req.PrevImage)
	b.field("prevPageContent", req.PrevPageContent)
	b.field("prevPageImagePrompt", req.PrevPageImagePrompt)
	b.file("userImage", "reference.png", req.ReferenceImage)
	return b.encode()
}

func coverForm(req schema.CoverRequest) (*encodedForm, error) {
	b := newFormBuilder()
	b.jsonField("metadata", req.Metadata)
	b.field("globalContext", req.GlobalContext)
	b.imageField("prevImage", req.PrevImage)
	b.file("userImage", "reference.png", req.ReferenceImage)
	return b.encode()
}
