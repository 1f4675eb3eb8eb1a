package story

import (
	"context"
	"sync"

	"fable/pkg/gateway"
)

// --- Mocks ---

// mockGateway delegates to its invoke field and records every call so tests
// can assert on prompts, reference parts, and call counts.
type mockGateway struct {
	invoke func(ctx context.Context, modality gateway.Modality, parts []gateway.Part) (*gateway.Response, error)

	mu    sync.Mutex
	calls []recordedCall
}

type recordedCall struct {
	modality gateway.Modality
	parts    []gateway.Part
}

func (m *mockGateway) Invoke(ctx context.Context, modality gateway.Modality, parts []gateway.Part) (*gateway.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, recordedCall{modality: modality, parts: parts})
	m.mu.Unlock()
	return m.invoke(ctx, modality, parts)
}

func (m *mockGateway) callsFor(modality gateway.Modality) []recordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recordedCall
	for _, c := range m.calls {
		if c.modality == modality {
			out = append(out, c)
		}
	}
	return out
}

func textResponse(text string) *gateway.Response {
	return &gateway.Response{
		Candidates: []gateway.Candidate{{
			Content: gateway.Content{Parts: []gateway.Part{gateway.TextPart(text)}},
		}},
	}
}

func imageResponse(mimeType string, data []byte) *gateway.Response {
	return &gateway.Response{
		Candidates: []gateway.Candidate{{
			Content: gateway.Content{Parts: []gateway.Part{gateway.InlinePart(mimeType, data)}},
		}},
	}
}

// inlineRefs pulls the inline blobs out of a recorded image call, skipping
// the leading text part.
func inlineRefs(c recordedCall) [][]byte {
	var out [][]byte
	for _, p := range c.parts {
		if p.Inline != nil {
			out = append(out, p.Inline.Data)
		}
	}
	return out
}
