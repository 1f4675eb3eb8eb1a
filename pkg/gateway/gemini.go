package gateway

import (
	"cmp"
	"context"

	"google.golang.org/genai"
)

const (
	defaultTextModel  = "gemini-2.0-flash"
	defaultImageModel = "gemini-2.5-flash-image-preview"
)

// GeminiGateway routes text-modality calls to a structured-text model and
// image-modality calls to an image synthesis model on the same client.
type GeminiGateway struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// NewGemini creates a Gemini-backed gateway. Blank model names fall back to
// the defaults the service was built against.
func NewGemini(ctx context.Context, apiKey, textModel, imageModel string) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &GeminiGateway{
		client:     client,
		textModel:  cmp.Or(textModel, defaultTextModel),
		imageModel: cmp.Or(imageModel, defaultImageModel),
	}, nil
}

func (g *GeminiGateway) Invoke(ctx context.Context, modality Modality, parts []Part) (*Response, error) {
	model := g.textModel
	if modality == ModalityImage {
		model = g.imageModel
	}

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: toGenAIParts(parts)}}
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, &Error{Modality: modality, Err: err}
	}
	return fromGenAI(resp), nil
}

func toGenAIParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.Inline != nil {
			out = append(out, &genai.Part{InlineData: &genai.Blob{
				MIMEType: p.Inline.MIMEType,
				Data:     p.Inline.Data,
			}})
			continue
		}
		out = append(out, &genai.Part{Text: p.Text})
	}
	return out
}

func fromGenAI(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	for _, cand := range resp.Candidates {
		var c Candidate
		if cand.Content != nil {
			for _, p := range cand.Content.Parts {
				if p == nil {
					continue
				}
				part := Part{Text: p.Text}
				if p.InlineData != nil {
					part.Inline = &Blob{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}
				}
				c.Content.Parts = append(c.Content.Parts, part)
			}
		}
		out.Candidates = append(out.Candidates, c)
	}
	return out
}
