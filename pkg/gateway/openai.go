package gateway

import (
	"cmp"
	"context"
	"encoding/base64"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultOpenAITextModel  = "gpt-4o-mini"
	defaultOpenAIImageModel = "gpt-image-1"
)

// OpenAIGateway is the alternate provider backing. Text goes through chat
// completions in JSON mode; images go through the Images API. That API takes
// no inline reference images, so continuity anchors are dropped with a debug
// log rather than failing the call.
type OpenAIGateway struct {
	client     openai.Client
	textModel  string
	imageModel string
}

func NewOpenAI(apiKey, textModel, imageModel string) *OpenAIGateway {
	return &OpenAIGateway{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		textModel:  cmp.Or(textModel, defaultOpenAITextModel),
		imageModel: cmp.Or(imageModel, defaultOpenAIImageModel),
	}
}

func (o *OpenAIGateway) Invoke(ctx context.Context, modality Modality, parts []Part) (*Response, error) {
	prompt, dropped := flattenText(parts)
	if dropped > 0 {
		log.Debug("openai gateway dropping inline image parts", "modality", modality, "dropped", dropped)
	}

	switch modality {
	case ModalityImage:
		return o.generateImage(ctx, prompt)
	default:
		return o.generateText(ctx, prompt)
	}
}

func (o *OpenAIGateway) generateText(ctx context.Context, prompt string) (*Response, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.textModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, &Error{Modality: ModalityText, Err: err}
	}

	var out string
	if len(completion.Choices) > 0 {
		out = completion.Choices[0].Message.Content
	}
	return &Response{OutputText: out}, nil
}

func (o *OpenAIGateway) generateImage(ctx context.Context, prompt string) (*Response, error) {
	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(o.imageModel),
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, &Error{Modality: ModalityImage, Err: err}
	}

	out := &Response{Candidates: []Candidate{{}}}
	for _, img := range resp.Data {
		if img.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			log.Warn("openai image payload not base64", "error", err)
			continue
		}
		out.Candidates[0].Content.Parts = append(out.Candidates[0].Content.Parts,
			InlinePart("image/png", data))
	}
	return out, nil
}

func flattenText(parts []Part) (string, int) {
	var texts []string
	dropped := 0
	for _, p := range parts {
		if p.Inline != nil {
			dropped++
			continue
		}
		if strings.TrimSpace(p.Text) != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n\n"), dropped
}
