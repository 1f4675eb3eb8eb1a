package story

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"fable/pkg/flight"
	"fable/pkg/gateway"
	"fable/pkg/utils"
)

const (
	// Scripts past this size are divided chunk-by-chunk so a single call
	// never exceeds what the structured-text model handles reliably.
	maxScriptTokens = 6000
	chunkRuneLimit  = 16000
)

// Divider splits a full script into ordered scene descriptions via the
// structured-text model. Identical in-flight divisions are coalesced and
// recent results reused; the remote model is billed per call.
type Divider struct {
	gw    gateway.Gateway
	cache *flight.Cache[string, []string]
}

func NewDivider(gw gateway.Gateway) *Divider {
	d := &Divider{gw: gw}
	d.cache = flight.NewCache(d.divideChunk)
	return d
}

func (d *Divider) Divide(ctx context.Context, fullScript string) ([]string, error) {
	if strings.TrimSpace(fullScript) == "" {
		return nil, &InputError{Field: "fullScript", Reason: "empty or whitespace-only"}
	}

	chunks := []string{fullScript}
	if tokens := utils.NumTokens(fullScript); tokens > maxScriptTokens {
		chunks = utils.ChunkText(fullScript, chunkRuneLimit)
		log.Debug("dividing long script in chunks", "tokens", tokens, "chunks", len(chunks))
	}

	var scenes []string
	for _, chunk := range chunks {
		part, err := d.cache.Get(ctx, chunk)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, part...)
	}
	return scenes, nil
}

func (d *Divider) divideChunk(ctx context.Context, script string) ([]string, error) {
	prompt := buildSceneDivisionPrompt(script)
	resp, err := d.gw.Invoke(ctx, gateway.ModalityText, []gateway.Part{gateway.TextPart(prompt)})
	if err != nil {
		return nil, err
	}

	text := gateway.ExtractText(resp)
	parsed, err := DecodeStringArray(text)
	if err != nil {
		return nil, err
	}

	scenes := make([]string, 0, len(parsed))
	for _, s := range parsed {
		if strings.TrimSpace(s) != "" {
			scenes = append(scenes, s)
		}
	}
	if len(scenes) == 0 {
		return nil, &ParseError{Raw: text, Err: errors.New("reply contained no scenes")}
	}
	return scenes, nil
}
