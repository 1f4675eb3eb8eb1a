package story

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"fable/pkg/gateway"
	"fable/pkg/schema"
)

// DefaultIllustrationTimeout bounds a single illustration call; the image
// model is the slowest and flakiest dependency in the pipeline.
const DefaultIllustrationTimeout = 30 * time.Second

// Illustrator generates one illustration per call, passing along continuity
// reference images. It reports (nil, nil) when the model returns no image
// parts, which callers treat as "proceed without a picture".
type Illustrator struct {
	gw      gateway.Gateway
	timeout time.Duration
	limiter *rate.Limiter
}

// NewIllustrator builds an Illustrator. interval > 0 spaces successive
// image calls to stay under provider quota; zero disables pacing.
func NewIllustrator(gw gateway.Gateway, timeout, interval time.Duration) *Illustrator {
	if timeout <= 0 {
		timeout = DefaultIllustrationTimeout
	}
	il := &Illustrator{gw: gw, timeout: timeout}
	if interval > 0 {
		il.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return il
}

func (il *Illustrator) Illustrate(ctx context.Context, prompt string, refs []gateway.Blob) (*schema.GeneratedImage, error) {
	if il.limiter != nil {
		if err := il.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	parts := make([]gateway.Part, 0, len(refs)+1)
	parts = append(parts, gateway.TextPart(illustrationStyle+"\n\n"+prompt))
	for _, ref := range refs {
		parts = append(parts, gateway.InlinePart(ref.MIMEType, ref.Data))
	}

	resp, err := il.gw.Invoke(ctx, gateway.ModalityImage, parts)
	if err != nil {
		return nil, err
	}

	images := gateway.ExtractImages(resp)
	if len(images) == 0 {
		return nil, nil
	}
	img := images[0]
	return &img, nil
}

// IllustrateWithTimeout races Illustrate against the configured deadline.
// A deadline hit is an error, distinct from the clean no-image nil.
func (il *Illustrator) IllustrateWithTimeout(ctx context.Context, prompt string, refs []gateway.Blob) (*schema.GeneratedImage, error) {
	ctx, cancel := context.WithTimeout(ctx, il.timeout)
	defer cancel()

	img, err := il.Illustrate(ctx, prompt, refs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("illustration timed out after %s: %w", il.timeout, err)
		}
		return nil, err
	}
	return img, nil
}
