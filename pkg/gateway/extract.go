package gateway

import (
	"fable/pkg/schema"
)

// ExtractText pulls the text payload out of a raw model response, trying
// each documented reply shape in order. Returns "" when every shape misses;
// it never errors.
func ExtractText(resp *Response) string {
	if resp == nil {
		return ""
	}
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	if len(resp.Contents) > 0 && resp.Contents[0].Text != "" {
		return resp.Contents[0].Text
	}
	return resp.OutputText
}

// ExtractImages collects every inline image carried by the first candidate,
// in response order, defaulting the MIME type to image/png. Callers use only
// the first by convention; the full list is returned anyway.
func ExtractImages(resp *Response) []schema.GeneratedImage {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	var out []schema.GeneratedImage
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Inline == nil || len(part.Inline.Data) == 0 {
			continue
		}
		out = append(out, schema.ImageFromBytes(part.Inline.MIMEType, part.Inline.Data))
	}
	return out
}
