package schema

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const defaultImageMime = "image/png"

// GeneratedImage is the unit of image transport between the illustrator and
// its callers: a MIME type plus base64-encoded payload.
type GeneratedImage struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ImagePayload is the wire form of a generated image, always carrying a
// data: URI ready for display.
type ImagePayload struct {
	MimeType string `json:"mimeType"`
	DataURL  string `json:"dataUrl"`
}

// ImageFromBytes encodes raw image bytes. A blank mime type defaults to
// image/png.
func ImageFromBytes(mimeType string, data []byte) GeneratedImage {
	if mimeType == "" {
		mimeType = defaultImageMime
	}
	return GeneratedImage{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}
}

// Bytes decodes the base64 payload back into raw image bytes.
func (g GeneratedImage) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(g.Data)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return data, nil
}

// DataURL renders the image as a data:<mime>;base64,<data> URI.
func (g GeneratedImage) DataURL() string {
	mime := g.MimeType
	if mime == "" {
		mime = defaultImageMime
	}
	return "data:" + mime + ";base64," + g.Data
}

// Payload converts to the wire form.
func (g GeneratedImage) Payload() *ImagePayload {
	return &ImagePayload{MimeType: g.MimeType, DataURL: g.DataURL()}
}

// ParseDataURL is the inverse of DataURL. It reports false for anything that
// is not a base64 data URI; a missing MIME type defaults to image/png.
func ParseDataURL(s string) (*GeneratedImage, bool) {
	if !strings.HasPrefix(s, "data:") {
		return nil, false
	}
	meta, data, found := strings.Cut(s, ",")
	if !found {
		return nil, false
	}
	meta = strings.TrimPrefix(meta, "data:")
	meta, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, false
	}
	mime := strings.TrimSpace(meta)
	if mime == "" {
		mime = defaultImageMime
	}
	return &GeneratedImage{MimeType: mime, Data: data}, true
}
