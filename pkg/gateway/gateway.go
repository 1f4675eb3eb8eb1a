package gateway

import (
	"context"
	"fmt"
)

// Modality selects which backing model identity a call is routed to.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// Blob is inline binary data plus its MIME type.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Part is one element of a prompt: inline text or an inline image reference.
type Part struct {
	Text   string
	Inline *Blob
}

func TextPart(s string) Part {
	return Part{Text: s}
}

func InlinePart(mimeType string, data []byte) Part {
	return Part{Inline: &Blob{MIMEType: mimeType, Data: data}}
}

// Response is the provider-neutral raw model reply. Providers fill whichever
// of the three shapes they produce; extraction tries them all because the
// reply layout is not contractually stable across model versions.
type Response struct {
	Candidates []Candidate
	Contents   []TextContent
	OutputText string
}

type Candidate struct {
	Content Content
}

type Content struct {
	Parts []Part
}

type TextContent struct {
	Text string
}

// Gateway is the uniform interface to the external generative capability.
// Implementations never retry; callers own retry and fallback policy.
type Gateway interface {
	Invoke(ctx context.Context, modality Modality, parts []Part) (*Response, error)
}

// Error wraps a failed or timed-out remote model call.
type Error struct {
	Modality Modality
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s model call failed: %v", e.Modality, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
