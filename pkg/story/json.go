package story

import (
	"encoding/json"
	"strings"

	"fable/pkg/utils"
)

// Structured-text models routinely wrap JSON in prose or markdown fences
// despite instructions, so decoding escalates through an ordered list of
// strategies instead of trusting any single reply shape.

// DecodeStringArray interprets text as a JSON array of strings, tolerating
// fenced code blocks and surrounding prose. A reply that parses to any other
// shape falls through to the next strategy; exhaustion yields a *ParseError
// carrying the raw text.
func DecodeStringArray(text string) ([]string, error) {
	for _, candidate := range jsonCandidates(text, '[', ']') {
		var out []string
		if err := json.Unmarshal([]byte(candidate), &out); err == nil {
			return out, nil
		}
	}
	return nil, &ParseError{Raw: text}
}

// DecodeObject interprets text as a JSON object into v, with the same
// escalation as DecodeStringArray but over braces.
func DecodeObject(text string, v any) error {
	for _, candidate := range jsonCandidates(text, '{', '}') {
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		}
	}
	return &ParseError{Raw: text}
}

// jsonCandidates lists the substrings to attempt, in order: the full text,
// the interior of the first fenced code block, and the span between the
// first open and last close delimiter.
func jsonCandidates(text string, open, close byte) []string {
	out := []string{strings.TrimSpace(text)}
	if block, ok := utils.FencedBlock(text); ok {
		out = append(out, block)
	}
	if i := strings.IndexByte(text, open); i >= 0 {
		if j := strings.LastIndexByte(text, close); j > i {
			out = append(out, text[i:j+1])
		}
	}
	return out
}
