package utils

import (
	"github.com/pkoukk/tiktoken-go"
)

// NumTokens estimates the token count of text. Falls back to a bytes/4
// heuristic when the encoding is unavailable (offline BPE data).
func NumTokens(text string) int {
	tkm, err := tiktoken.EncodingForModel("gpt-4-0613")
	if err != nil {
		return len(text) / 4
	}
	return len(tkm.Encode(text, nil, nil))
}
