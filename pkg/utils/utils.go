package utils

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrJSON produces a standard JSON error response.
func ErrJSON(msg string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   msg,
	}
}

// PrettyJSON marshals with indentation.
func PrettyJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

// CleanJSON removes markdown code blocks from a string to extract raw JSON.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) >= 2 {
			// Remove first line (```json) and last line (```)
			if strings.HasPrefix(lines[0], "```") {
				lines = lines[1:]
			}
			if len(lines) > 0 && strings.HasPrefix(lines[len(lines)-1], "```") {
				lines = lines[:len(lines)-1]
			}
			s = strings.Join(lines, "\n")
		}
	}
	return strings.TrimSpace(s)
}

var fencedRX = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)```")

// FencedBlock returns the interior of the first triple-backtick code block,
// optionally tagged "json". The second result is false when there is none.
func FencedBlock(s string) (string, bool) {
	m := fencedRX.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// LimitStr returns a string truncated to n runes with "..." appended if longer.
func LimitStr(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// SanitizeFilename strips path separators and other characters unsafe for
// filenames built from user input.
func SanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.TrimSpace(s)
	return s
}

// TokenizeWords splits text into alternating word and whitespace tokens,
// preserving the original content when rejoined.
func TokenizeWords(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	var cur strings.Builder
	curSpace := false
	for i, r := range s {
		isSpace := unicode.IsSpace(r)
		if i > 0 && isSpace != curSpace {
			out = append(out, cur.String())
			cur.Reset()
		}
		curSpace = isSpace
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

var paragraphRX = regexp.MustCompile(`\n{2,}`)

// ChunkText splits text into pieces of at most limit runes, preferring
// paragraph boundaries, then line boundaries, then hard cuts.
func ChunkText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var blocks []string
	var joiner string
	if paragraphRX.FindStringIndex(text) != nil {
		blocks = paragraphRX.Split(text, -1)
		joiner = "\n\n"
	} else if strings.Contains(text, "\n") {
		blocks = strings.Split(text, "\n")
		joiner = "\n"
	} else {
		blocks = []string{text}
		joiner = " "
	}

	var out []string
	cur := ""
	flush := func() {
		if cur != "" {
			out = append(out, cur)
			cur = ""
		}
	}
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if utf8.RuneCountInString(block) > limit {
			flush()
			out = append(out, hardCut(block, limit)...)
			continue
		}
		joined := block
		if cur != "" {
			joined = cur + joiner + block
		}
		if utf8.RuneCountInString(joined) <= limit {
			cur = joined
		} else {
			flush()
			cur = block
		}
	}
	flush()
	return out
}

func hardCut(s string, limit int) []string {
	var out []string
	runes := []rune(s)
	for len(runes) > 0 {
		n := min(limit, len(runes))
		out = append(out, strings.TrimSpace(string(runes[:n])))
		runes = runes[n:]
	}
	return out
}
