// Package diff renders word-level deltas between the prose a user submitted
// and the enhanced prose the planner returned, so a review UI can show what
// the enhancement changed.
package diff

import (
	"strings"

	"github.com/aryann/difflib"

	"fable/pkg/utils"
)

const (
	OpEqual  = "equal"
	OpInsert = "insert"
	OpDelete = "delete"
)

type Delta struct {
	Op   string `json:"op"`
	Text string `json:"text"`
}

// Words diffs two strings at word granularity, coalescing runs of the same
// operation. Whitespace-only equal runs are folded into the surrounding run.
func Words(oldText, newText string) []Delta {
	if oldText == newText {
		if oldText == "" {
			return nil
		}
		return []Delta{{Op: OpEqual, Text: oldText}}
	}

	recs := difflib.Diff(utils.TokenizeWords(oldText), utils.TokenizeWords(newText))
	deltas := make([]Delta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			deltas = append(deltas, Delta{Op: OpEqual, Text: r.Payload})
		case difflib.LeftOnly:
			deltas = append(deltas, Delta{Op: OpDelete, Text: r.Payload})
		case difflib.RightOnly:
			deltas = append(deltas, Delta{Op: OpInsert, Text: r.Payload})
		}
	}
	return coalesce(deltas)
}

func coalesce(in []Delta) []Delta {
	out := make([]Delta, 0, len(in))
	var buf strings.Builder
	cur := ""

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, Delta{Op: cur, Text: buf.String()})
		buf.Reset()
	}

	for _, d := range in {
		if d.Op == OpEqual && strings.TrimSpace(d.Text) == "" && cur != "" && cur != OpEqual {
			buf.WriteString(d.Text)
			continue
		}
		if d.Op != cur {
			flush()
			cur = d.Op
		}
		buf.WriteString(d.Text)
	}
	flush()
	return out
}
