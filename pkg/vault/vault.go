// Package vault keeps the user's reusable snippets (character notes, style
// rules, image references) and builds the global context block prepended to
// every generation prompt.
package vault

import (
	"cmp"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"fable/pkg/utils"
)

const (
	TypeText  = "text"
	TypeImage = "image"

	maxItemsPerSection = 20
	maxContentRunes    = 500
)

type Item struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

// Store is a JSON-file-backed item collection. It is the only mutable state
// the service keeps; everything in the pipeline stays per-request.
type Store struct {
	path string

	mu    sync.Mutex
	items []Item
}

// Open loads the store at path, starting empty when the file is missing.
func Open(path string) *Store {
	s := &Store{path: path}
	items, err := utils.Load[[]Item](path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed loading vault, starting empty", "path", path, "error", err)
		}
		return s
	}
	s.items = items
	log.Info("loaded vault", "path", path, "items", len(items))
	return s
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// Replace swaps the whole collection, assigning IDs and timestamps to new
// entries, and persists. The stored result is returned.
func (s *Store) Replace(items []Item) ([]Item, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Content) == "" {
			continue
		}
		it.Type = cmp.Or(it.Type, TypeText)
		it.ID = cmp.Or(it.ID, ksuid.New().String())
		it.CreatedAt = cmp.Or(it.CreatedAt, now)
		kept = append(kept, it)
	}

	s.mu.Lock()
	s.items = kept
	s.mu.Unlock()

	return kept, s.Save()
}

func (s *Store) Save() error {
	s.mu.Lock()
	items := append([]Item(nil), s.items...)
	s.mu.Unlock()
	return utils.Save(s.path, items)
}

// Context builds the global context block from the stored items.
func (s *Store) Context() string {
	return BuildContext(s.Items())
}

// BuildContext formats items into the prose block prepended to prompts:
// text snippets first, then image references, each section capped and each
// entry truncated so the block stays a bounded fraction of any prompt.
func BuildContext(items []Item) string {
	var texts, images []Item
	for _, it := range items {
		switch it.Type {
		case TypeImage:
			images = append(images, it)
		default:
			texts = append(texts, it)
		}
	}

	var lines []string
	if len(texts) > 0 {
		lines = append(lines, "Text Snippets:")
		for _, it := range clip(texts) {
			lines = append(lines, "- "+itemTitle(it)+tagSuffix(it)+": "+utils.LimitStr(it.Content, maxContentRunes))
		}
	}
	if len(images) > 0 {
		lines = append(lines, "Image References:")
		for _, it := range clip(images) {
			lines = append(lines, "- "+itemTitle(it)+tagSuffix(it)+": "+cmp.Or(it.Content, "(no url)"))
		}
	}
	return strings.Join(lines, "\n")
}

func clip(items []Item) []Item {
	if len(items) > maxItemsPerSection {
		return items[:maxItemsPerSection]
	}
	return items
}

func itemTitle(it Item) string {
	return cmp.Or(strings.TrimSpace(it.Title), "Untitled")
}

func tagSuffix(it Item) string {
	if len(it.Tags) == 0 {
		return ""
	}
	return " [tags: " + strings.Join(it.Tags, ", ") + "]"
}
