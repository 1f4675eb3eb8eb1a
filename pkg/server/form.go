package server

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"fable/pkg/schema"
	"fable/pkg/utils"
)

// parseMetadata is tolerant of a missing or malformed metadata field; the
// planners substitute placeholders for anything blank.
func parseMetadata(raw string) schema.Metadata {
	var md schema.Metadata
	if raw == "" {
		return md
	}
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		log.Debug("ignoring malformed metadata field", "error", err)
	}
	return md
}

// parseScenes accepts the scenes field either as a JSON array of strings or
// as the editor's richer array of scene objects, flattened to their content.
func parseScenes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var strs []string
	if err := json.Unmarshal([]byte(raw), &strs); err == nil {
		return strs
	}

	var objs []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(raw), &objs); err != nil {
		log.Debug("ignoring malformed scenes field", "error", err)
		return nil
	}
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		if s := cmp.Or(strings.TrimSpace(o.Content), strings.TrimSpace(o.Title)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func prevImageFrom(dataURL string) *schema.GeneratedImage {
	img, ok := schema.ParseDataURL(dataURL)
	if !ok {
		return nil
	}
	return img
}

// readUserImage pulls the optional uploaded reference image out of the
// multipart form, keeping a timestamped copy under the uploads dir the way
// the upload contract has always worked. Absence is not an error.
func (s *Server) readUserImage(c echo.Context) *schema.GeneratedImage {
	fh, err := c.FormFile("userImage")
	if err != nil {
		return nil
	}

	f, err := fh.Open()
	if err != nil {
		log.Warn("failed opening uploaded image", "error", err)
		return nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.Warn("failed reading uploaded image", "error", err)
		return nil
	}

	if err := s.saveUpload(fh.Filename, data); err != nil {
		log.Warn("failed persisting uploaded image", "error", err)
	}

	img := schema.ImageFromBytes(fh.Header.Get("Content-Type"), data)
	return &img
}

func (s *Server) saveUpload(original string, data []byte) error {
	if err := os.MkdirAll(s.UploadsDir, 0o755); err != nil {
		return err
	}
	safe := cmp.Or(utils.SanitizeFilename(filepath.Base(original)), "upload")
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safe)
	return os.WriteFile(filepath.Join(s.UploadsDir, name), data, 0o644)
}
