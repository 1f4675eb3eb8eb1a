package server

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/webp"
	"github.com/labstack/echo/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/segmentio/ksuid"

	"fable/pkg/schema"
	"fable/pkg/utils"
)

// ImageStore persists generated illustrations to disk as WebP and keeps the
// encoded bytes in a short-lived memory cache so a page render right after
// generation never touches the filesystem.
type ImageStore struct {
	dir   string
	cache *gocache.Cache
}

func NewImageStore(dir string) *ImageStore {
	return &ImageStore{
		dir:   dir,
		cache: gocache.New(10*time.Minute, 30*time.Minute),
	}
}

// SaveWebP re-encodes raw image bytes as WebP and writes them under the store
// directory. The encoded bytes are returned and cached under name.
func (st *ImageStore) SaveWebP(name string, data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		var err2 error
		img, _, err2 = image.Decode(bytes.NewReader(data))
		if err2 != nil {
			return nil, fmt.Errorf("failed to decode image (png: %v, generic: %v)", err, err2)
		}
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Lossless: false, Quality: 95}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}

	if err := os.MkdirAll(st.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}
	fullPath := filepath.Join(st.dir, name)
	if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	st.cache.Set(name, buf.Bytes(), gocache.DefaultExpiration)
	return buf.Bytes(), nil
}

// Get returns the stored WebP bytes for name, checking the memory cache
// before the disk copy.
func (st *ImageStore) Get(name string) ([]byte, bool) {
	if v, ok := st.cache.Get(name); ok {
		return v.([]byte), true
	}
	data, err := os.ReadFile(filepath.Join(st.dir, name))
	if err != nil {
		return nil, false
	}
	st.cache.Set(name, data, gocache.DefaultExpiration)
	return data, true
}

// GET /images/:name
func (s *Server) handleGetImage(c echo.Context) error {
	name := utils.SanitizeFilename(c.Param("name"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("Invalid image name"))
	}
	data, ok := s.Images.Get(name)
	if !ok {
		return c.JSON(http.StatusNotFound, utils.ErrJSON("Image not found"))
	}
	return c.Blob(http.StatusOK, "image/webp", data)
}

// persistPayload writes one wire-form image to the store, best effort.
func (s *Server) persistPayload(name string, payload *schema.ImagePayload) {
	if payload == nil {
		return
	}
	img, ok := schema.ParseDataURL(payload.DataURL)
	if !ok {
		return
	}
	data, err := img.Bytes()
	if err != nil {
		log.Warn("skipping image persist", "name", name, "error", err)
		return
	}
	if _, err := s.Images.SaveWebP(name, data); err != nil {
		log.Warn("failed persisting image", "name", name, "error", err)
	}
}

// persistStoryImages writes every illustration from a whole-story run under a
// shared run prefix.
func (s *Server) persistStoryImages(runID string, result *schema.StoryResult) {
	if runID == "" {
		runID = ksuid.New().String()
	}
	if result.Cover != nil && result.Cover.Image != nil {
		s.persistPayload(runID+"-cover.webp", result.Cover.Image)
	}
	for _, page := range result.Pages {
		if page.Image == nil {
			continue
		}
		s.persistPayload(fmt.Sprintf("%s-page-%02d.webp", runID, page.PageNumber), page.Image)
	}
}
