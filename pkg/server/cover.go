package server

import (
	"cmp"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"fable/pkg/schema"
)

// POST /cover-generate
func (s *Server) handleCoverGenerate(c echo.Context) error {
	runID := ksuid.New().String()

	req := schema.CoverRequest{
		Metadata:       parseMetadata(c.FormValue("metadata")),
		GlobalContext:  cmp.Or(c.FormValue("globalContext"), s.Vault.Context()),
		PrevImage:      prevImageFrom(c.FormValue("prevImage")),
		ReferenceImage: s.readUserImage(c),
	}

	// Cover generation degrades instead of failing: a missing plan or image
	// still yields a usable cover built from the metadata.
	cover, _ := s.Generator.GenerateCover(c.Request().Context(), req)

	if cover != nil && cover.Image != nil {
		s.persistPayload(runID+"-cover.webp", cover.Image)
	}

	return c.JSON(http.StatusOK, schema.CoverResponse{
		Success: true,
		Cover:   cover,
	})
}
