package server

import (
	"cmp"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"fable/pkg/schema"
	"fable/pkg/story"
	"fable/pkg/utils"
)

// POST /whole-story-generate
func (s *Server) handleWholeStory(c echo.Context) error {
	runID := ksuid.New().String()

	req := schema.StoryRequest{
		Metadata:       parseMetadata(c.FormValue("metadata")),
		FullScript:     c.FormValue("fullScript"),
		Scenes:         parseScenes(c.FormValue("scenes")),
		GlobalContext:  cmp.Or(c.FormValue("globalContext"), s.Vault.Context()),
		ReferenceImage: s.readUserImage(c),
	}

	result, err := s.Generator.GenerateStory(c.Request().Context(), req)
	if err != nil {
		var inputErr *story.InputError
		if errors.As(err, &inputErr) {
			return c.JSON(http.StatusBadRequest, utils.ErrJSON("Provide fullScript or scenes"))
		}
		log.Error("whole story generation failed", "run", runID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("Failed to generate story"))
	}

	s.persistStoryImages(runID, result)
	log.Info("whole story generated", "run", runID, "pages", result.TotalPages)

	return c.JSON(http.StatusOK, schema.StoryResponse{
		Success:       true,
		Metadata:      result.Metadata,
		GlobalContext: result.GlobalContext,
		Cover:         result.Cover,
		TotalPages:    result.TotalPages,
		Pages:         result.Pages,
	})
}
