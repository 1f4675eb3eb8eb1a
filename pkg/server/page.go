package server

import (
	"cmp"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"fable/pkg/diff"
	"fable/pkg/schema"
	"fable/pkg/story"
	"fable/pkg/utils"
)

// POST /page-generate
func (s *Server) handlePageGenerate(c echo.Context) error {
	runID := ksuid.New().String()

	req := schema.PageRequest{
		PageContent:         c.FormValue("pageContent"),
		ImagePrompt:         c.FormValue("imagePrompt"),
		StoryContext:        c.FormValue("storyContext"),
		PageNumber:          formInt(c, "pageNumber", 1),
		TotalPages:          formInt(c, "totalPages", 1),
		GlobalContext:       cmp.Or(c.FormValue("globalContext"), s.Vault.Context()),
		PrevImage:           prevImageFrom(c.FormValue("prevImage")),
		PrevPageContent:     c.FormValue("prevPageContent"),
		PrevPageImagePrompt: c.FormValue("prevPageImagePrompt"),
		ReferenceImage:      s.readUserImage(c),
	}

	result, err := s.Generator.GeneratePage(c.Request().Context(), req)
	if err != nil {
		var inputErr *story.InputError
		if errors.As(err, &inputErr) {
			return c.JSON(http.StatusBadRequest, utils.ErrJSON("pageContent is required"))
		}
		log.Error("page generation failed", "run", runID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("Failed to generate page"))
	}

	if result.Image != nil {
		s.persistPayload(fmt.Sprintf("%s-page-%02d.webp", runID, result.PageNumber), result.Image)
	}

	return c.JSON(http.StatusOK, schema.PageResponse{
		Success:         true,
		EnhancedContent: result.EnhancedContent,
		ImagePrompt:     result.ImagePrompt,
		Suggestions:     result.Suggestions,
		Image:           result.Image,
		Changes:         diff.Words(req.PageContent, result.EnhancedContent),
		PageNumber:      result.PageNumber,
		TotalPages:      result.TotalPages,
	})
}

func formInt(c echo.Context, field string, def int) int {
	v, err := strconv.Atoi(c.FormValue(field))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
