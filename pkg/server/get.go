package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"fable/pkg/schema"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "Fable Storybook API",
		"status":  "ok",
	})
}

func (s *Server) handleGetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, schema.HealthResponse{OK: true})
}
