package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"fable/pkg/utils"
	"fable/pkg/vault"
)

type contextResponse struct {
	Success bool         `json:"success"`
	Items   []vault.Item `json:"items"`
	Context string       `json:"context"`
}

// GET /api/context
func (s *Server) handleGetContext(c echo.Context) error {
	items := s.Vault.Items()
	return c.JSON(http.StatusOK, contextResponse{
		Success: true,
		Items:   items,
		Context: vault.BuildContext(items),
	})
}

// PUT /api/context
func (s *Server) handlePutContext(c echo.Context) error {
	var body struct {
		Items []vault.Item `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("Invalid context payload"))
	}

	kept, err := s.Vault.Replace(body.Items)
	if err != nil {
		log.Error("failed saving vault", "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("Failed to save context"))
	}

	return c.JSON(http.StatusOK, contextResponse{
		Success: true,
		Items:   kept,
		Context: vault.BuildContext(kept),
	})
}
