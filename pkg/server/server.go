package server

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fable/pkg/story"
	"fable/pkg/vault"
)

type Server struct {
	Echo      *echo.Echo
	Generator *story.Generator
	Vault     *vault.Store
	Images    *ImageStore
	Ctx       context.Context

	UploadsDir string
}

func NewServer(ctx context.Context, gen *story.Generator, vaultStore *vault.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:       e,
		Generator:  gen,
		Vault:      vaultStore,
		Images:     NewImageStore("images"),
		Ctx:        ctx,
		UploadsDir: "uploads",
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	s.Echo.GET("/health", s.handleGetHealth)

	s.Echo.POST("/whole-story-generate", s.handleWholeStory)
	s.Echo.POST("/page-generate", s.handlePageGenerate)
	s.Echo.POST("/cover-generate", s.handleCoverGenerate)

	// vault-backed global context for the editor screens
	api := s.Echo.Group("/api")
	api.GET("/context", s.handleGetContext)
	api.PUT("/context", s.handlePutContext)

	// generated illustrations persisted server-side
	s.Echo.GET("/images/:name", s.handleGetImage)
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")

	saveErr := s.Vault.Save()
	if err := s.Echo.Shutdown(ctx); err != nil {
		return err
	}
	return saveErr
}
