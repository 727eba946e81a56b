// Package httpapi exposes the note pipeline over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rubenlestaa/ideabank/internal/decode"
	"github.com/rubenlestaa/ideabank/internal/engine"
	"github.com/rubenlestaa/ideabank/internal/oracle"
	"github.com/rubenlestaa/ideabank/internal/tree"
)

// Processor is the engine surface the server calls.
type Processor interface {
	ProcessNote(ctx context.Context, note, locale string) ([]engine.Result, error)
	Tree(ctx context.Context) (tree.Tree, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Server provides the HTTP endpoints.
type Server struct {
	echo      *echo.Echo
	processor Processor
	logger    *zap.Logger
	config    *Config
}

// NewServer creates the HTTP server.
func NewServer(processor Processor, logger *zap.Logger, cfg *Config) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		processor: processor,
		logger:    logger,
		config:    cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/notes", s.handleNote)
	v1.GET("/tree", s.handleTree)
}

// NoteRequest is the request body for POST /api/v1/notes.
type NoteRequest struct {
	Note   string `json:"note"`
	Locale string `json:"locale,omitempty"`
}

// NoteResponse is the response body for POST /api/v1/notes.
type NoteResponse struct {
	Results []engine.Result `json:"results"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Stored is true when the note was kept in the inbox for later
	// classification (degraded path).
	Stored bool `json:"stored,omitempty"`
}

// TreeResponse is the response body for GET /api/v1/tree.
type TreeResponse struct {
	Groups tree.Tree `json:"groups"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleNote runs one note through the pipeline.
func (s *Server) handleNote(c echo.Context) error {
	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid note request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.Note == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "note field is required"})
	}

	results, err := s.processor.ProcessNote(c.Request().Context(), req.Note, req.Locale)
	if err != nil {
		var decErr *decode.DecodeError
		switch {
		case errors.As(err, &decErr):
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error: "classifier output could not be decoded",
			})
		case errors.Is(err, oracle.ErrUnavailable):
			return c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:  "classifier unavailable, note stored for later",
				Stored: true,
			})
		default:
			s.logger.Error("note processing failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
	}

	return c.JSON(http.StatusOK, NoteResponse{Results: results})
}

// handleTree returns the current idea tree.
func (s *Server) handleTree(c echo.Context) error {
	t, err := s.processor.Tree(c.Request().Context())
	if err != nil {
		s.logger.Error("failed to load tree", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
	if t == nil {
		t = tree.Tree{}
	}
	return c.JSON(http.StatusOK, TreeResponse{Groups: t})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
