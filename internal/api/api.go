// Package api exposes the aggregated destination media over a small JSON
// HTTP API.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/wayfarerhq/wayfarer-go/internal/conf"
	"github.com/wayfarerhq/wayfarer-go/internal/errors"
	"github.com/wayfarerhq/wayfarer-go/internal/logging"
	"github.com/wayfarerhq/wayfarer-go/internal/mediacache"
	"github.com/wayfarerhq/wayfarer-go/internal/observability"
)

// Server hosts the media API endpoints.
type Server struct {
	Echo           *echo.Echo
	cache          *mediacache.Cache
	settings       *conf.Settings
	metrics        *observability.Metrics
	log            *slog.Logger
	closeAccessLog func() error
}

// New creates the API server and registers its routes.
func New(settings *conf.Settings, cache *mediacache.Cache, m *observability.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		Echo:     e,
		cache:    cache,
		settings: settings,
		metrics:  m,
		log:      logging.ForService("api"),
	}

	if settings.Webserver.Log.Enabled {
		accessLog, closeFn, err := logging.NewFileLogger(settings.Webserver.Log.Path, "api", slog.LevelInfo)
		if err != nil {
			s.log.Warn("web access log disabled", "path", settings.Webserver.Log.Path, "error", err)
		} else {
			s.closeAccessLog = closeFn
			e.Use(accessLogMiddleware(accessLog))
		}
	}

	s.initRoutes()
	return s
}

// accessLogMiddleware writes one line per completed request to the web log.
func accessLogMiddleware(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Info("request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote", c.RealIP())
			return err
		}
	}
}

func (s *Server) initRoutes() {
	s.Echo.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	v1 := s.Echo.Group("/api/v1")
	v1.GET("/media/:country/:city", s.handleGetMedia)
}

// Start runs the server on the configured port, blocking until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.settings.Webserver.Port)
	s.log.Info("starting media API", "addr", addr)
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.New(err).
			Component("api").
			Category(errors.CategoryNetwork).
			Context("addr", addr).
			Build()
	}
	return nil
}

// Shutdown stops the server gracefully and closes the access log writer.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	if s.closeAccessLog != nil {
		_ = s.closeAccessLog()
	}
	return err
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetMedia returns the aggregated media view for one destination.
// Passing attractions=A,B,C lets a refresh also pull attraction photos.
func (s *Server) handleGetMedia(c echo.Context) error {
	city := strings.TrimSpace(c.Param("city"))
	country := strings.TrimSpace(c.Param("country"))
	if city == "" || country == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "city and country are required",
		})
	}

	req := mediacache.FetchRequest{City: city, Country: country}
	if raw := c.QueryParam("attractions"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Attractions = append(req.Attractions, name)
			}
		}
	}

	view, err := s.cache.FetchAndCacheMedia(c.Request().Context(), req)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryValidation) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		s.log.Error("media request failed", "city", city, "country", country, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to load destination media",
		})
	}
	return c.JSON(http.StatusOK, view)
}
