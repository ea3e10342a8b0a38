package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/metadex/metadex/internal/api/handlers"
	apimw "github.com/metadex/metadex/internal/api/middleware"
	"github.com/metadex/metadex/internal/api/ratelimit"
	"github.com/metadex/metadex/internal/config"
	"github.com/metadex/metadex/internal/health"
	"github.com/metadex/metadex/internal/metadata"
	"github.com/metadex/metadex/internal/metrics"
	"github.com/metadex/metadex/internal/profiles"
	"github.com/metadex/metadex/internal/scheduler"
	"github.com/metadex/metadex/internal/websocket"
)

// Deps are the services the API exposes. Health, Hub and Scheduler are optional.
type Deps struct {
	Metadata  *metadata.Service
	Profiles  *profiles.Service
	Health    *health.Service
	DBCheck   *health.DatabaseChecker
	Hub       *websocket.Hub
	Scheduler *scheduler.Scheduler
}

// Server handles HTTP requests for the metadex API.
type Server struct {
	echo      *echo.Echo
	deps      Deps
	cfg       config.ServerConfig
	logger    zerolog.Logger
	startTime time.Time
}

// NewServer creates a new API server instance.
func NewServer(deps Deps, cfg config.ServerConfig, logger *zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		deps:      deps,
		cfg:       cfg,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())
	s.echo.Use(metrics.Middleware())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Debug()
			if v.Error != nil {
				event = s.logger.Warn().Err(v.Error)
			}
			event.
				Str("requestId", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.liveness)
	s.echo.GET("/metrics", metrics.Handler())
	if s.deps.Hub != nil {
		s.echo.GET("/ws", s.deps.Hub.HandleWebSocket)
	}

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	var limit []echo.MiddlewareFunc
	if s.cfg.MetadataRateLimit > 0 {
		limit = append(limit, ratelimit.NewIPLimiter(s.cfg.MetadataRateLimit, ratelimit.DefaultWindow).Middleware())
	}
	metadataHandlers := metadata.NewHandlers(s.deps.Metadata)
	metadataHandlers.RegisterRoutes(api.Group("/metadata", limit...))
	metadataHandlers.RegisterProviderRoutes(api.Group("/providers"))

	profiles.NewHandlers(s.deps.Profiles).RegisterRoutes(api.Group("/profiles"))

	if s.deps.Health != nil {
		health.NewHandlers(s.deps.Health, s.deps.DBCheck).RegisterRoutes(api.Group("/health"))
	}
	if s.deps.Scheduler != nil {
		handlers.NewSchedulerHandler(s.deps.Scheduler).RegisterRoutes(api.Group("/scheduler"))
	}
}

// Start begins listening for HTTP requests. It returns nil after Shutdown.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("Starting HTTP server")
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	status := map[string]interface{}{
		"version":   config.Version,
		"commit":    config.Commit,
		"startTime": s.startTime.UTC().Format(time.RFC3339),
		"providers": len(s.deps.Metadata.Providers()),
	}
	if s.deps.Health != nil {
		status["hasIssues"] = s.deps.Health.GetSummary().HasIssues
	}
	return c.JSON(http.StatusOK, status)
}
