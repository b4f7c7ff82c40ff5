// Package web provides the HTML views and status API for hbnb.
package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/hbnb/hbnb/internal/metrics"
	"github.com/hbnb/hbnb/internal/observability"
	"github.com/hbnb/hbnb/pkg/hbnb"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Server represents the web server.
type Server struct {
	echo    *echo.Echo
	store   hbnb.ObjectStore
	metrics *metrics.Collector
	logger  *zap.Logger
}

// Config holds server configuration.
type Config struct {
	Store         hbnb.ObjectStore
	Metrics       *metrics.Collector
	Logger        *zap.Logger
	Observability *observability.Observability
}

// NewServer creates a new web server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, hbnb.ErrInvalidInput
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &templateRenderer{templates: templates}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// OpenTelemetry tracing middleware (must be before logging to add trace context)
	if cfg.Observability != nil {
		e.Use(tracingMiddleware(cfg.Observability))
	}

	e.Use(loggingMiddleware(cfg.Logger, cfg.Observability))

	if cfg.Metrics != nil {
		e.Use(metricsMiddleware(cfg.Metrics))
	}

	s := &Server{
		echo:    e,
		store:   cfg.Store,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}

	// Runs innermost so the store is reset after the handler has rendered
	e.Use(s.teardownMiddleware())

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.healthz)

	s.echo.GET("/states_list", s.statesList)
	s.echo.GET("/cities_by_states", s.citiesByStates)
	s.echo.GET("/states", s.states)
	s.echo.GET("/states/:id", s.state)
	s.echo.GET("/hbnb_filters", s.hbnbFilters)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/status", s.status)
	v1.GET("/stats", s.stats)

	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start starts the web server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// templateRenderer renders embedded html/template views.
type templateRenderer struct {
	templates *template.Template
}

// Render implements echo.Renderer.
func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// teardownMiddleware closes the store after every request, which resets
// its in-memory state from the backing resource. Close errors are logged
// and never change the response.
func (s *Server) teardownMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			ctx := c.Request().Context()
			if closeErr := s.store.Close(context.WithoutCancel(ctx)); closeErr != nil {
				logger := observability.LoggerWithTraceContext(ctx, s.logger)
				logger.Error("store teardown failed",
					zap.String("uri", c.Request().RequestURI),
					zap.Error(closeErr),
				)
			}
			return err
		}
	}
}

// loggingMiddleware creates a logging middleware with trace correlation.
func loggingMiddleware(logger *zap.Logger, obs *observability.Observability) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}

			if obs != nil {
				fields = append(fields, observability.TraceContextFromContext(c.Request().Context())...)
			}

			logger.Info("request", fields...)
			return nil
		},
	})
}

// metricsMiddleware records request counts and latency per route.
func metricsMiddleware(collector *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			collector.RecordRequest(c.Path(), c.Request().Method, status, time.Since(start))
			return err
		}
	}
}

// errorResponse represents an error response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// healthz handles GET /healthz.
func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
