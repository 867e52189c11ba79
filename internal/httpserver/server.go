// Package httpserver serves the operations endpoints of a running bot:
// health probes, Prometheus metrics and build information.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/cyan/internal/metrics"
	"github.com/pscheid92/cyan/internal/platform/correlation"
)

type Server struct {
	echo         *echo.Echo
	port         string
	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer wires the routes. reg is scraped at /metrics and also receives
// the server's own request metrics.
func NewServer(port string, reg *prometheus.Registry, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	httpMetrics := metrics.NewHTTPMetrics(reg)
	e.Use(correlationMiddleware)
	e.Use(httpMetrics.Middleware())

	srv := &Server{
		echo:         e,
		port:         port,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}
	srv.registerHealthRoutes()
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	return srv
}

// Start blocks serving on the configured port until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("Starting ops server", "port", s.port)
	if err := s.echo.Start(":" + s.port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start ops server: %w", err)
	}
	return nil
}

// Serve is Start on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	s.echo.Listener = l
	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve ops server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown ops server: %w", err)
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
