// Package httpserver exposes the dashboard described in spec §4.8: a
// static HTML shell, a JSON state snapshot, and a WebSocket broadcast of
// every scan completion and realtime opportunity transition. It owns no
// business logic -- every response is built from whatever StateProvider
// reports.
package httpserver

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mselser95/arb-scanner/pkg/healthprobe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed static/index.html
var staticFS embed.FS

// Server is the dashboard's HTTP/WebSocket frontend.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	provider      StateProvider
	hub           *hub
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	Provider      StateProvider
}

// New creates the dashboard HTTP server.
func New(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		// embed.FS is compiled in; this can only fail if the directory
		// name above is wrong, which a reviewer would catch at review
		// time, not at runtime.
		panic(fmt.Sprintf("httpserver: static assets missing: %v", err))
	}

	s := &Server{
		logger:        logger,
		healthChecker: cfg.HealthChecker,
		provider:      cfg.Provider,
		hub:           newHub(logger),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	if cfg.HealthChecker != nil {
		r.Get("/health", cfg.HealthChecker.Health())
		r.Get("/ready", cfg.HealthChecker.Ready())
	}
	r.Get("/api/state", s.handleState)
	r.Get("/ws", s.handleWebSocket)
	r.Handle("/*", http.FileServer(http.FS(static)))

	s.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start launches the WebSocket hub and blocks serving HTTP until Shutdown
// is called or the listener errors.
func (s *Server) Start() error {
	go s.hub.run()

	s.logger.Info("dashboard-server-starting", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("dashboard-server-shutting-down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
