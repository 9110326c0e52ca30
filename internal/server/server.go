// Package server provides the HTTP server and routing.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ysncmn/borsapy/internal/config"
	"github.com/ysncmn/borsapy/internal/domain"
	analyticshandlers "github.com/ysncmn/borsapy/internal/modules/analytics/handlers"
	indicatorhandlers "github.com/ysncmn/borsapy/internal/modules/indicators/handlers"
	"github.com/ysncmn/borsapy/internal/modules/portfolio"
	portfoliohandlers "github.com/ysncmn/borsapy/internal/modules/portfolio/handlers"
)

// Config holds server dependencies.
type Config struct {
	Log       zerolog.Logger
	Cfg       *config.Config
	DB        *sql.DB
	Resolver  domain.PriceResolver
	Rates     domain.RateProvider
	Portfolio *portfolio.Service
	Repo      *portfolio.Repository
}

// Server is the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    *config.Config
}

// New creates the HTTP server and wires all module routes.
func New(c Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    c.Log.With().Str("component", "server").Logger(),
		cfg:    c.Cfg,
	}

	s.setupMiddleware()

	system := NewSystemHandlers(s.log, c.DB)
	indicators := indicatorhandlers.NewHandler(c.Resolver, c.Log)
	analytics := analyticshandlers.NewHandler(c.Resolver, c.Rates, c.Cfg.TradingDays, c.Log)
	portfolioH := portfoliohandlers.NewHandler(c.Portfolio, c.Repo, c.Log)

	s.router.Get("/api/health", system.HandleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/system/status", system.HandleStatus)
		indicators.RegisterRoutes(r)
		analytics.RegisterRoutes(r)
		portfolioH.RegisterRoutes(r)
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", c.Cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !s.cfg.DevMode {
		s.router.Use(middleware.Compress(5))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
