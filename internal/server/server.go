// Package server provides the HTTP server and routing for the innovation
// maturity platform.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/config"
	"github.com/ugclabs/innova/internal/database"
	"github.com/ugclabs/innova/internal/events"
	"github.com/ugclabs/innova/internal/modules/dashboard"
	dashboardhandlers "github.com/ugclabs/innova/internal/modules/dashboard/handlers"
	"github.com/ugclabs/innova/internal/modules/ebct"
	ebcthandlers "github.com/ugclabs/innova/internal/modules/ebct/handlers"
	"github.com/ugclabs/innova/internal/modules/jobs"
	"github.com/ugclabs/innova/internal/modules/maturity"
	maturityhandlers "github.com/ugclabs/innova/internal/modules/maturity/handlers"
	"github.com/ugclabs/innova/internal/modules/portfolio"
	portfoliohandlers "github.com/ugclabs/innova/internal/modules/portfolio/handlers"
	"github.com/ugclabs/innova/internal/modules/scoring"
	scoringhandlers "github.com/ugclabs/innova/internal/modules/scoring/handlers"
	"github.com/ugclabs/innova/internal/session"
)

// Config holds server configuration
type Config struct {
	Log      zerolog.Logger
	Config   *config.Config
	Port     int
	DevMode  bool
	Bus      *events.Bus
	Sessions *session.Manager

	PortfolioDB *database.DB
	HistoryDB   *database.DB
	CacheDB     *database.DB

	PortfolioRepo    *portfolio.Repository
	ScoringService   *scoring.Service
	MaturityService  *maturity.Service
	MaturityRepo     *maturity.Repository
	EBCTService      *ebct.Service
	EBCTRepo         *ebct.Repository
	DashboardService *dashboard.Service
	JobsRepo         *jobs.HistoryRepository
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	cfg      Config
	sessions *session.Manager
	log      zerolog.Logger
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		sessions: cfg.Sessions,
		log:      cfg.Log.With().Str("component", "server").Logger(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-ID"},
		ExposedHeaders:   []string{"X-Session-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	location := s.cfg.Config.Location

	s.router.Route("/api", func(r chi.Router) {
		streamHandler := NewEventsStreamHandler(s.cfg.Bus, s.log)
		r.Get("/events/stream", streamHandler.ServeHTTP)

		wsHandler := NewEventsWSHandler(s.cfg.Bus, s.log)
		r.Get("/events/ws", wsHandler.ServeHTTP)

		systemHandlers := NewSystemHandlers(s.cfg.Config, map[string]*database.DB{
			"portfolio": s.cfg.PortfolioDB,
			"history":   s.cfg.HistoryDB,
			"cache":     s.cfg.CacheDB,
		}, s.cfg.JobsRepo, s.sessions, s.log)
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", systemHandlers.HandleHealth)
			r.Get("/info", systemHandlers.HandleInfo)
			r.Get("/jobs", systemHandlers.HandleJobs)
		})

		// Everything below operates on a session
		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			portfolioHandler := portfoliohandlers.NewHandler(s.cfg.PortfolioRepo, s.cfg.Bus, s.log)
			portfolioHandler.RegisterRoutes(r)

			scoringHandler := scoringhandlers.NewHandler(s.cfg.ScoringService, s.cfg.PortfolioRepo, s.cfg.Bus, location, s.log)
			scoringHandler.RegisterRoutes(r)

			maturityHandler := maturityhandlers.NewHandler(s.cfg.MaturityService, s.cfg.MaturityRepo, s.cfg.PortfolioRepo, s.cfg.Bus, location, s.log)
			maturityHandler.RegisterRoutes(r)

			ebctHandler := ebcthandlers.NewHandler(s.cfg.EBCTService, s.cfg.EBCTRepo, s.cfg.Bus, location, s.log)
			ebctHandler.RegisterRoutes(r)

			dashboardHandler := dashboardhandlers.NewHandler(s.cfg.DashboardService, s.log)
			dashboardHandler.RegisterRoutes(r)
		})
	})
}

// sessionMiddleware resolves the operator session from the X-Session-ID
// header. A missing or unknown id gets a fresh session; the id is always
// echoed back so clients can persist it.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Ensure(r.Header.Get("X-Session-ID"))
		w.Header().Set("X-Session-ID", sess.ID)
		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
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
