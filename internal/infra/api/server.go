package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"humaine-chatbot/internal/config"
	"humaine-chatbot/internal/domain/ports/repository"
	"humaine-chatbot/internal/usecase"
)

const Version = "1.0.0"

type Deps struct {
	Chat     usecase.ChatUseCase
	Profiles usecase.ProfileUseCase
	Metrics  usecase.MetricsUseCase
	Health   usecase.HealthUseCase

	// Limiter throttles /interact per user; nil disables throttling.
	Limiter repository.RateLimiter
	// Auth signs admin sessions; nil disables the admin routes.
	Auth          *AuthManager
	APIKey        string
	AdminPassword string
}

type Server struct {
	deps   Deps
	cfg    config.ServerConfig
	log    *zerolog.Logger
	now    func() time.Time
	server *http.Server
}

func NewServer(cfg config.ServerConfig, deps Deps, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "api").Logger()
	return &Server{deps: deps, cfg: cfg, log: &l, now: time.Now}
}

// Routes builds the chi router with the full middleware chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		Recover(s.log),
		TraceID(),
		RequestLog(s.log),
		HTTPMetrics(),
		Timeout(s.cfg.RequestTimeout),
	)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/admin/login", s.handleAdminLogin)
	r.Post("/admin/logout", s.handleAdminLogout)

	r.Group(func(r chi.Router) {
		r.Use(APIKey(s.deps.APIKey))
		r.Post("/interact", s.handleInteract)
		r.Post("/feedback", s.handleFeedback)
		r.Post("/session", s.handleSession)
		r.Get("/profile/{userID}", s.handleProfile)
		r.Get("/profiles/insights/{userID}", s.handleInsights)
		r.Get("/metrics/engagement/{userID}", s.handleEngagement)
		r.Get("/metrics/behavior/{userID}", s.handleBehavior)
		r.Get("/metrics/comprehensive/{userID}", s.handleComprehensive)
	})

	r.Group(func(r chi.Router) {
		r.Use(Admin(s.deps.Auth))
		r.Get("/profiles/stats", s.handleStats)
		r.Post("/profiles/save", s.handleSave)
		r.Delete("/profile/{userID}", s.handleDeleteProfile)
		r.Get("/metrics/overview", s.handleOverview)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("HTTP server stopped")
	return nil
}
