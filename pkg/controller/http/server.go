package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/metrics"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
	"github.com/secmon-lab/meetupboard/pkg/utils/safe"
)

// LeaderboardUseCase computes leaderboard entries
type LeaderboardUseCase interface {
	Leaderboard(ctx context.Context) ([]*model.LeaderboardEntry, error)
	LeaderboardEntry(ctx context.Context, userID model.UserID) (*model.LeaderboardEntry, error)
}

// Prewarmer fills a credential cache ahead of use
type Prewarmer interface {
	Prewarm(ctx context.Context) error
}

type Server struct {
	router      *chi.Mux
	leaderboard LeaderboardUseCase
	apiKey      string
	prewarmer   Prewarmer
	metrics     bool
}

type Options func(*Server)

// WithPrewarmer sets the credential filled before every authorized
// leaderboard computation
func WithPrewarmer(p Prewarmer) Options {
	return func(s *Server) {
		s.prewarmer = p
	}
}

// WithMetrics exposes the Prometheus registry at /metrics
func WithMetrics(enabled bool) Options {
	return func(s *Server) {
		s.metrics = enabled
	}
}

func New(leaderboard LeaderboardUseCase, apiKey string, opts ...Options) (*Server, error) {
	if leaderboard == nil {
		return nil, goerr.New("leaderboard use case is required")
	}
	if apiKey == "" {
		return nil, goerr.New("API key is required")
	}

	r := chi.NewRouter()

	s := &Server{
		router:      r,
		leaderboard: leaderboard,
		apiKey:      apiKey,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	if s.metrics {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api/getleaders", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.apiKey))
		r.Get("/", leaderboardHandler(s.leaderboard, s.prewarmer))
		r.Get("/{userId}", leaderboardEntryHandler(s.leaderboard, s.prewarmer))
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests and binds a request
// scoped logger to the context
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, []byte("ok"))
}
