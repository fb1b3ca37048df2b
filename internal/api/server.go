package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hireloop/interview-engine/internal/config"
	"github.com/hireloop/interview-engine/internal/interview"
	"github.com/hireloop/interview-engine/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.Config
	router         *chi.Mux
	service        *interview.Service
	repo           storage.Repository
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.Config, service *interview.Service, repo storage.Repository) *Server {
	s := &Server{
		config:         cfg,
		service:        service,
		repo:           repo,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// Candidate session routes, addressed by invite token. The token is the
	// only credential a candidate holds.
	r.Route("/challenge/{token}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Put("/content", s.handleUpdateContent)
		r.Post("/events", s.handleRecordEvents)
		r.Post("/heartbeat", s.handleHeartbeat)
		r.Post("/submit", s.handleSubmit)
	})

	// API v1 routes for reviewer tooling (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		// Challenges
		r.Route("/challenges", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("challenges:read")).Get("/", s.handleListChallenges)
			r.With(s.authMiddleware.RequirePermission("challenges:write")).Post("/", s.handleCreateChallenge)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("challenges:read")).Get("/", s.handleGetChallenge)
				r.With(s.authMiddleware.RequirePermission("challenges:write")).Post("/invite", s.handleInviteCandidate)
			})
		})

		// Challenge library templates
		r.Route("/templates", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("templates:read")).Get("/", s.handleListTemplates)
			r.With(s.authMiddleware.RequirePermission("templates:read")).Get("/{name}", s.handleGetTemplate)
		})

		// Submissions and playback
		r.Route("/submissions", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("submissions:read")).Get("/", s.handleListSubmissions)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("submissions:read")).Get("/", s.handleGetSubmission)
				r.With(s.authMiddleware.RequirePermission("submissions:read")).Get("/timeline", s.handleGetTimeline)
				r.With(s.authMiddleware.RequirePermission("submissions:read")).Get("/playback", s.handlePlaybackSummary)
				r.With(s.authMiddleware.RequirePermission("submissions:read")).Get("/state", s.handleStateAt)
				r.With(s.authMiddleware.RequirePermission("submissions:read")).Get("/activity", s.handleActivity)
				r.With(s.authMiddleware.RequirePermission("submissions:read")).Get("/playback/ws", s.handlePlaybackWS)

				r.With(s.authMiddleware.RequirePermission("submissions:write")).Post("/review", s.handleStartReview)
				r.With(s.authMiddleware.RequirePermission("submissions:write")).Post("/decision", s.handleDecide)

				r.Route("/comments", func(r chi.Router) {
					r.With(s.authMiddleware.RequirePermission("submissions:read")).Get("/", s.handleListComments)
					r.With(s.authMiddleware.RequirePermission("submissions:write")).Post("/", s.handleAddComment)
					r.With(s.authMiddleware.RequirePermission("submissions:write")).Delete("/{commentID}", s.handleDeleteComment)
				})
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
