package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"moddeploy/internal/deploy"
	"moddeploy/internal/versions"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// HTTP server timeouts
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 10 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Request timeout for middleware
	RequestTimeout = 60 * time.Second

	// Rate limiting - requests per minute
	GlobalRateLimit  = 30
	WebhookRateLimit = 10
)

// VersionLister is the read side of the version store the status surface
// needs.
type VersionLister interface {
	RecentFiles(ctx context.Context, mod string, limit int) ([]versions.FileRecord, error)
}

// Server is the HTTP front of the deployment manager.
type Server struct {
	Manager  *deploy.Manager
	Versions VersionLister
	Secret   string
	Logger   *slog.Logger
	TestMode bool
}

// NewServer creates a server around manager. secret is the webhook
// signing secret; empty disables signature verification. store may be
// nil when no version database is configured (test mode).
func NewServer(manager *deploy.Manager, store VersionLister, secret string, logger *slog.Logger, testMode bool) *Server {
	return &Server{
		Manager:  manager,
		Versions: store,
		Secret:   secret,
		Logger:   logger,
		TestMode: testMode,
	}
}

// Router creates and configures the HTTP router.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	// Logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				s.Logger.Info("http_request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds())
			}()

			next.ServeHTTP(ww, r)
		})
	})

	if !s.TestMode {
		r.Use(NewRateLimitMiddleware(GlobalRateLimit, s.Logger))
	}

	r.Get("/health", s.HandleHealth)
	r.Get("/versions/{mod}", s.HandleVersions)

	if !s.TestMode {
		r.With(NewRateLimitMiddleware(WebhookRateLimit, s.Logger)).Post("/webhook", s.HandleWebhook)
	} else {
		r.Post("/webhook", s.HandleWebhook)
	}

	return r
}

// Start starts the HTTP server.
func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.Logger.Info("starting server", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	return server.ListenAndServe()
}

// Shutdown waits for in-flight deployments before returning.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Manager.WaitForDeployments()
	return nil
}
