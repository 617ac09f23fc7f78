package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/auth"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/config"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/health"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/httputil"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/metrics"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server. Local times in pass records
// are rendered in loc.
func NewServer(cfg config.ServerConfig, svc *Service, loc *time.Location, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(svc.Ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/runs", listRunsHandler(svc, logger))
	mux.HandleFunc("GET /api/v1/runs/latest", latestRunHandler(svc))
	mux.HandleFunc("POST /api/v1/runs", createRunHandler(svc, logger))
	mux.HandleFunc("GET /api/v1/runs/{run_id}/passes", archivedPassesHandler(svc, loc, logger))
	mux.HandleFunc("GET /api/v1/satellites/{norad_id}/samples", samplesHandler(svc))
	mux.HandleFunc("GET /api/v1/satellites/{norad_id}/passes", passesHandler(svc, loc))

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(auth.Config{
		Enabled:     cfg.AuthEnabled,
		Token:       cfg.AuthToken,
		PublicReads: cfg.PublicReads,
	})(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// quietPath reports whether a path is a health check logged at DEBUG.
func quietPath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if quietPath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
