package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/metrics"
)

// DefaultOpsListenAddr binds the ops server to loopback; probes and
// scrapes are not meant to leave the host unless explicitly configured.
const DefaultOpsListenAddr = "127.0.0.1:9090"

// ReadyCheckTimeout is the maximum time allowed for a readiness check.
// This prevents a slow store from blocking health probes indefinitely.
const ReadyCheckTimeout = 5 * time.Second

// ReadyCheck reports whether the daemon is ready to serve. A nil error
// means ready.
type ReadyCheck func(ctx context.Context) error

// OpsServer provides the operational HTTP server.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - GET /health/ready: Readiness probe
//   - GET /metrics: Prometheus scrape target (404 when metrics are disabled)
//
// The server supports graceful shutdown and is safe to stop more than once.
type OpsServer struct {
	server       *http.Server
	addr         string
	ready        ReadyCheck
	startTime    time.Time
	shutdownOnce sync.Once
}

// opsResponse is the standard envelope for health endpoint responses.
//
//   - Status indicates the overall result ("healthy", "unhealthy")
//   - Timestamp provides response time for debugging
//   - Data contains the response payload (optional)
//   - Error contains error details when Status indicates failure (optional)
type opsResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NewOpsServer creates the ops HTTP server.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests.
//
// ready is consulted by the readiness probe and may be nil, in which case
// readiness reports unhealthy.
func NewOpsServer(addr string, ready ReadyCheck) *OpsServer {
	if addr == "" {
		addr = DefaultOpsListenAddr
	}

	s := &OpsServer{
		addr:      addr,
		ready:     ready,
		startTime: time.Now(),
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// router configures the chi router with all middleware and routes.
func (s *OpsServer) router() http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", s.liveness)
		r.Get("/ready", s.readiness)
	})

	r.Get("/metrics", s.scrape)

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK as long as the HTTP server is responsive.
func (s *OpsServer) liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.startTime)
	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"service":    "mutt",
		"started_at": s.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// readiness handles GET /health/ready - readiness probe.
// Returns 200 OK once the configured readiness check passes.
func (s *OpsServer) readiness(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no readiness check configured"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), ReadyCheckTimeout)
	defer cancel()

	if err := s.ready(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"metrics": metrics.IsEnabled(),
		"tracing": IsEnabled(),
	}))
}

// scrape handles GET /metrics by serving the process registry. Looked up
// per request so a registry initialized after server construction is
// still picked up.
func (s *OpsServer) scrape(w http.ResponseWriter, r *http.Request) {
	reg := metrics.GetRegistry()
	if reg == nil {
		http.Error(w, "metrics collection disabled", http.StatusNotFound)
		return
	}
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// Start starts the ops HTTP server and blocks until the context is
// cancelled or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and
// returns nil.
func (s *OpsServer) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Ops server listening", "addr", s.addr)
		logger.Debug("Ops endpoints available",
			"health", fmt.Sprintf("http://%s/health", s.addr),
			"ready", fmt.Sprintf("http://%s/health/ready", s.addr),
			"metrics", fmt.Sprintf("http://%s/metrics", s.addr),
		)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Ops server shutdown signal received")
		// Create a fresh context for graceful shutdown; the cancelled ctx
		// would cause immediate shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("ops server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the ops server.
//
// Stop is safe to call multiple times and safe to call concurrently with
// Start().
func (s *OpsServer) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("ops server shutdown error: %w", err)
			logger.Error("Ops server shutdown error", "error", err)
		} else {
			logger.Info("Ops server stopped gracefully")
		}
	})
	return shutdownErr
}

// Addr returns the address the server is configured to listen on.
func (s *OpsServer) Addr() string {
	return s.addr
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode ops response", "error", err)
	}
}

func healthyResponse(data any) opsResponse {
	return opsResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func unhealthyResponse(errMsg string) opsResponse {
	return opsResponse{
		Status:    "unhealthy",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}

// isQuietPath returns true for endpoints hit by probes and scrapers.
func isQuietPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/") || path == "/metrics"
}

// requestLogger is a custom middleware that logs requests using the
// internal logger.
//
// Probe and scrape requests are logged at DEBUG level to keep periodic
// kubelet and Prometheus traffic out of the logs.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		}

		if isQuietPath(r.URL.Path) {
			logger.Debug("Ops request completed", logArgs...)
		} else {
			logger.Info("Ops request completed", logArgs...)
		}
	})
}
