// Package probe serves health reports over HTTP for orchestrator-style
// probes (Kubernetes liveness/readiness/startup and plain monitoring
// pollers).
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/notify"
)

// Server maps probe routes to engine runs and overall statuses to HTTP
// response codes. It holds no per-request state; every request triggers
// a fresh run unless the configured runner caches.
type Server struct {
	runner   health.Runner
	metrics  http.Handler
	notifier notify.Notifier
	logger   *slog.Logger

	httpServer *http.Server

	// Last overall status served on the full-report route, used to
	// emit one notification per status transition.
	mu          sync.Mutex
	lastOverall health.Status
	seenOverall bool
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts the metrics exposition handler on /metrics.
// Without it the route answers 404.
func WithMetrics(handler http.Handler) Option {
	return func(s *Server) { s.metrics = handler }
}

// WithNotifier emits an event whenever the overall status served on
// the full-report route changes.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Server) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a probe server listening on addr.
func NewServer(addr string, runner health.Runner, opts ...Option) *Server {
	s := &Server{
		runner: runner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the routing handler. Exposed for tests and for
// embedding the probe surface in a larger mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.route)
	return s.recoverer(mux)
}

// ListenAndServe runs the server until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("probe server listening", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// route dispatches probe paths. Per-request access logging is
// deliberately absent: orchestrators poll these routes every few
// seconds and would flood the operational logs.
func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	switch strings.TrimRight(r.URL.Path, "/") {
	case "", "/health":
		report := s.runner.RunAll(r.Context())
		s.notifyTransition(r.Context(), report.OverallStatus)
		s.writeReport(w, report, acceptsDegraded(report.OverallStatus))
	case "/health/live":
		report := s.runner.RunLevel(r.Context(), health.LevelLiveness)
		s.writeReport(w, report, report.OverallStatus == health.StatusHealthy)
	case "/health/ready":
		report := s.runner.RunLevel(r.Context(), health.LevelReadiness)
		s.writeReport(w, report, acceptsDegraded(report.OverallStatus))
	case "/health/startup":
		report := s.runner.RunLevel(r.Context(), health.LevelStartup)
		s.writeReport(w, report, acceptsDegraded(report.OverallStatus))
	case "/metrics":
		if s.metrics == nil {
			writeError(w, http.StatusNotFound, "metrics not configured")
			return
		}
		s.metrics.ServeHTTP(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// acceptsDegraded is the pass rule shared by the readiness, startup and
// full-report routes: degraded still passes, only the liveness route
// demands a fully healthy verdict.
func acceptsDegraded(status health.Status) bool {
	return status == health.StatusHealthy || status == health.StatusDegraded
}

func (s *Server) writeReport(w http.ResponseWriter, report health.Report, pass bool) {
	code := http.StatusOK
	if !pass {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Warn("failed to encode report", slog.String("error", err.Error()))
	}
}

func (s *Server) notifyTransition(ctx context.Context, overall health.Status) {
	if s.notifier == nil {
		return
	}

	s.mu.Lock()
	changed := s.seenOverall && s.lastOverall != overall
	previous := s.lastOverall
	s.lastOverall = overall
	s.seenOverall = true
	s.mu.Unlock()

	if !changed {
		return
	}
	event := notify.NewEvent("health-transition",
		fmt.Sprintf("overall status changed from %s to %s", previous, overall))
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("notification failed", slog.String("error", err.Error()))
	}
}

// recoverer keeps a panicking handler from taking the process down; the
// request surfaces as a generic 503 instead.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("probe handler panic",
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
				)
				writeError(w, http.StatusServiceUnavailable, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
