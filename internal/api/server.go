// Package api provides the local HTTP dashboard server for HoldFast.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/holdfast-app/holdfast/internal/infra/observability"
)

// Version is reported by /api/version.
var Version = "0.1.0"

// Server is the HoldFast HTTP API server.
type Server struct {
	progress       *ProgressAPI
	tracer         *observability.Tracer
	metricsEnabled bool
	requestLogging bool
}

// NewServer creates a new API server.
func NewServer(progress *ProgressAPI) *Server {
	return &Server{progress: progress, requestLogging: true}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetTracer exposes recent spans on /api/debug/spans.
func (s *Server) SetTracer(t *observability.Tracer) { s.tracer = t }

// DisableRequestLogging turns off per-request log lines (tests).
func (s *Server) DisableRequestLogging() { s.requestLogging = false }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.requestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(traceContext)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	if s.progress != nil {
		r.Route("/api/progress", func(r chi.Router) {
			r.Use(s.progress.requireReady)
			r.Get("/", s.progress.HandleProgress)
			r.Post("/checkin", s.progress.HandleCheckIn)
			r.Post("/reset", s.progress.HandleReset)
			r.Get("/history", s.progress.HandleHistory)
			r.Get("/milestones", s.progress.HandleMilestones)
		})
	}

	if s.tracer != nil {
		r.Get("/api/debug/spans", s.handleSpans)
		r.Delete("/api/debug/spans", s.handleClearSpans)
	}

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// handleHealth reports readiness and storage state.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if s.progress == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	tr := s.progress.Tracker
	if !tr.Ready() {
		resp["status"] = "loading"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	storage := map[string]interface{}{"load_issues": len(tr.LoadIssues())}
	if err := tr.LastWriteError(); err != nil {
		storage["last_write_error"] = err.Error()
		resp["status"] = "degraded"
	}
	resp["storage"] = storage
	writeJSON(w, http.StatusOK, resp)
}

// handleSpans returns recent trace spans.
// GET /api/debug/spans?limit=N
func (s *Server) handleSpans(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"spans": s.tracer.Spans(limit),
		"count": s.tracer.SpanCount(),
	})
}

// handleClearSpans drops all recorded spans.
// DELETE /api/debug/spans
func (s *Server) handleClearSpans(w http.ResponseWriter, r *http.Request) {
	cleared := s.tracer.SpanCount()
	s.tracer.Reset()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, errType, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    errType,
		},
	})
}

// traceContext uses the chi request ID as the trace ID for spans started
// while serving the request.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(observability.WithTraceID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
