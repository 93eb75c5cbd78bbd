// Package observability provides tracing and Prometheus metrics for HoldFast.
//
// This provides:
//   - Trace spans for tracker operations (load, check-in, reset)
//   - Prometheus counters and gauges for streak state and storage health
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ═══════════════════════════════════════════════════════════════════════════
// Trace Spans: in-process span tracking without an OTel SDK
// ═══════════════════════════════════════════════════════════════════════════

// Span represents one traced operation.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
	Duration  time.Duration     `json:"duration,omitempty"`
	Status    SpanStatus        `json:"status"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// SpanStatus indicates success/failure.
type SpanStatus int

const (
	SpanOK SpanStatus = iota
	SpanError
)

// ─── Tracer ─────────────────────────────────────────────────────────────────

// Tracer keeps the most recent spans in memory for inspection.
type Tracer struct {
	mu       sync.Mutex
	spans    []Span
	maxSpans int
	enabled  bool
}

// TracerConfig configures the tracer.
type TracerConfig struct {
	Enabled  bool
	MaxSpans int // ring buffer size (default 1_000)
}

// DefaultTracerConfig returns production defaults.
func DefaultTracerConfig() TracerConfig {
	return TracerConfig{
		Enabled:  true,
		MaxSpans: 1_000,
	}
}

// NewTracer creates a new tracer.
func NewTracer(cfg TracerConfig) *Tracer {
	if cfg.MaxSpans <= 0 {
		cfg.MaxSpans = DefaultTracerConfig().MaxSpans
	}
	return &Tracer{
		spans:    make([]Span, 0, cfg.MaxSpans),
		maxSpans: cfg.MaxSpans,
		enabled:  cfg.Enabled,
	}
}

// StartSpan begins a new span with the given operation name.
// Returns the span (caller must call EndSpan when done).
// A nil Tracer is valid and records nothing.
func (t *Tracer) StartSpan(ctx context.Context, operation string, attrs map[string]string) *Span {
	if t == nil || !t.enabled {
		return &Span{Operation: operation}
	}

	return &Span{
		TraceID:   traceIDFromContext(ctx),
		SpanID:    uuid.NewString(),
		ParentID:  spanIDFromContext(ctx),
		Operation: operation,
		StartTime: time.Now(),
		Status:    SpanOK,
		Attrs:     attrs,
	}
}

// EndSpan completes a span and records it.
func (t *Tracer) EndSpan(span *Span, err error) {
	if t == nil || !t.enabled || span == nil {
		return
	}

	span.EndTime = time.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)
	if err != nil {
		span.Status = SpanError
		if span.Attrs == nil {
			span.Attrs = make(map[string]string)
		}
		span.Attrs["error"] = err.Error()
		TraceErrors.Inc()
	}
	TracesRecorded.Inc()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Ring buffer: overwrite oldest if at capacity
	if len(t.spans) >= t.maxSpans {
		t.spans = t.spans[1:]
	}
	t.spans = append(t.spans, *span)
}

// Spans returns a copy of the most recent spans.
func (t *Tracer) Spans(limit int) []Span {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > len(t.spans) {
		limit = len(t.spans)
	}

	start := len(t.spans) - limit
	out := make([]Span, limit)
	copy(out, t.spans[start:])
	return out
}

// SpanCount returns the number of recorded spans.
func (t *Tracer) SpanCount() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// Reset clears all recorded spans.
func (t *Tracer) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = t.spans[:0]
}

// ─── Context Helpers ────────────────────────────────────────────────────────

type contextKey string

const (
	traceIDKey contextKey = "holdfast-trace-id"
	spanIDKey  contextKey = "holdfast-span-id"
)

// WithTraceID returns a context with the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// WithSpanID returns a context with the given span ID.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey, spanID)
}

func traceIDFromContext(ctx context.Context) string {
	if ctx != nil {
		if v, ok := ctx.Value(traceIDKey).(string); ok {
			return v
		}
	}
	return uuid.NewString()
}

func spanIDFromContext(ctx context.Context) string {
	if ctx != nil {
		if v, ok := ctx.Value(spanIDKey).(string); ok {
			return v
		}
	}
	return ""
}

// ═══════════════════════════════════════════════════════════════════════════
// Prometheus Metrics
// ═══════════════════════════════════════════════════════════════════════════

// ─── Tracker Metrics ────────────────────────────────────────────────────────

// CheckIns counts successful check-ins.
var CheckIns = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "holdfast",
	Subsystem: "tracker",
	Name:      "checkins_total",
	Help:      "Total successful check-ins.",
})

// CheckInsRejected counts check-ins refused because one was already made that day.
var CheckInsRejected = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "holdfast",
	Subsystem: "tracker",
	Name:      "checkins_rejected_total",
	Help:      "Total check-ins rejected as same-day duplicates.",
})

// Resets counts confirmed streak resets.
var Resets = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "holdfast",
	Subsystem: "tracker",
	Name:      "resets_total",
	Help:      "Total confirmed current-streak resets.",
})

// StreakDays exposes the record counters.
var StreakDays = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "holdfast",
	Subsystem: "tracker",
	Name:      "streak_days",
	Help:      "Streak counters by kind (current, longest, total).",
}, []string{"kind"})

// CheckedInToday is 1 when today's check-in has been recorded.
var CheckedInToday = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "holdfast",
	Subsystem: "tracker",
	Name:      "checked_in_today",
	Help:      "Whether today's check-in has been recorded (1) or not (0).",
})

// ─── Storage Metrics ────────────────────────────────────────────────────────

// StorageFailures counts storage failures by operation (read, write).
var StorageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "holdfast",
	Subsystem: "storage",
	Name:      "failures_total",
	Help:      "Total storage failures by operation.",
}, []string{"op"})

// ─── Trace Metrics ──────────────────────────────────────────────────────────

// TracesRecorded tracks total spans recorded.
var TracesRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "holdfast",
	Subsystem: "traces",
	Name:      "spans_recorded_total",
	Help:      "Total trace spans recorded.",
})

// TraceErrors tracks error spans.
var TraceErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "holdfast",
	Subsystem: "traces",
	Name:      "error_spans_total",
	Help:      "Total trace spans with error status.",
})

// ObserveRecord publishes the record counters to the gauges.
func ObserveRecord(current, longest, total int, checkedInToday bool) {
	StreakDays.WithLabelValues("current").Set(float64(current))
	StreakDays.WithLabelValues("longest").Set(float64(longest))
	StreakDays.WithLabelValues("total").Set(float64(total))
	if checkedInToday {
		CheckedInToday.Set(1)
	} else {
		CheckedInToday.Set(0)
	}
}
