package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/holdfast-app/holdfast/internal/app/tracker"
	"github.com/holdfast-app/holdfast/internal/domain"
	"github.com/holdfast-app/holdfast/internal/infra/observability"
	"github.com/holdfast-app/holdfast/internal/infra/progressstore"
	"github.com/holdfast-app/holdfast/internal/infra/sqlite"
)

// ─── Progress API Tests ─────────────────────────────────────────────────────

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func setupServer(t *testing.T) (http.Handler, *tracker.Tracker, *fixedClock) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := &fixedClock{now: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)}
	tracer := observability.NewTracer(observability.DefaultTracerConfig())
	tr := tracker.New(tracker.Config{Location: time.UTC, CelebrationDuration: 3 * time.Second},
		progressstore.New(db), clock, tracer)
	tr.Load(context.Background())

	srv := NewServer(&ProgressAPI{Tracker: tr})
	srv.SetTracer(tracer)
	srv.EnableMetrics()
	srv.DisableRequestLogging()
	return srv.Handler(), tr, clock
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return w.Code, resp
}

func TestHealth(t *testing.T) {
	h, _, _ := setupServer(t)
	code, resp := do(t, h, http.MethodGet, "/health", "")
	if code != http.StatusOK || resp["status"] != "ok" {
		t.Errorf("health = %d %v", code, resp)
	}
	storage := resp["storage"].(map[string]interface{})
	if storage["load_issues"] != float64(0) {
		t.Errorf("load_issues = %v, want 0", storage["load_issues"])
	}
	if _, ok := storage["last_write_error"]; ok {
		t.Error("healthy store should not report a write error")
	}
}

// failingStore fails every write.
type failingStore struct{ domain.ProgressStore }

func (failingStore) SaveCheckIn(domain.ProgressRecord) error { return domain.ErrStorageWrite }
func (failingStore) SaveReset(domain.ProgressRecord) error   { return domain.ErrStorageWrite }

func TestHealth_DegradedAfterWriteFailure(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	tr := tracker.New(tracker.Config{Location: time.UTC}, failingStore{progressstore.New(db)}, nil, nil)
	tr.Load(context.Background())
	srv := NewServer(&ProgressAPI{Tracker: tr})
	srv.DisableRequestLogging()
	h := srv.Handler()

	_, resp := do(t, h, http.MethodPost, "/api/progress/reset", `{"confirm": true}`)
	if resp["persisted"] != false {
		t.Errorf("persisted = %v, want false", resp["persisted"])
	}

	code, resp := do(t, h, http.MethodGet, "/health", "")
	if code != http.StatusOK || resp["status"] != "degraded" {
		t.Fatalf("health = %d %v", code, resp)
	}
	storage := resp["storage"].(map[string]interface{})
	if storage["last_write_error"] == nil {
		t.Error("last_write_error missing")
	}
}

func TestProgress_Fresh(t *testing.T) {
	h, _, _ := setupServer(t)
	code, resp := do(t, h, http.MethodGet, "/api/progress", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp["current_streak"] != float64(0) {
		t.Errorf("current_streak = %v, want 0", resp["current_streak"])
	}
	if resp["can_checkin"] != true {
		t.Errorf("can_checkin = %v, want true", resp["can_checkin"])
	}
	if resp["last_checkin"] != nil {
		t.Errorf("last_checkin = %v, want null", resp["last_checkin"])
	}
	tier := resp["tier"].(map[string]interface{})
	if tier["name"] != "GROWING" {
		t.Errorf("tier = %v, want GROWING", tier["name"])
	}
	if targets := resp["targets"].([]interface{}); len(targets) != 5 {
		t.Errorf("targets = %d, want 5", len(targets))
	}
}

func TestCheckIn_ThenConflict(t *testing.T) {
	h, _, _ := setupServer(t)

	code, resp := do(t, h, http.MethodPost, "/api/progress/checkin", "")
	if code != http.StatusOK {
		t.Fatalf("first check-in: expected 200, got %d", code)
	}
	progress := resp["progress"].(map[string]interface{})
	if progress["current_streak"] != float64(1) || progress["total_days"] != float64(1) {
		t.Errorf("progress = %v", progress)
	}
	if progress["last_checkin"] != "2026-10-14" {
		t.Errorf("last_checkin = %v", progress["last_checkin"])
	}
	cel := resp["celebration"].(map[string]interface{})
	if cel["title"] != "Day 1!" || cel["dismiss_after_ms"] != float64(3000) {
		t.Errorf("celebration = %v", cel)
	}
	if resp["persisted"] != true {
		t.Error("persisted should be true")
	}

	code, resp = do(t, h, http.MethodPost, "/api/progress/checkin", "")
	if code != http.StatusConflict {
		t.Fatalf("second check-in: expected 409, got %d", code)
	}
	errObj := resp["error"].(map[string]interface{})
	if errObj["message"] != "You already checked in today! Come back tomorrow." {
		t.Errorf("message = %v", errObj["message"])
	}
	if errObj["type"] != "already_checked_in" {
		t.Errorf("type = %v", errObj["type"])
	}
}

func TestReset_RequiresConfirm(t *testing.T) {
	h, tr, _ := setupServer(t)
	do(t, h, http.MethodPost, "/api/progress/checkin", "")

	for _, body := range []string{"", `{}`, `{"confirm": false}`} {
		code, resp := do(t, h, http.MethodPost, "/api/progress/reset", body)
		if code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, code)
			continue
		}
		if resp["error"].(map[string]interface{})["type"] != "confirmation_required" {
			t.Errorf("body %q: error = %v", body, resp["error"])
		}
	}
	if tr.Snapshot().Record.CurrentStreak != 1 {
		t.Error("unconfirmed reset changed the streak")
	}
}

func TestReset_InvalidBody(t *testing.T) {
	h, _, _ := setupServer(t)
	code, _ := do(t, h, http.MethodPost, "/api/progress/reset", "{nope")
	if code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestReset_Confirmed(t *testing.T) {
	h, _, clock := setupServer(t)
	do(t, h, http.MethodPost, "/api/progress/checkin", "")
	clock.now = clock.now.AddDate(0, 0, 1)
	do(t, h, http.MethodPost, "/api/progress/checkin", "")

	code, resp := do(t, h, http.MethodPost, "/api/progress/reset", `{"confirm": true}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	p := resp["progress"].(map[string]interface{})
	if p["current_streak"] != float64(0) || p["longest_streak"] != float64(2) || p["total_days"] != float64(2) {
		t.Errorf("after reset = %v", p)
	}
	if p["can_checkin"] != true {
		t.Error("reset should allow a same-day check-in")
	}
	if resp["persisted"] != true {
		t.Errorf("persisted = %v, want true", resp["persisted"])
	}
}

func TestHistory(t *testing.T) {
	h, _, clock := setupServer(t)
	for i := 0; i < 5; i++ {
		do(t, h, http.MethodPost, "/api/progress/checkin", "")
		clock.now = clock.now.AddDate(0, 0, 1)
	}

	code, resp := do(t, h, http.MethodGet, "/api/progress/history", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp["count"] != float64(5) || resp["limit"] != float64(30) {
		t.Errorf("history = %v", resp)
	}

	_, resp = do(t, h, http.MethodGet, "/api/progress/history?limit=2", "")
	entries := resp["history"].([]interface{})
	if len(entries) != 2 {
		t.Fatalf("limited history = %d, want 2", len(entries))
	}
	last := entries[1].(map[string]interface{})
	if last["streak"] != float64(5) || last["date"] != "2026-10-18" {
		t.Errorf("newest entry = %v", last)
	}
}

func TestHistory_EmptyIsArray(t *testing.T) {
	h, _, _ := setupServer(t)
	_, resp := do(t, h, http.MethodGet, "/api/progress/history", "")
	if _, ok := resp["history"].([]interface{}); !ok {
		t.Errorf("history should be an empty array, got %v", resp["history"])
	}
}

func TestMilestones(t *testing.T) {
	h, _, _ := setupServer(t)
	do(t, h, http.MethodPost, "/api/progress/checkin", "")

	code, resp := do(t, h, http.MethodGet, "/api/progress/milestones", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	next := resp["next"].(map[string]interface{})
	if next["days_left"] != float64(6) {
		t.Errorf("days_left = %v, want 6", next["days_left"])
	}
	first := resp["targets"].([]interface{})[0].(map[string]interface{})
	if first["days"] != float64(7) || first["achieved"] != false {
		t.Errorf("first target = %v", first)
	}
}

func TestDebugSpans(t *testing.T) {
	h, _, _ := setupServer(t)
	do(t, h, http.MethodPost, "/api/progress/checkin", "")

	code, resp := do(t, h, http.MethodGet, "/api/debug/spans?limit=10", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	// load + checkin + its storage write
	if resp["count"] != float64(3) {
		t.Errorf("count = %v, want 3", resp["count"])
	}
}

func TestDebugSpans_TraceIDFromRequestID(t *testing.T) {
	h, _, _ := setupServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/progress/checkin", nil)
	req.Header.Set("X-Request-Id", "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	_, resp := do(t, h, http.MethodGet, "/api/debug/spans?limit=2", "")
	spans := resp["spans"].([]interface{})
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	for _, raw := range spans {
		span := raw.(map[string]interface{})
		if span["trace_id"] != "req-42" {
			t.Errorf("%v trace_id = %v, want req-42", span["operation"], span["trace_id"])
		}
	}
}

func TestDebugSpans_Clear(t *testing.T) {
	h, _, _ := setupServer(t)
	do(t, h, http.MethodPost, "/api/progress/checkin", "")

	code, resp := do(t, h, http.MethodDelete, "/api/debug/spans", "")
	if code != http.StatusOK || resp["cleared"] != float64(3) {
		t.Fatalf("clear = %d %v", code, resp)
	}
	_, resp = do(t, h, http.MethodGet, "/api/debug/spans", "")
	if resp["count"] != float64(0) {
		t.Errorf("count after clear = %v, want 0", resp["count"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _ := setupServer(t)
	do(t, h, http.MethodPost, "/api/progress/checkin", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "holdfast_tracker_checkins_total") {
		t.Error("metrics output missing holdfast_tracker_checkins_total")
	}
}

func TestNotReady(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	tr := tracker.New(tracker.DefaultConfig(), progressstore.New(db), nil, nil)

	srv := NewServer(&ProgressAPI{Tracker: tr})
	srv.DisableRequestLogging()
	code, _ := do(t, srv.Handler(), http.MethodGet, "/api/progress", "")
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before Load, got %d", code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _, _ := setupServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/progress/checkin", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("OPTIONS: expected 200, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
