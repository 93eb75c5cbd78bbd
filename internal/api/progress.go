package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/holdfast-app/holdfast/internal/app/tracker"
	"github.com/holdfast-app/holdfast/internal/domain"
)

// ─── Progress API ───────────────────────────────────────────────────────────
// REST endpoints for the dashboard: current record, check-in, reset,
// history and milestones.
//
// GET  /api/progress             full snapshot (record, tier, targets)
// POST /api/progress/checkin     record today's check-in
// POST /api/progress/reset       reset current streak; body {"confirm": true}
// GET  /api/progress/history     recent check-ins (newest last)
// GET  /api/progress/milestones  tier and target progress

// ProgressAPI serves the streak tracker.
type ProgressAPI struct {
	Tracker *tracker.Tracker
}

// requireReady rejects requests until the record has been loaded.
func (p *ProgressAPI) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.Tracker == nil || !p.Tracker.Ready() {
			writeError(w, http.StatusServiceUnavailable, "not_ready", "progress not loaded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleProgress returns the current snapshot.
// GET /api/progress
func (p *ProgressAPI) HandleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshotResponse(p.Tracker.Snapshot()))
}

// HandleCheckIn records today's check-in.
// POST /api/progress/checkin
func (p *ProgressAPI) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	res, err := p.Tracker.CheckIn(r.Context())
	if errors.Is(err, domain.ErrAlreadyCheckedIn) {
		writeError(w, http.StatusConflict, "already_checked_in", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress": snapshotResponse(res.Snapshot),
		"celebration": map[string]interface{}{
			"title":            res.Celebration.Title,
			"message":          res.Celebration.Message,
			"dismiss_after_ms": res.Celebration.DismissAfter.Milliseconds(),
		},
		"persisted": res.Persisted,
	})
}

// resetRequest is the body of POST /api/progress/reset.
type resetRequest struct {
	Confirm bool `json:"confirm"`
}

// HandleReset resets the current streak after explicit confirmation.
// POST /api/progress/reset
func (p *ProgressAPI) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := p.Tracker.Reset(r.Context(), req.Confirm)
	if errors.Is(err, domain.ErrResetNotConfirmed) {
		writeError(w, http.StatusBadRequest, "confirmation_required",
			"Are you sure you want to reset your current streak? Your longest streak will be saved. Resend with {\"confirm\": true}.")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress":  snapshotResponse(res.Snapshot),
		"persisted": res.Persisted,
	})
}

// HandleHistory returns recent check-ins.
// GET /api/progress/history?limit=N
func (p *ProgressAPI) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history := p.Tracker.Snapshot().Record.History
	if limit := queryInt(r, "limit", 0); limit > 0 && limit < len(history) {
		history = history[len(history)-limit:]
	}
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
		"count":   len(history),
		"limit":   domain.HistoryLimit,
	})
}

// HandleMilestones returns the tier and per-target progress.
// GET /api/progress/milestones
func (p *ProgressAPI) HandleMilestones(w http.ResponseWriter, r *http.Request) {
	snap := p.Tracker.Snapshot()
	resp := map[string]interface{}{
		"current_streak": snap.Record.CurrentStreak,
		"tier":           snap.Tier,
		"targets":        snap.Targets,
	}
	if next, ok := domain.NextTarget(snap.Record.CurrentStreak); ok {
		resp["next"] = map[string]interface{}{
			"target":    next,
			"days_left": next.Days - snap.Record.CurrentStreak,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func snapshotResponse(s tracker.Snapshot) map[string]interface{} {
	var last interface{}
	if s.Record.LastCheckIn != nil {
		last = s.Record.LastCheckIn.String()
	}
	return map[string]interface{}{
		"current_streak":  s.Record.CurrentStreak,
		"longest_streak":  s.Record.LongestStreak,
		"total_days":      s.Record.TotalDays,
		"last_checkin":    last,
		"today":           s.Today.String(),
		"can_checkin":     s.CanCheckIn,
		"day_label":       s.DayLabel,
		"tier":            s.Tier,
		"targets":         s.Targets,
		"storage_healthy": s.StorageHealthy,
	}
}

// queryInt reads a positive integer query parameter.
func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
