// Package e2e provides end-to-end integration tests for zebra. The tests
// wire a real container against a temp data directory and a fake Zebra
// server, and walk the everyday flow: refresh the catalog, track frames,
// build timesheets and sync them.
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tcrawf/zebra/internal/application"
	"github.com/tcrawf/zebra/internal/application/ports"
	"github.com/tcrawf/zebra/internal/application/track"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
	"github.com/tcrawf/zebra/internal/domain/user"
	"github.com/tcrawf/zebra/internal/infrastructure/config"
)

// timesheetRecord mirrors the wire shape of one Zebra timesheet.
type timesheetRecord struct {
	ID                int64   `json:"id,omitempty"`
	ActivityID        int64   `json:"activity_id"`
	ProjectID         int64   `json:"project_id"`
	Date              string  `json:"date"`
	Time              float64 `json:"time"`
	Description       string  `json:"description,omitempty"`
	ClientDescription string  `json:"client_description,omitempty"`
	RoleID            *int64  `json:"role_id,omitempty"`
	Individual        bool    `json:"individual_action"`
	UpdatedAt         string  `json:"updated_at"`
}

// fakeZebra is an in-memory stand-in for the Zebra API, serving the same
// endpoints and envelopes the client expects.
type fakeZebra struct {
	mu     sync.Mutex
	nextID int64
	sheets map[int64]timesheetRecord
}

func newFakeZebra() *fakeZebra {
	return &fakeZebra{nextID: 55100, sheets: make(map[int64]timesheetRecord)}
}

func (z *fakeZebra) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/projects", z.handleProjects)
	mux.HandleFunc("/api/v2/users/", z.handleUser)
	mux.HandleFunc("/api/v2/timesheets", z.handleCollection)
	mux.HandleFunc("/api/v2/timesheets/", z.handleRecord)
	return mux
}

func (z *fakeZebra) handleProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"data": []map[string]any{
		{
			"id":   9200,
			"name": "Website Relaunch",
			"activities": []map[string]any{
				{"id": 12841, "name": "Development", "alias": "dev"},
				{"id": 12842, "name": "Support"},
			},
		},
		{
			"id":   9300,
			"name": "Maintenance",
			"activities": []map[string]any{
				{"id": 12901, "name": "Operations", "alias": "ops"},
			},
		},
	}})
}

func (z *fakeZebra) handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"data": map[string]any{
		"id":       42,
		"username": "tcrawf",
		"roles": []map[string]any{
			{"id": 7, "name": "backend", "full_name": "Backend Engineer"},
		},
	}})
}

func (z *fakeZebra) handleCollection(w http.ResponseWriter, r *http.Request) {
	z.mu.Lock()
	defer z.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
		var docs []timesheetRecord
		for _, rec := range z.sheets {
			if rec.Date >= from && rec.Date <= to {
				docs = append(docs, rec)
			}
		}
		writeJSON(w, map[string]any{"data": docs})
	case http.MethodPost:
		var rec timesheetRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		z.nextID++
		rec.ID = z.nextID
		z.sheets[rec.ID] = rec
		writeJSON(w, map[string]any{"data": map[string]any{"id": rec.ID}})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (z *fakeZebra) handleRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/v2/timesheets/"), 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	z.mu.Lock()
	defer z.mu.Unlock()

	rec, ok := z.sheets[id]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"data": rec})
	case http.MethodPut:
		var updated timesheetRecord
		if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		updated.ID = id
		z.sheets[id] = updated
		writeJSON(w, map[string]any{"data": updated})
	case http.MethodDelete:
		delete(z.sheets, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (z *fakeZebra) count() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return len(z.sheets)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// newTestContainer builds a container over a temp data directory, wired to
// the given Zebra base URL (empty for offline).
func newTestContainer(t *testing.T, baseURL string) *application.Container {
	t.Helper()

	cfg := config.NewDefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Zebra.URL = baseURL
	cfg.Zebra.UserID = 42
	cfg.Logging.File.Enabled = false
	cfg.Tracing.Enabled = false

	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}

	container, err := application.NewContainer(cfg, false)
	if err != nil {
		t.Fatalf("failed to build container: %v", err)
	}
	t.Cleanup(func() { container.Close() })
	return container
}

func alwaysConfirm(string) bool { return true }

func TestE2E_TrackAndSyncFlow(t *testing.T) {
	server := httptest.NewServer(newFakeZebra().handler())
	defer server.Close()

	container := newTestContainer(t, server.URL)
	ctx := context.Background()

	// Refresh the reference catalog from the fake remote.
	result, err := container.Refresher().Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if result.Projects != 2 || result.Activities != 3 {
		t.Fatalf("refresh = %d projects / %d activities, want 2 / 3", result.Projects, result.Activities)
	}
	if result.Roles != 1 {
		t.Errorf("refresh = %d roles, want 1", result.Roles)
	}

	// Resolve the activity by its alias, as a user would type it.
	activity, err := container.ActivityCatalog().Resolve(ctx, "dev")
	if err != nil {
		t.Fatalf("failed to resolve activity: %v", err)
	}
	if activity.Name != "Development" {
		t.Fatalf("resolved %q, want Development", activity.Name)
	}

	// Track one 45-minute frame this morning.
	start := time.Now().Add(-2 * time.Hour).Truncate(time.Minute)
	if _, err := container.Tracker().Start(ctx, track.StartOptions{
		Activity:    activity,
		Description: "backend work",
		At:          start,
		Gap:         true,
		Assignment:  user.Individual(),
	}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	started, err := container.Tracker().IsStarted(ctx)
	if err != nil || !started {
		t.Fatalf("IsStarted = %v, %v; want true", started, err)
	}

	f, err := container.Tracker().Stop(ctx, start.Add(45*time.Minute))
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if f.Duration() != 45*time.Minute {
		t.Fatalf("frame duration = %v, want 45m", f.Duration())
	}

	// Build the day's timesheets: 45 minutes rounds up to 0.75 hours.
	day := timesheet.DateOf(start)
	buildResult, err := container.SyncBuilder().Build(ctx, day, day)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(buildResult.Created) != 1 {
		t.Fatalf("build created %d timesheets, want 1", len(buildResult.Created))
	}
	ts := buildResult.Created[0]
	if ts.Time != 0.75 {
		t.Errorf("timesheet hours = %v, want 0.75", ts.Time)
	}
	if ts.RemoteID != nil {
		t.Error("fresh timesheet should not carry a remote id")
	}

	// Building again is a no-op: the frame is already attributed.
	again, err := container.SyncBuilder().Build(ctx, day, day)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if len(again.Created) != 0 || again.FramesSkipped != 1 {
		t.Errorf("second build = %d created / %d skipped, want 0 / 1", len(again.Created), again.FramesSkipped)
	}

	// Push it and verify the remote link.
	pushResults, err := container.SyncService().PushRange(ctx, day, day, alwaysConfirm)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if len(pushResults) != 1 {
		t.Fatalf("pushed %d records, want 1", len(pushResults))
	}
	if pushResults[0].Status != "created" {
		t.Fatalf("push status = %q, want created", pushResults[0].Status)
	}
	pushed := pushResults[0].Timesheet
	if pushed.RemoteID == nil {
		t.Fatal("pushed timesheet carries no remote id")
	}

	// Pulling the same window is clean: nothing newer on either side.
	pullResult, err := container.SyncService().Pull(ctx, day, day, alwaysConfirm)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pullResult.Skipped) != 0 {
		t.Errorf("pull skipped %d records: %+v", len(pullResult.Skipped), pullResult.Skipped)
	}

	// Delete removes both sides.
	deleteResult, err := container.SyncService().Delete(ctx, pushed.UUID, alwaysConfirm)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !deleteResult.Deleted || !deleteResult.RemoteDeleted {
		t.Fatalf("delete result = %+v, want deleted on both sides", deleteResult)
	}

	remaining, err := container.SyncService().List(ctx, ports.TimesheetFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("%d timesheets remain after delete, want 0", len(remaining))
	}
}

func TestE2E_PushSkipsHeldTimesheets(t *testing.T) {
	zebra := newFakeZebra()
	server := httptest.NewServer(zebra.handler())
	defer server.Close()

	container := newTestContainer(t, server.URL)
	ctx := context.Background()

	if _, err := container.Refresher().Refresh(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	activity, err := container.ActivityCatalog().Resolve(ctx, "ops")
	if err != nil {
		t.Fatalf("failed to resolve activity: %v", err)
	}

	start := time.Now().Add(-3 * time.Hour).Truncate(time.Minute)
	if _, err := container.Tracker().Add(ctx, track.AddOptions{
		Activity:   activity,
		From:       start,
		To:         start.Add(30 * time.Minute),
		Assignment: user.Individual(),
	}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	day := timesheet.DateOf(start)
	buildResult, err := container.SyncBuilder().Build(ctx, day, day)
	if err != nil || len(buildResult.Created) != 1 {
		t.Fatalf("build = %+v, %v; want one timesheet", buildResult, err)
	}

	if _, err := container.SyncService().SetHold(ctx, buildResult.Created[0].UUID, true); err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	results, err := container.SyncService().PushRange(ctx, day, day, alwaysConfirm)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if len(results) != 1 || results[0].Status != "skipped" {
		t.Fatalf("push results = %+v, want one skipped record", results)
	}
	if zebra.count() != 0 {
		t.Errorf("remote has %d records, want 0", zebra.count())
	}
}

func TestE2E_OfflineTrackingNeedsNoRemote(t *testing.T) {
	container := newTestContainer(t, "")
	ctx := context.Background()

	if container.RemoteConfigured() {
		t.Fatal("container without a URL reports a configured remote")
	}

	// Local projects and activities work entirely offline.
	p, err := container.ProjectCatalog().Create(ctx, "Side Project", "")
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	a, err := container.ActivityCatalog().Create(ctx, p.Key, "Writing", "notes", "")
	if err != nil {
		t.Fatalf("failed to create activity: %v", err)
	}

	start := time.Now().Add(-time.Hour).Truncate(time.Minute)
	if _, err := container.Tracker().Start(ctx, track.StartOptions{Activity: a, At: start, Gap: true, Assignment: user.Individual()}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	f, err := container.Tracker().Stop(ctx, start.Add(20*time.Minute))
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	day := timesheet.DateOf(f.StartTime)
	buildResult, err := container.SyncBuilder().Build(ctx, day, day)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(buildResult.Created) != 1 {
		t.Fatalf("build created %d timesheets, want 1", len(buildResult.Created))
	}
	if buildResult.Created[0].Time != 0.25 {
		t.Errorf("timesheet hours = %v, want 0.25", buildResult.Created[0].Time)
	}

	// Pushing without a remote fails per record instead of silently dropping.
	results, err := container.SyncService().PushRange(ctx, day, day, alwaysConfirm)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if len(results) != 1 || results[0].Status != "failed" {
		t.Errorf("push results = %+v, want one failed record", results)
	}
}
