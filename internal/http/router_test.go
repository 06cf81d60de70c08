package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/TheGringo-ai/FixItFred/internal/domain"
	"github.com/TheGringo-ai/FixItFred/internal/events"
	"github.com/TheGringo-ai/FixItFred/internal/repository/memory"
	"github.com/TheGringo-ai/FixItFred/internal/service/registry"
)

type reconcilerStub struct {
	mu    sync.Mutex
	calls int
}

func (r *reconcilerStub) Reconcile(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

func (r *reconcilerStub) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func setupRouter(t *testing.T, syncer Reconciler, health func(context.Context) error) *Router {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := events.NewHub()
	reg := registry.New(context.Background(), memory.New(), hub, log, time.Second)
	router := NewRouter(log, reg, syncer, hub, NewMemoryRateLimiter(), health)
	t.Cleanup(router.Close)
	return router
}

func TestListProjectsReturnsSeededCollection(t *testing.T) {
	router := setupRouter(t, nil, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/projects", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var records []domain.DeploymentRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestListProjectsFiltersByIndustryAndStatus(t *testing.T) {
	router := setupRouter(t, nil, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/projects?industry=manufacturing", nil))
	var byIndustry []domain.DeploymentRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &byIndustry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(byIndustry) != 1 || byIndustry[0].ID != "boeing-001" {
		t.Fatalf("unexpected industry filter result: %+v", byIndustry)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/projects?status=deploying", nil))
	var byStatus []domain.DeploymentRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &byStatus); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(byStatus) != 0 {
		t.Fatalf("expected no deploying records, got %d", len(byStatus))
	}
}

func TestCreateProject(t *testing.T) {
	router := setupRouter(t, nil, nil)

	body := strings.NewReader(`{"company_name":"Acme Co","industry":"technology"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/projects", body))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var record domain.DeploymentRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.ID == "" || record.Industry != "technology" || record.WorkerCount != 100 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestCreateProjectRejectsInvalidJSON(t *testing.T) {
	router := setupRouter(t, nil, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader("{")))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetProjectByID(t *testing.T) {
	router := setupRouter(t, nil, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/projects/boeing-001", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/projects/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestPatchProjectUpdatesStatus(t *testing.T) {
	router := setupRouter(t, nil, nil)

	body := strings.NewReader(`{"status":"paused"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/projects/boeing-001", body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var record domain.DeploymentRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.Status != "paused" {
		t.Fatalf("expected paused, got %q", record.Status)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/projects/missing", strings.NewReader(`{"status":"active"}`)))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rr.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router := setupRouter(t, nil, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var stats domain.AggregateStats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalProjects != 3 || stats.ActiveProjects != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.AverageRevenue != stats.TotalRevenue/3 {
		t.Fatalf("average mismatch: %+v", stats)
	}
}

func TestQuickDeployEndpoint(t *testing.T) {
	router := setupRouter(t, nil, nil)

	body := strings.NewReader(`{"template_id":"manufacturing","company_name":"Acme Co","worker_count":200}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/deployments/quick", body))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	var record domain.DeploymentRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.Revenue != 39000 {
		t.Fatalf("expected revenue 39000, got %v", record.Revenue)
	}
	if record.Status != domain.StatusDeploying {
		t.Fatalf("expected deploying status, got %q", record.Status)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/deployments/quick", strings.NewReader(`{"template_id":"manufacturing"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without company name, got %d", rr.Code)
	}
}

func TestSyncEndpoint(t *testing.T) {
	router := setupRouter(t, nil, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without feed, got %d", rr.Code)
	}

	stub := &reconcilerStub{}
	router = setupRouter(t, stub, nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	deadline := time.Now().Add(time.Second)
	for stub.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("reconciler never invoked")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthzReflectsStorage(t *testing.T) {
	router := setupRouter(t, nil, func(ctx context.Context) error { return nil })
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	router = setupRouter(t, nil, func(ctx context.Context) error { return errors.New("kv down") })
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when storage down, got %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := setupRouter(t, nil, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/projects/boeing-001", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestRequestedEvents(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	if got := requestedEvents(req); len(got) != len(events.Topics) {
		t.Fatalf("expected all topics by default, got %v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/events?events=added,bogus", nil)
	got := requestedEvents(req)
	if len(got) != 1 || got[0] != events.EventAdded {
		t.Fatalf("expected [added], got %v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/events?events=bogus", nil)
	if got := requestedEvents(req); len(got) != len(events.Topics) {
		t.Fatalf("expected fallback to all topics, got %v", got)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	router := setupRouter(t, nil, nil)

	var last *httptest.ResponseRecorder
	for i := 0; i < rateLimitSync+1; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sync", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		router.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exceeding limit, got %d", last.Code)
	}
	if last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected zero remaining, got %q", last.Header().Get("X-RateLimit-Remaining"))
	}
}
