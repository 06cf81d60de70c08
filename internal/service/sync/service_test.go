package sync

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/TheGringo-ai/FixItFred/internal/domain"
	"github.com/TheGringo-ai/FixItFred/internal/events"
	"github.com/TheGringo-ai/FixItFred/internal/feed"
	"github.com/TheGringo-ai/FixItFred/internal/repository/memory"
	"github.com/TheGringo-ai/FixItFred/internal/service/registry"
)

type stubSource struct {
	deployments []feed.RemoteDeployment
	err         error
	calls       int
}

func (s *stubSource) RecentDeployments(ctx context.Context) ([]feed.RemoteDeployment, error) {
	s.calls++
	return s.deployments, s.err
}

func newTestRegistry(t *testing.T) *registry.Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return registry.New(context.Background(), memory.New(), events.NewHub(), log, time.Second)
}

func newTestSync(t *testing.T, reg *registry.Service, source Source) *Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(reg, source, log, time.Minute)
}

func TestReconcileAddsUnknownRemoteDeployments(t *testing.T) {
	reg := newTestRegistry(t)
	source := &stubSource{deployments: []feed.RemoteDeployment{{
		DeploymentID:  "remote-100",
		CompanyName:   "Apex Manufacturing",
		TemplateName:  "Manufacturing Excellence",
		WorkerCount:   120,
		Revenue:       29400,
		Modules:       `["quality_control","operations","memory"]`,
		Status:        "active",
		CreatedAt:     "2026-08-20T10:30:00Z",
		DeploymentURL: "https://apex.fixitfred.app",
	}}}

	svc := newTestSync(t, reg, source)
	svc.Reconcile(context.Background())

	record, err := reg.GetProject("remote-100")
	if err != nil {
		t.Fatalf("remote record not merged: %v", err)
	}
	if record.Industry != domain.IndustryManufacturing {
		t.Fatalf("expected manufacturing industry, got %q", record.Industry)
	}
	if len(record.Modules) != 3 || record.Modules[0] != "quality_control" {
		t.Fatalf("expected parsed modules, got %v", record.Modules)
	}
	if record.CreatedDate != "2026-08-20" {
		t.Fatalf("expected created date from remote timestamp, got %q", record.CreatedDate)
	}
	if record.Revenue != 29400 || record.WorkerCount != 120 {
		t.Fatalf("expected copied figures, got %+v", record)
	}
	if record.DeploymentURL != "https://apex.fixitfred.app" {
		t.Fatalf("expected copied url, got %q", record.DeploymentURL)
	}
}

func TestReconcileNeverOverwritesLocalRecords(t *testing.T) {
	reg := newTestRegistry(t)
	before, err := reg.GetProject("boeing-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	source := &stubSource{deployments: []feed.RemoteDeployment{{
		DeploymentID: "boeing-001",
		CompanyName:  "Different Name",
		TemplateName: "Manufacturing Excellence",
		Revenue:      1,
		Status:       "failed",
	}}}
	newTestSync(t, reg, source).Reconcile(context.Background())

	after, err := reg.GetProject("boeing-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.CompanyName != before.CompanyName || after.Revenue != before.Revenue || after.Status != before.Status {
		t.Fatalf("local record was overwritten: %+v", after)
	}
	if got := len(reg.GetAllProjects()); got != 3 {
		t.Fatalf("expected collection unchanged, got %d records", got)
	}
}

func TestReconcileIndustryInference(t *testing.T) {
	cases := []struct {
		template string
		want     string
	}{
		{"Manufacturing Excellence", domain.IndustryManufacturing},
		{"HEALTHCARE Operations", domain.IndustryHealthcare},
		{"Logistics & Supply Chain", domain.IndustryLogistics},
		{"Full Enterprise Suite", domain.IndustryEnterprise},
		{"", domain.IndustryEnterprise},
	}
	for _, tc := range cases {
		reg := newTestRegistry(t)
		source := &stubSource{deployments: []feed.RemoteDeployment{{
			DeploymentID: "remote-1",
			TemplateName: tc.template,
		}}}
		newTestSync(t, reg, source).Reconcile(context.Background())

		record, err := reg.GetProject("remote-1")
		if err != nil {
			t.Fatalf("%q: record not merged: %v", tc.template, err)
		}
		if record.Industry != tc.want {
			t.Errorf("template %q inferred %q, want %q", tc.template, record.Industry, tc.want)
		}
	}
}

func TestReconcileFallsBackOnBadModulesAndTimestamp(t *testing.T) {
	reg := newTestRegistry(t)
	source := &stubSource{deployments: []feed.RemoteDeployment{{
		DeploymentID: "remote-2",
		CompanyName:  "Broken Feed Co",
		TemplateName: "custom",
		Modules:      "{not json",
		CreatedAt:    "yesterday",
	}}}
	newTestSync(t, reg, source).Reconcile(context.Background())

	record, err := reg.GetProject("remote-2")
	if err != nil {
		t.Fatalf("record not merged: %v", err)
	}
	if len(record.Modules) != 2 || record.Modules[0] != "operations" {
		t.Fatalf("expected default modules, got %v", record.Modules)
	}
	if record.CreatedDate != time.Now().UTC().Format(time.DateOnly) {
		t.Fatalf("expected today as created date, got %q", record.CreatedDate)
	}
}

func TestReconcileSwallowsFetchFailures(t *testing.T) {
	reg := newTestRegistry(t)
	source := &stubSource{err: errors.New("connection refused")}
	svc := newTestSync(t, reg, source)

	svc.Reconcile(context.Background())

	if source.calls != 1 {
		t.Fatalf("expected one fetch attempt, got %d", source.calls)
	}
	if got := len(reg.GetAllProjects()); got != 3 {
		t.Fatalf("expected registry untouched on failure, got %d records", got)
	}
}

func TestReconcileSkipsDescriptorsWithoutID(t *testing.T) {
	reg := newTestRegistry(t)
	source := &stubSource{deployments: []feed.RemoteDeployment{{
		DeploymentID: "  ",
		CompanyName:  "Ghost Co",
	}}}
	newTestSync(t, reg, source).Reconcile(context.Background())

	if got := len(reg.GetAllProjects()); got != 3 {
		t.Fatalf("expected descriptor without id to be skipped, got %d records", got)
	}
}

func TestNewRequiresRegistryAndSource(t *testing.T) {
	reg := newTestRegistry(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if svc := New(nil, &stubSource{}, log, time.Minute); svc != nil {
		t.Fatal("expected nil service without registry")
	}
	if svc := New(reg, nil, log, time.Minute); svc != nil {
		t.Fatal("expected nil service without source")
	}
}
