package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecentDeploymentsDecodesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/professional/recent-deployments" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"deployments":[{
			"deployment_id":"dep-1",
			"company_name":"Apex",
			"template_name":"Manufacturing Excellence",
			"worker_count":120,
			"revenue":29400,
			"modules":"[\"operations\",\"memory\"]",
			"status":"active",
			"created_at":"2026-08-20T10:30:00Z",
			"deployment_url":"https://apex.fixitfred.app"
		}]}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	deployments, err := client.RecentDeployments(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(deployments) != 1 {
		t.Fatalf("expected 1 deployment, got %d", len(deployments))
	}
	d := deployments[0]
	if d.DeploymentID != "dep-1" || d.WorkerCount != 120 || d.Revenue != 29400 {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	modules, ok := d.ParseModules()
	if !ok || len(modules) != 2 || modules[0] != "operations" {
		t.Fatalf("unexpected modules: %v ok=%v", modules, ok)
	}
}

func TestRecentDeploymentsMissingArrayMeansEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	deployments, err := client.RecentDeployments(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(deployments) != 0 {
		t.Fatalf("expected empty feed, got %d", len(deployments))
	}
}

func TestRecentDeploymentsNonSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.RecentDeployments(context.Background()); err == nil {
		t.Fatal("expected error on non-success status")
	}
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestParseModulesMalformed(t *testing.T) {
	d := RemoteDeployment{Modules: "not json"}
	if _, ok := d.ParseModules(); ok {
		t.Fatal("expected malformed modules to report !ok")
	}
	d = RemoteDeployment{}
	if _, ok := d.ParseModules(); ok {
		t.Fatal("expected empty modules to report !ok")
	}
}
