package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nucliasync/internal/api"
)

type fakeAdminAPI struct {
	mux      *http.ServeMux
	requests []string
}

func newFakeAdminAPI(t *testing.T) (*fakeAdminAPI, string) {
	t.Helper()
	f := &fakeAdminAPI{mux: http.NewServeMux()}

	record := func(pattern string, handler http.HandlerFunc) {
		f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())
			handler(w, r)
		})
	}
	record("/api/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.StatusResponse{
			Running:       true,
			PID:           4242,
			Indexing:      api.GroupCounts{Pending: 12, IsActive: true},
			IndexedCount:  87,
			PendingByType: map[string]int{"post": 12},
		})
	})
	record("/api/reindex", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.ScheduleResponse{Scheduled: 12})
	})
	record("/api/relabel", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.ScheduleResponse{Scheduled: 87})
	})
	record("/api/cancel", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.CancelResponse{Removed: 5})
	})
	record("/api/index", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			json.NewEncoder(w).Encode(api.IndexResponse{Synced: true})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			json.NewEncoder(w).Encode(api.ListIndexResponse{})
		}
	})
	record("/api/delete", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)
	return f, server.URL
}

func TestReindexCommandReportsScheduled(t *testing.T) {
	fake, addr := newFakeAdminAPI(t)
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, []string{"reindex", "--type", "post"}, addr, configPath)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	requireContains(t, out, "Scheduled 12 indexing jobs")
	if len(fake.requests) != 1 || fake.requests[0] != "POST /api/reindex?type=post" {
		t.Errorf("requests = %v", fake.requests)
	}
}

func TestRelabelCommand(t *testing.T) {
	_, addr := newFakeAdminAPI(t)
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, []string{"relabel"}, addr, configPath)
	if err != nil {
		t.Fatalf("relabel: %v", err)
	}
	requireContains(t, out, "Scheduled 87 relabel jobs")
}

func TestCancelCommandTargets(t *testing.T) {
	fake, addr := newFakeAdminAPI(t)
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, []string{"cancel", "--relabel"}, addr, configPath)
	if err != nil {
		t.Fatalf("cancel --relabel: %v", err)
	}
	requireContains(t, out, "Removed 5 pending jobs")
	if fake.requests[0] != "POST /api/cancel?target=relabel" {
		t.Errorf("requests = %v", fake.requests)
	}

	if _, _, err := runCLI(t, []string{"cancel", "--relabel", "--type", "post"}, addr, configPath); err == nil {
		t.Error("expected --relabel with --type to be rejected")
	}
}

func TestIndexCommandValidatesID(t *testing.T) {
	_, addr := newFakeAdminAPI(t)
	configPath := writeTestConfig(t)

	if _, _, err := runCLI(t, []string{"index", "abc"}, addr, configPath); err == nil {
		t.Error("expected invalid id to be rejected")
	}
	out, _, err := runCLI(t, []string{"index", "42"}, addr, configPath)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	requireContains(t, out, "Indexed content item 42")
}

func TestDeleteCommand(t *testing.T) {
	_, addr := newFakeAdminAPI(t)
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, []string{"delete", "9"}, addr, configPath)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	requireContains(t, out, "Removed content item 9 from the index")
}

func TestClearIndexRequiresConfirmation(t *testing.T) {
	fake, addr := newFakeAdminAPI(t)
	configPath := writeTestConfig(t)

	if _, _, err := runCLI(t, []string{"clear-index"}, addr, configPath); err == nil {
		t.Error("expected confirmation requirement")
	}
	if len(fake.requests) != 0 {
		t.Errorf("unconfirmed clear-index must not call the API, saw %v", fake.requests)
	}

	out, _, err := runCLI(t, []string{"clear-index", "--yes"}, addr, configPath)
	if err != nil {
		t.Fatalf("clear-index --yes: %v", err)
	}
	requireContains(t, out, "Cleared local index records")
}

func TestStatusCommandJSON(t *testing.T) {
	_, addr := newFakeAdminAPI(t)
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, []string{"status", "--json"}, addr, configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var status api.StatusResponse
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status output: %v", err)
	}
	if status.PID != 4242 || status.IndexedCount != 87 {
		t.Errorf("unexpected status payload: %+v", status)
	}
}
