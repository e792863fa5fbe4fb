package main

import (
	"strings"
	"testing"

	"nucliasync/internal/api"
)

func TestRenderStatusPlain(t *testing.T) {
	status := &api.StatusResponse{
		Running:         true,
		PID:             1234,
		RemoteReachable: true,
		Indexing:        api.GroupCounts{Pending: 7, Running: 2, IsActive: true},
		Relabel:         api.GroupCounts{},
		IndexedCount:    150,
		PendingByType:   map[string]int{"post": 5, "page": 2},
		QueueDBPath:     "/data/queue.db",
		IndexDBPath:     "/data/index.db",
		LockFilePath:    "/logs/nucliasync.lock",
	}

	out := renderStatus(status, false)

	for _, want := range []string{
		"running",
		"reachable",
		"pid 1234",
		"150 resources",
		"indexing",
		"relabel",
		"post",
		"page",
		"/data/queue.db",
		"/logs/nucliasync.lock",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, ansiGreen) {
		t.Error("plain rendering must not contain ANSI codes")
	}
}

func TestRenderStatusColorized(t *testing.T) {
	status := &api.StatusResponse{Running: false, RemoteReachable: false}
	out := renderStatus(status, true)

	if !strings.Contains(out, ansiRed) {
		t.Error("expected red markers for a stopped daemon")
	}
	if !strings.Contains(out, "stopped") || !strings.Contains(out, "unreachable") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRenderTableAlignment(t *testing.T) {
	out := renderTable([]string{"Name", "Count"}, [][]string{{"post", "12"}, {"page", "3"}}, 1)
	if !strings.Contains(out, "post") || !strings.Contains(out, "12") {
		t.Errorf("table output missing rows:\n%s", out)
	}
	if len(strings.Split(out, "\n")) < 4 {
		t.Errorf("expected bordered table:\n%s", out)
	}
}
