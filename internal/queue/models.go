package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Hook identifies the handler a job is dispatched to.
const (
	HookProcessSingle   = "process-single-item"
	HookReprocessLabels = "reprocess-labels"
)

// Group names partition jobs for bulk cancel and status reporting.
const (
	GroupIndexing = "nuclia-indexing"
	GroupRelabel  = "nuclia-label-reprocessing"
)

var statusSet = map[Status]struct{}{
	StatusPending:  {},
	StatusRunning:  {},
	StatusComplete: {},
	StatusFailed:   {},
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether a status participates in the dedup invariant.
// Complete and failed jobs are retained for reporting but never block a
// fresh enqueue of the same arguments.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Args is the persisted job payload. ContentID and ContentType double as
// queryable columns so per-type filtering never scans argument JSON.
type Args struct {
	ContentID   int64  `json:"content_id"`
	ContentType string `json:"content_type,omitempty"`
	ResourceID  string `json:"rid,omitempty"`
}

// DedupKey produces the canonical identity of a job for the dedup
// invariant: same hook, group, and args collapse onto one key.
func DedupKey(hook, group string, args Args) string {
	payload, _ := json.Marshal(args)
	return fmt.Sprintf("%s|%s|%s", hook, group, payload)
}

// Job is a unit of deferred work persisted in SQLite.
type Job struct {
	ID          int64
	Hook        string
	Group       string
	Args        Args
	Status      Status
	Attempts    int
	ScheduledAt time.Time
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Counts aggregates job statuses inside one group.
type Counts struct {
	Pending int `json:"pending"`
	Running int `json:"running"`
	Failed  int `json:"failed"`
}

// IsActive reports whether work remains or is in flight.
func (c Counts) IsActive() bool {
	return c.Pending > 0 || c.Running > 0
}
