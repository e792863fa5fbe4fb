// Package api defines the wire types and client for the daemon's admin
// HTTP surface. The CLI and the daemon both depend on it so the two
// cannot drift apart.
package api

// GroupCounts mirrors the queue's per-group aggregation.
type GroupCounts struct {
	Pending  int  `json:"pending"`
	Running  int  `json:"running"`
	Failed   int  `json:"failed"`
	IsActive bool `json:"is_active"`
}

// StatusResponse is the daemon's full status report.
type StatusResponse struct {
	Running         bool           `json:"running"`
	PID             int            `json:"pid"`
	RemoteReachable bool           `json:"remote_reachable"`
	Indexing        GroupCounts    `json:"indexing"`
	Relabel         GroupCounts    `json:"relabel"`
	IndexedCount    int            `json:"indexed_count"`
	PendingByType   map[string]int `json:"pending_by_type"`
	QueueDBPath     string         `json:"queue_db_path"`
	IndexDBPath     string         `json:"index_db_path"`
	LockFilePath    string         `json:"lock_file_path"`
}

// ScheduleResponse reports how many jobs a bulk trigger inserted.
type ScheduleResponse struct {
	Scheduled int `json:"scheduled"`
}

// CancelResponse reports how many pending jobs were unscheduled.
type CancelResponse struct {
	Removed int64 `json:"removed"`
}

// IndexRequest asks the daemon to index or reindex one content item.
type IndexRequest struct {
	ContentID int64 `json:"content_id"`
}

// IndexResponse reports whether the request produced remote work.
type IndexResponse struct {
	Synced bool `json:"synced"`
}

// IndexRecord is one content-to-resource mapping as reported by the
// index listing endpoint.
type IndexRecord struct {
	ContentID  int64  `json:"content_id"`
	ResourceID string `json:"resource_id"`
	SequenceID string `json:"sequence_id,omitempty"`
}

// ListIndexResponse is one page of index records plus the total count.
type ListIndexResponse struct {
	Records []IndexRecord `json:"records"`
	Total   int           `json:"total"`
}

// DeleteRequest asks the daemon to drop one item's remote resource.
type DeleteRequest struct {
	ContentID int64 `json:"content_id"`
}

// ErrorResponse is the uniform error body for all admin endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
