// Package syncer decides what remote work a content mutation implies
// and executes the job handlers that carry it out. Save and delete
// events act immediately against the knowledge box; bulk reindex and
// relabel operations fan out through the durable queue.
package syncer
