// Package daemon runs the long-lived sync process: the worker pool
// draining the job queue, the admin HTTP API, and the widget proxy
// mounts. A file lock enforces a single instance per host.
package daemon
