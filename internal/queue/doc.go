// Package queue persists deferred sync jobs in SQLite.
//
// Every piece of state a job needs to resume lives in its row, so workers
// from separate process invocations can drain the same queue. The dedup
// invariant (at most one non-terminal job per hook/group/args tuple) is
// enforced by a partial unique index, not by application-level locking.
package queue
