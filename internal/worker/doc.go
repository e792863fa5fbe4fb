// Package worker runs the background job pool that drains the durable
// queue. Handlers are registered per hook and report a single Outcome;
// the pool owns all status transitions, retry backoff, and attempt
// accounting so handlers never touch the store.
package worker
