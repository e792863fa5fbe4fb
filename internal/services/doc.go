// Package services defines the shared error taxonomy for remote and job
// processing failures. The queue worker is the only layer that converts an
// error class into a retry-or-give-up decision.
package services
