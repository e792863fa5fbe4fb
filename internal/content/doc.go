// Package content models the host content system's items and the read-only
// source used to fetch them. The host system owns the items; this daemon
// never writes back.
package content
