// Package nuclia is the HTTP client for a Nuclia knowledge box. It
// covers the resource lifecycle (create, modify, delete), attachment
// uploads, classification-only label updates, and labelset discovery.
//
// The client is stateless: it never records which resource belongs to
// which content item. Callers persist that association themselves.
package nuclia
