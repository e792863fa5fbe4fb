// Package indexstore persists the mapping from content ids to remote
// Nuclia resource ids. Presence of a record means the content id has a
// remote resource; absence means it has never been synced.
package indexstore
