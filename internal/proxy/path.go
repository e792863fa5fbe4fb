package proxy

import (
	"regexp"
	"strings"
)

var zonePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidZone reports whether a zone identifier is safe to place in a
// hostname.
func ValidZone(zone string) bool {
	return zone != "" && zonePattern.MatchString(zone)
}

// normalizePath maps an inbound proxy path onto the remote API path.
// An empty path addresses the API root; a path already carrying the
// versioned prefix passes through; anything else gets the prefix. Paths
// containing a parent-directory segment are rejected outright.
func normalizePath(path string) (string, bool) {
	path = strings.TrimPrefix(path, "/")
	if strings.Contains(path, "..") {
		return "", false
	}
	if path == "" {
		return "api", true
	}
	if path == "api" || strings.HasPrefix(path, "api/") {
		return path, true
	}
	return "api/" + path, true
}

// isDownloadPath reports whether the normalized path addresses a binary
// download endpoint that must be streamed instead of buffered.
func isDownloadPath(path string) bool {
	return strings.Contains(path, "/download/")
}
