package proxy

import "strings"

// internalParams are routing parameters consumed by the proxy mounts
// themselves; they must never reach the remote API.
var internalParams = map[string]struct{}{
	"rest_route":        {},
	"nuclia_proxy":      {},
	"nuclia_proxy_zone": {},
	"nuclia_proxy_path": {},
}

// cleanRawQuery strips internal routing parameters from a raw query
// string. It works on the raw text rather than a parsed map: the remote
// API distinguishes repeated keys, and a parse-then-rebuild would
// collapse them.
func cleanRawQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	parts := strings.Split(rawQuery, "&")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" {
			continue
		}
		key := part
		if idx := strings.IndexByte(part, '='); idx >= 0 {
			key = part[:idx]
		}
		if _, internal := internalParams[key]; internal {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "&")
}

// hasEphemeralToken reports whether the caller supplied its own
// short-lived credential, in which case the service account must not be
// attached.
func hasEphemeralToken(rawQuery string) bool {
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "eph-token" || strings.HasPrefix(part, "eph-token=") {
			return true
		}
	}
	return false
}
