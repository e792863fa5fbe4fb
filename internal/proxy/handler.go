package proxy

import (
	"net/http"
	"strings"
)

// PathHandler serves the rewritten-path mount:
// /nuclia-proxy/{zone}/{rest...}.
func (g *Gateway) PathHandler(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zone, rest := splitZonePath(strings.TrimPrefix(r.URL.Path, prefix))
		g.Forward(w, r, zone, rest)
	})
}

// RESTHandler serves the REST-style mount:
// /api/v1/nuclia/{zone}/{rest...}. Both mounts defer to Forward, so
// their behavior is identical by construction.
func (g *Gateway) RESTHandler(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zone, rest := splitZonePath(strings.TrimPrefix(r.URL.Path, prefix))
		g.Forward(w, r, zone, rest)
	})
}

// splitZonePath peels the zone segment off the front of a mount-relative
// path.
func splitZonePath(path string) (zone, rest string) {
	path = strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[:idx], path[idx+1:]
	}
	return path, ""
}
