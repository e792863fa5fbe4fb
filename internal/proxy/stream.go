package proxy

import (
	"log/slog"
	"net/http"
	"strconv"

	"nucliasync/internal/logging"
)

// streamChunkSize bounds how much of a download sits in memory at once.
const streamChunkSize = 32 * 1024

// stream relays a download without buffering it. Headers are finalized
// from the remote's real status line before the first body byte, then
// each chunk is written and flushed immediately. HEAD requests forward
// status and headers only.
func (g *Gateway) stream(w http.ResponseWriter, req *http.Request, logger *slog.Logger) {
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Error("upstream stream failed", logging.Error(err))
		g.metrics.ObserveProxy("502", 0)
		writeError(w, http.StatusBadGateway, "upstream unreachable")
		return
	}
	defer resp.Body.Close()

	copyEndToEndHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	if req.Method == http.MethodHead {
		g.metrics.ObserveProxy(strconv.Itoa(resp.StatusCode), 0)
		return
	}

	flusher, _ := w.(http.Flusher)
	var relayed int64
	buf := make([]byte, streamChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				// Caller went away; nothing sensible left to do.
				break
			}
			relayed += int64(n)
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			break
		}
	}
	g.metrics.ObserveProxy(strconv.Itoa(resp.StatusCode), relayed)
}
