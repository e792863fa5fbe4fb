package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"nucliasync/internal/config"
	"nucliasync/internal/logging"
	"nucliasync/internal/metrics"
)

const authHeader = "X-NUCLIA-SERVICEACCOUNT"

// hopByHopHeaders never travel end to end. Content-Encoding is included
// because the proxy requests identity encoding upstream and must not
// advertise an encoding it did not apply.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Content-Encoding",
}

// HTTPDoer abstracts the HTTP client so tests can intercept requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gateway is the stateless forwarding core shared by both mounts.
type Gateway struct {
	token   string
	apiHost string

	client  HTTPDoer
	logger  *slog.Logger
	metrics *metrics.Set
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(g *Gateway) {
		if doer != nil {
			g.client = doer
		}
	}
}

// NewGateway builds the forwarding core. The stream timeout bounds a
// whole download relay, so it is generous by default.
func NewGateway(cfg *config.Config, logger *slog.Logger, set *metrics.Set, opts ...Option) *Gateway {
	timeout := time.Duration(cfg.Proxy.StreamTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	g := &Gateway{
		token:   cfg.Nuclia.Token,
		apiHost: cfg.Nuclia.APIHost,
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "proxy"),
		metrics: set,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Forward relays one inbound request to the knowledge box. zone and
// rest come from whichever mount parsed the inbound URL; everything
// else is read off the request itself.
func (g *Gateway) Forward(w http.ResponseWriter, r *http.Request, zone, rest string) {
	if !ValidZone(zone) {
		writeError(w, http.StatusBadRequest, "invalid zone")
		return
	}
	if g.token == "" {
		writeError(w, http.StatusInternalServerError, "proxy not configured")
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	path, ok := normalizePath(rest)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}

	target := fmt.Sprintf("https://%s.%s/%s", zone, g.apiHost, path)
	rawQuery := cleanRawQuery(r.URL.RawQuery)
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	var body io.Reader
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}
	// The caller's ephemeral token is its own auth; attaching the
	// service account as well would be wrong.
	if !hasEphemeralToken(r.URL.RawQuery) {
		req.Header.Set(authHeader, "Bearer "+g.token)
	}

	// One id per forwarded request so upstream failures can be
	// correlated across log lines.
	reqLogger := g.logger.With(
		logging.String("request_id", uuid.NewString()),
		logging.String("method", r.Method),
		logging.String("path", path),
	)

	if isDownloadPath(path) && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		g.stream(w, req, reqLogger)
		return
	}
	g.buffered(w, req, reqLogger)
}

// buffered relays a full response in one piece, re-emitting JSON bodies
// with a JSON content type even when the remote mislabels them.
func (g *Gateway) buffered(w http.ResponseWriter, req *http.Request, logger *slog.Logger) {
	resp, err := g.client.Do(req)
	if err != nil {
		logger.Error("upstream request failed", logging.Error(err))
		g.metrics.ObserveProxy("502", 0)
		writeError(w, http.StatusBadGateway, "upstream unreachable")
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("upstream body read failed", logging.Error(err))
		g.metrics.ObserveProxy("502", 0)
		writeError(w, http.StatusBadGateway, "upstream read failed")
		return
	}

	copyEndToEndHeaders(w.Header(), resp.Header)
	if looksLikeJSON(resp.Header.Get("Content-Type"), data) {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(data)
	g.metrics.ObserveProxy(strconv.Itoa(resp.StatusCode), int64(len(data)))
}

func copyEndToEndHeaders(dst, src http.Header) {
	for key, values := range src {
		if isHopByHop(key) {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func isHopByHop(key string) bool {
	for _, hop := range hopByHopHeaders {
		if strings.EqualFold(key, hop) {
			return true
		}
	}
	return false
}

// looksLikeJSON sniffs whether a buffered body should be served as
// JSON: either the remote said so, or the payload starts like a JSON
// document.
func looksLikeJSON(contentType string, data []byte) bool {
	if strings.Contains(contentType, "application/json") {
		return true
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return false
	}
	return (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid([]byte(trimmed))
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
