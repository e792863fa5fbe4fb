package nuclia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"nucliasync/internal/config"
	"nucliasync/internal/logging"
	"nucliasync/internal/services"
)

const authHeader = "X-NUCLIA-SERVICEACCOUNT"

// resourceIDPattern matches the UUID form Nuclia assigns to resources.
var resourceIDPattern = regexp.MustCompile(`^[a-f0-9-]{36}$`)

// ValidResourceID reports whether rid looks like a Nuclia resource UUID.
func ValidResourceID(rid string) bool {
	return resourceIDPattern.MatchString(rid)
}

// HTTPDoer abstracts the HTTP client so tests can intercept requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one knowledge box.
type Client struct {
	zone    string
	kbid    string
	token   string
	apiHost string

	httpClient HTTPDoer
	logger     *slog.Logger

	cacheMu   sync.Mutex
	labelsets []Labelset
	cachedAt  time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// New creates a client from the configured credentials.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if !cfg.RemoteConfigured() {
		return nil, services.Wrap(services.ErrConfiguration, "nuclia", "new",
			"zone, kbid, and token are all required", nil)
	}
	timeout := time.Duration(cfg.Nuclia.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		zone:       cfg.Nuclia.Zone,
		kbid:       cfg.Nuclia.KBID,
		token:      cfg.Nuclia.Token,
		apiHost:    cfg.Nuclia.APIHost,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "nuclia"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// baseURL is the knowledge-box root, without a trailing slash.
func (c *Client) baseURL() string {
	return fmt.Sprintf("https://%s.%s/api/v1/kb/%s", c.zone, c.apiHost, c.kbid)
}

// CheckReachable performs a lightweight authenticated request against
// the knowledge box, used by daemon startup and status reporting.
func (c *Client) CheckReachable(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "labelsets", nil, "")
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return c.statusError("check", resp)
}

// do issues one authenticated request. The path is joined to the
// knowledge-box root; an empty path hits the root itself.
func (c *Client) do(ctx context.Context, method, path string, body any, contentType string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case io.Reader:
			reader = v
		case []byte:
			reader = bytes.NewReader(v)
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "nuclia", method, "encode request body", err)
			}
			reader = bytes.NewReader(encoded)
			if contentType == "" {
				contentType = "application/json"
			}
		}
	}

	url := c.baseURL()
	if path != "" {
		url += "/" + strings.TrimPrefix(path, "/")
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "nuclia", method, "build request", err)
	}
	req.Header.Set(authHeader, "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrConnection, "nuclia", method, "request failed", err)
	}
	return resp, nil
}

// statusError classifies an unexpected response status. Not-found maps
// to a skippable error, rate limiting and server failures to a
// retryable one, and every remaining 4xx to a terminal validation
// failure the operator should see.
func (c *Client) statusError(operation string, resp *http.Response) error {
	snippet := bodySnippet(resp)
	message := fmt.Sprintf("unexpected status %d", resp.StatusCode)
	if snippet != "" {
		message += ": " + snippet
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "nuclia", operation, message, nil)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return services.Wrap(services.ErrConnection, "nuclia", operation, message, nil)
	default:
		return services.Wrap(services.ErrValidation, "nuclia", operation, message, nil)
	}
}

func bodySnippet(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func drain(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}
}
