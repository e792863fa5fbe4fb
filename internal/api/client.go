package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a running daemon's admin API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given bind address ("host:port" or
// a full URL).
func NewClient(address string) *Client {
	base := strings.TrimRight(address, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches the daemon status report.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.call(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reindex schedules indexing jobs, for one content type or all of them.
func (c *Client) Reindex(ctx context.Context, contentType string) (*ScheduleResponse, error) {
	path := "/api/reindex"
	if contentType != "" {
		path += "?type=" + contentType
	}
	var out ScheduleResponse
	if err := c.call(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Relabel schedules a full label reprocessing pass.
func (c *Client) Relabel(ctx context.Context) (*ScheduleResponse, error) {
	var out ScheduleResponse
	if err := c.call(ctx, http.MethodPost, "/api/relabel", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel unschedules pending jobs. target is "indexing" or "relabel";
// contentType narrows an indexing cancel to one type.
func (c *Client) Cancel(ctx context.Context, target, contentType string) (*CancelResponse, error) {
	path := "/api/cancel?target=" + target
	if contentType != "" {
		path += "&type=" + contentType
	}
	var out CancelResponse
	if err := c.call(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Index synchronizes one content item immediately.
func (c *Client) Index(ctx context.Context, contentID int64) (*IndexResponse, error) {
	var out IndexResponse
	if err := c.call(ctx, http.MethodPost, "/api/index", IndexRequest{ContentID: contentID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes one content item's remote resource.
func (c *Client) Delete(ctx context.Context, contentID int64) error {
	return c.call(ctx, http.MethodPost, "/api/delete", DeleteRequest{ContentID: contentID}, nil)
}

// ListIndex fetches one page of content-to-resource mappings.
func (c *Client) ListIndex(ctx context.Context, limit, offset int) (*ListIndexResponse, error) {
	path := fmt.Sprintf("/api/index?limit=%d&offset=%d", limit, offset)
	var out ListIndexResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearIndex drops every local index record.
func (c *Client) ClearIndex(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/api/index", nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
