package nuclia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"nucliasync/internal/logging"
	"nucliasync/internal/services"
)

// labelsetTTL bounds how long a fetched labelset listing is reused
// before the knowledge box is asked again.
const labelsetTTL = 6 * time.Hour

// Labelset is one labelset defined on the knowledge box.
type Labelset struct {
	ID     string
	Labels []string
}

// Labelsets returns the knowledge box's labelsets, served from a cache
// with a six hour TTL. When a refresh fails but a previous listing is
// cached, the stale listing is returned instead of the error.
func (c *Client) Labelsets(ctx context.Context) ([]Labelset, error) {
	c.cacheMu.Lock()
	if c.labelsets != nil && time.Since(c.cachedAt) < labelsetTTL {
		cached := c.labelsets
		c.cacheMu.Unlock()
		return cached, nil
	}
	c.cacheMu.Unlock()

	fresh, err := c.fetchLabelsets(ctx)
	if err != nil {
		c.cacheMu.Lock()
		stale := c.labelsets
		c.cacheMu.Unlock()
		if stale != nil {
			c.logger.Warn("labelset refresh failed, serving stale cache", logging.Error(err))
			return stale, nil
		}
		return nil, err
	}

	c.cacheMu.Lock()
	c.labelsets = fresh
	c.cachedAt = time.Now()
	c.cacheMu.Unlock()
	return fresh, nil
}

// LabelsetLabels returns the labels of one labelset, going through the
// same cache as Labelsets. A missing labelset is a not-found error.
func (c *Client) LabelsetLabels(ctx context.Context, name string) ([]string, error) {
	sets, err := c.Labelsets(ctx)
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		if set.ID == name {
			return set.Labels, nil
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "nuclia", "labelset-labels",
		fmt.Sprintf("labelset %q not defined", name), nil)
}

// InvalidateLabelsets drops the cached listing so the next call fetches.
func (c *Client) InvalidateLabelsets() {
	c.cacheMu.Lock()
	c.labelsets = nil
	c.cachedAt = time.Time{}
	c.cacheMu.Unlock()
}

func (c *Client) fetchLabelsets(ctx context.Context) ([]Labelset, error) {
	resp, err := c.do(ctx, http.MethodGet, "labelsets", nil, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("labelsets", resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrConnection, "nuclia", "labelsets", "read response", err)
	}
	sets, err := parseLabelsets(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "nuclia", "labelsets", "parse response", err)
	}
	return sets, nil
}

// parseLabelsets accepts the response shapes different knowledge box
// versions produce. The listing may arrive as a map keyed by labelset
// id, as an array of objects, or as a bare array of names; labels
// within a set vary the same way. Matchers are tried in a fixed order
// so ambiguous payloads resolve deterministically.
func parseLabelsets(data []byte) ([]Labelset, error) {
	// Some versions return the listing without an envelope.
	raw := json.RawMessage(data)
	var envelope struct {
		Labelsets json.RawMessage `json:"labelsets"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Labelsets) > 0 {
		raw = envelope.Labelsets
	}

	if sets, ok := matchLabelsetMap(raw); ok {
		return sets, nil
	}
	if sets, ok := matchLabelsetArray(raw); ok {
		return sets, nil
	}
	return nil, errUnrecognizedShape
}

var errUnrecognizedShape = services.Wrap(services.ErrValidation, "nuclia", "labelsets",
	"unrecognized labelset response shape", nil)

// matchLabelsetMap handles `{"set-id": {...}, ...}`.
func matchLabelsetMap(raw json.RawMessage) ([]Labelset, bool) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sets := make([]Labelset, 0, len(entries))
	for _, id := range ids {
		sets = append(sets, Labelset{ID: id, Labels: parseLabels(entries[id])})
	}
	return sets, true
}

// matchLabelsetArray handles `[...]` where elements are either bare
// strings or objects carrying an identifier field.
func matchLabelsetArray(raw json.RawMessage) ([]Labelset, bool) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, false
	}
	sets := make([]Labelset, 0, len(elements))
	for _, element := range elements {
		var name string
		if err := json.Unmarshal(element, &name); err == nil {
			sets = append(sets, Labelset{ID: name})
			continue
		}
		var object map[string]json.RawMessage
		if err := json.Unmarshal(element, &object); err != nil {
			return nil, false
		}
		id := firstString(object, "id", "name", "title", "label", "key")
		if id == "" {
			return nil, false
		}
		sets = append(sets, Labelset{ID: id, Labels: parseLabels(element)})
	}
	return sets, true
}

// parseLabels extracts label names from one labelset entry, tolerating
// the same shape drift as the outer listing.
func parseLabels(raw json.RawMessage) []string {
	var object struct {
		Labels json.RawMessage `json:"labels"`
	}
	if err := json.Unmarshal(raw, &object); err != nil || len(object.Labels) == 0 {
		return nil
	}

	var names []string
	if err := json.Unmarshal(object.Labels, &names); err == nil {
		return dedupStrings(names)
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(object.Labels, &entries); err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name := firstString(entry, "title", "label", "name", "key"); name != "" {
			out = append(out, name)
		}
	}
	return dedupStrings(out)
}

// firstString returns the first of the candidate keys that holds a
// non-empty JSON string. Order matters: earlier keys win.
func firstString(object map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := object[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil && value != "" {
			return value
		}
	}
	return ""
}

func dedupStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
