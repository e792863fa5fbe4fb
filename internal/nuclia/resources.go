package nuclia

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"nucliasync/internal/logging"
	"nucliasync/internal/services"
)

// CreateResult reports the identifiers Nuclia assigned to a new resource.
type CreateResult struct {
	RID   string `json:"uuid"`
	SeqID *int64 `json:"seqid"`
}

// CreateResource creates a resource and returns its assigned IDs. The
// knowledge box answers 201 on success.
func (c *Client) CreateResource(ctx context.Context, payload Resource) (*CreateResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "resources", payload, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusCreated {
		return nil, c.statusError("create", resp)
	}

	var result CreateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, services.Wrap(services.ErrValidation, "nuclia", "create", "decode response", err)
	}
	if result.RID == "" {
		return nil, services.Wrap(services.ErrValidation, "nuclia", "create", "response missing resource id", nil)
	}
	return &result, nil
}

// ModifyResource replaces the stored fields of an existing resource and
// returns the new sequence id when the knowledge box reports one.
func (c *Client) ModifyResource(ctx context.Context, rid string, payload Resource) (*int64, error) {
	resp, err := c.do(ctx, http.MethodPatch, "resource/"+rid, payload, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("modify", resp)
	}
	return decodeSeqID(resp.Body), nil
}

// DeleteResource removes a resource. Only 204 counts as success; a 404
// still surfaces as a not-found error so the caller can decide whether
// the record was already gone.
func (c *Client) DeleteResource(ctx context.Context, rid string) error {
	resp, err := c.do(ctx, http.MethodDelete, "resource/"+rid, nil, "")
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusNoContent {
		return c.statusError("delete", resp)
	}
	return nil
}

// UpdateResourceLabels patches only the classification block of a
// resource, leaving its content untouched.
func (c *Client) UpdateResourceLabels(ctx context.Context, rid string, classifications []Classification) error {
	body := struct {
		UserMetadata UserMetadata `json:"usermetadata"`
	}{UserMetadata: UserMetadata{Classifications: classifications}}

	resp, err := c.do(ctx, http.MethodPatch, "resource/"+rid, body, "")
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return c.statusError("update-labels", resp)
	}
	return nil
}

// UploadFile attaches a file's bytes to an existing resource and
// returns the sequence id from the upload response when present.
// Callers treat upload failure as non-fatal: the resource already
// exists and a later reindex can retry the binary.
func (c *Client) UploadFile(ctx context.Context, rid, filePath, mimeType string) (*int64, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "nuclia", "upload", fmt.Sprintf("read %s", filePath), err)
	}

	sum := md5.Sum(data)
	path := fmt.Sprintf("resource/%s/file/file/upload", rid)

	url := c.baseURL() + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "nuclia", "upload", "build request", err)
	}
	req.Header.Set(authHeader, "Bearer "+c.token)
	req.Header.Set("X-FILENAME", filepath.Base(filePath))
	req.Header.Set("x-md5", hex.EncodeToString(sum[:]))
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrConnection, "nuclia", "upload", "request failed", err)
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError("upload", resp)
	}
	c.logger.Info("attachment uploaded",
		logging.String(logging.FieldResourceID, rid),
		logging.String("file", filepath.Base(filePath)),
	)
	return decodeSeqID(resp.Body), nil
}

// decodeSeqID pulls the sequence id out of a write response body, if
// the knowledge box included one. Absence is not an error.
func decodeSeqID(body io.Reader) *int64 {
	var payload struct {
		SeqID *int64 `json:"seqid"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil
	}
	return payload.SeqID
}
