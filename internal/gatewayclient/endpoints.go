package gatewayclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"studio/internal/api"
	"studio/internal/draft"
	"studio/internal/gateway"
	"studio/internal/invoker"
	"studio/internal/services"
	"studio/internal/store"
)

// Status returns the daemon status.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var resp api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return api.DaemonStatus{}, err
	}
	return resp.Data, nil
}

// Tasks lists the session's in-flight generations.
func (c *Client) Tasks(ctx context.Context) (api.TasksResponse, error) {
	var resp api.TasksResponse
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &resp)
	return resp, err
}

// Controls returns the busy state of every trigger control.
func (c *Client) Controls(ctx context.Context) (api.ControlsResponse, error) {
	var resp api.ControlsResponse
	err := c.do(ctx, http.MethodGet, "/api/controls", nil, &resp)
	return resp, err
}

// InvokeImage runs one tracked image generation.
func (c *Client) InvokeImage(ctx context.Context, req invoker.Request) (api.InvokeResponse, error) {
	var resp api.InvokeResponse
	err := c.do(ctx, http.MethodPost, "/api/invoke-image", req, &resp)
	return resp, err
}

// StartBatch submits a batch TTS run.
func (c *Client) StartBatch(ctx context.Context, req api.BatchStartRequest) (api.BatchStartResponse, error) {
	var resp api.BatchStartResponse
	err := c.do(ctx, http.MethodPost, "/api/batch", req, &resp)
	return resp, err
}

// Batch returns the current or last batch run.
func (c *Client) Batch(ctx context.Context) (api.Batch, error) {
	var resp api.BatchResponse
	if err := c.do(ctx, http.MethodGet, "/api/batch", nil, &resp); err != nil {
		return api.Batch{}, err
	}
	return resp.Data, nil
}

// GenerateTTS synthesizes a single clip.
func (c *Client) GenerateTTS(ctx context.Context, req gateway.TTSRequest) (gateway.TTSResponse, error) {
	var resp gateway.TTSResponse
	err := c.do(ctx, http.MethodPost, "/api/generate-tts", req, &resp)
	return resp, err
}

// DefaultTTSConfig returns the daemon's configured speech credentials.
func (c *Client) DefaultTTSConfig(ctx context.Context) (gateway.TTSDefaults, error) {
	var resp struct {
		Data gateway.TTSDefaults `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/api/default-tts-config", nil, &resp)
	return resp.Data, err
}

// GetImage fetches a generated image as a data URL.
func (c *Client) GetImage(ctx context.Context, path string) (gateway.ImagePreview, error) {
	var resp gateway.ImagePreview
	err := c.do(ctx, http.MethodGet, "/api/get-image?path="+url.QueryEscape(path), nil, &resp)
	return resp, err
}

// TestNotification asks the daemon to publish a test notification.
func (c *Client) TestNotification(ctx context.Context) (api.MessageResponse, error) {
	var resp api.MessageResponse
	err := c.do(ctx, http.MethodPost, "/api/test-notification", struct{}{}, &resp)
	return resp, err
}

// LogQuery selects a slice of the daemon log.
type LogQuery struct {
	// Offset < 0 returns the last Limit lines.
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// Logs reads the current daemon log. In follow mode the call blocks on the
// daemon until new lines arrive or Wait elapses.
func (c *Client) Logs(ctx context.Context, q LogQuery) (api.LogsResponse, error) {
	values := url.Values{}
	values.Set("offset", strconv.FormatInt(q.Offset, 10))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
		if q.Wait > 0 {
			values.Set("wait", strconv.Itoa(int(q.Wait/time.Second)))
		}
	}
	var resp api.LogsResponse
	err := c.do(ctx, http.MethodGet, "/api/logs?"+values.Encode(), nil, &resp)
	return resp, err
}

// FreeCreate generates a standalone image.
func (c *Client) FreeCreate(ctx context.Context, req gateway.FreeCreateRequest) (gateway.FreeCreateResponse, error) {
	var resp gateway.FreeCreateResponse
	err := c.do(ctx, http.MethodPost, "/api/free-create-image", req, &resp)
	return resp, err
}

// History lists free-create history, newest first.
func (c *Client) History(ctx context.Context) ([]store.HistoryEntry, error) {
	var resp gateway.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/free-create-history", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SaveDraft implements draft.Store.
func (c *Client) SaveDraft(ctx context.Context, projectPath string, snap draft.Snapshot) error {
	data, err := draft.Encode(snap)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/save-draft", gateway.DraftRequest{ProjectPath: projectPath, DraftData: data}, nil)
}

// LoadDraft implements draft.Store.
func (c *Client) LoadDraft(ctx context.Context, projectPath string) (draft.Snapshot, error) {
	var resp gateway.DraftResponse
	err := c.do(ctx, http.MethodPost, "/api/load-draft", gateway.DraftRequest{ProjectPath: projectPath}, &resp)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return draft.Snapshot{}, draft.ErrNoDraft
		}
		return draft.Snapshot{}, err
	}
	if resp.Data == nil {
		return draft.Snapshot{}, draft.ErrNoDraft
	}
	return *resp.Data, nil
}

// ClearDraft implements draft.Store.
func (c *Client) ClearDraft(ctx context.Context, projectPath string) error {
	return c.do(ctx, http.MethodPost, "/api/clear-draft", gateway.DraftRequest{ProjectPath: projectPath}, nil)
}

var _ draft.Store = (*Client)(nil)
