package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"studio/internal/api"
	"studio/internal/config"
	"studio/internal/services"
)

const defaultTimeout = 5 * time.Minute

// Client calls the daemon's HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// New constructs a Client for the API at baseURL. A non-empty token is sent
// as a bearer credential.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig targets the daemon described by cfg.
func FromConfig(cfg *config.Config, opts ...Option) *Client {
	return New(cfg.APIBaseURL(), cfg.API.Token, opts...)
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping reports whether the daemon answers its status endpoint.
func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.Status(ctx)
	return err == nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrValidation, "gatewayclient", "encode request", path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "gatewayclient", "build request", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapDialError(err, c.baseURL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.WrapTransport("gatewayclient", "read response", err)
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return services.Wrap(services.ErrSemantic, "gatewayclient", "decode response", path, err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var payload api.ErrorResponse
	_ = json.Unmarshal(data, &payload)
	marker := services.Kind(payload.Kind).Marker()
	if marker == nil {
		marker = markerForStatus(status)
	}
	message := strings.TrimSpace(payload.Message)
	if message == "" {
		message = fmt.Sprintf("daemon returned http %d", status)
	}
	return services.NewFailure(marker, message)
}

func markerForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusRequestEntityTooLarge:
		return services.ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.ErrConfiguration
	case http.StatusNotFound:
		return services.ErrNotFound
	case http.StatusConflict:
		return services.ErrConflict
	case http.StatusGatewayTimeout:
		return services.ErrTimeout
	case http.StatusBadGateway:
		return services.ErrTransport
	default:
		return services.ErrPersistence
	}
}

func wrapDialError(err error, baseURL string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return services.Wrap(services.ErrTransport, "gatewayclient", "connect",
			fmt.Sprintf("daemon at %s refused the connection; start it with `studio start`", baseURL), err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "gatewayclient", "request", baseURL, err)
	}
	return services.WrapTransport("gatewayclient", "request", err)
}
