// Package validator is the HTTP client for the external validation service.
// The service receives raw CSV bytes and returns an annotated HTML rendering
// of the table plus an error count; the core package parses that rendering
// into its in-memory model.
package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmarchini/octable/internal/core"
)

// DefaultTimeout bounds a single validation round trip. Validation of large
// files is CPU-bound on the service side, so this is generous.
const DefaultTimeout = 120 * time.Second

// maxResponseSize caps how much of the validator's response body is read.
// Annotated renderings are roughly linear in input size; 256MB covers the
// largest accepted upload with margin.
const maxResponseSize = 256 << 20

// Client calls the validation service over HTTP. It implements core.Validator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Useful for tests and
// for callers that need custom transport settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the validation service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// validateResponse is the service's JSON envelope.
type validateResponse struct {
	HTML       string `json:"html"`
	ErrorCount int    `json:"error_count"`
}

// errorResponse is returned by the service on 4xx/5xx.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Validate submits csvData for validation and returns the annotated
// rendering. kind selects the schema the service validates against;
// verifyIDs enables existence checks on external identifiers.
func (c *Client) Validate(ctx context.Context, kind core.TableKind, csvData []byte, verifyIDs bool) (*core.ValidationResult, error) {
	endpoint := fmt.Sprintf("%s/validate/%s", c.baseURL, url.PathEscape(string(kind)))
	if verifyIDs {
		endpoint += "?verify_ids=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(csvData))
	if err != nil {
		return nil, fmt.Errorf("validator request: %w", err)
	}
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validator request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("validator response read: %w", err)
	}

	c.logger.Debug("validation round trip",
		"kind", kind,
		"status", resp.StatusCode,
		"bytes_in", len(csvData),
		"bytes_out", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Detail != "" {
			return nil, fmt.Errorf("validator rejected request (status %d): %s", resp.StatusCode, errResp.Detail)
		}
		return nil, fmt.Errorf("validator returned status %d", resp.StatusCode)
	}

	var out validateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("validator response decode: %w", err)
	}
	if out.HTML == "" {
		return nil, fmt.Errorf("validator returned empty rendering")
	}

	return &core.ValidationResult{
		HTML:       out.HTML,
		ErrorCount: out.ErrorCount,
	}, nil
}
