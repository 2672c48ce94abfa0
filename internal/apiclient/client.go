// Package apiclient fetches the dashboard backend's JSON endpoints.
package apiclient

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
	"time"

	"github.com/palladium-stack/plmdash/internal/metrics"
	"github.com/palladium-stack/plmdash/internal/model"
)

// APIKeyHeader carries the optional backend API key.
const APIKeyHeader = "X-API-Key"

const maxBodyBytes = 4 << 20

// Fetch outcomes recorded in metrics.
const (
	outcomeOK        = "ok"
	outcomeErrorBody = "error_payload"
	outcomeTransport = "transport"
	outcomeStatus    = "status"
	outcomeDecode    = "decode"
)

// Config holds client settings. APIKey is trimmed once in New.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client performs GET requests against the backend.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
}

// StatusError reports a non-2xx response whose body is not an error envelope.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = model.DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", raw)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = model.DefaultRequestTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:   base,
		apiKey: strings.TrimSpace(cfg.APIKey),
		http:   hc,
	}, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

// HasAPIKey reports whether requests carry the API key header.
func (c *Client) HasAPIKey() bool { return c.apiKey != "" }

func (c *Client) urlFor(ep Endpoint) string {
	u := *c.base
	u.Path = c.base.Path + ep.Path
	return u.String()
}

// get performs the request and returns the status and a size-limited body.
func (c *Client) get(ctx context.Context, ep Endpoint) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.urlFor(ep), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: build request: %w", ep.Name, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", ep.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%s: read body: %w", ep.Name, err)
	}
	return resp.StatusCode, body, nil
}

// Fetch requests ep and decodes its body into Result[T]. A body whose "error"
// field is truthy decodes to Err regardless of status. Transport failures,
// malformed JSON and other non-2xx responses are returned as errors.
func Fetch[T any](ctx context.Context, c *Client, ep Endpoint) (Result[T], error) {
	start := time.Now()
	res, outcome, err := fetch[T](ctx, c, ep)
	metrics.FetchDuration.WithLabelValues(ep.Name).Observe(time.Since(start).Seconds())
	metrics.FetchesTotal.WithLabelValues(ep.Name, outcome).Inc()
	return res, err
}

func fetch[T any](ctx context.Context, c *Client, ep Endpoint) (Result[T], string, error) {
	status, body, err := c.get(ctx, ep)
	if err != nil {
		return Result[T]{}, outcomeTransport, err
	}
	success := status >= 200 && status < 300

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		if !success {
			return Result[T]{}, outcomeStatus, &StatusError{Endpoint: ep.Name, StatusCode: status}
		}
		return Result[T]{}, outcomeDecode, fmt.Errorf("%s: decode body: %w", ep.Name, err)
	}
	if msg, ok := errorMessage(envelope.Error); ok {
		return Err[T](msg), outcomeErrorBody, nil
	}
	if !success {
		return Result[T]{}, outcomeStatus, &StatusError{Endpoint: ep.Name, StatusCode: status}
	}

	var data T
	if err := json.Unmarshal(body, &data); err != nil {
		return Result[T]{}, outcomeDecode, fmt.Errorf("%s: decode payload: %w", ep.Name, err)
	}
	return Ok(data), outcomeOK, nil
}

// FetchPlain requests ep and decodes the body into T without inspecting an
// error envelope. Used for endpoints such as health that always describe
// themselves, whatever the status code.
func FetchPlain[T any](ctx context.Context, c *Client, ep Endpoint) (T, error) {
	start := time.Now()
	var data T
	outcome := outcomeOK
	defer func() {
		metrics.FetchDuration.WithLabelValues(ep.Name).Observe(time.Since(start).Seconds())
		metrics.FetchesTotal.WithLabelValues(ep.Name, outcome).Inc()
	}()

	status, body, err := c.get(ctx, ep)
	if err != nil {
		outcome = outcomeTransport
		return data, err
	}
	if err := json.Unmarshal(body, &data); err != nil {
		if status < 200 || status >= 300 {
			outcome = outcomeStatus
			return data, &StatusError{Endpoint: ep.Name, StatusCode: status}
		}
		outcome = outcomeDecode
		return data, fmt.Errorf("%s: decode body: %w", ep.Name, err)
	}
	return data, nil
}

// errorMessage reports whether raw is a truthy JSON value and renders it.
func errorMessage(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch string(raw) {
	case "null", "false", "0", `""`:
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n == 0 {
		return "", false
	}
	return string(raw), true
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
