// Package client talks to the external optimization service over HTTP.
package client

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

	"github.com/google/uuid"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/optimization"
	"go.uber.org/zap"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

// ErrResponseTooLarge is wrapped by RequestError when a body exceeds the cap.
var ErrResponseTooLarge = errors.New("response too large")

// Client posts optimization requests and fetches form defaults. It performs a
// single attempt per call; retries are left to the caller.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	headers    map[string]string
	timeout    *time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request. Zero disables the bound. It applies
// regardless of where WithHTTPClient appears in the option list.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = &timeout
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = constants.DefaultEndpoint
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: constants.DefaultTimeout},
		logger:     zap.NewNop(),
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the service root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Optimize posts req to the optimization endpoint and decodes the result.
func (c *Client) Optimize(ctx context.Context, req optimization.OptimizationRequest) (optimization.OptimizationResult, error) {
	body, err := c.do(ctx, "client.Optimize", http.MethodPost, constants.OptimizePath, req)
	if err != nil {
		return optimization.OptimizationResult{}, err
	}

	result, err := optimization.DecodeResult(body)
	if err != nil {
		return optimization.OptimizationResult{}, &RequestError{
			Op:     "client.Optimize",
			Method: http.MethodPost,
			URL:    c.endpoint(constants.OptimizePath),
			Body:   body,
			Err:    fmt.Errorf("invalid response: %w", err),
		}
	}
	return result, nil
}

// Defaults fetches the form defaults.
func (c *Client) Defaults(ctx context.Context) (optimization.Parameters, error) {
	body, err := c.do(ctx, "client.Defaults", http.MethodGet, constants.DefaultsPath, nil)
	if err != nil {
		return optimization.Parameters{}, err
	}

	var params optimization.Parameters
	if err := json.Unmarshal(body, &params); err != nil {
		return optimization.Parameters{}, &RequestError{
			Op:     "client.Defaults",
			Method: http.MethodGet,
			URL:    c.endpoint(constants.DefaultsPath),
			Body:   body,
			Err:    fmt.Errorf("invalid response: %w", err),
		}
	}
	return params, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	target := c.endpoint(path)
	reqErr := func(status int, body []byte, err error) *RequestError {
		return &RequestError{Op: op, Method: method, URL: target, StatusCode: status, Body: body, Err: err}
	}

	var bodyReader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, reqErr(0, nil, fmt.Errorf("encode body: %w", err))
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, reqErr(0, nil, fmt.Errorf("create request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(constants.RequestIDHeader, requestID)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	c.logger.Debug("sending request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", target),
		zap.String("requestId", requestID),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("op", op),
			zap.String("requestId", requestID),
			zap.Error(err),
		)
		return nil, reqErr(0, nil, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, reqErr(resp.StatusCode, nil, fmt.Errorf("read response: %w", err))
	}
	if len(body) > maxResponseSize {
		return nil, reqErr(resp.StatusCode, nil, fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, maxResponseSize))
	}

	c.logger.Debug("received response",
		zap.String("op", op),
		zap.String("requestId", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, reqErr(resp.StatusCode, body, nil)
	}
	return body, nil
}
