package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/actgraph/pkg/buildinfo"
	apperrors "github.com/matzehuels/actgraph/pkg/errors"
	"github.com/matzehuels/actgraph/pkg/observability"
)

// maxErrorBody caps how much of an error response is quoted in errors.
const maxErrorBody = 512

// Client provides shared HTTP functionality for all service clients.
type Client struct {
	http     *http.Client
	base     *url.URL
	headers  map[string]string
	username string
	password string
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	if err := apperrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse %s", baseURL)
	}
	hc, err := NewHTTPClient(opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "configure HTTP client")
	}
	return &Client{
		http:     hc,
		base:     base,
		headers:  opts.Headers,
		username: opts.Username,
		password: opts.Password,
	}, nil
}

// BaseURL returns the service base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.base.String() }

// URL joins path (which may carry a query) onto the base URL, keeping any
// path prefix of the base.
func (c *Client) URL(path string) string {
	return c.base.String() + "/" + strings.TrimLeft(path, "/")
}

// Get performs a GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, path string, v any) error {
	return c.GetFunc(ctx, path, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(v)
	})
}

// GetFunc performs a GET request and hands the response body to decode.
// Decode failures are reported as INVALID_SCHEMA.
func (c *Client) GetFunc(ctx context.Context, path string, decode func(io.Reader) error) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := decode(resp.Body); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidSchema, err, "decode %s", c.URL(path))
	}
	return nil
}

// PostJSON encodes in as the request body and decodes the response into out
// (skipped when out is nil).
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode request")
	}
	resp, err := c.Do(ctx, http.MethodPost, path, bytes.NewReader(body),
		map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidSchema, err, "decode %s", c.URL(path))
	}
	return nil
}

// Delete performs a DELETE request, discarding the response body.
func (c *Client) Delete(ctx context.Context, path string) error {
	resp, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Do sends a request with the client defaults plus headers. Non-2xx
// responses are closed and returned as structured errors; on success the
// caller owns the response body.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	target := c.URL(path)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, req.URL.Host, req.URL.Path, err)
		return nil, apperrors.Wrap(apperrors.ErrCodeNetwork, err, "%s %s", method, target)
	}
	hooks.OnResponse(ctx, method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, method, target); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func checkStatus(resp *http.Response, method, target string) error {
	code := apperrors.FromStatus(resp.StatusCode)
	if code == "" {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := fmt.Sprintf("%s %s: status %d", method, target, resp.StatusCode)
	if s := strings.TrimSpace(string(snippet)); s != "" {
		msg += ": " + s
	}
	return apperrors.New(code, "%s", msg)
}
