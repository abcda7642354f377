// Package checkapi is a client for the claim verification service's HTTP API.
package checkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "http://localhost:3000"

// Client talks to the verification service.
type Client interface {
	// Check submits a claim and waits for the complete result.
	Check(ctx context.Context, req CheckRequest) (*CheckData, error)
	// Stream opens the progress event stream for a claim. The caller must
	// Close the returned stream.
	Stream(ctx context.Context, req CheckRequest) (*Stream, error)
	// Health performs the liveness check.
	Health(ctx context.Context) (*HealthResponse, error)
	// Trending lists trending claims for a category ("all" for every one).
	Trending(ctx context.Context, category string) (*TrendingResponse, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default service base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the http.Client used for request/response calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithStreamClient overrides the http.Client used for the event stream. It
// should have no overall timeout, since streams stay open for the whole
// verification.
func WithStreamClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.stream = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
}

// NewClient creates a verification service client.
func NewClient(opts ...Option) Client {
	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout:   90 * time.Second,
			Transport: transport,
		},
		stream: &http.Client{Transport: transport},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Check(ctx context.Context, req CheckRequest) (*CheckData, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "checkapi: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/check", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "checkapi: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out CheckResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, eris.New("checkapi: response has no data")
	}
	return out.Data, nil
}

func (c *httpClient) Health(ctx context.Context) (*HealthResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/check", nil)
	if err != nil {
		return nil, eris.Wrap(err, "checkapi: create health request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "checkapi: send health request")
	}
	defer resp.Body.Close() //nolint:errcheck

	// The unhealthy body (503) is still a well-formed health response.
	var out HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrapf(err, "checkapi: decode health response (status %d)", resp.StatusCode)
	}
	return &out, nil
}

func (c *httpClient) Trending(ctx context.Context, category string) (*TrendingResponse, error) {
	if category == "" {
		category = "all"
	}
	u := c.baseURL + "/api/trending?" + url.Values{"category": {category}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "checkapi: create trending request")
	}

	var out TrendingResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Stream(ctx context.Context, req CheckRequest) (*Stream, error) {
	q := url.Values{}
	q.Set("claim", req.Claim)
	q.Set("language", req.Language)
	if req.SkipCache {
		q.Set("skip_cache", "true")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/check/stream?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "checkapi: create stream request")
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "checkapi: open stream")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close() //nolint:errcheck
		return nil, readAPIError(resp)
	}

	return NewStream(resp.Body), nil
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "checkapi: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "checkapi: unmarshal response")
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(body) > 0 {
		if jsonErr := json.Unmarshal(body, &apiErr.Body); jsonErr != nil {
			apiErr.Body.Error = string(bytes.TrimSpace(body))
		}
	}
	return apiErr
}
