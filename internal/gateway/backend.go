package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/capcheck/pkg/checkapi"
)

// UpstreamError is a non-2xx response from the verification backend.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gateway: backend returned %d: %s", e.StatusCode, e.Body)
}

// backend talks to the raw verification backend.
type backend struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
}

func (b *backend) check(ctx context.Context, req checkapi.CheckRequest) (*checkapi.RawResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "gateway: marshal request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/check", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "gateway: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "gateway: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readUpstreamError(resp)
	}

	var out checkapi.RawResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "gateway: unmarshal response")
	}
	return &out, nil
}

// health returns the backend's own health document.
func (b *backend) health(ctx context.Context) (map[string]any, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/health", nil)
	if err != nil {
		return nil, eris.Wrap(err, "gateway: create health request")
	}
	resp, err := b.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "gateway: send health request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readUpstreamError(resp)
	}

	out := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "gateway: unmarshal health")
	}
	return out, nil
}

// openStream opens the backend event stream. The caller closes the body.
func (b *backend) openStream(ctx context.Context, claim, language string, skipCache bool) (*http.Response, error) {
	q := url.Values{}
	q.Set("claim", claim)
	q.Set("language", language)
	if skipCache {
		q.Set("skip_cache", "true")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/check/stream?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "gateway: create stream request")
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := b.stream.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "gateway: open stream")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close() //nolint:errcheck
		return nil, readUpstreamError(resp)
	}
	return resp, nil
}

func readUpstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
