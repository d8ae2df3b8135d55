package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/notifyhub/indexnotify/internal/domain"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	userAgent       = "indexnotify/1.0"

	// maxResponseBody caps how much of an error body is kept for diagnostics.
	maxResponseBody = 64 << 10
)

// IndexNowClient POSTs payloads to <scheme>://<endpoint><path>.
// The scheme is injected so tests can point at a plain-HTTP local server.
type IndexNowClient struct {
	scheme     string
	httpClient *http.Client
}

func NewIndexNowClient(scheme string, timeout time.Duration) *IndexNowClient {
	if scheme == "" {
		scheme = "https"
	}
	return &IndexNowClient{
		scheme: scheme,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Submit sends the payload once. The per-request timeout of the HTTP client
// surfaces as a *domain.TransportError like any other transport failure.
func (c *IndexNowClient) Submit(ctx context.Context, ep domain.Endpoint, payload IndexNowPayload) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	path := ep.Path
	if path == "" {
		path = domain.DefaultEndpointPath
	}
	method := ep.Method
	if method == "" {
		method = http.MethodPost
	}
	target := c.scheme + "://" + ep.Identifier + path

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{Target: ep.Identifier, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Target: ep.Identifier, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &domain.TransportError{Target: ep.Identifier, Err: fmt.Errorf("read response: %w", err)}
	}

	return &Response{StatusCode: resp.StatusCode, Body: string(data)}, nil
}

// compile-time check that IndexNowClient implements Submitter
var _ Submitter = (*IndexNowClient)(nil)
