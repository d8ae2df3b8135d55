package provider

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

	"github.com/notifyhub/indexnotify/internal/domain"
)

// DefaultIndexingBaseURL is the Google Indexing API host.
const DefaultIndexingBaseURL = "https://indexing.googleapis.com"

type publishRequest struct {
	URL  string            `json:"url"`
	Type domain.ChangeType `json:"type"`
}

// IndexingClient calls the v3 urlNotifications resource.
// The base URL is injected from config so tests can point to a local mock.
type IndexingClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewIndexingClient(baseURL string, timeout time.Duration) *IndexingClient {
	if baseURL == "" {
		baseURL = DefaultIndexingBaseURL
	}
	return &IndexingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Publish sends urlNotifications:publish for one URL.
func (c *IndexingClient) Publish(ctx context.Context, token, rawURL string, changeType domain.ChangeType) (*domain.NotificationResult, error) {
	body, err := json.Marshal(publishRequest{URL: rawURL, Type: changeType})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var result domain.NotificationResult
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v3/urlNotifications:publish", token, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Metadata fetches urlNotifications/metadata for one URL.
func (c *IndexingClient) Metadata(ctx context.Context, token, rawURL string) (*domain.URLNotificationMetadata, error) {
	endpoint := c.baseURL + "/v3/urlNotifications/metadata?url=" + url.QueryEscape(rawURL)

	var meta domain.URLNotificationMetadata
	if err := c.do(ctx, http.MethodGet, endpoint, token, nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// do performs one request/response exchange and classifies the outcome:
// transport failures, 401/403, and any other non-2xx each map to their own
// error type.
func (c *IndexingClient) do(ctx context.Context, method, endpoint, token string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Target: req.URL.Host, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &domain.TransportError{Target: req.URL.Host, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.AuthenticationError{StatusCode: resp.StatusCode, Body: string(data)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &domain.RemoteRejectionError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// compile-time check that IndexingClient implements Publisher
var _ Publisher = (*IndexingClient)(nil)
