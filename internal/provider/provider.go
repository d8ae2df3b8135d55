package provider

import (
	"context"

	"github.com/notifyhub/indexnotify/internal/domain"
)

// IndexNowPayload is the JSON body posted to every IndexNow endpoint.
type IndexNowPayload struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation,omitempty"`
	URLList     []string `json:"urlList"`
}

// Response is the raw status and body an endpoint answered with.
type Response struct {
	StatusCode int
	Body       string
}

// Submitter delivers one IndexNow payload to one endpoint.
// A non-nil error means the request never got a response (*domain.TransportError);
// any HTTP status, success or not, comes back as a Response.
type Submitter interface {
	Submit(ctx context.Context, ep domain.Endpoint, payload IndexNowPayload) (*Response, error)
}

// Publisher talks to the Indexing API on behalf of an already-resolved
// bearer token. Mocking this interface in tests gives full control over
// remote behaviour without making real HTTP calls.
type Publisher interface {
	Publish(ctx context.Context, token, url string, changeType domain.ChangeType) (*domain.NotificationResult, error)
	Metadata(ctx context.Context, token, url string) (*domain.URLNotificationMetadata, error)
}
