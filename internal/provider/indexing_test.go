package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/notifyhub/indexnotify/internal/domain"
	"github.com/notifyhub/indexnotify/internal/provider"
)

func TestIndexingClient_Publish(t *testing.T) {
	var (
		gotAuth string
		gotReq  map[string]string
		gotPath string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"urlNotificationMetadata":{"url":"https://example.com/","latestUpdate":{"url":"https://example.com/","type":"URL_UPDATED","notifyTime":"2026-10-17T08:00:00.123Z"}}}`))
	}))
	defer srv.Close()

	c := provider.NewIndexingClient(srv.URL, 5*time.Second)
	res, err := c.Publish(context.Background(), "tok", "https://example.com/", domain.ChangeUpdated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if gotPath != "/v3/urlNotifications:publish" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotReq["url"] != "https://example.com/" || gotReq["type"] != "URL_UPDATED" {
		t.Fatalf("unexpected body %v", gotReq)
	}
	if res.Metadata.LatestUpdate == nil || res.Metadata.LatestUpdate.NotifyTime == nil {
		t.Fatalf("expected decoded latestUpdate, got %+v", res.Metadata)
	}
}

func TestIndexingClient_Metadata_EscapesURL(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		_, _ = w.Write([]byte(`{"url":"https://example.com/a?b=c"}`))
	}))
	defer srv.Close()

	c := provider.NewIndexingClient(srv.URL+"/", 5*time.Second)
	meta, err := c.Metadata(context.Background(), "tok", "https://example.com/a?b=c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotURL != "https://example.com/a?b=c" || meta.URL != gotURL {
		t.Fatalf("expected round-tripped url, got %q / %q", gotURL, meta.URL)
	}
}

func TestIndexingClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"401 is authentication", http.StatusUnauthorized, func(t *testing.T, err error) {
			var ae *domain.AuthenticationError
			if !errors.As(err, &ae) || ae.StatusCode != 401 {
				t.Fatalf("expected *AuthenticationError 401, got %v", err)
			}
		}},
		{"403 is authentication", http.StatusForbidden, func(t *testing.T, err error) {
			var ae *domain.AuthenticationError
			if !errors.As(err, &ae) || ae.Body != `{"error":"denied"}` {
				t.Fatalf("expected *AuthenticationError with body, got %v", err)
			}
		}},
		{"429 is rejection", http.StatusTooManyRequests, func(t *testing.T, err error) {
			var re *domain.RemoteRejectionError
			if !errors.As(err, &re) || re.StatusCode != 429 {
				t.Fatalf("expected *RemoteRejectionError 429, got %v", err)
			}
		}},
		{"500 is rejection", http.StatusInternalServerError, func(t *testing.T, err error) {
			var re *domain.RemoteRejectionError
			if !errors.As(err, &re) || re.Body != `{"error":"denied"}` {
				t.Fatalf("expected *RemoteRejectionError with body, got %v", err)
			}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"denied"}`))
			}))
			defer srv.Close()

			c := provider.NewIndexingClient(srv.URL, 5*time.Second)
			_, err := c.Publish(context.Background(), "tok", "https://example.com/", domain.ChangeDeleted)
			tc.check(t, err)
		})
	}
}

func TestIndexingClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := provider.NewIndexingClient(base, time.Second)
	_, err := c.Metadata(context.Background(), "tok", "https://example.com/")

	var terr *domain.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %T (%v)", err, err)
	}
}
