package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/notifyhub/indexnotify/internal/config"
	"github.com/notifyhub/indexnotify/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INDEXNOW_HOST", "example.com")
	t.Setenv("INDEXNOW_KEY", "0123456789abcdef")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(cfg.Endpoints, ",") != strings.Join(domain.DefaultEndpointHosts, ",") {
		t.Fatalf("expected default endpoints, got %v", cfg.Endpoints)
	}
	if cfg.KeyLocation != "https://example.com/0123456789abcdef.txt" {
		t.Fatalf("unexpected default key location %q", cfg.KeyLocation)
	}
	if cfg.RequestDelay != time.Second || cfg.StatusDelay != 500*time.Millisecond {
		t.Fatalf("unexpected pacing defaults %s / %s", cfg.RequestDelay, cfg.StatusDelay)
	}
	if cfg.RetryMax != 0 {
		t.Fatalf("expected retries off by default, got %d", cfg.RetryMax)
	}
	if cfg.SubmitConcurrency != 1 {
		t.Fatalf("expected sequential submission by default, got %d", cfg.SubmitConcurrency)
	}
	if err := cfg.RequireIndexNow(); err != nil {
		t.Fatalf("expected indexnow settings to be complete, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INDEXNOW_ENDPOINTS", "a.org, ,b.org")
	t.Setenv("INDEXNOW_URLS", "https://example.com/,https://example.com/blog/")
	t.Setenv("REQUEST_DELAY", "250ms")
	t.Setenv("SUBMIT_CONCURRENCY", "0")
	t.Setenv("RETRY_MAX", "2")
	t.Setenv("REQUESTS_PER_SECOND", "1.5")
	t.Setenv("SUBMIT_INTERVAL", "1h")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(cfg.Endpoints, ",") != "a.org,b.org" {
		t.Fatalf("unexpected endpoints %v", cfg.Endpoints)
	}
	if len(cfg.URLs) != 2 {
		t.Fatalf("expected 2 urls, got %v", cfg.URLs)
	}
	if cfg.RequestDelay != 250*time.Millisecond {
		t.Fatalf("unexpected delay %s", cfg.RequestDelay)
	}
	if cfg.SubmitConcurrency != 1 {
		t.Fatalf("expected concurrency clamped to 1, got %d", cfg.SubmitConcurrency)
	}
	if cfg.RetryMax != 2 || cfg.RatePerSecond != 1.5 {
		t.Fatalf("unexpected retry/rate %d / %v", cfg.RetryMax, cfg.RatePerSecond)
	}
	if cfg.SubmitInterval != time.Hour {
		t.Fatalf("unexpected submit interval %s", cfg.SubmitInterval)
	}
	eps := cfg.EndpointList()
	if len(eps) != 2 || eps[0].Path != domain.DefaultEndpointPath {
		t.Fatalf("unexpected endpoint list %+v", eps)
	}
}

func TestLoad_TargetsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	data := `host: example.com
key_location: https://example.com/indexnow-key.txt
urls:
  - https://example.com/
  - https://example.com/about/
endpoints:
  - www.bing.com
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TARGETS_FILE", path)
	t.Setenv("INDEXNOW_KEY", "0123456789abcdef")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "example.com" || cfg.KeyLocation != "https://example.com/indexnow-key.txt" {
		t.Fatalf("expected values from file, got %q %q", cfg.Host, cfg.KeyLocation)
	}
	if len(cfg.URLs) != 2 || len(cfg.IndexingURLs) != 2 {
		t.Fatalf("expected file urls for both workflows, got %v / %v", cfg.URLs, cfg.IndexingURLs)
	}
	if strings.Join(cfg.Endpoints, ",") != "www.bing.com" {
		t.Fatalf("unexpected endpoints %v", cfg.Endpoints)
	}

	req := cfg.NotificationRequest(nil)
	if err := req.Validate(); err != nil {
		t.Fatalf("expected a valid request from config, got %v", err)
	}
}

func TestLoadTargets_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	if err := os.WriteFile(path, []byte("hosts: typo.example\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.LoadTargets(path); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestRequireChecks(t *testing.T) {
	cfg := &config.Config{}
	if err := cfg.RequireIndexNow(); err == nil {
		t.Fatal("expected missing host to fail")
	}
	if err := cfg.RequireIndexing(); err == nil {
		t.Fatal("expected missing credentials to fail")
	}
	cfg.AccessToken = "tok"
	if err := cfg.RequireIndexing(); err != nil {
		t.Fatalf("expected token to satisfy indexing, got %v", err)
	}
}

func TestIndexingBatchLimit(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want int
	}{
		{"explicit limit wins", config.Config{IndexingMaxBatch: 7, WriteTimeout: time.Minute, RequestDelay: time.Second}, 7},
		{"derived from delay", config.Config{WriteTimeout: time.Minute, RequestDelay: time.Second}, 31},
		{"derived from rate", config.Config{WriteTimeout: time.Minute, RequestDelay: time.Second, RatePerSecond: 2}, 61},
		{"delay longer than budget", config.Config{WriteTimeout: 10 * time.Second, RequestDelay: time.Minute}, 1},
		{"no pacing", config.Config{WriteTimeout: time.Minute}, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.IndexingBatchLimit(); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
