package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/notifyhub/indexnotify/internal/domain"
	"github.com/notifyhub/indexnotify/internal/provider"
)

// Config holds all runtime configuration, loaded from the environment.
// An optional .env file and an optional YAML targets file fill in values
// the environment does not set. Every field has a default; what is required
// depends on the command being run, so checks live in the Require* methods.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// IndexNow
	Host              string
	Key               string
	KeyLocation       string
	URLs              []string
	Endpoints         []string
	EndpointScheme    string
	SubmitConcurrency int
	SubmitInterval    time.Duration // serve only; 0 disables resubmission

	// Indexing API
	IndexingBaseURL    string
	ServiceAccountFile string
	AccessToken        string
	IndexingURLs       []string
	IndexingMaxBatch   int // 0 derives the limit from WriteTimeout and pacing

	// Transport and pacing
	RequestTimeout time.Duration
	RequestDelay   time.Duration
	StatusDelay    time.Duration
	RatePerSecond  float64

	// Retry: 0 keeps one attempt per endpoint/URL.
	RetryMax     int
	RetryBackoff []time.Duration

	TargetsFile string
}

// Load reads .env (if present), then the targets file (if configured), then
// the environment. Environment values win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var targets Targets
	if path := os.Getenv("TARGETS_FILE"); path != "" {
		t, err := LoadTargets(path)
		if err != nil {
			return nil, fmt.Errorf("load targets file: %w", err)
		}
		targets = *t
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Host:              getEnv("INDEXNOW_HOST", targets.Host),
		Key:               getEnv("INDEXNOW_KEY", ""),
		KeyLocation:       getEnv("INDEXNOW_KEY_LOCATION", targets.KeyLocation),
		URLs:              getList("INDEXNOW_URLS", targets.URLs),
		Endpoints:         getList("INDEXNOW_ENDPOINTS", orDefault(targets.Endpoints, domain.DefaultEndpointHosts)),
		EndpointScheme:    getEnv("INDEXNOW_ENDPOINT_SCHEME", "https"),
		SubmitConcurrency: getInt("SUBMIT_CONCURRENCY", 1),
		SubmitInterval:    getDuration("SUBMIT_INTERVAL", 0),

		IndexingBaseURL:    getEnv("INDEXING_API_BASE_URL", provider.DefaultIndexingBaseURL),
		ServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		AccessToken:        getEnv("INDEXING_ACCESS_TOKEN", ""),
		IndexingURLs:       getList("INDEXING_URLS", orDefault(targets.IndexingURLs, targets.URLs)),
		IndexingMaxBatch:   getInt("INDEXING_MAX_BATCH", 0),

		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),
		RequestDelay:   getDuration("REQUEST_DELAY", time.Second),
		StatusDelay:    getDuration("STATUS_DELAY", 500*time.Millisecond),
		RatePerSecond:  getFloat("REQUESTS_PER_SECOND", 0),

		RetryMax: getInt("RETRY_MAX", 0),
		RetryBackoff: []time.Duration{
			getDuration("RETRY_BACKOFF_1", 2*time.Second),
			getDuration("RETRY_BACKOFF_2", 10*time.Second),
			getDuration("RETRY_BACKOFF_3", 30*time.Second),
		},

		TargetsFile: os.Getenv("TARGETS_FILE"),
	}

	if cfg.KeyLocation == "" {
		cfg.KeyLocation = domain.DefaultKeyLocation(cfg.Host, cfg.Key)
	}
	if cfg.SubmitConcurrency < 1 {
		cfg.SubmitConcurrency = 1
	}
	return cfg, nil
}

// NotificationRequest builds the IndexNow request from the configured site.
func (c *Config) NotificationRequest(urls []string) domain.NotificationRequest {
	if len(urls) == 0 {
		urls = c.URLs
	}
	return domain.NotificationRequest{
		URLs:           urls,
		AuthorityHost:  c.Host,
		SharedKey:      c.Key,
		KeyLocationURL: c.KeyLocation,
	}
}

// EndpointList returns the configured IndexNow endpoints in order.
func (c *Config) EndpointList() []domain.Endpoint {
	return domain.EndpointsFromHosts(c.Endpoints)
}

// maxUnpacedBatch bounds an HTTP publish batch when no pause is configured.
const maxUnpacedBatch = 100

// IndexingBatchLimit is the largest URL list one HTTP publish batch may carry.
// Without an explicit INDEXING_MAX_BATCH it is sized so the pauses alone use
// at most half of WriteTimeout, leaving the rest for the calls themselves.
func (c *Config) IndexingBatchLimit() int {
	if c.IndexingMaxBatch > 0 {
		return c.IndexingMaxBatch
	}
	gap := c.RequestDelay
	if c.RatePerSecond > 0 {
		gap = time.Duration(float64(time.Second) / c.RatePerSecond)
	}
	if gap <= 0 {
		return maxUnpacedBatch
	}
	return max(int((c.WriteTimeout/2)/gap)+1, 1)
}

// RequireIndexNow fails fast when the IndexNow site settings are missing.
func (c *Config) RequireIndexNow() error {
	if c.Host == "" {
		return fmt.Errorf("INDEXNOW_HOST is required")
	}
	if c.Key == "" {
		return fmt.Errorf("INDEXNOW_KEY is required")
	}
	return nil
}

// RequireIndexing fails fast when no Indexing API credential is configured.
func (c *Config) RequireIndexing() error {
	if c.ServiceAccountFile == "" && c.AccessToken == "" {
		return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_FILE or INDEXING_ACCESS_TOKEN is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// getList splits a comma-separated variable, dropping blanks.
func getList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(v, def []string) []string {
	if len(v) > 0 {
		return v
	}
	return def
}
