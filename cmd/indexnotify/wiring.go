package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/notifyhub/indexnotify/internal/auth"
	"github.com/notifyhub/indexnotify/internal/config"
	"github.com/notifyhub/indexnotify/internal/metrics"
	"github.com/notifyhub/indexnotify/internal/provider"
	"github.com/notifyhub/indexnotify/internal/ratelimiter"
	"github.com/notifyhub/indexnotify/internal/service"
)

var errUnknownFormat = errors.New("LOG_FORMAT must be json or console")

// newLogger builds the production zap config for json output and the
// development config for console output.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	var zc zap.Config
	switch format {
	case "", "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, errUnknownFormat
	}
	zc.Level = lvl
	return zc.Build()
}

// buildNotifier wires clients, credentials, pacers and metrics into a
// Notifier. The returned registry backs /metrics in serve mode.
func buildNotifier(cfg *config.Config, logger *zap.Logger) (*service.Notifier, *prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	creds, err := auth.FromConfig(cfg.ServiceAccountFile, cfg.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("load credentials: %w", err)
	}

	n := service.NewNotifier(
		provider.NewIndexNowClient(cfg.EndpointScheme, cfg.RequestTimeout),
		provider.NewIndexingClient(cfg.IndexingBaseURL, cfg.RequestTimeout),
		creds,
		logger,
		service.Options{
			Concurrency:   cfg.SubmitConcurrency,
			EndpointPacer: ratelimiter.New(cfg.RatePerSecond, cfg.RequestDelay),
			PublishPacer:  ratelimiter.New(cfg.RatePerSecond, cfg.RequestDelay),
			StatusPacer:   ratelimiter.New(cfg.RatePerSecond, cfg.StatusDelay),
			Retry: service.RetryPolicy{
				MaxRetries: cfg.RetryMax,
				Backoff:    cfg.RetryBackoff,
			},
			Hooks: m.NotifierHooks(),
		},
	)
	return n, reg, nil
}

// newKey returns 32 hex characters, a valid IndexNow key.
func newKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
