package main

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/notifyhub/indexnotify/internal/api"
	"github.com/notifyhub/indexnotify/internal/api/handler"
	"github.com/notifyhub/indexnotify/internal/config"
	"github.com/notifyhub/indexnotify/internal/worker"
)

// serve runs the HTTP API until ctx is cancelled, then drains in-flight
// requests and the resubmission scheduler.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) int {
	n, reg, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Error("failed to build notifier", zap.Error(err))
		return 1
	}

	// ---- background resubmission ----
	// Context for the scheduler; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	if cfg.SubmitInterval > 0 {
		if err := cfg.RequireIndexNow(); err != nil {
			logger.Error("scheduled resubmission needs IndexNow settings", zap.Error(err))
			return 1
		}
		sched := worker.NewScheduler(cfg.SubmitInterval, func(ctx context.Context) {
			if _, err := n.SubmitAll(ctx, cfg.NotificationRequest(nil), cfg.EndpointList()); err != nil {
				logger.Warn("scheduled submission rejected", zap.Error(err))
			}
		}, logger.Named("scheduler"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Run(workerCtx)
		}()
	}

	// ---- HTTP server ----
	router := api.NewRouter(api.Deps{
		Notifier: n,
		Site: handler.Site{
			Host:        cfg.Host,
			Key:         cfg.Key,
			KeyLocation: cfg.KeyLocation,
			URLs:        cfg.URLs,
			Endpoints:   cfg.Endpoints,
		},
		IndexingConfigured: cfg.RequireIndexing() == nil,
		IndexingBatchLimit: cfg.IndexingBatchLimit(),
		Gatherer:           reg,
		Logger:             logger,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// ---- graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return 1
		}
	}

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the scheduler and wait for an in-flight run.
	cancelWorkers()
	wg.Wait()

	logger.Info("server stopped cleanly")
	return 0
}
