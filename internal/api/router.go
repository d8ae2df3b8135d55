package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/notifyhub/indexnotify/internal/api/handler"
	apimw "github.com/notifyhub/indexnotify/internal/api/middleware"
)

// Notifier is everything the HTTP surface calls on the service layer.
// *service.Notifier satisfies it.
type Notifier interface {
	handler.IndexNowSubmitter
	handler.IndexingNotifier
}

// Deps bundles what the router needs from main.
type Deps struct {
	Notifier           Notifier
	Site               handler.Site
	IndexingConfigured bool
	IndexingBatchLimit int
	Gatherer           prometheus.Gatherer
	Logger             *zap.Logger
}

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(4<<20)) // a full 10k URL list fits
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(d.Logger))

	// --- handler instances ---
	inh := handler.NewIndexNowHandler(d.Notifier, d.Site, d.Logger)
	ixh := handler.NewIndexingHandler(d.Notifier, d.IndexingBatchLimit, d.Logger)
	sh := handler.NewStatsHandler(d.Gatherer)
	hh := handler.NewHealthHandler(d.Site.Host != "" && d.Site.Key != "", d.IndexingConfigured)

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/indexnow/submissions", inh.Submit)

		r.Post("/indexing/notifications/batch", ixh.PublishBatch)
		r.Post("/indexing/notifications", ixh.Publish)
		r.Get("/indexing/metadata", ixh.Metadata)

		// JSON counter snapshot
		r.Get("/stats", sh.GetStats)
	})

	return r
}
