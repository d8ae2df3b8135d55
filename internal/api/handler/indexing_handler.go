package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/indexnotify/internal/api/middleware"
	"github.com/notifyhub/indexnotify/internal/domain"
)

// IndexingNotifier is the slice of the notifier the Indexing API routes need.
type IndexingNotifier interface {
	SubmitSingleURLUpdate(ctx context.Context, rawURL string, changeType domain.ChangeType) (*domain.NotificationResult, error)
	SubmitURLUpdates(ctx context.Context, urls []string, changeType domain.ChangeType) ([]domain.URLUpdateResult, error)
	GetURLStatus(ctx context.Context, rawURL string) (*domain.URLNotificationMetadata, error)
}

// PublishRequest is the body of POST /api/v1/indexing/notifications.
type PublishRequest struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// PublishBatchRequest is the body of POST /api/v1/indexing/notifications/batch.
type PublishBatchRequest struct {
	URLs []string `json:"urls"`
	Type string   `json:"type,omitempty"`
}

// PublishItem is one entry of a batch response. Exactly one of Result and
// Error is set.
type PublishItem struct {
	URL    string                     `json:"url"`
	Result *domain.NotificationResult `json:"result,omitempty"`
	Error  string                     `json:"error,omitempty"`
}

// IndexingHandler handles Indexing API notifications and metadata lookups.
// maxBatch bounds PublishBatch so a paced run can answer before the server's
// write deadline; zero means no bound.
type IndexingHandler struct {
	svc      IndexingNotifier
	maxBatch int
	logger   *zap.Logger
}

func NewIndexingHandler(svc IndexingNotifier, maxBatch int, logger *zap.Logger) *IndexingHandler {
	return &IndexingHandler{svc: svc, maxBatch: maxBatch, logger: logger}
}

// Publish handles POST /api/v1/indexing/notifications
//
// @Summary     Notify the Indexing API of one URL change
// @Tags        indexing
// @Accept      json
// @Produce     json
// @Param       body  body      PublishRequest  true  "URL and change type"
// @Success     200   {object}  domain.NotificationResult
// @Failure     422   {object}  map[string]string
// @Failure     502   {object}  map[string]any
// @Failure     504   {object}  map[string]string
// @Router      /api/v1/indexing/notifications [post]
func (h *IndexingHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	changeType, err := domain.ParseChangeType(req.Type)
	if err != nil {
		mapError(w, err)
		return
	}

	res, err := h.svc.SubmitSingleURLUpdate(r.Context(), req.URL, changeType)
	if err != nil {
		apimw.Logger(r.Context(), h.logger).Warn("indexing publish failed",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// PublishBatch handles POST /api/v1/indexing/notifications/batch
//
// URLs are published one after another with the configured pause. Per-URL
// failures are reported in the body with status 200. Lists longer than the
// batch limit are rejected with 422 before any publish.
//
// @Summary     Notify the Indexing API of several URL changes
// @Tags        indexing
// @Accept      json
// @Produce     json
// @Param       body  body      PublishBatchRequest  true  "URLs and change type"
// @Success     200   {array}   PublishItem
// @Failure     422   {object}  map[string]string
// @Router      /api/v1/indexing/notifications/batch [post]
func (h *IndexingHandler) PublishBatch(w http.ResponseWriter, r *http.Request) {
	var req PublishBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	changeType, err := domain.ParseChangeType(req.Type)
	if err != nil {
		mapError(w, err)
		return
	}

	if n := len(domain.DedupeURLs(req.URLs)); h.maxBatch > 0 && n > h.maxBatch {
		mapError(w, &domain.ValidationError{
			Field: "urls",
			Err:   fmt.Errorf("%w: %d urls, at most %d per request", domain.ErrBatchTooLarge, n, h.maxBatch),
		})
		return
	}

	results, err := h.svc.SubmitURLUpdates(r.Context(), req.URLs, changeType)
	if err != nil {
		mapError(w, err)
		return
	}

	items := make([]PublishItem, len(results))
	for i, res := range results {
		items[i] = PublishItem{URL: res.URL, Result: res.Result}
		if res.Err != nil {
			items[i].Error = res.Err.Error()
		}
	}
	respondJSON(w, http.StatusOK, items)
}

// Metadata handles GET /api/v1/indexing/metadata?url=
//
// @Summary  Latest Indexing API notifications for a URL
// @Tags     indexing
// @Produce  json
// @Param    url  query     string  true  "Absolute URL"
// @Success  200  {object}  domain.URLNotificationMetadata
// @Failure  422  {object}  map[string]string
// @Failure  502  {object}  map[string]any
// @Router   /api/v1/indexing/metadata [get]
func (h *IndexingHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	md, err := h.svc.GetURLStatus(r.Context(), rawURL)
	if err != nil {
		apimw.Logger(r.Context(), h.logger).Warn("indexing metadata lookup failed",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, md)
}
