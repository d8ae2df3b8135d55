package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/indexnotify/internal/api/middleware"
	"github.com/notifyhub/indexnotify/internal/domain"
)

// IndexNowSubmitter is the slice of the notifier the IndexNow routes need.
type IndexNowSubmitter interface {
	SubmitAll(ctx context.Context, req domain.NotificationRequest, endpoints []domain.Endpoint) ([]*domain.SubmissionReport, error)
}

// Site carries the configured IndexNow identity. Callers may override the
// URL list per request and narrow the endpoints to a subset of the configured
// ones, never the host or key.
type Site struct {
	Host        string
	Key         string
	KeyLocation string
	URLs        []string
	Endpoints   []string
}

// SubmissionRequest is the body of POST /api/v1/indexnow/submissions.
type SubmissionRequest struct {
	URLs      []string `json:"urls,omitempty"`
	Endpoints []string `json:"endpoints,omitempty"`
}

// SubmissionResponse aggregates the per-chunk reports.
type SubmissionResponse struct {
	Reports      []*domain.SubmissionReport `json:"reports"`
	SuccessCount int                        `json:"success_count"`
	FailureCount int                        `json:"failure_count"`
}

// IndexNowHandler handles IndexNow submissions.
type IndexNowHandler struct {
	svc    IndexNowSubmitter
	site   Site
	logger *zap.Logger
}

func NewIndexNowHandler(svc IndexNowSubmitter, site Site, logger *zap.Logger) *IndexNowHandler {
	return &IndexNowHandler{svc: svc, site: site, logger: logger}
}

// Submit handles POST /api/v1/indexnow/submissions
//
// An empty body submits the configured URL list to the configured endpoints.
// An endpoint override naming a host outside the configured list is rejected
// with 422 before anything is sent.
// Per-endpoint failures are reported in the body with status 200; only
// validation problems fail the request.
//
// @Summary     Submit URLs to IndexNow endpoints
// @Tags        indexnow
// @Accept      json
// @Produce     json
// @Param       body  body      SubmissionRequest  false  "URL and endpoint overrides"
// @Success     200   {object}  SubmissionResponse
// @Failure     422   {object}  map[string]string
// @Router      /api/v1/indexnow/submissions [post]
func (h *IndexNowHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	urls := body.URLs
	if len(urls) == 0 {
		urls = h.site.URLs
	}
	hosts := h.site.Endpoints
	if len(body.Endpoints) > 0 {
		if err := h.checkEndpoints(body.Endpoints); err != nil {
			mapError(w, err)
			return
		}
		hosts = body.Endpoints
	}

	req := domain.NotificationRequest{
		URLs:           urls,
		AuthorityHost:  h.site.Host,
		SharedKey:      h.site.Key,
		KeyLocationURL: h.site.KeyLocation,
	}
	reports, err := h.svc.SubmitAll(r.Context(), req, domain.EndpointsFromHosts(hosts))
	if err != nil {
		apimw.Logger(r.Context(), h.logger).Warn("indexnow submission rejected", zap.Error(err))
		mapError(w, err)
		return
	}

	resp := SubmissionResponse{Reports: reports}
	for _, rep := range reports {
		resp.SuccessCount += rep.SuccessCount()
		resp.FailureCount += rep.FailureCount()
	}
	respondJSON(w, http.StatusOK, resp)
}

// checkEndpoints rejects any requested host that is not configured.
func (h *IndexNowHandler) checkEndpoints(requested []string) error {
	allowed := make(map[string]struct{}, len(h.site.Endpoints))
	for _, e := range h.site.Endpoints {
		allowed[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	for _, e := range requested {
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(e))]; !ok {
			return &domain.ValidationError{Field: "endpoints", Err: fmt.Errorf("%w: %q", domain.ErrEndpointNotAllowed, e)}
		}
	}
	return nil
}
