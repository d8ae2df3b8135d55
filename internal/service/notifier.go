package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notifyhub/indexnotify/internal/auth"
	"github.com/notifyhub/indexnotify/internal/domain"
	"github.com/notifyhub/indexnotify/internal/metrics"
	"github.com/notifyhub/indexnotify/internal/provider"
	"github.com/notifyhub/indexnotify/internal/ratelimiter"
	"github.com/notifyhub/indexnotify/internal/worker"
)

const (
	opPublish  = "publish"
	opMetadata = "metadata"
)

// Options tunes a Notifier. The zero value submits sequentially, without
// pauses and without retries.
type Options struct {
	// Concurrency > 1 fans endpoints out; outcomes keep endpoint order either way.
	Concurrency int

	// EndpointPacer runs between two IndexNow endpoint attempts and between
	// two URL chunks.
	EndpointPacer ratelimiter.Pacer
	// PublishPacer runs between two Indexing API publish calls.
	PublishPacer ratelimiter.Pacer
	// StatusPacer runs between two Indexing API metadata calls.
	StatusPacer ratelimiter.Pacer

	Retry RetryPolicy
	Hooks metrics.Hooks
}

// Notifier delivers URL change notifications. Per-endpoint and per-URL
// failures are captured in the returned report or results; only pre-flight
// validation errors are returned as errors.
// It holds no state across calls: submitting the same batch twice produces
// two independent reports.
type Notifier struct {
	submitter provider.Submitter
	publisher provider.Publisher
	creds     auth.CredentialProvider
	opts      Options
	logger    *zap.Logger
}

func NewNotifier(
	submitter provider.Submitter,
	publisher provider.Publisher,
	creds auth.CredentialProvider,
	logger *zap.Logger,
	opts Options,
) *Notifier {
	if opts.EndpointPacer == nil {
		opts.EndpointPacer = ratelimiter.None()
	}
	if opts.PublishPacer == nil {
		opts.PublishPacer = ratelimiter.None()
	}
	if opts.StatusPacer == nil {
		opts.StatusPacer = ratelimiter.None()
	}
	h := &opts.Hooks
	if h.OnEndpointResult == nil {
		h.OnEndpointResult = func(string, bool, time.Duration) {}
	}
	if h.OnBatch == nil {
		h.OnBatch = func(int) {}
	}
	if h.OnIndexingCall == nil {
		h.OnIndexingCall = func(string, bool) {}
	}
	return &Notifier{
		submitter: submitter,
		publisher: publisher,
		creds:     creds,
		opts:      opts,
		logger:    logger,
	}
}

// SubmitBatch posts one IndexNow payload to every endpoint.
//
// Validation happens before any network call. After that every endpoint is
// attempted: a failure on one never prevents attempts on the rest, and the
// report holds exactly len(endpoints) outcomes in endpoint order.
func (s *Notifier) SubmitBatch(
	ctx context.Context,
	req domain.NotificationRequest,
	endpoints []domain.Endpoint,
) (*domain.SubmissionReport, error) {
	if err := domain.ValidateEndpoints(endpoints); err != nil {
		return nil, err
	}
	n := req.Normalized()
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return s.submit(ctx, n, endpoints), nil
}

// SubmitAll splits the URL list into IndexNow-sized chunks and submits each
// chunk to every endpoint. All chunks are validated before the first request.
func (s *Notifier) SubmitAll(
	ctx context.Context,
	req domain.NotificationRequest,
	endpoints []domain.Endpoint,
) ([]*domain.SubmissionReport, error) {
	if err := domain.ValidateEndpoints(endpoints); err != nil {
		return nil, err
	}
	n := req.Normalized()
	if len(n.URLs) == 0 {
		return nil, n.Validate()
	}

	chunks := n.Chunks(domain.MaxURLsPerRequest)
	for _, c := range chunks {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	reports := make([]*domain.SubmissionReport, len(chunks))
	for i, c := range chunks {
		if i > 0 {
			_ = s.opts.EndpointPacer.Wait(ctx)
		}
		reports[i] = s.submit(ctx, c, endpoints)
	}
	return reports, nil
}

func (s *Notifier) submit(
	ctx context.Context,
	req domain.NotificationRequest,
	endpoints []domain.Endpoint,
) *domain.SubmissionReport {
	payload := provider.IndexNowPayload{
		Host:        req.AuthorityHost,
		Key:         req.SharedKey,
		KeyLocation: req.KeyLocationURL,
		URLList:     req.URLs,
	}

	report := &domain.SubmissionReport{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]domain.SubmissionOutcome, len(endpoints)),
	}
	log := s.logger.With(
		zap.String("report_id", report.ID),
		zap.String("host", req.AuthorityHost),
	)
	log.Info("indexnow submission starting",
		zap.Int("urls", len(req.URLs)),
		zap.Int("endpoints", len(endpoints)),
		zap.String("key_prefix", keyPrefix(req.SharedKey)),
	)

	pool := worker.NewPool(s.opts.Concurrency, s.opts.EndpointPacer, log)
	pool.Run(ctx, len(endpoints), func(ctx context.Context, i int) {
		report.Outcomes[i] = s.attemptEndpoint(ctx, endpoints[i], payload, log)
	})

	report.FinishedAt = time.Now().UTC()
	s.opts.Hooks.OnBatch(len(req.URLs))
	log.Info("indexnow submission finished",
		zap.Int("succeeded", report.SuccessCount()),
		zap.Int("failed", report.FailureCount()),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report
}

// attemptEndpoint builds the single outcome for one endpoint. 200 and 202
// are success; any other status or a transport error is a failure.
func (s *Notifier) attemptEndpoint(
	ctx context.Context,
	ep domain.Endpoint,
	payload provider.IndexNowPayload,
	logger *zap.Logger,
) domain.SubmissionOutcome {
	log := logger.With(zap.String("endpoint", ep.Identifier))
	start := time.Now()

	var (
		resp *provider.Response
		err  error
	)
	attempts := s.opts.Retry.do(ctx, func() bool {
		resp, err = s.submitter.Submit(ctx, ep, payload)
		if err != nil {
			log.Warn("endpoint unreachable", zap.Error(err))
			return retryableErr(err)
		}
		if domain.IsSuccessStatus(resp.StatusCode) {
			return false
		}
		return retryableStatus(resp.StatusCode)
	})
	elapsed := time.Since(start)

	out := domain.SubmissionOutcome{Endpoint: ep, Attempts: attempts, Latency: elapsed}
	switch {
	case err != nil:
		msg := err.Error()
		out.ErrorMessage = &msg
	default:
		code := resp.StatusCode
		out.StatusCode = &code
		if resp.Body != "" {
			body := resp.Body
			out.ResponseBody = &body
		}
		out.Succeeded = domain.IsSuccessStatus(code)
		if !out.Succeeded {
			msg := (&domain.RemoteRejectionError{StatusCode: code, Body: resp.Body}).Error()
			out.ErrorMessage = &msg
			log.Warn("endpoint rejected submission",
				zap.Int("status", code),
				zap.String("body", resp.Body),
				zap.Int("attempts", attempts),
			)
		} else {
			log.Info("endpoint accepted submission",
				zap.Int("status", code),
				zap.Duration("latency", elapsed),
			)
		}
	}

	s.opts.Hooks.OnEndpointResult(ep.Identifier, out.Succeeded, elapsed)
	return out
}

// SubmitSingleURLUpdate authenticates and performs one Indexing API publish
// exchange for one URL.
//
// Errors: *domain.ValidationError for a bad URL or type,
// *domain.AuthenticationError when the credential cannot be resolved or the
// identity is refused, *domain.RemoteRejectionError for any other non-2xx,
// *domain.TransportError when no response arrived.
func (s *Notifier) SubmitSingleURLUpdate(
	ctx context.Context,
	rawURL string,
	changeType domain.ChangeType,
) (*domain.NotificationResult, error) {
	if err := domain.ValidateNotificationURL(rawURL); err != nil {
		return nil, err
	}
	if !changeType.IsValid() {
		return nil, &domain.ValidationError{Field: "type", Err: domain.ErrInvalidChangeType}
	}

	log := s.logger.With(zap.String("url", rawURL), zap.String("type", string(changeType)))

	token, err := s.resolveToken(ctx)
	if err != nil {
		log.Error("could not resolve indexing credential", zap.Error(err))
		s.opts.Hooks.OnIndexingCall(opPublish, false)
		return nil, err
	}

	var res *domain.NotificationResult
	attempts := s.opts.Retry.do(ctx, func() bool {
		res, err = s.publisher.Publish(ctx, token, rawURL, changeType)
		return err != nil && retryableErr(err)
	})
	s.opts.Hooks.OnIndexingCall(opPublish, err == nil)
	if err != nil {
		log.Warn("url notification failed", zap.Error(err), zap.Int("attempts", attempts))
		return nil, err
	}

	log.Info("url notification published")
	return res, nil
}

// SubmitURLUpdates publishes each URL in order, pausing between URLs.
// Every URL gets a result; one URL's failure, including an authentication
// failure, never stops the iteration.
func (s *Notifier) SubmitURLUpdates(
	ctx context.Context,
	urls []string,
	changeType domain.ChangeType,
) ([]domain.URLUpdateResult, error) {
	urls = domain.DedupeURLs(urls)
	if len(urls) == 0 {
		return nil, &domain.ValidationError{Field: "urls", Err: domain.ErrEmptyURLList}
	}
	if !changeType.IsValid() {
		return nil, &domain.ValidationError{Field: "type", Err: domain.ErrInvalidChangeType}
	}

	results := make([]domain.URLUpdateResult, len(urls))
	pool := worker.NewPool(1, s.opts.PublishPacer, s.logger)
	pool.Run(ctx, len(urls), func(ctx context.Context, i int) {
		results[i].URL = urls[i]
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			return
		}
		results[i].Result, results[i].Err = s.SubmitSingleURLUpdate(ctx, urls[i], changeType)
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info("url notification run finished",
		zap.Int("urls", len(urls)),
		zap.Int("failed", failed),
	)
	return results, nil
}

// GetURLStatus returns what the Indexing API knows about one URL.
func (s *Notifier) GetURLStatus(ctx context.Context, rawURL string) (*domain.URLNotificationMetadata, error) {
	if err := domain.ValidateNotificationURL(rawURL); err != nil {
		return nil, err
	}
	token, err := s.resolveToken(ctx)
	if err != nil {
		s.opts.Hooks.OnIndexingCall(opMetadata, false)
		return nil, err
	}

	var meta *domain.URLNotificationMetadata
	s.opts.Retry.do(ctx, func() bool {
		meta, err = s.publisher.Metadata(ctx, token, rawURL)
		return err != nil && retryableErr(err)
	})
	s.opts.Hooks.OnIndexingCall(opMetadata, err == nil)
	if err != nil {
		s.logger.Warn("url status lookup failed", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}
	return meta, nil
}

// GetURLStatuses looks up each URL in order, pausing between lookups.
func (s *Notifier) GetURLStatuses(ctx context.Context, urls []string) ([]domain.URLStatusResult, error) {
	urls = domain.DedupeURLs(urls)
	if len(urls) == 0 {
		return nil, &domain.ValidationError{Field: "urls", Err: domain.ErrEmptyURLList}
	}

	results := make([]domain.URLStatusResult, len(urls))
	pool := worker.NewPool(1, s.opts.StatusPacer, s.logger)
	pool.Run(ctx, len(urls), func(ctx context.Context, i int) {
		results[i].URL = urls[i]
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			return
		}
		results[i].Metadata, results[i].Err = s.GetURLStatus(ctx, urls[i])
	})
	return results, nil
}

// resolveToken always reports failures as *domain.AuthenticationError so
// callers can tell them apart from remote rejections.
func (s *Notifier) resolveToken(ctx context.Context) (string, error) {
	if s.creds == nil {
		return "", &domain.AuthenticationError{Err: auth.ErrNoCredentials}
	}
	cred, err := s.creds.ResolveCredential(ctx)
	if err != nil {
		var ae *domain.AuthenticationError
		if errors.As(err, &ae) {
			return "", err
		}
		return "", &domain.AuthenticationError{Err: err}
	}
	return cred.AccessToken, nil
}

func keyPrefix(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "…"
}
