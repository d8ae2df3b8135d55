package worker

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notifyhub/indexnotify/internal/ratelimiter"
)

// Pool runs a fixed list of indexed jobs: one per endpoint or per URL.
//
// Jobs are started in index order and the pacer is consulted between two
// starts, never before the first. With size <= 1 each job finishes before the
// next one starts. With a larger size up to size jobs run at once.
//
// Jobs never share output: job i writes only to slot i of a caller-owned
// slice, so results keep input order without locking.
type Pool struct {
	size   int
	pacer  ratelimiter.Pacer
	logger *zap.Logger
}

func NewPool(size int, pacer ratelimiter.Pacer, logger *zap.Logger) *Pool {
	if pacer == nil {
		pacer = ratelimiter.None()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{size: size, pacer: pacer, logger: logger}
}

// Run calls fn(ctx, i) for every i in [0, n) and returns once all calls have
// returned. Every index is run even after ctx is cancelled, so callers always
// get a result per slot; jobs are expected to fail fast on a done context.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	if p.size <= 1 {
		for i := 0; i < n; i++ {
			if i > 0 {
				p.pace(ctx)
			}
			fn(ctx, i)
		}
		return
	}

	// A plain Group: one job failing must not cancel the others.
	var g errgroup.Group
	g.SetLimit(p.size)
	for i := 0; i < n; i++ {
		if i > 0 {
			p.pace(ctx)
		}
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pool) pace(ctx context.Context) {
	if err := p.pacer.Wait(ctx); err != nil {
		p.logger.Debug("pacer wait interrupted", zap.Error(err))
	}
}
