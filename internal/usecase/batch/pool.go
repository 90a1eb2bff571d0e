package batch

import (
	"context"
	"sync"

	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/hit"
	"github.com/villabioinfo/BLASTr/internal/metrics"
)

type runFunc func(ctx context.Context, q query.Query) []hit.Hit

// pool is a fixed set of workers owned by one Run call. Each worker appends
// to its own part, so no lock is held around results.
type pool struct {
	jobs  chan query.Query
	parts [][]hit.Hit
	wg    sync.WaitGroup
	once  sync.Once
}

func acquirePool(ctx context.Context, size int, run runFunc) *pool {
	p := &pool{
		jobs:  make(chan query.Query, size),
		parts: make([][]hit.Hit, size),
	}
	p.wg.Add(size)
	for w := 0; w < size; w++ {
		w := w
		go func() {
			defer p.wg.Done()
			for q := range p.jobs {
				if ctx.Err() != nil {
					continue
				}
				metrics.PoolInFlight.Inc()
				rows := run(ctx, q)
				metrics.PoolInFlight.Dec()
				p.parts[w] = append(p.parts[w], rows...)
			}
		}()
	}
	return p
}

// submit queues q, or returns the context error if ctx is done first.
func (p *pool) submit(ctx context.Context, q query.Query) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- q:
		return nil
	}
}

// release stops accepting work and waits for every worker to exit.
func (p *pool) release() {
	p.once.Do(func() {
		close(p.jobs)
		p.wg.Wait()
	})
}

// merged concatenates the worker parts. Call after release.
func (p *pool) merged() []hit.Hit {
	n := 0
	for _, part := range p.parts {
		n += len(part)
	}
	out := make([]hit.Hit, 0, n)
	for _, part := range p.parts {
		out = append(out, part...)
	}
	return out
}
