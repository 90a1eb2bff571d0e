package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	dombatch "github.com/villabioinfo/BLASTr/internal/domain/batch"
	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/hit"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	"github.com/villabioinfo/BLASTr/internal/logger"
	"github.com/villabioinfo/BLASTr/internal/metrics"
)

// Service dispatches one search per query and merges the rows.
type Service struct {
	gate     Gate
	db       DatabaseChecker
	searcher Searcher
}

// New creates a dispatcher.
func New(gate Gate, db DatabaseChecker, searcher Searcher) *Service {
	return &Service{gate: gate, db: db, searcher: searcher}
}

// Run searches every query against p.Database().
//
// The aligner environment and the database are checked once before any
// search; either failure aborts the batch. With workers <= 1 queries run in
// input order. Otherwise up to workers searches run at once with one thread
// each, and rows arrive in completion order; use SortedByQuery to restore
// input order. A failed query becomes a single failed row. If ctx is done
// the context error is returned and no collection.
func (s *Service) Run(
	ctx context.Context, queries []query.Query, p params.Params, workers int,
) (*dombatch.Collection, error) {
	id := uuid.NewString()
	if len(queries) == 0 {
		return dombatch.NewCollection(id, 0, p.Schema(), nil), nil
	}

	ctx, log := logger.With(ctx, zap.String("batch_id", id))
	start := time.Now()
	v := string(p.Variant())

	if err := s.gate.EnsureTool(ctx, p.Variant().Tool(), p.EnvName(), p.Verbose(), false); err != nil {
		metrics.BatchDuration.WithLabelValues(v, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("ensure %s: %w", p.Variant().Tool(), err)
	}
	if err := s.db.CheckDatabase(p.Database(), p.Variant()); err != nil {
		metrics.BatchDuration.WithLabelValues(v, "error").Observe(time.Since(start).Seconds())
		return nil, err
	}

	workers = min(workers, len(queries))
	log.Info("Batch started",
		zap.Int("queries", len(queries)),
		zap.Int("workers", max(workers, 1)),
		zap.String("variant", v),
		zap.String("database", p.Database()),
	)

	var (
		rows []hit.Hit
		err  error
	)
	if workers <= 1 {
		rows, err = s.runSequential(ctx, queries, p)
	} else {
		rows, err = s.runParallel(ctx, queries, p.WithThreads(1), workers)
	}
	if err != nil {
		metrics.BatchDuration.WithLabelValues(v, "error").Observe(time.Since(start).Seconds())
		log.Warn("Batch aborted", zap.Error(err))
		return nil, err
	}

	c := dombatch.NewCollection(id, len(queries), p.Schema(), rows)
	if missing := c.Missing(); len(missing) > 0 {
		metrics.BatchDuration.WithLabelValues(v, "error").Observe(time.Since(start).Seconds())
		log.Error("Batch lost queries", zap.Ints("query_indices", missing))
		return nil, fmt.Errorf("batch %s: no rows for queries %v", id, missing)
	}
	n := c.Counts()
	metrics.BatchDuration.WithLabelValues(v, "ok").Observe(time.Since(start).Seconds())
	log.Info("Batch completed",
		zap.Int("rows", c.Len()),
		zap.Int("hit", n.Hit),
		zap.Int("no_hit", n.NoHit),
		zap.Int("failed", n.Failed),
		zap.Ints("failed_queries", c.FailedQueries()),
		zap.Duration("duration", time.Since(start)),
	)
	return c, nil
}

func (s *Service) runSequential(ctx context.Context, queries []query.Query, p params.Params) ([]hit.Hit, error) {
	var rows []hit.Hit
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows = append(rows, s.runOne(ctx, q, p)...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) runParallel(
	ctx context.Context, queries []query.Query, p params.Params, workers int,
) ([]hit.Hit, error) {
	pl := acquirePool(ctx, workers, func(ctx context.Context, q query.Query) []hit.Hit {
		return s.runOne(ctx, q, p)
	})
	defer pl.release()

	for _, q := range queries {
		if err := pl.submit(ctx, q); err != nil {
			return nil, err
		}
	}
	pl.release()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pl.merged(), nil
}

// runOne never fails: a search error becomes the query's failed row.
func (s *Service) runOne(ctx context.Context, q query.Query, p params.Params) []hit.Hit {
	rows, err := s.searcher.Run(ctx, q, p)
	if err != nil {
		return []hit.Hit{hit.Failed(q, p.Schema(), err.Error())}
	}
	if len(rows) == 0 {
		return []hit.Hit{hit.NoHit(q, p.Schema())}
	}
	return rows
}
