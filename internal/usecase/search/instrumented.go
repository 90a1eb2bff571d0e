package search

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/hit"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	"github.com/villabioinfo/BLASTr/internal/logger"
	"github.com/villabioinfo/BLASTr/internal/metrics"
	"github.com/villabioinfo/BLASTr/internal/process"
)

// InstrumentedSearcher wraps a Searcher with metrics and logging.
type InstrumentedSearcher struct {
	inner Searcher
}

// NewInstrumentedSearcher wraps inner.
func NewInstrumentedSearcher(inner Searcher) *InstrumentedSearcher {
	return &InstrumentedSearcher{inner: inner}
}

// Run delegates to the inner searcher and records the outcome.
func (s *InstrumentedSearcher) Run(ctx context.Context, q query.Query, p params.Params) ([]hit.Hit, error) {
	v := string(p.Variant())
	start := time.Now()

	hits, err := s.inner.Run(ctx, q, p)

	duration := time.Since(start)
	metrics.SearchDuration.WithLabelValues(v).Observe(duration.Seconds())
	log := logger.FromContext(ctx)

	if err != nil {
		metrics.SearchesTotal.WithLabelValues(v, string(hit.StatusFailed)).Inc()
		fields := []zap.Field{
			zap.String("query_id", q.ID()),
			zap.Int("query_index", q.Index()),
			zap.Duration("duration", duration),
			zap.Error(err),
		}
		var ee *process.ExitError
		if errors.As(err, &ee) {
			fields = append(fields, zap.Int("exit_code", ee.ExitCode()))
		}
		log.Warn("Search failed", fields...)
		return nil, err
	}

	status := hit.StatusHit
	if len(hits) == 1 && hits[0].Status() == hit.StatusNoHit {
		status = hit.StatusNoHit
	} else {
		metrics.SearchRowsTotal.WithLabelValues(v).Add(float64(len(hits)))
	}
	metrics.SearchesTotal.WithLabelValues(v, string(status)).Inc()

	log.Debug("Search completed",
		zap.String("query_id", q.ID()),
		zap.Int("query_index", q.Index()),
		zap.String("status", string(status)),
		zap.Int("rows", len(hits)),
		zap.Duration("duration", duration),
	)
	return hits, nil
}
