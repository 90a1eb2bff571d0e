package chi

import (
	"context"

	dombatch "github.com/villabioinfo/BLASTr/internal/domain/batch"
	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/record"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	envuc "github.com/villabioinfo/BLASTr/internal/usecase/env"
	healthuc "github.com/villabioinfo/BLASTr/internal/usecase/health"
)

// BatchRunner runs a search batch.
type BatchRunner interface {
	Run(ctx context.Context, queries []query.Query, p params.Params, workers int) (*dombatch.Collection, error)
}

// EnvEnsurer provisions tool environments.
type EnvEnsurer interface {
	Ensure(ctx context.Context, toolName, envName string, verbose, force bool) (envuc.Action, error)
}

// RecordFetcher fetches reference records by accession.
type RecordFetcher interface {
	Records(ctx context.Context, db string, accessions []string, verbose bool) ([]record.Record, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
