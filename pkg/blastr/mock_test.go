package blastr

import (
	"context"

	dombatch "github.com/villabioinfo/BLASTr/internal/domain/batch"
	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/record"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	envuc "github.com/villabioinfo/BLASTr/internal/usecase/env"
)

// --- batchUseCase mock ---

type mockBatchUC struct {
	runFn func(ctx context.Context, queries []query.Query, p params.Params, workers int) (*dombatch.Collection, error)
	calls int
}

func (m *mockBatchUC) Run(
	ctx context.Context, queries []query.Query, p params.Params, workers int,
) (*dombatch.Collection, error) {
	m.calls++
	return m.runFn(ctx, queries, p, workers)
}

// --- gateUseCase mock ---

type mockGateUC struct {
	ensureFn func(ctx context.Context, toolName, envName string, verbose, force bool) (envuc.Action, error)
}

func (m *mockGateUC) Ensure(
	ctx context.Context, toolName, envName string, verbose, force bool,
) (envuc.Action, error) {
	return m.ensureFn(ctx, toolName, envName, verbose, force)
}

// --- fetchUseCase mock ---

type mockFetchUC struct {
	recordsFn func(ctx context.Context, db string, accessions []string, verbose bool) ([]record.Record, error)
}

func (m *mockFetchUC) Records(
	ctx context.Context, db string, accessions []string, verbose bool,
) ([]record.Record, error) {
	return m.recordsFn(ctx, db, accessions, verbose)
}

// --- sinkUseCase mock ---

type mockSink struct {
	err          error
	calls        int
	csvPath      string
	snapshotPath string
	got          *dombatch.Collection
}

func (m *mockSink) Persist(_ context.Context, c *dombatch.Collection, csvPath, snapshotPath string) error {
	m.calls++
	m.got = c
	m.csvPath = csvPath
	m.snapshotPath = snapshotPath
	return m.err
}
