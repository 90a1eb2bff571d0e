package search

import (
	"context"

	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/hit"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
)

// Aligner runs one aligner invocation and returns its raw tabular output.
type Aligner interface {
	Align(ctx context.Context, q query.Query, p params.Params) ([]byte, error)
}

// Searcher runs one query and returns its rows.
type Searcher interface {
	Run(ctx context.Context, q query.Query, p params.Params) ([]hit.Hit, error)
}
