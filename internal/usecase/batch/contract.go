package batch

import (
	"context"

	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/hit"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	"github.com/villabioinfo/BLASTr/internal/domain/search/variant"
)

// Gate makes a tool runnable inside a named environment.
type Gate interface {
	EnsureTool(ctx context.Context, tool, envName string, verbose, force bool) error
}

// DatabaseChecker verifies the reference database before dispatch.
type DatabaseChecker interface {
	CheckDatabase(prefix string, v variant.Variant) error
}

// DatabaseCheckFunc adapts a function to DatabaseChecker.
type DatabaseCheckFunc func(prefix string, v variant.Variant) error

// CheckDatabase implements DatabaseChecker.
func (f DatabaseCheckFunc) CheckDatabase(prefix string, v variant.Variant) error { return f(prefix, v) }

// Searcher runs one query and returns its rows.
type Searcher interface {
	Run(ctx context.Context, q query.Query, p params.Params) ([]hit.Hit, error)
}
