package fetch

import (
	"context"

	"github.com/villabioinfo/BLASTr/internal/domain/record"
)

// Gate makes a tool runnable inside a named environment.
type Gate interface {
	EnsureTool(ctx context.Context, tool, envName string, verbose, force bool) error
}

// Fetcher retrieves records by accession from an Entrez database.
type Fetcher interface {
	Fetch(ctx context.Context, db string, accessions []string) ([]record.Record, error)
}
