// Package blast runs BLAST programs against a local database.
package blast

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	"github.com/villabioinfo/BLASTr/internal/transport/conda"
)

// fastaLineWidth is the residue wrap width of query files.
const fastaLineWidth = 60

// EnvRunner runs a tool inside a named environment.
type EnvRunner interface {
	Run(ctx context.Context, inv conda.Invocation) error
}

// Config holds the aligner settings.
type Config struct {
	Runner EnvRunner
	// TempDir holds query files. Empty means os.TempDir().
	TempDir string
	Logger  *zap.Logger
}

// Aligner runs one BLAST invocation per query.
type Aligner struct {
	runner  EnvRunner
	tempDir string
	logger  *zap.Logger
}

// NewAligner creates an Aligner.
func NewAligner(cfg *Config) *Aligner {
	a := &Aligner{runner: cfg.Runner, tempDir: cfg.TempDir, logger: cfg.Logger}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Align writes q to a temporary FASTA file, runs the configured variant and
// returns its raw tabular stdout. The query file is removed on every path.
func (a *Aligner) Align(ctx context.Context, q query.Query, p params.Params) ([]byte, error) {
	path, err := a.writeQuery(q, p.Variant().QueryAlphabet())
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			a.logger.Warn("remove query file", zap.String("path", path), zap.Error(rmErr))
		}
	}()

	var out bytes.Buffer
	err = a.runner.Run(ctx, conda.Invocation{
		Env:     p.EnvName(),
		Tool:    p.Variant().Tool(),
		Args:    p.Args(path),
		Stdout:  &out,
		Verbose: p.Verbose(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", p.Variant(), q.ID(), err)
	}
	return out.Bytes(), nil
}

func (a *Aligner) writeQuery(q query.Query, alphabet *seq.Alphabet) (string, error) {
	id := []byte(q.ID())
	rec, err := fastx.NewRecord(alphabet, id, id, []byte{}, []byte(q.Sequence()))
	if err != nil {
		return "", fmt.Errorf("query %s: %w", q.ID(), err)
	}

	f, err := os.CreateTemp(a.tempDir, "blastr-query-*.fa")
	if err != nil {
		return "", fmt.Errorf("create query file: %w", err)
	}
	if _, err := f.Write(rec.Format(fastaLineWidth)); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write query file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close query file: %w", err)
	}
	return f.Name(), nil
}
