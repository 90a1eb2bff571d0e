// Package results persists result collections as delimited text and snapshots.
package results

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/domain"
	dombatch "github.com/villabioinfo/BLASTr/internal/domain/batch"
)

// Sink writes collections to disk.
type Sink struct {
	logger *zap.Logger
}

// NewSink creates a Sink.
func NewSink(logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{logger: logger}
}

// Persist writes c to csvPath and snapshotPath. An empty path skips that
// output. Files are written to a temporary name and renamed into place.
func (s *Sink) Persist(ctx context.Context, c *dombatch.Collection, csvPath, snapshotPath string) error {
	if csvPath != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeAtomic(csvPath, func(tmp string) error {
			return writeDelimited(tmp, Separator(csvPath), c)
		}); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrPersist, csvPath, err)
		}
		s.logger.Info("Results written", zap.String("path", csvPath), zap.Int("rows", c.Len()))
	}
	if snapshotPath != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		write := WriteParquet
		if isJSON(snapshotPath) {
			write = WriteJSON
		}
		if err := writeAtomic(snapshotPath, func(tmp string) error { return write(tmp, c) }); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrPersist, snapshotPath, err)
		}
		s.logger.Info("Snapshot written", zap.String("path", snapshotPath), zap.Int("rows", c.Len()))
	}
	return nil
}

// ReadSnapshot restores a collection written by Persist.
func ReadSnapshot(path string) (*dombatch.Collection, error) {
	if isJSON(path) {
		return ReadJSON(path)
	}
	return ReadParquet(path)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func writeAtomic(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_ = f.Close()

	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
