package fetch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/domain"
	"github.com/villabioinfo/BLASTr/internal/domain/record"
	"github.com/villabioinfo/BLASTr/internal/logger"
)

// fetchTool is the executable the gate provisions.
const fetchTool = "efetch"

// Service retrieves reference records. It is independent of the search path.
type Service struct {
	gate    Gate
	fetcher Fetcher
	envName string
}

// New creates a fetch service running efetch in envName.
func New(gate Gate, fetcher Fetcher, envName string) *Service {
	return &Service{gate: gate, fetcher: fetcher, envName: envName}
}

// Records fetches accessions from db. Blank and repeated accessions are
// dropped; the remaining order is kept.
func (s *Service) Records(ctx context.Context, db string, accessions []string, verbose bool) ([]record.Record, error) {
	ids := normalize(accessions)
	if len(ids) == 0 {
		return nil, nil
	}

	if err := s.gate.EnsureTool(ctx, fetchTool, s.envName, verbose, false); err != nil {
		return nil, fmt.Errorf("ensure %s: %w", fetchTool, err)
	}

	recs, err := s.fetcher.Fetch(ctx, db, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	logger.FromContext(ctx).Info("Records fetched",
		zap.String("db", db),
		zap.Int("requested", len(ids)),
		zap.Int("returned", len(recs)),
	)
	return recs, nil
}

func normalize(accessions []string) []string {
	seen := make(map[string]struct{}, len(accessions))
	out := make([]string, 0, len(accessions))
	for _, a := range accessions {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
