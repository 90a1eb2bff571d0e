package search

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/villabioinfo/BLASTr/internal/domain"
	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/hit"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
)

// maxLineSize bounds one output row. Rows with sseq/qseq columns can be long.
const maxLineSize = 16 << 20

// Service runs single-query searches.
type Service struct {
	aligner Aligner
}

// New creates a search service.
func New(aligner Aligner) *Service {
	return &Service{aligner: aligner}
}

// Run aligns q and returns its rows in aligner order. A query without
// alignments yields exactly one no_hit row and no error. Aligner failures
// and unparseable output return an error wrapping domain.ErrSearchFailed.
func (s *Service) Run(ctx context.Context, q query.Query, p params.Params) ([]hit.Hit, error) {
	if t := p.Timeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	out, err := s.aligner.Align(ctx, q, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSearchFailed, q.ID(), err)
	}

	hits, err := ParseOutput(out, q, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSearchFailed, q.ID(), err)
	}
	if len(hits) == 0 {
		return []hit.Hit{hit.NoHit(q, p.Schema())}, nil
	}
	return hits, nil
}

// ParseOutput converts tabular aligner output into rows for q. Blank and
// '#' comment lines are skipped. For variants without a native identity
// cutoff, rows below p.PercentIdentity() are dropped when the schema has a
// pident column.
func ParseOutput(out []byte, q query.Query, p params.Params) ([]hit.Hit, error) {
	s := p.Schema()
	filter := !p.Variant().SupportsPercIdentity() && p.PercentIdentity() > 0

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var hits []hit.Hit
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		values, err := s.ParseRow(strings.Split(text, "\t"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		h, err := hit.New(q, s, values)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if filter {
			if pid, ok := h.Float("pident"); ok && pid < p.PercentIdentity() {
				continue
			}
		}
		hits = append(hits, h)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return hits, nil
}
