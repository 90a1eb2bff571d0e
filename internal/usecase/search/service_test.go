package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/villabioinfo/BLASTr/internal/domain"
	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/hit"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	"github.com/villabioinfo/BLASTr/internal/domain/search/variant"
	"github.com/villabioinfo/BLASTr/internal/logger"
	"github.com/villabioinfo/BLASTr/internal/metrics"
	"github.com/villabioinfo/BLASTr/internal/process"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

type mockAligner struct {
	out      string
	err      error
	deadline bool
	calls    int
}

func (m *mockAligner) Align(ctx context.Context, _ query.Query, _ params.Params) ([]byte, error) {
	m.calls++
	_, m.deadline = ctx.Deadline()
	return []byte(m.out), m.err
}

func newParams(t *testing.T, mutate func(*params.Input)) params.Params {
	t.Helper()
	in := params.Defaults()
	in.Database = "/refs/db"
	in.Columns = "qseqid sseqid pident length"
	if mutate != nil {
		mutate(&in)
	}
	p, err := params.New(in)
	if err != nil {
		t.Fatalf("params.New: %v", err)
	}
	return p
}

func newQuery(t *testing.T) query.Query {
	t.Helper()
	q, err := query.New(5, "", "ACGT")
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func TestRun_Rows(t *testing.T) {
	a := &mockAligner{out: "# BLASTN 2.16.0+\n" +
		"asv_6\trefA\t99.5\t250\n" +
		"\n" +
		"asv_6\trefB\t98.0\t248\r\n"}
	hits, err := New(a).Run(context.Background(), newQuery(t), newParams(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("rows = %d, want 2", len(hits))
	}
	for _, h := range hits {
		if h.QueryIndex() != 5 || h.QueryID() != "asv_6" || h.Status() != hit.StatusHit {
			t.Errorf("row identity = %d/%s/%s", h.QueryIndex(), h.QueryID(), h.Status())
		}
	}
	if v, _ := hits[1].Value("sseqid"); v != "refB" {
		t.Errorf("aligner order not kept: %v", v)
	}
	if v, _ := hits[1].Value("length"); v != int64(248) {
		t.Errorf("trailing CR not stripped: %#v", v)
	}
	if a.deadline {
		t.Error("no deadline expected without a timeout")
	}
}

func TestRun_ZeroHitsIsOnePlaceholder(t *testing.T) {
	for _, out := range []string{"", "# no hits\n", "\n\n"} {
		hits, err := New(&mockAligner{out: out}).Run(context.Background(), newQuery(t), newParams(t, nil))
		if err != nil {
			t.Fatalf("zero hits must not be an error: %v", err)
		}
		if len(hits) != 1 || hits[0].Status() != hit.StatusNoHit {
			t.Fatalf("output %q: rows = %d", out, len(hits))
		}
		if hits[0].QueryIndex() != 5 {
			t.Errorf("placeholder query index = %d", hits[0].QueryIndex())
		}
	}
}

func TestRun_AlignerFailure(t *testing.T) {
	boom := errors.New("exit status 2")
	_, err := New(&mockAligner{err: boom}).Run(context.Background(), newQuery(t), newParams(t, nil))
	if !errors.Is(err, domain.ErrSearchFailed) || !errors.Is(err, boom) {
		t.Errorf("expected ErrSearchFailed wrapping cause, got %v", err)
	}
}

func TestRun_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{"missing column", "asv_6\trefA\t99.5\n"},
		{"bad number", "asv_6\trefA\tn/a%\t250\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(&mockAligner{out: tc.out}).Run(context.Background(), newQuery(t), newParams(t, nil))
			if !errors.Is(err, domain.ErrSearchFailed) || !errors.Is(err, domain.ErrSchemaMismatch) {
				t.Errorf("expected ErrSearchFailed + ErrSchemaMismatch, got %v", err)
			}
		})
	}
}

func TestRun_Timeout(t *testing.T) {
	a := &mockAligner{}
	p := newParams(t, func(in *params.Input) { in.Timeout = time.Minute })
	if _, err := New(a).Run(context.Background(), newQuery(t), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.deadline {
		t.Error("expected a deadline on the aligner context")
	}
}

func TestParseOutput_IdentityFilterForProteinVariants(t *testing.T) {
	out := []byte("asv_6\trefA\t95.0\t100\nasv_6\trefB\t60.0\t100\n")
	q := newQuery(t)

	blastx := newParams(t, func(in *params.Input) { in.Variant = variant.Blastx })
	hits, err := ParseOutput(out, q, blastx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("blastx rows = %d, want 1 after identity filter", len(hits))
	}

	blastn := newParams(t, nil)
	hits, _ = ParseOutput(out, q, blastn)
	if len(hits) != 2 {
		t.Errorf("blastn rows = %d, want 2 (aligner filters natively)", len(hits))
	}
}

func TestParseOutput_AllFilteredBecomesNoHit(t *testing.T) {
	a := &mockAligner{out: "asv_6\trefB\t60.0\t100\n"}
	p := newParams(t, func(in *params.Input) { in.Variant = variant.Tblastx })
	hits, err := New(a).Run(context.Background(), newQuery(t), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Status() != hit.StatusNoHit {
		t.Errorf("rows = %+v", hits)
	}
}

type mockSearcher struct {
	hits []hit.Hit
	err  error
}

func (m *mockSearcher) Run(_ context.Context, _ query.Query, _ params.Params) ([]hit.Hit, error) {
	return m.hits, m.err
}

func TestInstrumentedSearcher(t *testing.T) {
	q := newQuery(t)
	p := newParams(t, func(in *params.Input) { in.Variant = variant.Tblastn; in.Columns = "qseqid sseqid" })
	noHit := metrics.SearchesTotal.WithLabelValues("tblastn", "no_hit")
	failed := metrics.SearchesTotal.WithLabelValues("tblastn", "failed")
	beforeNoHit, beforeFailed := testutil.ToFloat64(noHit), testutil.ToFloat64(failed)

	s := NewInstrumentedSearcher(&mockSearcher{hits: []hit.Hit{hit.NoHit(q, p.Schema())}})
	if _, err := s.Run(context.Background(), q, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(noHit); got != beforeNoHit+1 {
		t.Errorf("no_hit counter = %v, want %v", got, beforeNoHit+1)
	}

	boom := errors.New("boom")
	s = NewInstrumentedSearcher(&mockSearcher{err: boom})
	if _, err := s.Run(context.Background(), q, p); !errors.Is(err, boom) {
		t.Fatalf("expected inner error, got %v", err)
	}
	if got := testutil.ToFloat64(failed); got != beforeFailed+1 {
		t.Errorf("failed counter = %v, want %v", got, beforeFailed+1)
	}
}

func TestInstrumentedSearcher_LogsExitCode(t *testing.T) {
	exitErr := process.NewExec(nil).Run(context.Background(), process.Request{
		Name: "sh", Args: []string{"-c", "exit 3"},
	})
	if exitErr == nil {
		t.Fatal("expected a failing process")
	}
	inner := &mockSearcher{err: fmt.Errorf("%w: asv_6: %w", domain.ErrSearchFailed, exitErr)}

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))
	q := newQuery(t)
	p := newParams(t, nil)

	if _, err := NewInstrumentedSearcher(inner).Run(ctx, q, p); !errors.Is(err, domain.ErrSearchFailed) {
		t.Fatalf("expected ErrSearchFailed, got %v", err)
	}
	entries := logs.FilterMessage("Search failed").All()
	if len(entries) != 1 {
		t.Fatalf("warn entries = %d", len(entries))
	}
	if code := entries[0].ContextMap()["exit_code"]; code != int64(3) {
		t.Errorf("exit_code = %#v, want 3", code)
	}
}
