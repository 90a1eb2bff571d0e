package hit

import (
	"testing"

	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/schema"
)

func testQuery(t *testing.T) query.Query {
	t.Helper()
	q, err := query.New(2, "", "acgt")
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func TestNew_CarriesQueryIdentity(t *testing.T) {
	s, _ := schema.Parse("qseqid sseqid pident length")
	q := testQuery(t)
	values := []any{"asv_3", "ref1", 99.1, int64(100)}

	h, err := New(q, s, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.QueryIndex() != 2 || h.QueryID() != "asv_3" {
		t.Errorf("identity = (%d, %q)", h.QueryIndex(), h.QueryID())
	}
	if h.Status() != StatusHit || h.IsPlaceholder() {
		t.Errorf("Status() = %q", h.Status())
	}

	values[1] = "mutated"
	if v, _ := h.Value("sseqid"); v != "ref1" {
		t.Errorf("hit must not share the caller slice, got %v", v)
	}
	if f, ok := h.Float("length"); !ok || f != 100 {
		t.Errorf("Float(length) = %v, %v", f, ok)
	}
	if _, ok := h.Float("sseqid"); ok {
		t.Error("Float on a string column should report false")
	}
	if _, ok := h.Value("bitscore"); ok {
		t.Error("Value on an unknown column should report false")
	}
}

func TestNew_WrongArity(t *testing.T) {
	s, _ := schema.Parse("qseqid sseqid")
	if _, err := New(testQuery(t), s, []any{"x"}); err == nil {
		t.Error("expected error")
	}
}

func TestPlaceholders(t *testing.T) {
	s := schema.Default()
	q := testQuery(t)

	tests := []struct {
		name   string
		h      Hit
		status Status
		reason string
	}{
		{"no hit", NoHit(q, s), StatusNoHit, ""},
		{"failed", Failed(q, s, "exit status 2"), StatusFailed, "exit status 2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.h.Status() != tc.status {
				t.Errorf("Status() = %q, want %q", tc.h.Status(), tc.status)
			}
			if !tc.h.IsPlaceholder() {
				t.Error("expected placeholder")
			}
			if tc.h.Reason() != tc.reason {
				t.Errorf("Reason() = %q", tc.h.Reason())
			}
			vals := tc.h.Values()
			if len(vals) != s.Len() {
				t.Fatalf("len(Values()) = %d", len(vals))
			}
			for i, v := range vals {
				if v != nil {
					t.Errorf("value %d = %v, want nil", i, v)
				}
			}
		})
	}
}

func TestRestore(t *testing.T) {
	s, _ := schema.Parse("qseqid")
	if _, err := Restore(0, "q", "bogus", s, []any{"q"}, ""); err == nil {
		t.Error("expected error for invalid status")
	}
	h, err := Restore(4, "q", StatusFailed, s, []any{nil}, "boom")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.QueryIndex() != 4 || h.Reason() != "boom" {
		t.Errorf("restored = %+v", h)
	}
}
