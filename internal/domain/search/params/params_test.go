package params

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/villabioinfo/BLASTr/internal/domain"
	"github.com/villabioinfo/BLASTr/internal/domain/search/variant"
)

func validInput() Input {
	in := Defaults()
	in.Database = "/refs/silva"
	return in
}

func TestNew_Defaults(t *testing.T) {
	p, err := New(validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PercentIdentity() != 80 || p.QueryCoverage() != 80 {
		t.Errorf("cutoffs = %v/%v", p.PercentIdentity(), p.QueryCoverage())
	}
	if p.MaxAlignments() != 4 || p.Threads() != 1 {
		t.Errorf("max/threads = %d/%d", p.MaxAlignments(), p.Threads())
	}
	if p.Variant() != variant.Blastn || p.EnvName() != "blast-env" {
		t.Errorf("variant/env = %s/%s", p.Variant(), p.EnvName())
	}
	if p.Schema().Len() != 13 {
		t.Errorf("default schema has %d columns", p.Schema().Len())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing database", func(in *Input) { in.Database = "" }},
		{"identity over 100", func(in *Input) { in.PercentIdentity = 101 }},
		{"negative coverage", func(in *Input) { in.QueryCoverage = -1 }},
		{"zero alignments", func(in *Input) { in.MaxAlignments = 0 }},
		{"zero threads", func(in *Input) { in.Threads = 0 }},
		{"unknown variant", func(in *Input) { in.Variant = "megablast" }},
		{"missing env", func(in *Input) { in.EnvName = "" }},
		{"negative timeout", func(in *Input) { in.Timeout = -time.Second }},
		{"bad columns", func(in *Input) { in.Columns = "qseqid qseqid" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := New(in)
			if !errors.Is(err, domain.ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestWithThreads_DoesNotMutate(t *testing.T) {
	in := validInput()
	in.Threads = 8
	p, _ := New(in)

	q := p.WithThreads(1)
	if q.Threads() != 1 {
		t.Errorf("copy threads = %d", q.Threads())
	}
	if p.Threads() != 8 {
		t.Errorf("original threads = %d, want 8", p.Threads())
	}
	if p.WithThreads(0).Threads() != 1 {
		t.Error("thread count must be at least 1")
	}
}

func TestArgs_Blastn(t *testing.T) {
	in := validInput()
	in.Columns = "qseqid sseqid"
	p, _ := New(in)

	want := []string{
		"-query", "/tmp/q.fa",
		"-db", "/refs/silva",
		"-outfmt", "6 qseqid sseqid",
		"-num_threads", "1",
		"-perc_identity", "80",
		"-qcov_hsp_perc", "80",
		"-max_target_seqs", "4",
	}
	if got := p.Args("/tmp/q.fa"); !slices.Equal(got, want) {
		t.Errorf("Args() =\n%v\nwant\n%v", got, want)
	}
}

func TestArgs_ProteinOmitsPercIdentity(t *testing.T) {
	in := validInput()
	in.Variant = variant.Blastp
	in.QueryCoverage = 72.5
	p, _ := New(in)

	args := p.Args("q.fa")
	if slices.Contains(args, "-perc_identity") {
		t.Errorf("blastp args must not carry -perc_identity: %v", args)
	}
	i := slices.Index(args, "-qcov_hsp_perc")
	if i < 0 || args[i+1] != "72.5" {
		t.Errorf("qcov arg missing or wrong: %v", args)
	}
}

func TestFingerprint(t *testing.T) {
	p, _ := New(validInput())

	if p.Fingerprint() != p.WithThreads(16).Fingerprint() {
		t.Error("thread count must not change the fingerprint")
	}

	in := validInput()
	in.PercentIdentity = 97
	other, _ := New(in)
	if p.Fingerprint() == other.Fingerprint() {
		t.Error("identity cutoff must change the fingerprint")
	}
}
