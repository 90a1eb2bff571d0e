//go:build unix

package blastr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeConda stands in for the package manager: `env list` reports blast-env,
// `run -n ENV TOOL ARGS...` logs the tool and answers like blastn, with one
// row per query except for all-N queries, which match nothing.
const fakeConda = `#!/bin/sh
case "$1" in
env)
	echo '{"envs": ["/opt/conda", "/opt/conda/envs/blast-env"]}'
	;;
run)
	shift 3
	tool=$1
	shift
	q=""
	while [ $# -gt 0 ]; do
		if [ "$1" = "-query" ]; then q=$2; fi
		shift
	done
	echo "$tool" >> "$BLASTR_FAKE_LOG"
	id=$(head -n 1 "$q" | cut -c 2- | cut -d ' ' -f 1)
	if grep -q NNNNNN "$q"; then exit 0; fi
	printf '# BLASTN 2.16.0+\n%s\tref_%s\t99.5\t120\n' "$id" "$id"
	;;
*)
	exit 64
	;;
esac
`

func TestRunQueries_ThroughCondaAndAligner(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "conda")
	if err := os.WriteFile(bin, []byte(fakeConda), 0o755); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(dir, "calls.log")
	t.Setenv("BLASTR_FAKE_LOG", logPath)

	dbPrefix := filepath.Join(dir, "refs")
	if err := os.WriteFile(dbPrefix+".nin", nil, 0o644); err != nil {
		t.Fatal(err)
	}
	queryDir := filepath.Join(dir, "queries")
	if err := os.Mkdir(queryDir, 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := New(context.Background(), WithCondaBinary(bin), WithTempDir(queryDir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	outFile := filepath.Join(dir, "hits.tsv")
	res, err := c.RunQueries(context.Background(), []Query{
		{ID: "otu_1", Sequence: "ACGTACGTACGTTTGA"},
		{ID: "otu_2", Sequence: "NNNNNNNNNNNNNNNN"},
		{Sequence: "ggcctaggcctaggcc"},
	}, RunOptions{
		Database:    dbPrefix,
		Columns:     "qseqid sseqid pident length",
		Workers:     2,
		OutFile:     outFile,
		SortByQuery: true,
	})
	if err != nil {
		t.Fatalf("RunQueries: %v", err)
	}

	if res.QueryCount != 3 || len(res.Rows) != 3 {
		t.Fatalf("query count %d, rows %d", res.QueryCount, len(res.Rows))
	}
	wantIDs := []string{"otu_1", "otu_2", "asv_3"}
	wantStatus := []Status{StatusHit, StatusNoHit, StatusHit}
	for i, row := range res.Rows {
		if row.QueryIndex != i || row.QueryID != wantIDs[i] || row.Status != wantStatus[i] {
			t.Errorf("row %d = %+v", i, row)
		}
	}
	if v, _ := res.Rows[0].Value(res.Columns, "sseqid"); v != "ref_otu_1" {
		t.Errorf("sseqid = %v", v)
	}
	if v, _ := res.Rows[2].Value(res.Columns, "length"); v != int64(120) {
		t.Errorf("length = %#v", v)
	}
	for i, v := range res.Rows[1].Values {
		if v != nil {
			t.Errorf("no_hit value %d = %v, want nil", i, v)
		}
	}

	calls, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Fields(string(calls)); len(got) != 3 || got[0] != "blastn" {
		t.Errorf("aligner calls = %v", got)
	}

	table, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("table file: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(string(table)), "\n"); len(lines) != 4 {
		t.Errorf("table lines = %d, want header + 3", len(lines))
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".parquet") || strings.HasSuffix(e.Name(), ".json") {
			t.Errorf("unexpected snapshot %s", e.Name())
		}
	}
	if left, _ := os.ReadDir(queryDir); len(left) != 0 {
		t.Errorf("query files left behind: %d", len(left))
	}
}
