package blastr

import (
	"io"
	"time"

	"github.com/villabioinfo/BLASTr/internal/domain"
	dombatch "github.com/villabioinfo/BLASTr/internal/domain/batch"
	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/record"
	"github.com/villabioinfo/BLASTr/internal/domain/search/hit"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	"github.com/villabioinfo/BLASTr/internal/domain/search/variant"
	"github.com/villabioinfo/BLASTr/internal/repository/results"
)

// Status tags a result row.
type Status string

// Row statuses.
const (
	StatusHit    Status = Status(hit.StatusHit)
	StatusNoHit  Status = Status(hit.StatusNoHit)
	StatusFailed Status = Status(hit.StatusFailed)
)

// Query is one input sequence with an optional id. An empty id becomes
// asv_<position>.
type Query struct {
	ID       string
	Sequence string
}

// RunOptions configures one batch. Zero values take the defaults listed per field.
type RunOptions struct {
	// Database is the reference database path prefix. Required.
	Database string
	// OutFile receives the delimited table when set. .tsv/.txt are tab
	// separated, anything else comma separated.
	OutFile string
	// SnapshotFile receives a typed snapshot when set: .json as JSON,
	// anything else as Parquet.
	SnapshotFile string
	// Threads per aligner process (default 1). Forced to 1 when Workers > 1.
	Threads int
	// Workers bounds concurrent aligner processes (default 1, sequential).
	Workers int
	// PercentIdentity is the minimum percent identity (default 80).
	PercentIdentity *float64
	// QueryCoverage is the minimum per-HSP query coverage (default 80).
	QueryCoverage *float64
	// MaxAlignments caps target sequences per query (default 4).
	MaxAlignments int
	// Variant is the BLAST program (default blastn).
	Variant string
	// Columns is the outfmt 6 keyword list (default "std qcovs").
	Columns string
	// EnvName overrides the client's aligner environment.
	EnvName string
	// Timeout bounds each aligner process. Zero means none.
	Timeout time.Duration
	Verbose bool
	// SortByQuery restores input order before the result is persisted and returned.
	SortByQuery bool
}

// Percent returns a pointer to v for the RunOptions cutoffs.
func Percent(v float64) *float64 { return &v }

func (o RunOptions) params(defaultEnv string) (params.Params, error) {
	in := params.Defaults()
	in.Database = o.Database
	in.Verbose = o.Verbose
	in.Columns = o.Columns
	in.Timeout = o.Timeout
	if o.PercentIdentity != nil {
		in.PercentIdentity = *o.PercentIdentity
	}
	if o.QueryCoverage != nil {
		in.QueryCoverage = *o.QueryCoverage
	}
	if o.MaxAlignments > 0 {
		in.MaxAlignments = o.MaxAlignments
	}
	if o.Threads > 0 {
		in.Threads = o.Threads
	}
	if o.Variant != "" {
		in.Variant = variant.Variant(o.Variant)
	}
	switch {
	case o.EnvName != "":
		in.EnvName = o.EnvName
	case defaultEnv != "":
		in.EnvName = defaultEnv
	}
	return params.New(in)
}

func (o RunOptions) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return domain.DefaultSearchConfig().Workers
}

func toQueries(qs []Query) ([]query.Query, error) {
	out := make([]query.Query, len(qs))
	for i, q := range qs {
		dq, err := query.New(i, q.ID, q.Sequence)
		if err != nil {
			return nil, err
		}
		out[i] = dq
	}
	return out, nil
}

// Column is one named, typed output column. Kind is string, int or float.
type Column struct {
	Name string
	Kind string
}

// Row is one result row. Values follow Result.Columns; placeholder rows
// carry nil values. Int columns hold int64, float columns float64.
type Row struct {
	QueryIndex int
	QueryID    string
	Status     Status
	Values     []any
	Reason     string
}

// Value returns the cell of the named column.
func (r Row) Value(columns []Column, name string) (any, bool) {
	for i, c := range columns {
		if c.Name == name && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Result is the collected output of one batch.
type Result struct {
	BatchID    string
	QueryCount int
	Columns    []Column
	Rows       []Row
}

// WriteTable writes Columns and Rows with a header line, fields separated by
// sep. It uses the same layout as RunOptions.OutFile.
func (r *Result) WriteTable(w io.Writer, sep rune) error {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	enc, err := results.NewTableEncoder(w, sep, r.BatchID, names)
	if err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := enc.Row(row.QueryIndex, row.QueryID, string(row.Status), row.Values, row.Reason); err != nil {
			return err
		}
	}
	return enc.Flush()
}

// Counts returns the number of rows per status.
func (r *Result) Counts() map[Status]int {
	out := make(map[Status]int, 3)
	for _, row := range r.Rows {
		out[row.Status]++
	}
	return out
}

func resultFromCollection(c *dombatch.Collection) *Result {
	cols := c.Schema().Columns()
	res := &Result{
		BatchID:    c.ID(),
		QueryCount: c.QueryCount(),
		Columns:    make([]Column, len(cols)),
		Rows:       make([]Row, 0, c.Len()),
	}
	for i, col := range cols {
		res.Columns[i] = Column{Name: col.Name(), Kind: string(col.Kind())}
	}
	for _, h := range c.Hits() {
		res.Rows = append(res.Rows, Row{
			QueryIndex: h.QueryIndex(),
			QueryID:    h.QueryID(),
			Status:     Status(h.Status()),
			Values:     h.Values(),
			Reason:     h.Reason(),
		})
	}
	return res
}

// Record is a reference sequence fetched by accession.
type Record struct {
	Accession   string
	Description string
	Sequence    string
}

func recordsFromDomain(rs []record.Record) []Record {
	out := make([]Record, len(rs))
	for i, r := range rs {
		out[i] = Record{Accession: r.Accession(), Description: r.Description(), Sequence: r.Sequence()}
	}
	return out
}
