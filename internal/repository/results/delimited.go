package results

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	dombatch "github.com/villabioinfo/BLASTr/internal/domain/batch"
	"github.com/villabioinfo/BLASTr/internal/domain/search/schema"
)

// Separator returns the field separator for path: tab for .tsv and .txt,
// comma otherwise.
func Separator(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		return '\t'
	default:
		return ','
	}
}

func header(columns []string) []string {
	h := []string{"batch_id", "query_index", "query_id", "status"}
	h = append(h, columns...)
	return append(h, "reason")
}

func writeDelimited(path string, sep rune, c *dombatch.Collection) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDelimited(f, sep, c); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// EncodeDelimited writes c with a header row to w.
func EncodeDelimited(out io.Writer, sep rune, c *dombatch.Collection) error {
	enc, err := NewTableEncoder(out, sep, c.ID(), c.Schema().Names())
	if err != nil {
		return err
	}
	for _, h := range c.Hits() {
		if err := enc.Row(h.QueryIndex(), h.QueryID(), string(h.Status()), h.Values(), h.Reason()); err != nil {
			return err
		}
	}
	return enc.Flush()
}

// TableEncoder writes the delimited layout row by row:
// batch_id, query_index, query_id, status, <columns...>, reason.
// Null cells are empty.
type TableEncoder struct {
	w       *csv.Writer
	batchID string
	width   int
}

// NewTableEncoder writes the header line for columns and returns the encoder.
func NewTableEncoder(out io.Writer, sep rune, batchID string, columns []string) (*TableEncoder, error) {
	w := csv.NewWriter(out)
	w.Comma = sep
	if err := w.Write(header(columns)); err != nil {
		return nil, err
	}
	return &TableEncoder{w: w, batchID: batchID, width: len(columns)}, nil
}

// Row writes one row. Missing trailing values are written as empty cells.
func (e *TableEncoder) Row(queryIndex int, queryID, status string, values []any, reason string) error {
	rec := make([]string, 0, e.width+5)
	rec = append(rec, e.batchID, strconv.Itoa(queryIndex), queryID, status)
	for i := 0; i < e.width; i++ {
		var v any
		if i < len(values) {
			v = values[i]
		}
		rec = append(rec, schema.Format(v))
	}
	rec = append(rec, reason)
	return e.w.Write(rec)
}

// Flush writes buffered rows to the underlying writer.
func (e *TableEncoder) Flush() error {
	e.w.Flush()
	return e.w.Error()
}
