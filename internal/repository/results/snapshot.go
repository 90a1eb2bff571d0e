package results

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"

	dombatch "github.com/villabioinfo/BLASTr/internal/domain/batch"
	"github.com/villabioinfo/BLASTr/internal/domain/search/hit"
	"github.com/villabioinfo/BLASTr/internal/domain/search/schema"
)

// Parquet key-value metadata carrying collection-level fields.
const (
	metaBatchID    = "blastr.batch_id"
	metaQueryCount = "blastr.query_count"
	metaSchema     = "blastr.schema"
)

// nullCell marks a null value in text form. Numeric parsing maps it back to nil.
const nullCell = "N/A"

// snapshotRow is one Parquet row. Values keep the text form of each cell.
type snapshotRow struct {
	BatchID    string   `parquet:"batch_id,dict"`
	QueryIndex int64    `parquet:"query_index"`
	QueryID    string   `parquet:"query_id"`
	Status     string   `parquet:"status,dict"`
	Values     []string `parquet:"values,list"`
	Reason     string   `parquet:"reason"`
}

// WriteParquet writes c as a Parquet file.
func WriteParquet(path string, c *dombatch.Collection) error {
	rows := make([]snapshotRow, 0, c.Len())
	for _, h := range c.Hits() {
		row := snapshotRow{
			BatchID:    c.ID(),
			QueryIndex: int64(h.QueryIndex()),
			QueryID:    h.QueryID(),
			Status:     string(h.Status()),
			Reason:     h.Reason(),
		}
		if !h.IsPlaceholder() {
			row.Values = make([]string, 0, c.Schema().Len())
			for _, v := range h.Values() {
				if v == nil {
					row.Values = append(row.Values, nullCell)
					continue
				}
				row.Values = append(row.Values, schema.Format(v))
			}
		}
		rows = append(rows, row)
	}
	return parquet.WriteFile(path, rows,
		parquet.KeyValueMetadata(metaBatchID, c.ID()),
		parquet.KeyValueMetadata(metaQueryCount, strconv.Itoa(c.QueryCount())),
		parquet.KeyValueMetadata(metaSchema, c.Schema().Typed()),
	)
}

// ReadParquet restores a collection written by WriteParquet.
func ReadParquet(path string) (*dombatch.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	id, _ := pf.Lookup(metaBatchID)
	countText, _ := pf.Lookup(metaQueryCount)
	schemaText, ok := pf.Lookup(metaSchema)
	if !ok {
		return nil, fmt.Errorf("%s: missing %s metadata", path, metaSchema)
	}
	s, err := schema.ParseTyped(schemaText)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	count, err := strconv.Atoi(countText)
	if err != nil {
		return nil, fmt.Errorf("%s: query count %q: %w", path, countText, err)
	}

	rows, err := parquet.Read[snapshotRow](f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	hits := make([]hit.Hit, 0, len(rows))
	for i, r := range rows {
		var values []any
		if hit.Status(r.Status) == hit.StatusHit {
			values, err = s.ParseRow(r.Values)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", path, i, err)
			}
		} else {
			values = make([]any, s.Len())
		}
		h, err := hit.Restore(int(r.QueryIndex), r.QueryID, hit.Status(r.Status), s, values, r.Reason)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		hits = append(hits, h)
	}
	return dombatch.NewCollection(id, count, s, hits), nil
}

type jsonColumn struct {
	Name string      `json:"name"`
	Kind schema.Kind `json:"kind"`
}

type jsonRow struct {
	QueryIndex int    `json:"query_index"`
	QueryID    string `json:"query_id"`
	Status     string `json:"status"`
	Values     []any  `json:"values"`
	Reason     string `json:"reason,omitempty"`
}

type jsonSnapshot struct {
	BatchID    string       `json:"batch_id"`
	QueryCount int          `json:"query_count"`
	Columns    []jsonColumn `json:"columns"`
	Rows       []jsonRow    `json:"rows"`
}

// WriteJSON writes c as one JSON document.
func WriteJSON(path string, c *dombatch.Collection) error {
	doc := jsonSnapshot{
		BatchID:    c.ID(),
		QueryCount: c.QueryCount(),
		Rows:       make([]jsonRow, 0, c.Len()),
	}
	for _, col := range c.Schema().Columns() {
		doc.Columns = append(doc.Columns, jsonColumn{Name: col.Name(), Kind: col.Kind()})
	}
	for _, h := range c.Hits() {
		doc.Rows = append(doc.Rows, jsonRow{
			QueryIndex: h.QueryIndex(),
			QueryID:    h.QueryID(),
			Status:     string(h.Status()),
			Values:     h.Values(),
			Reason:     h.Reason(),
		})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON restores a collection written by WriteJSON.
func ReadJSON(path string) (*dombatch.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var doc jsonSnapshot
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	cols := make([]schema.Column, 0, len(doc.Columns))
	for _, jc := range doc.Columns {
		c, err := schema.NewColumn(jc.Name, jc.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cols = append(cols, c)
	}
	s, err := schema.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	hits := make([]hit.Hit, 0, len(doc.Rows))
	for i, r := range doc.Rows {
		values, err := decodeValues(s, r.Values)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		h, err := hit.Restore(r.QueryIndex, r.QueryID, hit.Status(r.Status), s, values, r.Reason)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		hits = append(hits, h)
	}
	return dombatch.NewCollection(doc.BatchID, doc.QueryCount, s, hits), nil
}

func decodeValues(s schema.Schema, raw []any) ([]any, error) {
	if len(raw) != s.Len() {
		return nil, fmt.Errorf("got %d values for %d columns", len(raw), s.Len())
	}
	cols := s.Columns()
	out := make([]any, len(raw))
	for i, v := range raw {
		if v == nil {
			continue
		}
		switch cols[i].Kind() {
		case schema.Int:
			n, ok := v.(json.Number)
			if !ok {
				return nil, fmt.Errorf("column %q: want number, got %T", cols[i].Name(), v)
			}
			x, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", cols[i].Name(), err)
			}
			out[i] = x
		case schema.Float:
			n, ok := v.(json.Number)
			if !ok {
				return nil, fmt.Errorf("column %q: want number, got %T", cols[i].Name(), v)
			}
			x, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", cols[i].Name(), err)
			}
			out[i] = x
		default:
			str, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("column %q: want string, got %T", cols[i].Name(), v)
			}
			out[i] = str
		}
	}
	return out, nil
}
