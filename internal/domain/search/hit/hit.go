package hit

import (
	"fmt"

	"github.com/villabioinfo/BLASTr/internal/domain/query"
	"github.com/villabioinfo/BLASTr/internal/domain/search/schema"
)

// Status tags how a row came to exist.
type Status string

// Row status values.
const (
	// StatusHit is a real aligner row.
	StatusHit Status = "hit"
	// StatusNoHit is the placeholder for a query the aligner found nothing for.
	StatusNoHit Status = "no_hit"
	// StatusFailed is the placeholder for a query whose search failed.
	StatusFailed Status = "failed"
)

// IsValid checks if the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusHit, StatusNoHit, StatusFailed:
		return true
	}
	return false
}

// Hit is one row of a result collection.
type Hit struct {
	queryIndex int
	queryID    string
	status     Status
	schema     schema.Schema
	values     []any
	reason     string
}

// New creates a real aligner row. values must follow the schema order.
func New(q query.Query, s schema.Schema, values []any) (Hit, error) {
	if len(values) != s.Len() {
		return Hit{}, fmt.Errorf("hit for %s: %d values for %d columns", q.ID(), len(values), s.Len())
	}
	v := make([]any, len(values))
	copy(v, values)
	return Hit{
		queryIndex: q.Index(),
		queryID:    q.ID(),
		status:     StatusHit,
		schema:     s,
		values:     v,
	}, nil
}

// NoHit creates the single placeholder row for a query without alignments.
func NoHit(q query.Query, s schema.Schema) Hit {
	return placeholder(q, s, StatusNoHit, "")
}

// Failed creates the single placeholder row for a query whose search failed.
func Failed(q query.Query, s schema.Schema, reason string) Hit {
	return placeholder(q, s, StatusFailed, reason)
}

func placeholder(q query.Query, s schema.Schema, st Status, reason string) Hit {
	return Hit{
		queryIndex: q.Index(),
		queryID:    q.ID(),
		status:     st,
		schema:     s,
		values:     make([]any, s.Len()),
		reason:     reason,
	}
}

// Restore reconstructs a Hit from persisted fields.
func Restore(queryIndex int, queryID string, st Status, s schema.Schema, values []any, reason string) (Hit, error) {
	if !st.IsValid() {
		return Hit{}, fmt.Errorf("invalid hit status %q", st)
	}
	if len(values) != s.Len() {
		return Hit{}, fmt.Errorf("hit for %s: %d values for %d columns", queryID, len(values), s.Len())
	}
	v := make([]any, len(values))
	copy(v, values)
	return Hit{
		queryIndex: queryIndex,
		queryID:    queryID,
		status:     st,
		schema:     s,
		values:     v,
		reason:     reason,
	}, nil
}

// QueryIndex returns the index of the originating query.
func (h Hit) QueryIndex() int { return h.queryIndex }

// QueryID returns the id of the originating query.
func (h Hit) QueryID() string { return h.queryID }

// Status returns the row status.
func (h Hit) Status() Status { return h.status }

// Schema returns the column layout of the row.
func (h Hit) Schema() schema.Schema { return h.schema }

// Reason returns the failure reason for failed rows.
func (h Hit) Reason() string { return h.reason }

// IsPlaceholder reports whether the row stands in for a query without real rows.
func (h Hit) IsPlaceholder() bool { return h.status != StatusHit }

// Values returns a copy of the typed values in schema order.
func (h Hit) Values() []any {
	out := make([]any, len(h.values))
	copy(out, h.values)
	return out
}

// Value returns the value of the named column.
func (h Hit) Value(name string) (any, bool) {
	i, ok := h.schema.IndexOf(name)
	if !ok {
		return nil, false
	}
	return h.values[i], true
}

// Float returns a numeric column as float64. Missing or null cells report false.
func (h Hit) Float(name string) (float64, bool) {
	v, ok := h.Value(name)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	}
	return 0, false
}
