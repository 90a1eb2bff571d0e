package batch

import (
	"slices"
	"sort"

	"github.com/villabioinfo/BLASTr/internal/domain/search/hit"
	"github.com/villabioinfo/BLASTr/internal/domain/search/schema"
)

// Collection is the merged output of one batch. Rows from a parallel run
// arrive in completion order; rows of one query keep aligner order.
type Collection struct {
	id         string
	queryCount int
	schema     schema.Schema
	hits       []hit.Hit
}

// NewCollection wraps hits produced for queryCount input queries.
func NewCollection(id string, queryCount int, s schema.Schema, hits []hit.Hit) *Collection {
	h := make([]hit.Hit, len(hits))
	copy(h, hits)
	return &Collection{id: id, queryCount: queryCount, schema: s, hits: h}
}

// ID returns the batch id.
func (c *Collection) ID() string { return c.id }

// QueryCount returns the number of input queries.
func (c *Collection) QueryCount() int { return c.queryCount }

// Schema returns the column layout shared by every row.
func (c *Collection) Schema() schema.Schema { return c.schema }

// Len returns the number of rows.
func (c *Collection) Len() int { return len(c.hits) }

// Hits returns a copy of the rows.
func (c *Collection) Hits() []hit.Hit {
	out := make([]hit.Hit, len(c.hits))
	copy(out, c.hits)
	return out
}

// DistinctQueries returns how many different query indices have rows.
func (c *Collection) DistinctQueries() int {
	seen := make(map[int]struct{}, c.queryCount)
	for _, h := range c.hits {
		seen[h.QueryIndex()] = struct{}{}
	}
	return len(seen)
}

// Groups returns rows keyed by query index.
func (c *Collection) Groups() map[int][]hit.Hit {
	out := make(map[int][]hit.Hit, c.queryCount)
	for _, h := range c.hits {
		out[h.QueryIndex()] = append(out[h.QueryIndex()], h)
	}
	return out
}

// SortedByQuery returns a copy with rows in input query order.
func (c *Collection) SortedByQuery() *Collection {
	h := c.Hits()
	sort.SliceStable(h, func(i, j int) bool {
		return h[i].QueryIndex() < h[j].QueryIndex()
	})
	return &Collection{id: c.id, queryCount: c.queryCount, schema: c.schema, hits: h}
}

// Missing returns the input indices in [0, QueryCount) without any row.
func (c *Collection) Missing() []int {
	groups := c.Groups()
	var out []int
	for i := 0; i < c.queryCount; i++ {
		if _, ok := groups[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// Counts tallies rows by status.
type Counts struct {
	Hit    int
	NoHit  int
	Failed int
}

// Counts returns the number of rows per status.
func (c *Collection) Counts() Counts {
	var n Counts
	for _, h := range c.hits {
		switch h.Status() {
		case hit.StatusHit:
			n.Hit++
		case hit.StatusNoHit:
			n.NoHit++
		case hit.StatusFailed:
			n.Failed++
		}
	}
	return n
}

// FailedQueries returns the sorted indices of queries with a failed row.
func (c *Collection) FailedQueries() []int {
	var out []int
	for _, h := range c.hits {
		if h.Status() == hit.StatusFailed {
			out = append(out, h.QueryIndex())
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
