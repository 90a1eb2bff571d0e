package query

import (
	"fmt"
	"strings"
	"unicode"
)

// Query is one input sequence. Identity is the position in the input, so
// duplicate sequences stay distinct queries.
type Query struct {
	index    int
	id       string
	sequence string
}

// New validates and normalizes a query. Whitespace is stripped and the
// sequence upper-cased. An empty id defaults to asv_<index+1>.
func New(index int, id, sequence string) (Query, error) {
	if index < 0 {
		return Query{}, fmt.Errorf("query index must be >= 0, got %d", index)
	}
	seq := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, sequence)
	if seq == "" {
		return Query{}, fmt.Errorf("query %d: sequence is empty", index)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultID(index)
	}
	return Query{index: index, id: id, sequence: seq}, nil
}

// FromSequences builds queries from bare sequences, numbering them in order.
func FromSequences(seqs []string) ([]Query, error) {
	out := make([]Query, len(seqs))
	for i, s := range seqs {
		q, err := New(i, "", s)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// DefaultID returns the id given to the query at index when none is supplied.
func DefaultID(index int) string { return fmt.Sprintf("asv_%d", index+1) }

// Index returns the position of the query in its input collection.
func (q Query) Index() int { return q.index }

// ID returns the query identifier.
func (q Query) ID() string { return q.id }

// Sequence returns the normalized sequence.
func (q Query) Sequence() string { return q.sequence }

// Len returns the sequence length.
func (q Query) Len() int { return len(q.sequence) }
