package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/villabioinfo/BLASTr/internal/domain"
)

// Kind is the value type of an output column.
type Kind string

// Column kinds.
const (
	String Kind = "string"
	Int    Kind = "int"
	Float  Kind = "float"
)

// missingValue is what BLAST prints for an unavailable numeric cell.
const missingValue = "N/A"

// stdColumns is the expansion of the BLAST "std" keyword.
var stdColumns = []string{
	"qseqid", "sseqid", "pident", "length", "mismatch", "gapopen",
	"qstart", "qend", "sstart", "send", "evalue", "bitscore",
}

// knownKinds types the BLAST tabular keywords. Anything else is a string.
var knownKinds = map[string]Kind{
	"pident": Float, "evalue": Float, "bitscore": Float, "ppos": Float,
	"qcovs": Float, "qcovhsp": Float, "qcovus": Float,
	"length": Int, "mismatch": Int, "gapopen": Int, "gaps": Int,
	"qstart": Int, "qend": Int, "sstart": Int, "send": Int,
	"qlen": Int, "slen": Int, "nident": Int, "positive": Int,
	"score": Int, "qframe": Int, "sframe": Int,
}

// Column is one named, typed output column.
type Column struct {
	name string
	kind Kind
}

// NewColumn validates and creates a Column.
func NewColumn(name string, kind Kind) (Column, error) {
	if name == "" {
		return Column{}, fmt.Errorf("column name is required")
	}
	if strings.ContainsAny(name, " \t\n") {
		return Column{}, fmt.Errorf("column name %q contains whitespace", name)
	}
	switch kind {
	case String, Int, Float:
	default:
		return Column{}, fmt.Errorf("invalid column kind %q for %q", kind, name)
	}
	return Column{name: name, kind: kind}, nil
}

// Name returns the column name.
func (c Column) Name() string { return c.name }

// Kind returns the column value type.
func (c Column) Kind() Kind { return c.kind }

// Schema is the ordered column layout declared for one aligner invocation.
type Schema struct {
	columns []Column
	index   map[string]int
}

// New builds a schema from columns. Names must be unique.
func New(cols ...Column) (Schema, error) {
	if len(cols) == 0 {
		return Schema{}, fmt.Errorf("schema needs at least one column")
	}
	s := Schema{
		columns: make([]Column, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if c.name == "" {
			return Schema{}, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := s.index[c.name]; dup {
			return Schema{}, fmt.Errorf("duplicate column %q", c.name)
		}
		s.columns[i] = c
		s.index[c.name] = i
	}
	return s, nil
}

// Parse builds a schema from a BLAST outfmt keyword list such as
// "qseqid sseqid pident" or "6 std qcovs". A leading format number is
// accepted and must be 6.
func Parse(spec string) (Schema, error) {
	words := strings.Fields(spec)
	if len(words) > 0 {
		if _, err := strconv.Atoi(words[0]); err == nil {
			if words[0] != "6" {
				return Schema{}, fmt.Errorf("only tabular outfmt 6 is supported, got %s", words[0])
			}
			words = words[1:]
		}
	}
	var names []string
	for _, w := range words {
		if w == "std" {
			names = append(names, stdColumns...)
			continue
		}
		names = append(names, w)
	}
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		kind, ok := knownKinds[n]
		if !ok {
			kind = String
		}
		c, err := NewColumn(n, kind)
		if err != nil {
			return Schema{}, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// Default returns the std columns plus query coverage per subject.
func Default() Schema {
	s, err := Parse("std qcovs")
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.columns) }

// Columns returns a copy of the columns.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.name
	}
	return out
}

// IndexOf returns the position of the named column.
func (s Schema) IndexOf(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Spec returns the space separated column names.
func (s Schema) Spec() string { return strings.Join(s.Names(), " ") }

// OutFmt returns the value for the aligner's -outfmt flag.
func (s Schema) OutFmt() string { return "6 " + s.Spec() }

// ParseRow converts one tab separated output row into typed values.
// String cells stay strings, Int cells become int64, Float cells float64.
// "N/A" in a numeric column becomes nil.
func (s Schema) ParseRow(fields []string) ([]any, error) {
	if len(fields) != len(s.columns) {
		return nil, fmt.Errorf("%w: got %d fields, want %d",
			domain.ErrSchemaMismatch, len(fields), len(s.columns))
	}
	values := make([]any, len(fields))
	for i, raw := range fields {
		c := s.columns[i]
		if c.kind != String && raw == missingValue {
			continue
		}
		switch c.kind {
		case Int:
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q: %q is not an integer",
					domain.ErrSchemaMismatch, c.name, raw)
			}
			values[i] = v
		case Float:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q: %q is not a number",
					domain.ErrSchemaMismatch, c.name, raw)
			}
			values[i] = v
		default:
			values[i] = raw
		}
	}
	return values, nil
}

// Format renders a typed value back to its tabular text form. Nil is "".
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Typed returns the lossless text form "name:kind name:kind ...".
func (s Schema) Typed() string {
	parts := make([]string, len(s.columns))
	for i, c := range s.columns {
		parts[i] = c.name + ":" + string(c.kind)
	}
	return strings.Join(parts, " ")
}

// ParseTyped reverses Typed.
func ParseTyped(spec string) (Schema, error) {
	words := strings.Fields(spec)
	cols := make([]Column, 0, len(words))
	for _, w := range words {
		name, kind, ok := strings.Cut(w, ":")
		if !ok {
			return Schema{}, fmt.Errorf("column %q has no kind", w)
		}
		c, err := NewColumn(name, Kind(kind))
		if err != nil {
			return Schema{}, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}
