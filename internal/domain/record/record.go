package record

import (
	"fmt"
	"strings"
)

// Record is one reference sequence returned by the fetch tool.
type Record struct {
	accession   string
	description string
	sequence    string
}

// New validates and creates a Record.
func New(accession, description, sequence string) (Record, error) {
	accession = strings.TrimSpace(accession)
	if accession == "" {
		return Record{}, fmt.Errorf("record accession is required")
	}
	if sequence == "" {
		return Record{}, fmt.Errorf("record %s: sequence is empty", accession)
	}
	return Record{
		accession:   accession,
		description: strings.TrimSpace(description),
		sequence:    sequence,
	}, nil
}

// Accession returns the versioned accession, e.g. "MN908947.3".
func (r Record) Accession() string { return r.accession }

// Description returns the FASTA header text after the accession.
func (r Record) Description() string { return r.description }

// Sequence returns the residues.
func (r Record) Sequence() string { return r.sequence }

// Len returns the sequence length.
func (r Record) Len() int { return len(r.sequence) }
