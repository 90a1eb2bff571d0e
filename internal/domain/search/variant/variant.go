package variant

import "github.com/shenwei356/bio/seq"

// Variant is the BLAST program used for a batch.
type Variant string

// Supported aligner variants.
const (
	// Blastn aligns nucleotide queries to a nucleotide database.
	Blastn  Variant = "blastn"
	Blastp  Variant = "blastp"
	Blastx  Variant = "blastx"
	Tblastn Variant = "tblastn"
	Tblastx Variant = "tblastx"
)

// Default is used when no variant is given.
const Default = Blastn

// IsValid checks if the variant is one of the supported values.
func (v Variant) IsValid() bool {
	switch v {
	case Blastn, Blastp, Blastx, Tblastn, Tblastx:
		return true
	}
	return false
}

// Tool returns the executable name.
func (v Variant) Tool() string { return string(v) }

// QueryAlphabet returns the alphabet the query FASTA is written with.
func (v Variant) QueryAlphabet() *seq.Alphabet {
	switch v {
	case Blastp, Tblastn:
		return seq.Protein
	default:
		return seq.DNAredundant
	}
}

// DatabaseType returns "nucl" or "prot".
func (v Variant) DatabaseType() string {
	switch v {
	case Blastp, Blastx:
		return "prot"
	default:
		return "nucl"
	}
}

// SupportsPercIdentity reports whether the program accepts -perc_identity.
func (v Variant) SupportsPercIdentity() bool { return v == Blastn }
