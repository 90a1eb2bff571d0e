package variant

import (
	"testing"

	"github.com/shenwei356/bio/seq"
)

func TestIsValid(t *testing.T) {
	for _, v := range []Variant{Blastn, Blastp, Blastx, Tblastn, Tblastx} {
		if !v.IsValid() {
			t.Errorf("%q should be valid", v)
		}
	}
	for _, v := range []Variant{"", "diamond", "BLASTN"} {
		if v.IsValid() {
			t.Errorf("%q should be invalid", v)
		}
	}
}

func TestDatabaseType(t *testing.T) {
	tests := map[Variant]string{
		Blastn: "nucl", Tblastn: "nucl", Tblastx: "nucl",
		Blastp: "prot", Blastx: "prot",
	}
	for v, want := range tests {
		if got := v.DatabaseType(); got != want {
			t.Errorf("%s.DatabaseType() = %q, want %q", v, got, want)
		}
	}
}

func TestQueryAlphabet(t *testing.T) {
	if Blastn.QueryAlphabet() != seq.DNAredundant {
		t.Error("blastn queries are nucleotide")
	}
	if Blastp.QueryAlphabet() != seq.Protein {
		t.Error("blastp queries are protein")
	}
	if Blastx.QueryAlphabet() != seq.DNAredundant {
		t.Error("blastx queries are nucleotide")
	}
}

func TestSupportsPercIdentity(t *testing.T) {
	if !Blastn.SupportsPercIdentity() {
		t.Error("blastn supports -perc_identity")
	}
	if Blastp.SupportsPercIdentity() {
		t.Error("blastp does not support -perc_identity")
	}
}
