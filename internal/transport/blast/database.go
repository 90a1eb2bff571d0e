package blast

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/villabioinfo/BLASTr/internal/domain"
	"github.com/villabioinfo/BLASTr/internal/domain/search/variant"
)

// indexSuffixes lists the files that mark a BLAST database prefix, by
// molecule letter: volume index, alias file and v5 lookup database.
var indexSuffixes = []string{"in", "al", "db"}

// CheckDatabase verifies that prefix names a readable BLAST database of the
// type v searches. Multi-volume databases (prefix.00.nin, ...) are accepted.
func CheckDatabase(prefix string, v variant.Variant) error {
	if prefix == "" {
		return fmt.Errorf("%w: empty path", domain.ErrDatabaseNotFound)
	}
	letter := "n"
	if v.DatabaseType() == "prot" {
		letter = "p"
	}

	candidates := make([]string, 0, len(indexSuffixes)+1)
	for _, s := range indexSuffixes {
		candidates = append(candidates, prefix+"."+letter+s)
	}
	if vols, err := filepath.Glob(prefix + ".*." + letter + "in"); err == nil {
		candidates = append(candidates, vols...)
	}

	for _, c := range candidates {
		f, err := os.Open(c)
		if err != nil {
			continue
		}
		_ = f.Close()
		return nil
	}
	return fmt.Errorf("%w: no %s database at %s", domain.ErrDatabaseNotFound, v.DatabaseType(), prefix)
}
