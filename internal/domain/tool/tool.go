package tool

import (
	"sort"

	"github.com/villabioinfo/BLASTr/internal/domain"
)

// Package is a pinned conda package coordinate.
type Package struct {
	Name    string
	Version string
	Channel string
}

// Spec returns the conda match spec, e.g. "blast==2.16.0".
func (p Package) Spec() string { return p.Name + "==" + p.Version }

var (
	blast        = Package{Name: "blast", Version: "2.16.0", Channel: "bioconda"}
	entrezDirect = Package{Name: "entrez-direct", Version: "22.4", Channel: "bioconda"}
)

// registry maps executable names to the package that ships them.
var registry = map[string]Package{
	"blastn":      blast,
	"blastp":      blast,
	"blastx":      blast,
	"tblastn":     blast,
	"tblastx":     blast,
	"makeblastdb": blast,
	"blastdbcmd":  blast,
	"efetch":      entrezDirect,
	"esearch":     entrezDirect,
}

// Lookup resolves an executable name to its pinned package.
func Lookup(name string) (Package, error) {
	p, ok := registry[name]
	if !ok {
		return Package{}, domain.NewToolError(name, "lookup", domain.ErrUnsupportedTool)
	}
	return p, nil
}

// Supported returns the known executable names in sorted order.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
