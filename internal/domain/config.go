package domain

// KeyPrefix namespaces every key blastr writes to the cache store.
const KeyPrefix = "blastr:"

// SearchDefaults holds the parameter values used when a caller leaves them unset.
type SearchDefaults struct {
	EnvName         string
	PercentIdentity float64
	QueryCoverage   float64
	MaxAlignments   int
	Threads         int
	Workers         int
}

// DefaultSearchConfig returns defaults suited to short amplicon queries.
func DefaultSearchConfig() SearchDefaults {
	return SearchDefaults{
		EnvName:         "blast-env",
		PercentIdentity: 80,
		QueryCoverage:   80,
		MaxAlignments:   4,
		Threads:         1,
		Workers:         1,
	}
}
