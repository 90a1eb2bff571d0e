package params

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/villabioinfo/BLASTr/internal/domain"
	"github.com/villabioinfo/BLASTr/internal/domain/search/schema"
	"github.com/villabioinfo/BLASTr/internal/domain/search/variant"
)

// Input is the unvalidated form of Params as callers supply it.
type Input struct {
	Database        string          `json:"database" validate:"required"`
	PercentIdentity float64         `json:"percent_identity" validate:"gte=0,lte=100"`
	QueryCoverage   float64         `json:"query_coverage" validate:"gte=0,lte=100"`
	MaxAlignments   int             `json:"max_alignments" validate:"gte=1"`
	Threads         int             `json:"threads" validate:"gte=1"`
	Variant         variant.Variant `json:"variant" validate:"blast_variant"`
	Verbose         bool            `json:"verbose"`
	// Columns is a BLAST outfmt keyword list. Empty means schema.Default().
	Columns string        `json:"columns"`
	EnvName string        `json:"env_name" validate:"required"`
	Timeout time.Duration `json:"timeout" validate:"gte=0"`
}

// Defaults returns an Input with every optional field at its default.
func Defaults() Input {
	d := domain.DefaultSearchConfig()
	return Input{
		PercentIdentity: d.PercentIdentity,
		QueryCoverage:   d.QueryCoverage,
		MaxAlignments:   d.MaxAlignments,
		Threads:         d.Threads,
		Variant:         variant.Default,
		EnvName:         d.EnvName,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the blast_variant tag registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("blast_variant", func(fl validator.FieldLevel) bool {
			return variant.Variant(fl.Field().String()).IsValid()
		})
	})
	return validate
}

// Params is the immutable parameter bundle shared by every query of a batch.
type Params struct {
	database      string
	pident        float64
	qcov          float64
	maxAlignments int
	threads       int
	variant       variant.Variant
	verbose       bool
	schema        schema.Schema
	envName       string
	timeout       time.Duration
}

// New validates in and builds Params.
func New(in Input) (Params, error) {
	if err := Validator().Struct(in); err != nil {
		return Params{}, fmt.Errorf("%w: %v", domain.ErrInvalidParams, err)
	}
	s := schema.Default()
	if in.Columns != "" {
		var err error
		s, err = schema.Parse(in.Columns)
		if err != nil {
			return Params{}, fmt.Errorf("%w: columns: %v", domain.ErrInvalidParams, err)
		}
	}
	return Params{
		database:      in.Database,
		pident:        in.PercentIdentity,
		qcov:          in.QueryCoverage,
		maxAlignments: in.MaxAlignments,
		threads:       in.Threads,
		variant:       in.Variant,
		verbose:       in.Verbose,
		schema:        s,
		envName:       in.EnvName,
		timeout:       in.Timeout,
	}, nil
}

// Database returns the reference database path prefix.
func (p Params) Database() string { return p.database }

// PercentIdentity returns the identity cutoff.
func (p Params) PercentIdentity() float64 { return p.pident }

// QueryCoverage returns the per-HSP query coverage cutoff.
func (p Params) QueryCoverage() float64 { return p.qcov }

// MaxAlignments returns the maximum number of target sequences per query.
func (p Params) MaxAlignments() int { return p.maxAlignments }

// Threads returns the per-search thread count.
func (p Params) Threads() int { return p.threads }

// Variant returns the aligner program.
func (p Params) Variant() variant.Variant { return p.variant }

// Verbose reports whether tool output should be echoed.
func (p Params) Verbose() bool { return p.verbose }

// Schema returns the declared output columns.
func (p Params) Schema() schema.Schema { return p.schema }

// EnvName returns the conda environment the aligner runs in.
func (p Params) EnvName() string { return p.envName }

// Timeout returns the per-invocation timeout. Zero means none.
func (p Params) Timeout() time.Duration { return p.timeout }

// WithThreads returns a copy with the thread count replaced.
func (p Params) WithThreads(n int) Params {
	if n < 1 {
		n = 1
	}
	p.threads = n
	return p
}

// Args builds the aligner argument list for a query file.
func (p Params) Args(queryPath string) []string {
	args := []string{
		"-query", queryPath,
		"-db", p.database,
		"-outfmt", p.schema.OutFmt(),
		"-num_threads", strconv.Itoa(p.threads),
	}
	if p.variant.SupportsPercIdentity() {
		args = append(args, "-perc_identity", formatFloat(p.pident))
	}
	return append(args,
		"-qcov_hsp_perc", formatFloat(p.qcov),
		"-max_target_seqs", strconv.Itoa(p.maxAlignments),
	)
}

// Fingerprint identifies the parameters that change aligner output.
// Threads, verbosity, env and timeout are excluded.
func (p Params) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%d\x00%s",
		p.variant, p.database, formatFloat(p.pident), formatFloat(p.qcov),
		p.maxAlignments, p.schema.OutFmt())
	return hex.EncodeToString(h.Sum(nil))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
