package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/config"
	"github.com/villabioinfo/BLASTr/internal/transport/entrez"
	"github.com/villabioinfo/BLASTr/pkg/blastr"
)

type searchFlags struct {
	database      string
	queryFiles    []string
	sequences     []string
	outFile       string
	snapshotFile  string
	threads       int
	workers       int
	identity      float64
	coverage      float64
	maxAlignments int
	variant       string
	columns       string
	blastEnv      string
	timeout       time.Duration
	sort          bool
}

func newSearchCmd(o *rootOptions) *cobra.Command {
	sf := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search query sequences against a local BLAST database",
		Long: `Search query sequences against a local BLAST database

Queries come from FASTA/FASTQ files (-q, ids taken from the records) and/or
raw sequences (-s, id asv_<position in the input>). Every query
yields at least one row: hits, a no_hit row, or a failed row with a reason.

Without -o the table is printed to stdout, tab separated.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			queries, err := readQueries(sf.queryFiles, sf.sequences)
			if err != nil {
				return err
			}
			opts := sf.runOptions(cmd, o.cfg, o.verbose)

			client, err := o.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.RunQueries(cmd.Context(), queries, opts)
			if err != nil {
				return err
			}

			n := res.Counts()
			o.logger.Info("Search finished",
				zap.String("batch_id", res.BatchID),
				zap.Int("queries", res.QueryCount),
				zap.Int("hit_rows", n[blastr.StatusHit]),
				zap.Int("no_hit", n[blastr.StatusNoHit]),
				zap.Int("failed", n[blastr.StatusFailed]),
			)
			if opts.OutFile == "" {
				return res.WriteTable(cmd.OutOrStdout(), '\t')
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&sf.database, "db", "d", "", "reference database path prefix")
	f.StringSliceVarP(&sf.queryFiles, "query", "q", nil, "FASTA/FASTQ query file (repeatable)")
	f.StringArrayVarP(&sf.sequences, "seq", "s", nil, "raw query sequence (repeatable)")
	f.StringVarP(&sf.outFile, "out-file", "o", "", "delimited output: .tsv/.txt tab separated, otherwise comma")
	f.StringVar(&sf.snapshotFile, "snapshot", "", "typed snapshot: .json, otherwise Parquet")
	f.IntVarP(&sf.threads, "threads", "t", 0, "threads per aligner process, forced to 1 with --workers > 1")
	f.IntVarP(&sf.workers, "workers", "j", 0, "concurrent aligner processes")
	f.Float64VarP(&sf.identity, "identity", "i", 0, "minimum percent identity")
	f.Float64Var(&sf.coverage, "coverage", 0, "minimum percent query coverage per HSP")
	f.IntVarP(&sf.maxAlignments, "max-alignments", "n", 0, "maximum target sequences per query")
	f.StringVar(&sf.variant, "variant", "", "BLAST program: blastn, blastp, blastx, tblastn, tblastx")
	f.StringVar(&sf.columns, "columns", "", `outfmt 6 columns (default "std qcovs")`)
	f.StringVar(&sf.blastEnv, "blast-env", "", "environment the aligner runs in")
	f.DurationVar(&sf.timeout, "timeout", 0, "per-query time limit, 0 for none")
	f.BoolVar(&sf.sort, "sort", false, "order rows by input query")
	return cmd
}

// runOptions merges configuration defaults with the flags that were set.
func (sf *searchFlags) runOptions(cmd *cobra.Command, cfg config.Config, verbose bool) blastr.RunOptions {
	s := cfg.Search
	opts := blastr.RunOptions{
		Database:        s.Database,
		OutFile:         sf.outFile,
		SnapshotFile:    sf.snapshotFile,
		Threads:         s.Threads,
		Workers:         s.Workers,
		PercentIdentity: s.PercentIdentity,
		QueryCoverage:   s.QueryCoverage,
		MaxAlignments:   s.MaxAlignments,
		Columns:         s.Columns,
		EnvName:         cfg.Tools.BlastEnv,
		Timeout:         s.Timeout(),
		Verbose:         verbose,
		SortByQuery:     sf.sort,
	}
	changed := cmd.Flags().Changed
	if changed("db") {
		opts.Database = sf.database
	}
	if changed("threads") {
		opts.Threads = sf.threads
	}
	if changed("workers") {
		opts.Workers = sf.workers
	}
	if changed("identity") {
		opts.PercentIdentity = blastr.Percent(sf.identity)
	}
	if changed("coverage") {
		opts.QueryCoverage = blastr.Percent(sf.coverage)
	}
	if changed("max-alignments") {
		opts.MaxAlignments = sf.maxAlignments
	}
	if changed("variant") {
		opts.Variant = sf.variant
	}
	if changed("columns") {
		opts.Columns = sf.columns
	}
	if changed("blast-env") {
		opts.EnvName = sf.blastEnv
	}
	if changed("timeout") {
		opts.Timeout = sf.timeout
	}
	return opts
}

// readQueries loads file records first, then raw sequences.
func readQueries(files, sequences []string) ([]blastr.Query, error) {
	var out []blastr.Query
	for _, path := range files {
		recs, err := entrez.ReadFASTA(path)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("%s: no sequences", path)
		}
		for _, r := range recs {
			out = append(out, blastr.Query{ID: r.Accession(), Sequence: r.Sequence()})
		}
	}
	for _, s := range sequences {
		out = append(out, blastr.Query{Sequence: s})
	}
	if len(out) == 0 {
		return nil, errors.New("no queries: use --query or --seq")
	}
	return out, nil
}
