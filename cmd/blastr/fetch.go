package main

import (
	"fmt"
	"io"
	"os"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/pkg/blastr"
)

const fastaLineWidth = 60

func newFetchCmd(o *rootOptions) *cobra.Command {
	var (
		db      string
		outFile string
	)
	cmd := &cobra.Command{
		Use:   "fetch ACCESSION...",
		Short: "Download reference sequences from NCBI by accession",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := o.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			recs, err := client.Fetch(cmd.Context(), db, args, o.verbose)
			if err != nil {
				return err
			}
			o.logger.Info("Fetched records", zap.Int("requested", len(args)), zap.Int("records", len(recs)))

			if outFile == "" {
				return writeRecords(cmd.OutOrStdout(), recs)
			}
			f, err := os.Create(outFile)
			if err != nil {
				return err
			}
			if err := writeRecords(f, recs); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&db, "db", "nuccore", "NCBI database")
	cmd.Flags().StringVarP(&outFile, "out-file", "o", "", "FASTA output, stdout when empty")
	return cmd
}

// writeRecords writes records as FASTA with the description after the accession.
func writeRecords(w io.Writer, recs []blastr.Record) error {
	for _, r := range recs {
		name := r.Accession
		if r.Description != "" {
			name += " " + r.Description
		}
		rec, err := fastx.NewRecord(seq.Unlimit, []byte(r.Accession), []byte(name), nil, []byte(r.Sequence))
		if err != nil {
			return fmt.Errorf("record %s: %w", r.Accession, err)
		}
		if _, err := w.Write(rec.Format(fastaLineWidth)); err != nil {
			return err
		}
	}
	return nil
}
