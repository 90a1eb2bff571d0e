package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the aligner output cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every cached aligner output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !o.cfg.Cache.Enabled() {
				return errors.New("no cache configured (cache.addrs)")
			}
			client, err := o.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := client.PurgeCache(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", n)
			return nil
		},
	})
	return cmd
}
