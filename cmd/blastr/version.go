package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/villabioinfo/BLASTr/internal/domain/tool"
	"github.com/villabioinfo/BLASTr/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and pinned tool packages",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, version.String())
			seen := make(map[string]bool)
			for _, name := range tool.Supported() {
				pkg, err := tool.Lookup(name)
				if err != nil || seen[pkg.Name] {
					continue
				}
				seen[pkg.Name] = true
				fmt.Fprintf(out, "  %s::%s\n", pkg.Channel, pkg.Spec())
			}
			return nil
		},
	}
}
