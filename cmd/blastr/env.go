package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnvCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage tool environments",
	}

	var (
		envName string
		force   bool
	)
	ensure := &cobra.Command{
		Use:   "ensure TOOL",
		Short: "Make a tool runnable in its environment, creating it when missing",
		Example: `  blastr env ensure blastn
  blastr env ensure efetch --name entrez-env
  blastr env ensure blastn --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := envName
			if name == "" {
				name = o.cfg.Tools.BlastEnv
				if args[0] == "efetch" || args[0] == "esearch" {
					name = o.cfg.Tools.EntrezEnv
				}
			}

			client, err := o.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			action, err := client.EnsureTool(cmd.Context(), args[0], name, o.verbose, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", args[0], name, action)
			return nil
		},
	}
	ensure.Flags().StringVarP(&envName, "name", "n", "", "environment name")
	ensure.Flags().BoolVarP(&force, "force", "f", false, "recreate the environment")

	cmd.AddCommand(ensure)
	return cmd
}
