package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/config"
	logpkg "github.com/villabioinfo/BLASTr/internal/logger"
	"github.com/villabioinfo/BLASTr/pkg/blastr"
)

// rootOptions carries global flags and what PersistentPreRunE derives from them.
type rootOptions struct {
	env         string
	configPath  string
	verbose     bool
	condaBinary string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "blastr",
		Short:         "Run BLAST searches for batches of sequences",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if o.logger != nil {
				_ = o.logger.Sync()
			}
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&o.env, "env", config.GetEnv(), "configuration environment, reads config/<env>.yaml when present")
	f.StringVarP(&o.configPath, "config", "c", "", "configuration file, overrides --env")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging and tool output")
	f.StringVar(&o.condaBinary, "conda", "", "package manager executable (conda, mamba, micromamba)")

	cmd.AddCommand(
		newSearchCmd(o),
		newFetchCmd(o),
		newEnvCmd(o),
		newCacheCmd(o),
		newServeCmd(o),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	var err error
	if o.configPath != "" {
		o.cfg, err = config.LoadFile(o.configPath)
	} else {
		o.cfg, err = config.LoadOrDefault(o.env)
	}
	if err != nil {
		return err
	}
	if o.condaBinary != "" {
		o.cfg.Tools.CondaBinary = o.condaBinary
		if err := o.cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	if cmd.Name() == "serve" {
		o.logger, err = logpkg.NewLogger(o.env, o.cfg.Logging.Level)
	} else {
		o.logger, err = logpkg.NewCLILogger(o.verbose)
	}
	return err
}

// client builds a library client from the loaded configuration.
func (o *rootOptions) client(ctx context.Context) (*blastr.Client, error) {
	opts := []blastr.Option{
		blastr.WithCondaBinary(o.cfg.Tools.CondaBinary),
		blastr.WithChannels(o.cfg.Tools.Channels...),
		blastr.WithEnv(o.cfg.Tools.BlastEnv),
		blastr.WithEntrezEnv(o.cfg.Tools.EntrezEnv),
		blastr.WithTempDir(o.cfg.Tools.TempDir),
		blastr.WithLogger(o.logger),
	}
	if c := o.cfg.Cache; c.Enabled() {
		if c.Driver == "valkey" {
			opts = append(opts, blastr.WithValkey(c.Addrs[0], c.Password))
		} else {
			opts = append(opts, blastr.WithRedis(c.Addrs[0], c.Password))
		}
		opts = append(opts, blastr.WithCacheTTL(c.TTL()))
	}
	return blastr.New(ctx, opts...)
}
