// Package cmd implements the command-line interface for the parse rules service.
package cmd

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/bootstrap"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

type rootOptions struct {
	configFile string
	rulesFile  string
	debug      bool
	// watch is only set by serve.
	watch bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "parse-rules",
		Short:         "Annotate crawled documents using per-domain query rules",
		Long:          `Selects a query rule for each document by domain, URL pattern and content probe, runs it, and attaches the result as document metadata.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().StringVar(&opts.rulesFile, "rules", "", "rule source, overrides rules.file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(opts),
		newAnnotateCommand(opts),
		newRulesCommand(opts),
		newBatchCommand(opts),
		newVersionCommand(),
	)

	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadApp wires the application with command-line overrides applied.
func (o *rootOptions) loadApp() (*bootstrap.App, error) {
	cfg, err := bootstrap.LoadConfig(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.rulesFile != "" {
		cfg.Rules.File = o.rulesFile
	}
	if o.watch {
		cfg.Rules.Watch = true
	}
	if o.debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}

	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		return nil, err
	}

	app, err := bootstrap.NewWithConfig(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("startup: %w", err)
	}
	return app, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "parse-rules version %s\n", Version)
		},
	}
}
