package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/batch"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
	"github.com/spf13/cobra"
)

func newBatchCommand(opts *rootOptions) *cobra.Command {
	var (
		output      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch MANIFEST",
		Short: "Annotate every document listed in a JSONL manifest",
		Long: `Each manifest line is {"url": ..., "base_url": ..., "path": ...}; paths are
relative to the manifest. Writes url<TAB>annotation for each annotated document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.loadApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			manifest, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			defer manifest.Close()

			var out io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, createErr := os.Create(output)
				if createErr != nil {
					return fmt.Errorf("create output: %w", createErr)
				}
				defer f.Close()
				out = f
			}

			if concurrency <= 0 {
				concurrency = app.Config.Batch.Concurrency
			}

			runner := batch.NewRunner(app.Annotator, concurrency, app.Logger)
			stats, err := runner.Run(cmd.Context(), manifest, filepath.Dir(args[0]), out)
			if err != nil {
				return err
			}
			if stats.Failed > 0 {
				app.Logger.Warn("Some documents failed", logger.Int("failed", int(stats.Failed)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write results to this file instead of stdout")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "documents processed in parallel (default batch.concurrency)")
	return cmd
}
