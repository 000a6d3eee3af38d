package cmd

import (
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP annotation service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.watch = opts.watch || watch
			app, err := opts.loadApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			return app.Serve(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "reload rules when the rule source changes")
	return cmd
}
