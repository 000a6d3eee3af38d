package cmd

import (
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/parse-rules/internal/document"
	"github.com/spf13/cobra"
)

func newAnnotateCommand(opts *rootOptions) *cobra.Command {
	var (
		url     string
		baseURL string
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "annotate FILE",
		Short: "Annotate a single stored document",
		Long:  `Parses FILE (XHTML or XML, "-" for stdin), selects the rule for --url and prints the annotation. Nothing is printed when no rule applies or the query result is empty.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				return errors.New("--url is required")
			}

			var (
				doc *document.Document
				err error
			)
			if args[0] == "-" {
				doc, err = document.Parse(cmd.InOrStdin(), baseURL)
			} else {
				doc, err = document.ParseFile(args[0], baseURL)
			}
			if err != nil {
				return err
			}

			app, err := opts.loadApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			out := cmd.OutOrStdout()
			if explain {
				res, selectErr := app.Annotator.Select(cmd.Context(), url, doc)
				if selectErr != nil {
					return selectErr
				}
				if !res.Matched() {
					fmt.Fprintf(out, "no rule for %s %s\n", res.Domain, res.PathAndQuery)
					return nil
				}
				fmt.Fprintf(out, "%s #%d %s -> %s\n", res.Domain, res.Position, res.Rule.Pattern(), res.Rule.QueryPath())
				return nil
			}

			annotation, ok, err := app.Annotator.Annotate(cmd.Context(), url, doc)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(out, annotation)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "URL the document was fetched from")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "resolved base location of the document, defaults to --url")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the selected rule instead of running its query")
	return cmd
}
