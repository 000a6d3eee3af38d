package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/rules"
	"github.com/spf13/cobra"
)

func newRulesCommand(opts *rootOptions) *cobra.Command {
	var (
		domain string
		plain  bool
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Load the rule source and list its rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.loadApp()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			idx := app.Rules.Store.Current()
			if plain {
				renderPlain(cmd.OutOrStdout(), idx, domain)
				return nil
			}
			renderTable(cmd.OutOrStdout(), idx, domain)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "only list rules for this domain")
	cmd.Flags().BoolVar(&plain, "plain", false, "print each domain followed by its tab-indented patterns")
	return cmd
}

// renderTable prints one row per rule.
func renderTable(w io.Writer, idx *rules.Index, domain string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Domain", "#", "Pattern", "Probe", "Query"})

	idx.Each(func(position int, r *rules.Rule) {
		if domain != "" && r.Domain() != domain {
			return
		}
		t.AppendRow(table.Row{r.Domain(), position, r.Pattern(), r.ProbeSource(), r.QueryPath()})
	})

	t.AppendFooter(table.Row{"", "", "", "Rules", idx.Len()})
	t.Render()
}

// renderPlain prints each domain followed by its patterns in load order.
func renderPlain(w io.Writer, idx *rules.Index, domain string) {
	last := ""
	idx.Each(func(_ int, r *rules.Rule) {
		if domain != "" && r.Domain() != domain {
			return
		}
		if r.Domain() != last {
			fmt.Fprintln(w, r.Domain())
			last = r.Domain()
		}
		fmt.Fprintf(w, "\t%s\n", r.Pattern())
	})
}
