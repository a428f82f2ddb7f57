package main

import (
	"os"

	"github.com/eosguide/relief-finder/internal/ingest"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured sources in scrape priority order",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ingest.LoadRegistry("")
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"ID", "Name", "Strategy", "Max", "Base URL"})
			for _, src := range reg.Sources {
				t.AppendRow(table.Row{src.ID, src.Name, src.Strategy, src.MaxItems, src.BaseURL})
			}
			t.Render()
			return nil
		},
	}
}
